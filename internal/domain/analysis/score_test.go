package analysis

import "testing"

func TestScoreFailureAlwaysCritical(t *testing.T) {
	res := Failure("slither", "solc crashed")
	for _, tool := range []string{ToolSlither, "slither", ToolMaian, "nonsense"} {
		if got := Score(tool, res); got != 100 {
			t.Errorf("Score(%q, failure) = %d, want 100", tool, got)
		}
	}
}

func TestScoreSlitherWeights(t *testing.T) {
	tests := []struct {
		name    string
		impacts []string
		want    int
	}{
		{"clean", nil, 0},
		{"single high", []string{"High"}, 30},
		{"mixed", []string{"High", "Medium", "Low"}, 60},
		{"unknown impact defaults", []string{"Informational"}, 20},
		{"clamped at 100", []string{"High", "High", "High", "High"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Result{Success: true, Tool: "slither"}
			for _, impact := range tt.impacts {
				res.Detectors = append(res.Detectors, Detector{Check: "x", Impact: impact})
			}
			if got := Score(ToolSlither, res); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreMythrilSeverities(t *testing.T) {
	res := Result{
		Success: true,
		Tool:    "mythril",
		Issues: []Issue{
			{Title: "Reentrancy", Severity: "High"},
			{Title: "Timestamp", Severity: "Low"},
			{Title: "Odd", Severity: "Unrated"},
		},
	}
	if got := Score(ToolMythril, res); got != 60 {
		t.Errorf("Score = %d, want 60", got)
	}
}

func TestScoreEchidna(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want int
	}{
		{
			"all passed",
			Result{Success: true, Tool: "echidna", Tests: []PropertyTest{{Name: "echidna_balance", Status: "passed"}}},
			0,
		},
		{
			"two failed one errored",
			Result{Success: true, Tool: "echidna", Tests: []PropertyTest{
				{Name: "a", Status: "failed"},
				{Name: "b", Status: "failed"},
				{Name: "c", Status: "error"},
				{Name: "d", Status: "passed"},
			}},
			60,
		},
		{
			"unparsed raw output carries unknown risk",
			Result{Success: true, Tool: "echidna", Output: "echidna could not parse config"},
			10,
		},
		{
			"no tests no output",
			Result{Success: true, Tool: "echidna"},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(ToolEchidna, tt.res); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreKeywordEngines(t *testing.T) {
	tests := []struct {
		name   string
		tool   string
		output string
		want   int
	}{
		{"maian vulnerable", ToolMaian, "Contract is VULNERABLE to suicide", 25},
		{"maian two keywords", ToolMaian, "vulnerable: ether leak found", 50},
		{"maian clean text scores unknown risk", ToolMaian, "No issues identified", 10},
		{"maian empty output", ToolMaian, "", 0},
		{"smartcheck severity lines", ToolSmartCheck, "ruleId: SOLIDITY_TX_ORIGIN\nseverity: 2", 25},
		{"manticore assertion and crash", ToolManticore, "ASSERTION failure, crash at 0x40", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Result{Success: true, Tool: engineOf(tt.tool), Output: tt.output}
			if got := Score(tt.tool, res); got != tt.want {
				t.Errorf("Score(%q) = %d, want %d", tt.tool, got, tt.want)
			}
		})
	}
}

func TestScoreUnknownToolOnSuccess(t *testing.T) {
	res := Result{Success: true, Tool: "other", Output: "anything"}
	if got := Score("other-analyze", res); got != 0 {
		t.Errorf("Score = %d, want 0", got)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	res := Result{Success: true, Tool: "slither", Detectors: []Detector{{Impact: "High"}, {Impact: "Low"}}}
	first := Score(ToolSlither, res)
	for i := 0; i < 10; i++ {
		if got := Score(ToolSlither, res); got != first {
			t.Fatalf("Score changed between calls: %d then %d", first, got)
		}
	}
}
