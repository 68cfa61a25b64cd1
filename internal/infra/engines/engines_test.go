package engines

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// fakeRunner records the command it was asked to run and plays back a canned
// outcome.
type fakeRunner struct {
	name string
	args []string

	out domain.Outcome
	err error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (domain.Outcome, error) {
	f.name = name
	f.args = args
	return f.out, f.err
}

func argvString(f *fakeRunner) string {
	return f.name + " " + strings.Join(f.args, " ")
}

func TestSlitherFindingsDespiteNonZeroExit(t *testing.T) {
	report := `{"results":{"detectors":[{"check":"reentrancy-eth","impact":"High","confidence":"High","description":"Reentrancy in withdraw()","elements":[{"name":"withdraw","type":"function"}]}]}}`
	runner := &fakeRunner{out: domain.Outcome{ExitCode: 255, Stdout: []byte(report)}}
	s := NewSlither("slither", runner)

	res := s.Analyze(context.Background(), "/tmp/c.sol", map[string]any{})
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if len(res.Detectors) != 1 || res.Detectors[0].Check != "reentrancy-eth" {
		t.Errorf("Detectors = %+v", res.Detectors)
	}
	if res.Detectors[0].Impact != "High" {
		t.Errorf("Impact = %q", res.Detectors[0].Impact)
	}
	if !strings.Contains(argvString(runner), "--json -") {
		t.Errorf("argv missing json flag: %s", argvString(runner))
	}
}

func TestSlitherDetectorFilters(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{Stdout: []byte(`{"results":{"detectors":[]}}`)}}
	s := NewSlither("slither", runner)

	s.Analyze(context.Background(), "/tmp/c.sol", map[string]any{
		"exclude_detectors": []any{"naming-convention", "pragma"},
		"include_detectors": []any{"reentrancy-eth"},
	})

	argv := argvString(runner)
	if !strings.Contains(argv, "--exclude naming-convention,pragma") {
		t.Errorf("argv missing exclude: %s", argv)
	}
	if !strings.Contains(argv, "--include reentrancy-eth") {
		t.Errorf("argv missing include: %s", argv)
	}
}

func TestSlitherNoOutputIsFailure(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{ExitCode: 1, Stderr: []byte("solc not found")}}
	s := NewSlither("slither", runner)

	res := s.Analyze(context.Background(), "/tmp/c.sol", nil)
	if res.Success {
		t.Fatal("Success = true, want failure")
	}
	if res.Error != "solc not found" {
		t.Errorf("Error = %q", res.Error)
	}
	if res.Output != "" || res.Detectors != nil {
		t.Errorf("failure envelope carries payload: %+v", res)
	}
}

func TestSlitherFormatElidesAfterFive(t *testing.T) {
	s := NewSlither("slither", &fakeRunner{})
	res := domain.Result{Success: true, Tool: "slither"}
	for i := 0; i < 8; i++ {
		res.Detectors = append(res.Detectors, domain.Detector{Check: "c", Elements: []domain.Element{{Name: "f"}}})
	}
	out := s.Format(res, "slither_3")
	if !strings.Contains(out, "and 3 more detectors") {
		t.Errorf("Format output missing elision: %q", out)
	}
	if !strings.Contains(out, "slither_3") {
		t.Errorf("Format output missing analysis id: %q", out)
	}
}

func TestMythrilDepthMapping(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"standard default", map[string]any{}, "12"},
		{"quick pins shallow", map[string]any{"analysis_mode": "quick", "max_depth": float64(40)}, "3"},
		{"deep doubles", map[string]any{"analysis_mode": "deep", "max_depth": float64(20)}, "40"},
		{"deep capped at 50", map[string]any{"analysis_mode": "deep", "max_depth": float64(40)}, "50"},
		{"explicit depth", map[string]any{"max_depth": float64(7)}, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: domain.Outcome{Stdout: []byte(`{"issues":[]}`)}}
			m := NewMythril("myth", runner)
			m.Analyze(context.Background(), "/tmp/c.sol", tt.args)
			argv := argvString(runner)
			if !strings.Contains(argv, "--max-depth "+tt.want) {
				t.Errorf("argv = %s, want depth %s", argv, tt.want)
			}
			if !strings.HasPrefix(argv, "myth analyze /tmp/c.sol -o json") {
				t.Errorf("argv = %s", argv)
			}
		})
	}
}

func TestMythrilIssueParsing(t *testing.T) {
	report := `{"issues":[{"title":"Integer Overflow","description":"Add overflows","severity":"High","swc-id":"101"}]}`
	runner := &fakeRunner{out: domain.Outcome{ExitCode: 1, Stdout: []byte(report)}}
	m := NewMythril("myth", runner)

	res := m.Analyze(context.Background(), "/tmp/c.sol", nil)
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if len(res.Issues) != 1 || res.Issues[0].SWCID != "101" {
		t.Errorf("Issues = %+v", res.Issues)
	}
}

func TestMythrilRawFallbackKeepsOutput(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{Stdout: []byte("The analysis was completed successfully. No issues were detected.")}}
	m := NewMythril("myth", runner)

	res := m.Analyze(context.Background(), "/tmp/c.sol", nil)
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if res.Note != "Could not parse JSON output, showing raw results" {
		t.Errorf("Note = %q", res.Note)
	}
	if !strings.Contains(res.Output, "No issues were detected") {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestMythrilEmptyOutputIsFailure(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{ExitCode: 1, Stderr: []byte("Solc experienced a fatal error")}}
	m := NewMythril("myth", runner)

	res := m.Analyze(context.Background(), "/tmp/c.sol", nil)
	if res.Success {
		t.Fatal("Success = true, want failure")
	}
	if res.Error != "Solc experienced a fatal error" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestEchidnaArgvAndParsing(t *testing.T) {
	report := `{"tests":[{"name":"echidna_no_drain","contract":"Vault","status":"failed","error":"balance dropped"}]}`
	runner := &fakeRunner{out: domain.Outcome{ExitCode: 1, Stdout: []byte(report)}}
	e := NewEchidna("echidna", runner)

	res := e.Analyze(context.Background(), "/tmp/c.sol", map[string]any{
		"contract_name": "Vault",
		"timeout":       float64(120),
		"seed":          float64(42),
	})
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if len(res.Tests) != 1 || res.Tests[0].Status != "failed" {
		t.Errorf("Tests = %+v", res.Tests)
	}

	argv := argvString(runner)
	for _, want := range []string{
		"--contract Vault",
		"--format json",
		"--test-mode property",
		"--timeout 120",
		"--test-limit 50000",
		"--seq-len 100",
		"--workers 1",
		"--seed 42",
	} {
		if !strings.Contains(argv, want) {
			t.Errorf("argv = %s, missing %q", argv, want)
		}
	}
}

func TestEchidnaOptionClamping(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{Stdout: []byte(`{"tests":[]}`)}}
	e := NewEchidna("echidna", runner)

	e.Analyze(context.Background(), "/tmp/c.sol", map[string]any{
		"timeout":    float64(5),
		"test_limit": float64(10),
		"workers":    float64(99),
	})
	argv := argvString(runner)
	for _, want := range []string{"--timeout 10", "--test-limit 100", "--workers 8"} {
		if !strings.Contains(argv, want) {
			t.Errorf("argv = %s, missing %q", argv, want)
		}
	}
}

func TestEchidnaUnparseableJSONKeptVerbatim(t *testing.T) {
	raw := "echidna: Couldn't compile your contracts"
	runner := &fakeRunner{out: domain.Outcome{Stdout: []byte(raw), Stderr: []byte("warning: old solc")}}
	e := NewEchidna("echidna", runner)

	res := e.Analyze(context.Background(), "/tmp/c.sol", nil)
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if res.Output != raw {
		t.Errorf("Output = %q, want verbatim text", res.Output)
	}
	if res.Note == "" {
		t.Error("Note is empty, want parse-fallback note")
	}
	if res.Warnings != "warning: old solc" {
		t.Errorf("Warnings = %q", res.Warnings)
	}
}

func TestMaianSolidityRequiresContractName(t *testing.T) {
	runner := &fakeRunner{}
	m := NewMaian("python3", "maian.py", runner)

	res := m.Analyze(context.Background(), "/tmp/c.sol", map[string]any{"analysis_type": "suicidal"})
	if res.Success {
		t.Fatal("Success = true, want failure")
	}
	if res.Error != "contract_name is required for Solidity source analysis" {
		t.Errorf("Error = %q", res.Error)
	}
	if runner.name != "" {
		t.Errorf("engine was invoked: %s", argvString(runner))
	}
}

func TestMaianArgv(t *testing.T) {
	tests := []struct {
		name string
		path string
		args map[string]any
		want string
	}{
		{
			"solidity prodigal",
			"/tmp/c.sol",
			map[string]any{"contract_name": "Wallet", "analysis_type": "prodigal"},
			"python3 maian.py -s /tmp/c.sol Wallet -c 1",
		},
		{
			"bytecode greedy",
			"/tmp/c.bin",
			map[string]any{"analysis_type": "greedy"},
			"python3 maian.py -b /tmp/c.bin -c 2",
		},
		{
			"unknown type falls back to suicidal",
			"/tmp/c.bin",
			map[string]any{"analysis_type": "weird"},
			"python3 maian.py -b /tmp/c.bin -c 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: domain.Outcome{Stdout: []byte("No issues")}}
			m := NewMaian("python3", "maian.py", runner)
			m.Analyze(context.Background(), tt.path, tt.args)
			if got := argvString(runner); got != tt.want {
				t.Errorf("argv = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSmartCheckRules(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{Stdout: []byte("ruleId: SOLIDITY_TX_ORIGIN")}}
	s := NewSmartCheck("smartcheck", runner)

	res := s.Analyze(context.Background(), "/tmp/c.sol", map[string]any{
		"rules": []any{"SOLIDITY_TX_ORIGIN", "SOLIDITY_PRAGMA"},
	})
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	want := "smartcheck -p /tmp/c.sol -rule SOLIDITY_TX_ORIGIN -rule SOLIDITY_PRAGMA"
	if got := argvString(runner); got != want {
		t.Errorf("argv = %q, want %q", got, want)
	}
}

func TestManticorePartialSuccess(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{
		ExitCode: 1,
		Stdout:   []byte("Found 1 bug: reachable assertion"),
		Stderr:   []byte("manticore: workspace left in /tmp/mcore_x"),
	}}
	m := NewManticore("manticore", runner)

	res := m.Analyze(context.Background(), "/tmp/c.sol", nil)
	if !res.Success {
		t.Fatalf("Success = false, error = %q", res.Error)
	}
	if res.Warnings == "" {
		t.Error("Warnings empty, want stderr preserved")
	}
	if !strings.Contains(res.Output, "reachable assertion") {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestManticoreWorkspaceFlag(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{Stdout: []byte("done")}}
	m := NewManticore("manticore", runner)
	m.Analyze(context.Background(), "/tmp/c.sol", map[string]any{"output_dir": "/tmp/ws"})
	if got := argvString(runner); got != "manticore /tmp/c.sol --workspace /tmp/ws" {
		t.Errorf("argv = %q", got)
	}
}

func TestTextEngineExitCodeAuthoritative(t *testing.T) {
	runner := &fakeRunner{out: domain.Outcome{ExitCode: 2, Stderr: []byte("java.lang.OutOfMemoryError")}}
	s := NewSmartCheck("smartcheck", runner)

	res := s.Analyze(context.Background(), "/tmp/c.sol", nil)
	if res.Success {
		t.Fatal("Success = true, want failure")
	}
	if res.Error != "java.lang.OutOfMemoryError" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestRunnerErrorBecomesFailureEnvelope(t *testing.T) {
	runner := &fakeRunner{err: errors.New("slither terminated: context deadline exceeded")}
	s := NewSlither("slither", runner)

	res := s.Analyze(context.Background(), "/tmp/c.sol", nil)
	if res.Success {
		t.Fatal("Success = true, want failure")
	}
	if !strings.Contains(res.Error, "deadline exceeded") {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Config{
		SlitherBin:    "slither",
		MythrilBin:    "myth",
		EchidnaBin:    "echidna",
		MaianScript:   "maian.py",
		SmartCheckBin: "smartcheck",
		ManticoreBin:  "manticore",
		PythonBin:     "python3",
	}, &fakeRunner{})

	defs := r.Definitions()
	want := []string{
		domain.ToolSlither,
		domain.ToolMythril,
		domain.ToolEchidna,
		domain.ToolMaian,
		domain.ToolSmartCheck,
		domain.ToolManticore,
	}
	if len(defs) != len(want) {
		t.Fatalf("len(Definitions) = %d, want %d", len(defs), len(want))
	}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("Definitions[%d].Name = %q, want %q", i, def.Name, want[i])
		}
		if def.InputSchema == nil {
			t.Errorf("%s has nil schema", def.Name)
		}
	}

	if _, err := r.Lookup(domain.ToolEchidna); err != nil {
		t.Errorf("Lookup(echidna-analyze): %v", err)
	}
	if _, err := r.Lookup("nonexistent-tool"); !errors.Is(err, domain.ErrUnknownTool) {
		t.Errorf("Lookup(nonexistent) err = %v, want ErrUnknownTool", err)
	}
}

func TestTruncateText(t *testing.T) {
	long := strings.Repeat("x", 1500)
	got := truncateText(long, 1000)
	if !strings.HasPrefix(got, strings.Repeat("x", 1000)) {
		t.Error("truncated text lost prefix")
	}
	if !strings.Contains(got, "truncated") {
		t.Errorf("missing truncation marker: %q", got[1000:])
	}
	if truncateText("short", 1000) != "short" {
		t.Error("short text was modified")
	}
}
