package analysis

import "strings"

// Severity scoring: 0 (clean) to 100 (critical). Deliberately pessimistic —
// a failed engine run scores 100 because its findings are unknown, not absent.

// Weights for findings that carry an explicit severity label.
var severityWeights = map[string]int{
	"High":   30,
	"Medium": 20,
	"Low":    10,
}

const (
	defaultSeverityWeight = 20
	propertyFailureWeight = 20
	keywordWeight         = 25
	unknownRiskScore      = 10
)

// Keywords that indicate findings in the raw output of text-only engines.
var engineKeywords = map[string][]string{
	"maian":      {"vulnerable", "bug", "leak"},
	"smartcheck": {"error", "warning", "severity"},
	"manticore":  {"bug", "crash", "vulnerability", "assertion"},
}

// Score maps a normalized result to a risk score in [0,100]. It accepts both
// the registry tool id ("slither-analyze") and the bare engine name
// ("slither") so stored results can be re-scored on demand. Pure and
// deterministic: the same input always yields the same score.
func Score(toolID string, res Result) int {
	if !res.Success {
		return 100
	}
	switch engineOf(toolID) {
	case "slither":
		score := 0
		for _, d := range res.Detectors {
			score += weightFor(d.Impact)
		}
		return clamp(score)
	case "mythril":
		score := 0
		for _, is := range res.Issues {
			score += weightFor(is.Severity)
		}
		return clamp(score)
	case "echidna":
		failed := 0
		for _, t := range res.Tests {
			if t.Status == "error" || t.Status == "failed" {
				failed++
			}
		}
		if failed == 0 && len(res.Tests) == 0 && strings.TrimSpace(res.Output) != "" {
			// Raw, unparsed fuzzer output: unknown risk, not zero.
			return unknownRiskScore
		}
		return clamp(failed * propertyFailureWeight)
	case "maian", "smartcheck", "manticore":
		return keywordScore(engineOf(toolID), res.Output)
	default:
		return 0
	}
}

func keywordScore(engine, output string) int {
	lowered := strings.ToLower(output)
	score := 0
	for _, kw := range engineKeywords[engine] {
		if strings.Contains(lowered, kw) {
			score += keywordWeight
		}
	}
	if score == 0 && strings.TrimSpace(output) != "" {
		return unknownRiskScore
	}
	return clamp(score)
}

func weightFor(severity string) int {
	if w, ok := severityWeights[severity]; ok {
		return w
	}
	return defaultSeverityWeight
}

// engineOf reduces "slither-analyze" (and "slither") to "slither".
func engineOf(toolID string) string {
	if i := strings.IndexByte(toolID, '-'); i > 0 {
		return toolID[:i]
	}
	return toolID
}

func clamp(score int) int {
	if score > 100 {
		return 100
	}
	return score
}
