package engines

import (
	"strings"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Option extraction helpers. Raw tool arguments arrive as a JSON-decoded
// map; each adapter pulls the fields it recognizes, applies its defaults and
// ignores everything else. Numbers show up as float64 after JSON decoding.

func stringOpt(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intOpt(args map[string]any, key string, def int) int {
	v, ok := lookupInt(args, key)
	if !ok {
		return def
	}
	return v
}

func lookupInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func boolOpt(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func stringsOpt(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// textResult interprets the outcome of a plain-text engine: the exit code is
// authoritative for failure, but a non-zero exit that still produced output
// counts as success with the stderr noise preserved as warnings.
func textResult(tool string, out domain.Outcome) domain.Result {
	stdout := string(out.Stdout)
	stderr := strings.TrimSpace(string(out.Stderr))
	if out.ExitCode != 0 && strings.TrimSpace(stdout) == "" {
		if stderr == "" {
			stderr = "unknown error"
		}
		return domain.Failure(tool, stderr)
	}
	res := domain.Result{Success: true, Tool: tool, Output: stdout}
	if stderr != "" {
		res.Warnings = stderr
	}
	return res
}

// truncateText caps long raw-output blocks in formatted summaries; the full
// text stays available through the stored analysis resource.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated, see full results in analysis resource)"
}

// sourceSchema returns the two contract-source properties shared by every
// tool schema.
func sourceSchema() map[string]any {
	return map[string]any{
		"contract_code": map[string]any{
			"type":        "string",
			"description": "The Solidity contract source code to analyze",
		},
		"contract_file": map[string]any{
			"type":        "string",
			"description": "Path to the contract file (alternative to contract_code)",
		},
	}
}

// sourceAnyOf is the shared contract_code/contract_file requirement.
func sourceAnyOf() []any {
	return []any{
		map[string]any{"required": []any{"contract_code"}},
		map[string]any{"required": []any{"contract_file"}},
	}
}
