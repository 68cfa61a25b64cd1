package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Mythril runs symbolic execution via the myth CLI. Like slither, mythril
// exits non-zero when it finds issues, so stdout is the success signal:
// parse it as JSON if possible, fall back to raw text, and only report
// failure when the engine produced nothing at all.
type Mythril struct {
	bin    string
	runner domain.CommandRunner
}

func NewMythril(bin string, runner domain.CommandRunner) *Mythril {
	return &Mythril{bin: bin, runner: runner}
}

type mythrilOptions struct {
	analysisMode string
	maxDepth     int
}

func mythrilOptionsFrom(args map[string]any) mythrilOptions {
	return mythrilOptions{
		analysisMode: stringOpt(args, "analysis_mode", "standard"),
		maxDepth:     clampInt(intOpt(args, "max_depth", 12), 1, 50),
	}
}

// depth maps the analysis mode onto the --max-depth flag: quick pins a
// shallow search, deep doubles the configured depth up to the engine cap.
func (o mythrilOptions) depth() int {
	switch o.analysisMode {
	case "quick":
		return 3
	case "deep":
		return clampInt(o.maxDepth*2, 1, 50)
	default:
		return o.maxDepth
	}
}

type mythrilReport struct {
	Issues []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
		SWCID       string `json:"swc-id"`
	} `json:"issues"`
}

func (m *Mythril) Definition() domain.ToolDefinition {
	props := sourceSchema()
	props["analysis_mode"] = map[string]any{
		"type":        "string",
		"enum":        []any{"quick", "standard", "deep"},
		"description": "Analysis depth mode",
		"default":     "standard",
	}
	props["max_depth"] = map[string]any{
		"type":        "integer",
		"description": "Maximum transaction depth for analysis (default: 12)",
		"default":     12,
		"minimum":     1,
		"maximum":     50,
	}
	return domain.ToolDefinition{
		Name:        domain.ToolMythril,
		Description: "Analyze Solidity smart contracts using Mythril for security vulnerabilities",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{},
			"anyOf":      sourceAnyOf(),
		},
	}
}

func (m *Mythril) Analyze(ctx context.Context, contractPath string, args map[string]any) domain.Result {
	opts := mythrilOptionsFrom(args)

	argv := []string{"analyze", contractPath, "-o", "json", "--max-depth", strconv.Itoa(opts.depth())}

	out, err := m.runner.Run(ctx, m.bin, argv...)
	if err != nil {
		return domain.Failure("mythril", err.Error())
	}

	stdout := string(out.Stdout)
	stderr := strings.TrimSpace(string(out.Stderr))
	params := map[string]any{
		"analysis_mode": opts.analysisMode,
		"max_depth":     opts.maxDepth,
	}

	if stdout == "" {
		if stderr == "" {
			stderr = "unknown error"
		}
		return domain.Failure("mythril", stderr)
	}

	var report mythrilReport
	if json.Unmarshal(out.Stdout, &report) == nil {
		res := domain.Result{Success: true, Tool: "mythril", Params: params}
		for _, is := range report.Issues {
			res.Issues = append(res.Issues, domain.Issue{
				Title:       is.Title,
				Description: is.Description,
				Severity:    is.Severity,
				SWCID:       is.SWCID,
			})
		}
		return res
	}

	// Unparseable output is still output; never drop it.
	return domain.Result{
		Success: true,
		Tool:    "mythril",
		Output:  stdout,
		Note:    "Could not parse JSON output, showing raw results",
		Params:  params,
	}
}

func (m *Mythril) Format(res domain.Result, analysisID string) string {
	if !res.Success {
		return fmt.Sprintf("Mythril analysis failed: %s", res.Error)
	}
	if res.Issues == nil && res.Output != "" {
		return fmt.Sprintf("Mythril analysis completed.\n\nAnalysis ID: %s\nSee full results in analysis resource.", analysisID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mythril analysis completed. Found %d potential issues.\n\nAnalysis ID: %s\n", len(res.Issues), analysisID)
	if len(res.Issues) == 0 {
		b.WriteString("\nNo vulnerabilities detected.")
		return b.String()
	}
	b.WriteString("\nVulnerabilities found:\n")
	for i, is := range res.Issues {
		if i == 5 {
			fmt.Fprintf(&b, "... and %d more. See full results in analysis resource.", len(res.Issues)-5)
			break
		}
		desc := is.Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, is.Title, desc)
	}
	return b.String()
}
