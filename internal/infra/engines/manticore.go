package engines

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Manticore runs concolic execution. It logs progress to stderr even on
// success, so a non-zero exit that still produced stdout counts as a
// partial success with the stderr kept as warnings.
type Manticore struct {
	bin    string
	runner domain.CommandRunner
}

func NewManticore(bin string, runner domain.CommandRunner) *Manticore {
	return &Manticore{bin: bin, runner: runner}
}

func (m *Manticore) Definition() domain.ToolDefinition {
	props := sourceSchema()
	props["output_dir"] = map[string]any{
		"type":        "string",
		"description": "Directory to store Manticore results (optional)",
	}
	props["output_format"] = map[string]any{
		"type":        "string",
		"enum":        []any{"text"},
		"description": "Output format for the analysis results",
		"default":     "text",
	}
	return domain.ToolDefinition{
		Name:        domain.ToolManticore,
		Description: "Symbolically execute smart contracts using Manticore to find vulnerabilities.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{},
			"anyOf":      sourceAnyOf(),
		},
	}
}

func (m *Manticore) Analyze(ctx context.Context, contractPath string, args map[string]any) domain.Result {
	argv := []string{contractPath}
	if dir := stringOpt(args, "output_dir", ""); dir != "" {
		argv = append(argv, "--workspace", dir)
	}

	out, err := m.runner.Run(ctx, m.bin, argv...)
	if err != nil {
		return domain.Failure("manticore", err.Error())
	}
	return textResult("manticore", out)
}

func (m *Manticore) Format(res domain.Result, analysisID string) string {
	if !res.Success {
		return fmt.Sprintf("Manticore analysis failed: %s", res.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Manticore analysis completed.\n\nAnalysis ID: %s\n", analysisID)
	if res.Warnings != "" {
		fmt.Fprintf(&b, "\nWarnings:\n%s\n", res.Warnings)
	}
	if strings.TrimSpace(res.Output) == "" {
		b.WriteString("\nNo output from Manticore.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nResults:\n%s", truncateText(res.Output, 1000))
	return b.String()
}
