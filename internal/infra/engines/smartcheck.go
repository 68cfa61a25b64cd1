package engines

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// SmartCheck runs rule-based style and security checks. Plain-text output,
// exit code authoritative.
type SmartCheck struct {
	bin    string
	runner domain.CommandRunner
}

func NewSmartCheck(bin string, runner domain.CommandRunner) *SmartCheck {
	return &SmartCheck{bin: bin, runner: runner}
}

func (s *SmartCheck) Definition() domain.ToolDefinition {
	props := sourceSchema()
	props["rules"] = map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Specific rule names to check (if not specified, runs all)",
	}
	props["output_format"] = map[string]any{
		"type":        "string",
		"enum":        []any{"text"},
		"description": "Output format for the analysis results",
		"default":     "text",
	}
	return domain.ToolDefinition{
		Name:        domain.ToolSmartCheck,
		Description: "Check Solidity smart contracts against SmartCheck's security and style rule set",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{},
			"anyOf":      sourceAnyOf(),
		},
	}
}

func (s *SmartCheck) Analyze(ctx context.Context, contractPath string, args map[string]any) domain.Result {
	argv := []string{"-p", contractPath}
	for _, rule := range stringsOpt(args, "rules") {
		argv = append(argv, "-rule", rule)
	}

	out, err := s.runner.Run(ctx, s.bin, argv...)
	if err != nil {
		return domain.Failure("smartcheck", err.Error())
	}
	return textResult("smartcheck", out)
}

func (s *SmartCheck) Format(res domain.Result, analysisID string) string {
	if !res.Success {
		return fmt.Sprintf("SmartCheck analysis failed: %s", res.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SmartCheck analysis completed.\n\nAnalysis ID: %s\n", analysisID)
	if strings.TrimSpace(res.Output) == "" {
		b.WriteString("\nNo rule violations reported.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nResult:\n%s", truncateText(res.Output, 1000))
	return b.String()
}
