package engines

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// maianChecks maps the analysis type onto maian's -c flag.
var maianChecks = map[string]int{
	"suicidal": 0,
	"prodigal": 1,
	"greedy":   2,
}

// Maian detects prodigal, suicidal and greedy contracts by tracing
// transaction sequences. The upstream project ships as a Python script, so
// the adapter invokes it through a configured interpreter.
type Maian struct {
	python string
	script string
	runner domain.CommandRunner
}

func NewMaian(python, script string, runner domain.CommandRunner) *Maian {
	return &Maian{python: python, script: script, runner: runner}
}

type maianOptions struct {
	contractName string
	analysisType string
}

func maianOptionsFrom(args map[string]any) maianOptions {
	return maianOptions{
		contractName: stringOpt(args, "contract_name", ""),
		analysisType: stringOpt(args, "analysis_type", "suicidal"),
	}
}

func (m *Maian) Definition() domain.ToolDefinition {
	props := sourceSchema()
	props["contract_name"] = map[string]any{
		"type":        "string",
		"description": "Main contract name (required for Solidity source analysis)",
	}
	props["analysis_type"] = map[string]any{
		"type":        "string",
		"enum":        []any{"suicidal", "prodigal", "greedy"},
		"description": "Type of vulnerability to check (suicidal, prodigal, greedy)",
		"default":     "suicidal",
	}
	props["output_format"] = map[string]any{
		"type":        "string",
		"enum":        []any{"text"},
		"description": "Output format for the analysis results",
		"default":     "text",
	}
	return domain.ToolDefinition{
		Name:        domain.ToolMaian,
		Description: "Detect prodigal, suicidal, and greedy vulnerabilities in Ethereum smart contracts using Maian.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{"analysis_type"},
			"anyOf": []any{
				map[string]any{"required": []any{"contract_code", "contract_name"}},
				map[string]any{"required": []any{"contract_file", "contract_name"}},
				map[string]any{"required": []any{"contract_file"}},
			},
		},
	}
}

func (m *Maian) Analyze(ctx context.Context, contractPath string, args map[string]any) domain.Result {
	opts := maianOptionsFrom(args)

	check, ok := maianChecks[opts.analysisType]
	if !ok {
		check = maianChecks["suicidal"]
		opts.analysisType = "suicidal"
	}

	var argv []string
	if strings.HasSuffix(contractPath, ".sol") {
		if opts.contractName == "" {
			return domain.Failure("maian", "contract_name is required for Solidity source analysis")
		}
		argv = []string{m.script, "-s", contractPath, opts.contractName, "-c", strconv.Itoa(check)}
	} else {
		// Anything else is assumed to be a bytecode file.
		argv = []string{m.script, "-b", contractPath, "-c", strconv.Itoa(check)}
	}

	out, err := m.runner.Run(ctx, m.python, argv...)
	if err != nil {
		return domain.Failure("maian", err.Error())
	}

	res := textResult("maian", out)
	if res.Success {
		res.Params = map[string]any{"analysis_type": opts.analysisType}
	}
	return res
}

func (m *Maian) Format(res domain.Result, analysisID string) string {
	if !res.Success {
		return fmt.Sprintf("Maian analysis failed: %s", res.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Maian analysis completed for %s vulnerability.\n\nAnalysis ID: %s\n",
		paramString(res, "analysis_type", "unknown"), analysisID)
	if strings.TrimSpace(res.Output) == "" {
		b.WriteString("\nNo output from Maian.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nResult:\n%s", truncateText(res.Output, 1000))
	return b.String()
}
