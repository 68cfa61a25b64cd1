package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Slither runs the slither static analysis framework. Slither exits non-zero
// when it finds issues, so the exit code is useless as a failure signal:
// emitted output means success, empty output with stderr means failure.
type Slither struct {
	bin    string
	runner domain.CommandRunner
}

func NewSlither(bin string, runner domain.CommandRunner) *Slither {
	return &Slither{bin: bin, runner: runner}
}

type slitherOptions struct {
	outputFormat string
	exclude      []string
	include      []string
}

func slitherOptionsFrom(args map[string]any) slitherOptions {
	return slitherOptions{
		outputFormat: stringOpt(args, "output_format", "json"),
		exclude:      stringsOpt(args, "exclude_detectors"),
		include:      stringsOpt(args, "include_detectors"),
	}
}

type slitherReport struct {
	Results struct {
		Detectors []struct {
			Check       string `json:"check"`
			Impact      string `json:"impact"`
			Confidence  string `json:"confidence"`
			Description string `json:"description"`
			Elements    []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"elements"`
		} `json:"detectors"`
	} `json:"results"`
}

func (s *Slither) Definition() domain.ToolDefinition {
	props := sourceSchema()
	props["output_format"] = map[string]any{
		"type":        "string",
		"enum":        []any{"text", "json", "markdown"},
		"description": "Output format for the analysis results",
		"default":     "json",
	}
	props["exclude_detectors"] = map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "List of detector names to exclude from analysis",
	}
	props["include_detectors"] = map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "List of specific detectors to run (if not specified, runs all)",
	}
	return domain.ToolDefinition{
		Name:        domain.ToolSlither,
		Description: "Analyze Solidity smart contracts using Slither static analysis framework",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{},
			"anyOf":      sourceAnyOf(),
		},
	}
}

func (s *Slither) Analyze(ctx context.Context, contractPath string, args map[string]any) domain.Result {
	opts := slitherOptionsFrom(args)

	argv := []string{contractPath}
	if opts.outputFormat == "json" {
		argv = append(argv, "--json", "-")
	}
	if len(opts.exclude) > 0 {
		argv = append(argv, "--exclude", strings.Join(opts.exclude, ","))
	}
	if len(opts.include) > 0 {
		argv = append(argv, "--include", strings.Join(opts.include, ","))
	}

	out, err := s.runner.Run(ctx, s.bin, argv...)
	if err != nil {
		return domain.Failure("slither", err.Error())
	}

	stdout := string(out.Stdout)
	stderr := strings.TrimSpace(string(out.Stderr))

	if opts.outputFormat == "json" && stdout != "" {
		var report slitherReport
		if json.Unmarshal(out.Stdout, &report) == nil {
			res := domain.Result{
				Success: true,
				Tool:    "slither",
				Params:  map[string]any{"output_format": opts.outputFormat},
			}
			for _, d := range report.Results.Detectors {
				det := domain.Detector{
					Check:       d.Check,
					Impact:      d.Impact,
					Confidence:  d.Confidence,
					Description: d.Description,
				}
				for _, e := range d.Elements {
					det.Elements = append(det.Elements, domain.Element{Name: e.Name, Type: e.Type})
				}
				res.Detectors = append(res.Detectors, det)
			}
			return res
		}
	}

	if stdout == "" {
		if stderr == "" {
			stderr = "no output produced"
		}
		return domain.Failure("slither", stderr)
	}

	res := domain.Result{
		Success: true,
		Tool:    "slither",
		Output:  stdout,
		Params:  map[string]any{"output_format": opts.outputFormat},
	}
	if stderr != "" {
		res.Warnings = stderr
	}
	return res
}

func (s *Slither) Format(res domain.Result, analysisID string) string {
	if !res.Success {
		return fmt.Sprintf("Slither analysis failed: %s", res.Error)
	}
	if res.Detectors == nil && res.Output != "" {
		return fmt.Sprintf("Slither analysis completed.\n\nAnalysis ID: %s\nSee full results in analysis resource.", analysisID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Slither analysis completed. Found %d detector results.\n\nAnalysis ID: %s\n", len(res.Detectors), analysisID)
	if len(res.Detectors) == 0 {
		b.WriteString("\nNo issues detected.")
		return b.String()
	}
	b.WriteString("\nDetector results:\n")
	for i, d := range res.Detectors {
		if i == 5 {
			fmt.Fprintf(&b, "... and %d more detectors. See full results in analysis resource.", len(res.Detectors)-5)
			break
		}
		fmt.Fprintf(&b, "%d. %s: %d issues\n", i+1, d.Check, len(d.Elements))
	}
	return b.String()
}
