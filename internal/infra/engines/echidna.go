package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Echidna runs property-based fuzzing. When JSON output is requested the
// adapter tries to parse the property results; a parse failure downgrades to
// raw-text success with a note rather than a failure, because fuzzer output
// is valuable even when it is not machine-readable.
type Echidna struct {
	bin    string
	runner domain.CommandRunner
}

func NewEchidna(bin string, runner domain.CommandRunner) *Echidna {
	return &Echidna{bin: bin, runner: runner}
}

type echidnaOptions struct {
	contractName   string
	testMode       string
	outputFormat   string
	timeout        int
	testLimit      int
	seqLen         int
	workers        int
	seed           int
	seedSet        bool
	disableSlither bool
}

func echidnaOptionsFrom(args map[string]any) echidnaOptions {
	opts := echidnaOptions{
		contractName:   stringOpt(args, "contract_name", ""),
		testMode:       stringOpt(args, "test_mode", "property"),
		outputFormat:   stringOpt(args, "output_format", "json"),
		timeout:        clampInt(intOpt(args, "timeout", 60), 10, 3600),
		testLimit:      clampInt(intOpt(args, "test_limit", 50000), 100, 1000000),
		seqLen:         clampInt(intOpt(args, "seq_len", 100), 1, 1000),
		workers:        clampInt(intOpt(args, "workers", 1), 1, 8),
		disableSlither: boolOpt(args, "disable_slither", false),
	}
	opts.seed, opts.seedSet = lookupInt(args, "seed")
	return opts
}

type echidnaReport struct {
	Tests []struct {
		Name     string `json:"name"`
		Contract string `json:"contract"`
		Status   string `json:"status"`
		Error    string `json:"error"`
	} `json:"tests"`
}

func (e *Echidna) Definition() domain.ToolDefinition {
	props := sourceSchema()
	props["contract_name"] = map[string]any{
		"type":        "string",
		"description": "Specific contract name to analyze (if multiple contracts in file)",
	}
	props["test_mode"] = map[string]any{
		"type":        "string",
		"enum":        []any{"property", "assertion", "dapptest", "optimization", "overflow", "exploration"},
		"description": "Test mode to use for analysis",
		"default":     "property",
	}
	props["output_format"] = map[string]any{
		"type":        "string",
		"enum":        []any{"json", "text", "none"},
		"description": "Output format for analysis results",
		"default":     "json",
	}
	props["timeout"] = map[string]any{
		"type":        "integer",
		"description": "Timeout in seconds for the analysis",
		"default":     60,
		"minimum":     10,
		"maximum":     3600,
	}
	props["test_limit"] = map[string]any{
		"type":        "integer",
		"description": "Number of sequences of transactions to generate during testing",
		"default":     50000,
		"minimum":     100,
		"maximum":     1000000,
	}
	props["seq_len"] = map[string]any{
		"type":        "integer",
		"description": "Number of transactions to generate during testing",
		"default":     100,
		"minimum":     1,
		"maximum":     1000,
	}
	props["workers"] = map[string]any{
		"type":        "integer",
		"description": "Number of workers to run",
		"default":     1,
		"minimum":     1,
		"maximum":     8,
	}
	props["seed"] = map[string]any{
		"type":        "integer",
		"description": "Specific seed for reproducible results",
	}
	props["disable_slither"] = map[string]any{
		"type":        "boolean",
		"description": "Disable running Slither integration",
		"default":     false,
	}
	return domain.ToolDefinition{
		Name:        domain.ToolEchidna,
		Description: "Analyze Solidity smart contracts using Echidna property-based testing framework",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []any{},
			"anyOf":      sourceAnyOf(),
		},
	}
}

func (e *Echidna) Analyze(ctx context.Context, contractPath string, args map[string]any) domain.Result {
	opts := echidnaOptionsFrom(args)

	argv := []string{contractPath}
	if opts.contractName != "" {
		argv = append(argv, "--contract", opts.contractName)
	}
	argv = append(argv,
		"--format", opts.outputFormat,
		"--test-mode", opts.testMode,
		"--timeout", strconv.Itoa(opts.timeout),
		"--test-limit", strconv.Itoa(opts.testLimit),
		"--seq-len", strconv.Itoa(opts.seqLen),
		"--workers", strconv.Itoa(opts.workers),
	)
	if opts.seedSet {
		argv = append(argv, "--seed", strconv.Itoa(opts.seed))
	}
	if opts.disableSlither {
		argv = append(argv, "--disable-slither")
	}

	out, err := e.runner.Run(ctx, e.bin, argv...)
	if err != nil {
		return domain.Failure("echidna", err.Error())
	}

	stdout := string(out.Stdout)
	stderr := strings.TrimSpace(string(out.Stderr))
	params := map[string]any{
		"test_mode":     opts.testMode,
		"output_format": opts.outputFormat,
		"timeout":       opts.timeout,
		"test_limit":    opts.testLimit,
		"seq_len":       opts.seqLen,
		"workers":       opts.workers,
	}
	if opts.seedSet {
		params["seed"] = opts.seed
	}

	if opts.outputFormat == "json" && stdout != "" {
		var report echidnaReport
		if json.Unmarshal(out.Stdout, &report) == nil {
			res := domain.Result{Success: true, Tool: "echidna", Params: params}
			for _, t := range report.Tests {
				name := t.Name
				if name == "" {
					name = t.Contract
				}
				res.Tests = append(res.Tests, domain.PropertyTest{Name: name, Status: t.Status, Error: t.Error})
			}
			return res
		}
		// Requested JSON but got something else: keep the text verbatim.
		res := domain.Result{
			Success: true,
			Tool:    "echidna",
			Output:  stdout,
			Note:    "Could not parse JSON output, showing raw results",
			Params:  params,
		}
		if stderr != "" {
			res.Warnings = stderr
		}
		return res
	}

	if out.ExitCode == 0 || stdout != "" {
		res := domain.Result{Success: true, Tool: "echidna", Output: stdout, Params: params}
		if stderr != "" {
			res.Warnings = stderr
		}
		return res
	}

	if stderr == "" {
		stderr = "unknown error"
	}
	return domain.Failure("echidna", stderr)
}

func (e *Echidna) Format(res domain.Result, analysisID string) string {
	if !res.Success {
		return fmt.Sprintf("Echidna analysis failed: %s", res.Error)
	}

	mode := paramString(res, "test_mode", "property")
	var b strings.Builder
	fmt.Fprintf(&b, "Echidna %s testing completed\n\nAnalysis ID: %s\n", mode, analysisID)
	fmt.Fprintf(&b, "Test Mode: %s\n", mode)
	fmt.Fprintf(&b, "Timeout: %vs\n", res.Params["timeout"])
	fmt.Fprintf(&b, "Test Limit: %v\n", res.Params["test_limit"])

	if len(res.Tests) > 0 {
		failed := 0
		b.WriteString("\nProperty Results:\n")
		for i, t := range res.Tests {
			if t.Status == "error" || t.Status == "failed" {
				failed++
			}
			if i < 5 {
				fmt.Fprintf(&b, "  - %s: %s\n", t.Name, t.Status)
			}
		}
		if len(res.Tests) > 5 {
			fmt.Fprintf(&b, "  ... and %d more properties.\n", len(res.Tests)-5)
		}
		fmt.Fprintf(&b, "\nFailed Properties: %d\n", failed)
		b.WriteString("\nSee full results in analysis resource for detailed information.")
		return b.String()
	}

	b.WriteString("\nAnalysis completed. See full results in analysis resource.")
	return b.String()
}

func paramString(res domain.Result, key, def string) string {
	if v, ok := res.Params[key].(string); ok && v != "" {
		return v
	}
	return def
}
