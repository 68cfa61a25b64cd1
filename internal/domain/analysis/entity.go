package analysis

import (
	"time"
)

// Tool identifiers. The registry is keyed by these names and they are the
// names MCP clients and the HTTP API use to select an engine.
const (
	ToolSlither    = "slither-analyze"
	ToolMythril    = "mythril-analyze"
	ToolEchidna    = "echidna-analyze"
	ToolMaian      = "maian-analyze"
	ToolSmartCheck = "smartcheck-analyze"
	ToolManticore  = "manticore-analyze"
)

// Element is a source element affected by a slither detector hit.
type Element struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Detector is one slither detector result with the elements it flagged.
type Detector struct {
	Check       string    `json:"check"`
	Impact      string    `json:"impact,omitempty"`
	Confidence  string    `json:"confidence,omitempty"`
	Description string    `json:"description,omitempty"`
	Elements    []Element `json:"elements"`
}

// Issue is one mythril finding.
type Issue struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	SWCID       string `json:"swc-id,omitempty"`
}

// PropertyTest is one echidna property result.
type PropertyTest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Result is the canonical envelope every adapter produces, independent of the
// engine behind it. Success=false implies Error is set and no payload fields
// are populated; Success=true implies Error is empty.
type Result struct {
	Success bool   `json:"success"`
	Tool    string `json:"tool"`
	Error   string `json:"error,omitempty"`

	// Structured payloads, one per structured-output engine.
	Detectors []Detector     `json:"detectors,omitempty"`
	Issues    []Issue        `json:"issues,omitempty"`
	Tests     []PropertyTest `json:"tests,omitempty"`

	// Raw-text payload for engines whose output could not (or should not)
	// be parsed. Warnings carries stderr noise the engine emitted alongside
	// usable output. Note flags a recovered parse failure.
	Output   string `json:"output,omitempty"`
	Warnings string `json:"warnings,omitempty"`
	Note     string `json:"note,omitempty"`

	// Params echoes the effective options the adapter ran with.
	Params map[string]any `json:"params,omitempty"`
}

// Failure builds a failed envelope for the given engine, with no payload.
func Failure(tool, msg string) Result {
	return Result{Success: false, Tool: tool, Error: msg}
}

// RecordSummary is one row of the store listing.
type RecordSummary struct {
	AnalysisID string    `json:"analysis_id"`
	Tool       string    `json:"tool"`
	Success    bool      `json:"success"`
	StoredAt   time.Time `json:"timestamp"`
}

// ToolDefinition describes a registered tool for schema discovery. The
// InputSchema is a JSON-schema document; it is fixed at registry build time.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}
