package analysis

import "context"

// Tool port: one adapter per external analysis engine. Analyze must never
// fail with an error; engine problems become a failure envelope tagged with
// the adapter's own tool identity.
type Tool interface {
	Definition() ToolDefinition
	Analyze(ctx context.Context, contractPath string, args map[string]any) Result
	Format(res Result, analysisID string) string
}

// Registry port: the single authoritative tool_id -> adapter mapping,
// immutable after construction.
type Registry interface {
	Lookup(name string) (Tool, error)
	Definitions() []ToolDefinition
}

// Store port: append-only in-memory result storage. Put assigns the id.
type Store interface {
	Put(res Result) string
	Get(id string) (Result, error)
	List() []RecordSummary
}

// Artifacts port: materializes a contract source into a filesystem path.
// cleanup removes the file when the source was inline; for caller-owned
// paths it is a no-op.
type Artifacts interface {
	Materialize(code, file string) (path string, cleanup func(), err error)
}

// Outcome is the raw capture of one engine process run. It is consumed
// entirely inside a single adapter invocation and never persisted.
type Outcome struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// CommandRunner port: spawns an engine process and captures its output.
// A non-zero exit code is not an error; errors mean the process could not
// run at all (missing binary, timeout, kill).
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (Outcome, error)
}
