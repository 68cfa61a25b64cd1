package analysis

import (
	"context"
	"time"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Service implements the analysis use-cases shared by both transports.
// Safe for concurrent use: the store serializes its own writes and every
// other collaborator is stateless.
type Service struct {
	Registry  domain.Registry
	Store     domain.Store
	Artifacts domain.Artifacts

	// DefaultTimeout bounds each engine invocation unless the request
	// carries its own timeout option.
	DefaultTimeout time.Duration
}

// RunCommand selects one tool and carries its raw arguments, including the
// contract source fields.
type RunCommand struct {
	Tool      string
	Arguments map[string]any
}

// RunOutcome is everything a transport needs to answer a completed run.
type RunOutcome struct {
	AnalysisID string
	Result     domain.Result
	Summary    string
	Score      int
}

// Run executes one analysis end to end: resolve the adapter, materialize the
// contract, invoke the engine, store the envelope, format the summary.
// Returned errors are pre-invocation rejections only (ErrUnknownTool,
// ErrValidation); engine problems come back inside the envelope.
func (s *Service) Run(ctx context.Context, cmd RunCommand) (RunOutcome, error) {
	tool, err := s.Registry.Lookup(cmd.Tool)
	if err != nil {
		return RunOutcome{}, err
	}

	args := cmd.Arguments
	if args == nil {
		args = map[string]any{}
	}
	code, _ := args["contract_code"].(string)
	file, _ := args["contract_file"].(string)

	path, cleanup, err := s.Artifacts.Materialize(code, file)
	if err != nil {
		return RunOutcome{}, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, s.timeoutFor(args))
	defer cancel()

	res := tool.Analyze(ctx, path, args)
	id := s.Store.Put(res)

	return RunOutcome{
		AnalysisID: id,
		Result:     res,
		Summary:    tool.Format(res, id),
		Score:      domain.Score(cmd.Tool, res),
	}, nil
}

// Known reports whether a tool id is registered, without running anything.
func (s *Service) Known(tool string) error {
	_, err := s.Registry.Lookup(tool)
	return err
}

// Tools lists every registered tool definition for schema discovery.
func (s *Service) Tools() []domain.ToolDefinition {
	return s.Registry.Definitions()
}

// Result fetches one stored envelope by analysis id.
func (s *Service) Result(id string) (domain.Result, error) {
	return s.Store.Get(id)
}

// Results lists summaries of every stored analysis in insertion order.
func (s *Service) Results() []domain.RecordSummary {
	return s.Store.List()
}

// ScoreByID recomputes the severity score for a stored result on demand.
func (s *Service) ScoreByID(id string) (int, domain.Result, error) {
	res, err := s.Store.Get(id)
	if err != nil {
		return 0, domain.Result{}, err
	}
	return domain.Score(res.Tool, res), res, nil
}

func (s *Service) timeoutFor(args map[string]any) time.Duration {
	timeout := s.DefaultTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	// The tool-level timeout option also bounds the orchestrator's wall
	// clock, with headroom for process startup and teardown.
	switch v := args["timeout"].(type) {
	case int:
		if v > 0 {
			timeout = time.Duration(v)*time.Second + 30*time.Second
		}
	case float64:
		if v > 0 {
			timeout = time.Duration(v)*time.Second + 30*time.Second
		}
	}
	return timeout
}
