package engines

import (
	"fmt"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Config names the external engine binaries. Paths are configurable so
// operators can point at venv shims or container wrappers.
type Config struct {
	SlitherBin    string
	MythrilBin    string
	EchidnaBin    string
	MaianScript   string
	SmartCheckBin string
	ManticoreBin  string
	PythonBin     string
}

// Registry is the single authoritative tool_id -> adapter mapping, built once
// at startup and immutable afterwards.
type Registry struct {
	order []string
	tools map[string]domain.Tool
}

func NewRegistry(cfg Config, runner domain.CommandRunner) *Registry {
	r := &Registry{tools: make(map[string]domain.Tool)}
	add := func(t domain.Tool) {
		name := t.Definition().Name
		r.order = append(r.order, name)
		r.tools[name] = t
	}
	add(NewSlither(cfg.SlitherBin, runner))
	add(NewMythril(cfg.MythrilBin, runner))
	add(NewEchidna(cfg.EchidnaBin, runner))
	add(NewMaian(cfg.PythonBin, cfg.MaianScript, runner))
	add(NewSmartCheck(cfg.SmartCheckBin, runner))
	add(NewManticore(cfg.ManticoreBin, runner))
	return r
}

func (r *Registry) Lookup(name string) (domain.Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}
	return t, nil
}

// Definitions returns every tool schema in registration order.
func (r *Registry) Definitions() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Definition())
	}
	return out
}
