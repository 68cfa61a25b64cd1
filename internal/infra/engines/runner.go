// Package engines adapts external Solidity analysis binaries to the uniform
// result envelope. One adapter per engine; each knows how to build the
// engine's command line and how to read its exit code, stdout and stderr,
// because exit-code semantics differ per engine.
package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// ExecRunner spawns engine binaries as child processes. The process is tied
// to the request context: cancellation or timeout kills it, so an abandoned
// request never leaks an engine process.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (domain.Outcome, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := domain.Outcome{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		if ctx.Err() != nil {
			return out, fmt.Errorf("%s terminated: %w", name, ctx.Err())
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			// Engine ran to completion with a non-zero exit code. The
			// adapter decides what that means for its engine.
			out.ExitCode = ee.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}
