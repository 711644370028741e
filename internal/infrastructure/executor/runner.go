// Package executor launches extracted commands as child processes with a
// hard deadline and bounded output capture.
package executor

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

const (
	// DefaultTimeout bounds the Running state.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutputBytes caps each captured stream. Runaway verbose
	// commands are truncated with a marker instead of growing memory.
	DefaultMaxOutputBytes = 64 * 1024

	// waitDelay is how long Wait blocks on I/O pipes after the kill
	// before giving up on stragglers.
	waitDelay = 5 * time.Second
)

// Runner implements ports.CommandRunner. One Runner runs at most one child
// process at a time from the controller's perspective; it holds no state
// between runs.
type Runner struct {
	Timeout        time.Duration
	MaxOutputBytes int
	Logger         ports.Logger
}

// NewRunner builds a Runner from execution settings.
func NewRunner(cfg domain.ExecutionSettings, logger ports.Logger) *Runner {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBytes := cfg.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}
	return &Runner{Timeout: timeout, MaxOutputBytes: maxBytes, Logger: logger}
}

// Run launches the invocation spec and blocks until it finishes or the
// deadline expires. On expiry the child process group is force-killed
// before ExecTimedOut is reported, so no descendant outlives the result.
func (r *Runner) Run(ctx context.Context, spec domain.InvokeSpec) (domain.ExecutionResult, error) {
	if len(spec.Argv) == 0 {
		return domain.ExecutionResult{}, errors.New("executor: empty invocation spec")
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return terminate(cmd) }
	cmd.WaitDelay = waitDelay

	stdout := newBoundedBuffer(r.MaxOutputBytes)
	stderr := newBoundedBuffer(r.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := domain.ExecutionResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: elapsed,
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		result.Status = domain.ExecTimedOut
		result.ExitCode = -1
		return result, nil
	case ctx.Err() == context.Canceled:
		result.Status = domain.ExecCancelled
		result.ExitCode = -1
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.Status = domain.ExecFailed
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		// Spawn failure: the shell binary itself could not be started.
		return domain.ExecutionResult{}, err
	}

	result.Status = domain.ExecSucceeded
	result.ExitCode = 0
	return result, nil
}

var _ ports.CommandRunner = (*Runner)(nil)
