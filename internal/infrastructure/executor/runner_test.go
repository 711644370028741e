//go:build unix

package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/pkg/logger"
)

func newTestRunner(timeout time.Duration, maxBytes int) *Runner {
	return &Runner{Timeout: timeout, MaxOutputBytes: maxBytes, Logger: logger.NewNop()}
}

func shSpec(command string) domain.InvokeSpec {
	return domain.InvokeSpec{
		Shell: domain.ShellBash,
		Argv:  []string{"/bin/sh", "-c", command},
	}
}

func TestRunSuccess(t *testing.T) {
	runner := newTestRunner(10*time.Second, DefaultMaxOutputBytes)

	result, err := runner.Run(context.Background(), shSpec("echo hello"))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecSucceeded, result.Status)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.Greater(t, result.Elapsed, time.Duration(0))
}

func TestRunFailureReportsExitCode(t *testing.T) {
	runner := newTestRunner(10*time.Second, DefaultMaxOutputBytes)

	result, err := runner.Run(context.Background(), shSpec("echo oops >&2; exit 3"))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecFailed, result.Status)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	runner := newTestRunner(200*time.Millisecond, DefaultMaxOutputBytes)

	start := time.Now()
	result, err := runner.Run(context.Background(), shSpec("sleep 30"))
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t, domain.ExecTimedOut, result.Status)
	assert.Equal(t, -1, result.ExitCode)
	// Run must return promptly after the deadline; the sleeping child was
	// killed, not waited for.
	assert.Less(t, elapsed, 10*time.Second)
}

func TestRunTimeoutKillsDescendants(t *testing.T) {
	runner := newTestRunner(200*time.Millisecond, DefaultMaxOutputBytes)

	// The shell forks a background sleeper; the process-group kill must
	// take it down too or Wait would block on the shared stdout pipe.
	start := time.Now()
	result, err := runner.Run(context.Background(), shSpec("sleep 30 & wait"))
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t, domain.ExecTimedOut, result.Status)
	assert.Less(t, elapsed, 10*time.Second)
}

func TestRunCancelled(t *testing.T) {
	runner := newTestRunner(10*time.Second, DefaultMaxOutputBytes)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	result, err := runner.Run(ctx, shSpec("sleep 30"))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecCancelled, result.Status)
}

func TestRunTruncatesOutput(t *testing.T) {
	runner := newTestRunner(10*time.Second, 16)

	result, err := runner.Run(context.Background(), shSpec("printf 'aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa'"))
	require.NoError(t, err)

	assert.Equal(t, domain.ExecSucceeded, result.Status)
	assert.Equal(t, "aaaaaaaaaaaaaaaa"+truncationMarker, result.Stdout)
}

func TestRunSpawnFailure(t *testing.T) {
	runner := newTestRunner(10*time.Second, DefaultMaxOutputBytes)

	spec := domain.InvokeSpec{
		Shell: domain.ShellBash,
		Argv:  []string{"/nonexistent/shell-binary", "-c", "echo hi"},
	}
	_, err := runner.Run(context.Background(), spec)
	assert.Error(t, err)
}

func TestRunEmptySpec(t *testing.T) {
	runner := newTestRunner(10*time.Second, DefaultMaxOutputBytes)

	_, err := runner.Run(context.Background(), domain.InvokeSpec{})
	assert.Error(t, err)
}
