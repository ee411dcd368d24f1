// Package syscheck implements the environment checks behind the doctor and
// debug workflows: USB enumeration, kernel module and DKMS state, sysfs
// device nodes, daemon unit status and session-bus reachability, and user
// permissions. External tools are invoked through an injectable
// CommandRunner so checks stay testable without the host environment.
package syscheck

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultCommandTimeout bounds every external tool invocation.
const DefaultCommandTimeout = 10 * time.Second

// ExecResult carries the captured output of one command invocation.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports a zero exit code.
func (r ExecResult) Ok() bool { return r.ExitCode == 0 }

// CommandRunner executes an external tool and captures its output. A non-zero
// exit code is not an error; errors are reserved for spawn failures and
// timeouts.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (ExecResult, error)
}

// ExecRunner runs commands via exec.CommandContext with a per-command timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns a runner with the given timeout, falling back to
// DefaultCommandTimeout when non-positive.
func NewExecRunner(timeout time.Duration) ExecRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return ExecRunner{Timeout: timeout}
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (ExecResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return result, nil
	}
	if runCtx.Err() == context.DeadlineExceeded {
		return result, errors.Errorf("command %s timed out after %s", name, timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, errors.Wrapf(err, "run %s failed", name)
}

// Lines splits trimmed output into non-empty lines.
func Lines(output string) []string {
	raw := strings.Split(strings.TrimSpace(output), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
