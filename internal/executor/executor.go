package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"ha-host-bridge/internal/logger"
)

// Executor runs a command string and returns its combined output.
type Executor interface {
	Run(ctx context.Context, command string) ([]byte, error)
}

// ExecError reports a command that could not be started or exited non-zero.
// ExitCode is -1 when the process never ran.
type ExecError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExecError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("command %q failed to start: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %q exited with status %d: %s", e.Command, e.ExitCode, e.Output)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// pipeWaitDelay bounds how long Run waits for output pipes held open by
// processes the command left running in the background.
const pipeWaitDelay = 2 * time.Second

// ShellExecutor runs commands through a POSIX shell so catalog entries may
// use pipes, redirection and "cmd1 ; cmd2" sequences.
type ShellExecutor struct {
	shell  string
	logger *logger.Logger
}

// NewShellExecutor creates an executor using /bin/sh.
func NewShellExecutor(log *logger.Logger) *ShellExecutor {
	return &ShellExecutor{
		shell:  "/bin/sh",
		logger: log,
	}
}

// Run executes command synchronously and waits for it to exit.
func (e *ShellExecutor) Run(ctx context.Context, command string) ([]byte, error) {
	if strings.TrimSpace(command) == "" {
		return nil, &ExecError{Command: command, ExitCode: -1, Err: errors.New("empty command")}
	}

	e.logger.Debug("executing command", "command", command)

	cmd := exec.CommandContext(ctx, e.shell, "-c", command) //nolint:gosec // commands come from the operator's catalog
	cmd.WaitDelay = pipeWaitDelay
	output, err := cmd.CombinedOutput()
	if errors.Is(err, exec.ErrWaitDelay) {
		// exited cleanly but left a background process holding the output
		e.logger.Debug("command left output open", "command", command)
		err = nil
	}
	if err != nil {
		execErr := &ExecError{
			Command:  command,
			ExitCode: -1,
			Output:   strings.TrimSpace(string(output)),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		return output, execErr
	}

	e.logger.Debug("command completed",
		"command", command,
		"outputBytes", len(output))
	return output, nil
}
