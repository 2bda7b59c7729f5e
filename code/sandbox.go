package code

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/skosovsky/tutorkit/workspace"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = 500 * time.Millisecond

// Sandbox runs a file and collects its output.
type Sandbox interface {
	Run(ctx context.Context, f workspace.CodeFile) (workspace.RunResult, error)
}

// ExecSandbox runs files through a local interpreter that reads the program from stdin.
type ExecSandbox struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecSandbox returns a sandbox running command args... with the file on stdin.
// A nil logger means slog.Default().
func NewExecSandbox(command string, args []string, timeout time.Duration, logger *slog.Logger) *ExecSandbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSandbox{command: command, args: args, timeout: timeout, logger: logger}
}

// Run executes f. A non-zero exit or a timeout is reported in Info; only a failure to
// start the interpreter is returned as an error.
func (s *ExecSandbox) Run(ctx context.Context, f workspace.CodeFile) (workspace.RunResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdin = strings.NewReader(f.Content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := workspace.RunResult{Stdout: stdout.String(), Stderr: stderr.String(), Info: []string{}}
	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Info = append(res.Info, fmt.Sprintf("timed out after %s", s.timeout))
	case errors.As(err, &exitErr):
		res.Info = append(res.Info, fmt.Sprintf("exit code %d", exitErr.ExitCode()))
	case err != nil:
		return workspace.RunResult{}, fmt.Errorf("run %s: %w", f.Name, err)
	}
	res.Info = append(res.Info, fmt.Sprintf("finished in %dms", elapsed.Milliseconds()))
	s.logger.DebugContext(ctx, "sandbox run", "file", f.Name, "duration", elapsed, "stderr_bytes", stderr.Len())
	return res, nil
}

// Runner runs the active file of an editor.
type Runner struct {
	Editor  *Editor
	Sandbox Sandbox
}

// RunActive runs the active file.
func (r Runner) RunActive(ctx context.Context) (workspace.RunResult, error) {
	f, err := r.Editor.Active()
	if err != nil {
		return workspace.RunResult{}, err
	}
	return r.Sandbox.Run(ctx, f)
}
