// Package process runs external commands for the shell.
package process

import (
	"context"
	"cush/internal/domain/port"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// DefaultShell interprets command lines that are not builtins.
const DefaultShell = "/bin/sh"

// ExitCommandNotRunnable is returned when the shell itself cannot be started.
const ExitCommandNotRunnable = 127

// ForegroundGuard is told when a child owns the terminal. The returned func
// is called once the child has exited.
type ForegroundGuard interface {
	BeginForeground() (end func())
}

// ShellExecutor implements port.CommandExecutor by handing each line to
// `<shell> -c`. Pipes, redirection and quoting are the child shell's business.
type ShellExecutor struct {
	shell  string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	guard  ForegroundGuard
	logger *slog.Logger
}

var _ port.CommandExecutor = (*ShellExecutor)(nil)

// ExecutorOptions configures a ShellExecutor. Nil streams use the process's
// own stdin, stdout and stderr.
type ExecutorOptions struct {
	Shell  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Guard  ForegroundGuard
	Logger *slog.Logger
}

// NewShellExecutor creates a ShellExecutor.
func NewShellExecutor(opts ExecutorOptions) *ShellExecutor {
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ShellExecutor{
		shell:  opts.Shell,
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		guard:  opts.Guard,
		logger: opts.Logger,
	}
}

// Shell returns the interpreter path.
func (e *ShellExecutor) Shell() string {
	return e.shell
}

// Execute runs line to completion and returns its exit status. A child that
// exits non-zero is not an error; an error means the shell could not run.
// A child killed by a signal reports 128 plus the signal number.
func (e *ShellExecutor) Execute(ctx context.Context, line string) (int, error) {
	cmd := exec.CommandContext(ctx, e.shell, "-c", line)
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.Env = os.Environ()

	if e.guard != nil {
		end := e.guard.BeginForeground()
		defer end()
	}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		e.logger.Debug("command finished", "command", line, "status", 0, "duration", elapsed)
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status := exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status = 128 + int(ws.Signal())
		}
		e.logger.Debug("command finished", "command", line, "status", status, "duration", elapsed)
		return status, nil
	}

	e.logger.Warn("command could not run", "command", line, "error", err)
	return ExitCommandNotRunnable, fmt.Errorf("failed to run %s: %w", e.shell, err)
}
