// Package service provides application-level services that orchestrate
// the use cases and provide high-level interfaces for the application.
package service

import (
	"context"
	"cush/internal/application/usecase"
	"cush/internal/domain/port"
	"cush/internal/domain/service"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrLineReaderRequired is returned when LineReader is nil.
	ErrLineReaderRequired = errors.New("line reader is required")

	// ErrSessionContextRequired is returned when SessionContext is nil.
	ErrSessionContextRequired = errors.New("session context is required")

	// ErrPromptServiceRequired is returned when PromptService is nil.
	ErrPromptServiceRequired = errors.New("prompt service is required")

	// ErrExpansionServiceRequired is returned when ExpansionService is nil.
	ErrExpansionServiceRequired = errors.New("expansion service is required")

	// ErrHistoryStoreRequired is returned when HistoryStore is nil.
	ErrHistoryStoreRequired = errors.New("history store is required")

	// ErrCommandExecutorRequired is returned when CommandExecutor is nil.
	ErrCommandExecutorRequired = errors.New("command executor is required")
)

// Status codes the loop reports for lines that never reach a command.
const (
	StatusFailure     = 1
	StatusInterrupted = 130
)

// ShellDeps are the collaborators of a ShellService. Builtins, Stdout,
// Stderr and Logger are optional.
type ShellDeps struct {
	Reader    port.LineReader
	Session   port.SessionContext
	Prompt    *service.PromptService
	Expander  *service.ExpansionService
	History   port.HistoryStore
	Builtins  *usecase.Registry
	Executor  port.CommandExecutor
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	EchoLines bool
}

// ShellService is the read-eval loop of the shell.
//
// Each cycle snapshots the session, renders the prompt, reads a line,
// resolves bang references, records the resolved text and dispatches it to
// a builtin or the command executor. Expansion failures are reported and
// nothing is recorded for that line.
type ShellService struct {
	reader   port.LineReader
	session  port.SessionContext
	prompt   *service.PromptService
	expander *service.ExpansionService
	history  port.HistoryStore
	builtins *usecase.Registry
	executor port.CommandExecutor
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
	echo     bool

	lastStatus int
}

// NewShellService creates a new ShellService with all required dependencies.
//
// Returns:
//   - *ShellService: A new shell service instance
//   - error: An error if any required dependency is nil
func NewShellService(deps ShellDeps) (*ShellService, error) {
	if deps.Reader == nil {
		return nil, ErrLineReaderRequired
	}
	if deps.Session == nil {
		return nil, ErrSessionContextRequired
	}
	if deps.Prompt == nil {
		return nil, ErrPromptServiceRequired
	}
	if deps.Expander == nil {
		return nil, ErrExpansionServiceRequired
	}
	if deps.History == nil {
		return nil, ErrHistoryStoreRequired
	}
	if deps.Executor == nil {
		return nil, ErrCommandExecutorRequired
	}
	if deps.Builtins == nil {
		deps.Builtins = usecase.NewRegistry()
	}
	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if deps.Stderr == nil {
		deps.Stderr = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ShellService{
		reader:   deps.Reader,
		session:  deps.Session,
		prompt:   deps.Prompt,
		expander: deps.Expander,
		history:  deps.History,
		builtins: deps.Builtins,
		executor: deps.Executor,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
		logger:   deps.Logger,
		echo:     deps.EchoLines,
	}, nil
}

// LastStatus returns the status of the most recent line.
func (s *ShellService) LastStatus() int {
	return s.lastStatus
}

// Run reads and evaluates lines until exit, end of input or cancellation.
//
// Returns:
//   - int: The status the process should exit with
//   - error: An error if reading input failed
func (s *ShellService) Run(ctx context.Context) (int, error) {
	for {
		if ctx.Err() != nil {
			s.logger.Info("shell cancelled", "status", s.lastStatus)
			return s.lastStatus, nil
		}

		prompt := ""
		if s.reader.Interactive() {
			prompt = s.prompt.Render(s.session.Snapshot())
		}

		line, err := s.reader.ReadLine(ctx, prompt)
		switch {
		case errors.Is(err, port.ErrInterrupted):
			s.lastStatus = StatusInterrupted
			continue
		case errors.Is(err, io.EOF):
			s.logger.Info("end of input")
			return 0, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.logger.Info("shell cancelled", "status", s.lastStatus)
			return s.lastStatus, nil
		case err != nil:
			return StatusFailure, fmt.Errorf("failed to read line: %w", err)
		}

		status, err := s.Submit(ctx, line)
		var exitErr *usecase.ExitError
		if errors.As(err, &exitErr) {
			s.logger.Info("exit requested", "status", exitErr.Code)
			return exitErr.Code, nil
		}
		s.lastStatus = status
	}
}

// Submit evaluates one submitted line.
//
// Returns:
//   - int: The exit status of the line
//   - error: *usecase.ExitError when the line asked the shell to stop
func (s *ShellService) Submit(ctx context.Context, line string) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return s.lastStatus, nil
	}

	expansion, err := s.expander.Expand(line)
	if err != nil {
		s.logger.Debug("expansion failed", "line", line, "error", err)
		fmt.Fprintf(s.stderr, "cush: %v\n", err)
		return StatusFailure, nil
	}
	if expansion.Expanded && s.echo {
		fmt.Fprintln(s.stdout, expansion.Text)
	}

	if index, err := s.history.Append(expansion.Text); err != nil {
		s.logger.Debug("history entry skipped", "line", expansion.Text, "error", err)
	} else {
		s.logger.Debug("history entry recorded", "index", index)
	}

	return s.dispatch(ctx, expansion.Text)
}

func (s *ShellService) dispatch(ctx context.Context, line string) (int, error) {
	if cmd, ok := usecase.ParseCommandLine(line); ok {
		if b, found := s.builtins.Lookup(cmd.Name); found {
			args, err := cmd.Args()
			if err != nil {
				fmt.Fprintf(s.stderr, "cush: %v\n", err)
				return StatusFailure, nil
			}
			return b.Run(ctx, args, usecase.Streams{Stdout: s.stdout, Stderr: s.stderr})
		}
	}

	status, err := s.executor.Execute(ctx, line)
	if err != nil {
		fmt.Fprintf(s.stderr, "cush: %v\n", err)
		return status, nil
	}
	if msg, ok := terminationMessage(status); ok {
		fmt.Fprintln(s.stderr, msg)
	}
	return status, nil
}

// terminationMessage describes a child killed by one of the common fatal
// signals, given its 128+signal status.
func terminationMessage(status int) (string, bool) {
	switch status - 128 {
	case 6:
		return "aborted", true
	case 8:
		return "floating point exception", true
	case 9:
		return "killed", true
	case 11:
		return "segmentation fault", true
	case 15:
		return "terminated", true
	}
	return "", false
}
