package ui

import (
	"bufio"
	"context"
	"cush/internal/domain/port"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// DefaultEscapeTimeout is how long a lone ESC waits for the rest of a sequence.
const DefaultEscapeTimeout = 50 * time.Millisecond

const readChunkSize = 256

var errReadTimeout = errors.New("read timeout")

// CLIOptions configures a CLIAdapter.
type CLIOptions struct {
	// Interactive forces prompts and echo even when input is not a terminal.
	Interactive bool

	// EscapeTimeout bounds the wait after a partial escape sequence.
	// Zero uses DefaultEscapeTimeout.
	EscapeTimeout time.Duration

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

type readResult struct {
	data []byte
	err  error
}

// CLIAdapter implements the LineReader port on a terminal.
//
// In interactive mode every ReadLine puts the terminal in raw mode, feeds the
// bytes through a KeyDecoder into a LineEditor and restores the terminal
// before returning, so commands always run on a cooked terminal. Without a
// terminal (and without Interactive) lines are read verbatim and no prompt is
// shown.
type CLIAdapter struct {
	input         io.Reader
	output        io.Writer
	interactive   bool
	escapeTimeout time.Duration
	logger        *slog.Logger

	fd     int
	isTerm bool

	decoder *KeyDecoder
	editor  *LineEditor
	queued  []Key
	reads   chan readResult
	readErr error

	lines *bufio.Reader
}

// NewCLIAdapter creates a CLIAdapter on stdin/stdout.
func NewCLIAdapter(history port.HistoryStore, opts CLIOptions) *CLIAdapter {
	return NewCLIAdapterWithIO(os.Stdin, os.Stdout, history, opts)
}

// NewCLIAdapterWithIO creates a CLIAdapter with custom I/O. When input is a
// terminal the adapter is interactive and uses raw mode.
func NewCLIAdapterWithIO(input io.Reader, output io.Writer, history port.HistoryStore, opts CLIOptions) *CLIAdapter {
	if opts.EscapeTimeout <= 0 {
		opts.EscapeTimeout = DefaultEscapeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	a := &CLIAdapter{
		input:         input,
		output:        output,
		escapeTimeout: opts.EscapeTimeout,
		logger:        opts.Logger,
		fd:            -1,
	}

	if f, ok := input.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		a.fd = int(f.Fd())
		a.isTerm = true
	}
	a.interactive = a.isTerm || opts.Interactive

	if a.interactive {
		a.decoder = NewKeyDecoder()
		a.editor = NewLineEditor(history, output, true)
	} else {
		a.lines = bufio.NewReader(input)
	}
	return a
}

// Interactive reports whether prompts are displayed and keystrokes echoed.
func (a *CLIAdapter) Interactive() bool {
	return a.interactive
}

// IsTerminal reports whether input is a terminal.
func (a *CLIAdapter) IsTerminal() bool {
	return a.isTerm
}

// ReadLine displays prompt and returns the next submitted line.
func (a *CLIAdapter) ReadLine(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if !a.interactive {
		return a.readPlainLine()
	}

	if a.isTerm {
		state, err := term.MakeRaw(a.fd)
		if err != nil {
			return "", fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer func() {
			if err := term.Restore(a.fd, state); err != nil {
				a.logger.Warn("failed to restore terminal", "error", err)
			}
		}()
	}

	if prompt != "" {
		prompt += " "
	}
	a.editor.Begin(prompt)
	return a.edit(ctx)
}

// readPlainLine reads one newline-terminated line without echo or prompt.
func (a *CLIAdapter) readPlainLine() (string, error) {
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// edit feeds keys into the editor until the line is finished.
func (a *CLIAdapter) edit(ctx context.Context) (string, error) {
	for {
		if done := a.drainQueued(); done {
			return a.finish()
		}

		timeout := time.Duration(0)
		if a.decoder.Pending() {
			timeout = a.escapeTimeout
		}

		data, err := a.read(ctx, timeout)
		switch {
		case errors.Is(err, errReadTimeout):
			a.queued = append(a.queued, a.decoder.Flush()...)
			continue
		case err != nil && len(data) == 0:
			a.queued = append(a.queued, a.decoder.Flush()...)
			if done := a.drainQueued(); done {
				return a.finish()
			}
			if errors.Is(err, io.EOF) && a.editor.Buffer() != "" {
				a.editor.Handle(Key{Kind: KeyEnter})
				return a.finish()
			}
			return "", err
		}

		for _, b := range data {
			a.queued = append(a.queued, a.decoder.Feed(b)...)
		}
	}
}

// drainQueued hands queued keys to the editor until it finishes. Keys after
// the end of the line stay queued for the next ReadLine.
func (a *CLIAdapter) drainQueued() bool {
	for len(a.queued) > 0 {
		k := a.queued[0]
		a.queued = a.queued[1:]
		if a.editor.Handle(k) {
			return true
		}
	}
	return false
}

func (a *CLIAdapter) finish() (string, error) {
	state := a.editor.State()
	a.logger.Debug("line finished", "state", state.String())

	switch state {
	case StateSubmitted:
		return a.editor.Line(), nil
	case StateCancelled:
		return "", port.ErrInterrupted
	default:
		return "", io.EOF
	}
}

// read returns the next chunk of input. At most one read is in flight; when
// timeout expires first the read stays pending for the next call.
func (a *CLIAdapter) read(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if a.readErr != nil {
		return nil, a.readErr
	}

	if a.reads == nil {
		ch := make(chan readResult, 1)
		a.reads = ch
		go func() {
			buf := make([]byte, readChunkSize)
			n, err := a.input.Read(buf)
			ch <- readResult{data: buf[:n], err: err}
		}()
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-a.reads:
		a.reads = nil
		if r.err != nil {
			a.readErr = r.err
		}
		return r.data, r.err
	case <-expired:
		return nil, errReadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
