package port

import (
	"context"
	"cush/internal/domain/entity"
	"errors"
)

// ErrInterrupted is returned by ReadLine when the user cancels the line
// being edited (Ctrl+C). The shell discards the line and prompts again.
var ErrInterrupted = errors.New("line interrupted")

// LineReader defines the inbound port the shell reads command lines from.
// Implementations own the terminal for the duration of a ReadLine call.
type LineReader interface {
	// ReadLine displays prompt and returns the next submitted line without
	// its terminator. It returns io.EOF when input is exhausted and
	// ErrInterrupted when the line was cancelled.
	ReadLine(ctx context.Context, prompt string) (string, error)

	// Interactive reports whether prompts are displayed and keystrokes echoed.
	Interactive() bool
}

// SessionContext provides the identity snapshot the prompt is rendered from.
type SessionContext interface {
	Snapshot() entity.PromptContext
}
