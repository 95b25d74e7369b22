// Package logging builds the structured logger the shell writes diagnostics to.
// The terminal belongs to the user, so logs go to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Format represents the output format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and anything else to FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format Format

	// File is appended to when set. Output is used otherwise.
	File string

	// Output receives log records when File is empty. Nil discards them.
	Output io.Writer

	AddTime bool
}

// Logger is a slog.Logger whose level can change after creation.
type Logger struct {
	*slog.Logger

	level  *slog.LevelVar
	closer io.Closer
}

// NewLogger creates a logger with the given configuration. Every record
// carries a session attribute unique to this process.
func NewLogger(config Config) (*Logger, error) {
	out := config.Output
	var closer io.Closer
	if config.File != "" {
		f, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closer = f
	}
	if out == nil {
		out = io.Discard
	}

	level := &slog.LevelVar{}
	level.Set(config.Level)

	opts := &slog.HandlerOptions{Level: level}
	if !config.AddTime {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		}
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return &Logger{
		Logger: slog.New(handler).With("session", uuid.NewString()),
		level:  level,
		closer: closer,
	}, nil
}

// NewDisabledLogger creates a logger that discards all output.
func NewDisabledLogger() *Logger {
	l, _ := NewLogger(Config{Level: slog.LevelError})
	return l
}

// SetLevel updates the logger's level.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level returns the current level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *slog.Logger {
	return l.With("component", name)
}

// Close closes the log file, if one was opened.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
