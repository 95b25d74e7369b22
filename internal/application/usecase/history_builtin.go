package usecase

import (
	"context"
	"cush/internal/domain/port"
	"fmt"
	"strconv"
)

// HistoryBuiltin prints the session history as "<index> <text>" lines.
//
// With no arguments every entry is listed; `history N` lists the last N.
// It never mutates the store. The invocation itself is already recorded
// by the time it runs, so it lists itself last.
type HistoryBuiltin struct {
	history port.HistoryStore
}

// NewHistoryBuiltin creates a HistoryBuiltin.
//
// Parameters:
//   - history: The store to list
//
// Returns:
//   - *HistoryBuiltin: A new builtin
//   - error: An error if history is nil
func NewHistoryBuiltin(history port.HistoryStore) (*HistoryBuiltin, error) {
	if history == nil {
		return nil, ErrHistoryStoreRequired
	}
	return &HistoryBuiltin{history: history}, nil
}

// Name returns "history".
func (h *HistoryBuiltin) Name() string {
	return "history"
}

// Run lists history entries.
func (h *HistoryBuiltin) Run(_ context.Context, args []string, streams Streams) (int, error) {
	if len(args) > 1 {
		fmt.Fprintln(streams.Stderr, "history: too many arguments")
		return 2, nil
	}

	lines := h.history.RenderAll()
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fmt.Fprintln(streams.Stderr, "history: invalid number:", args[0])
			return 1, nil
		}
		if n < len(lines) {
			lines = lines[len(lines)-n:]
		}
	}

	for _, line := range lines {
		fmt.Fprintln(streams.Stdout, line)
	}
	return 0, nil
}
