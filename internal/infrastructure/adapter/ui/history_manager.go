// Package ui provides the terminal adapters of the shell: the command history,
// the key decoder, the line editor and the CLI adapter that ties them to a
// terminal.
package ui

import (
	"cush/internal/domain/entity"
	"errors"
	"strings"
	"sync"
)

// ErrEmptyEntry is returned when attempting to add an empty or whitespace-only entry.
var ErrEmptyEntry = errors.New("history: entry cannot be empty or whitespace-only")

// ErrEmbeddedNewline is returned when attempting to add an entry containing embedded newlines.
var ErrEmbeddedNewline = errors.New("history: entry cannot contain embedded newlines")

// ErrConsecutiveDuplicate is returned when duplicates are ignored and the entry
// matches the most recent one.
var ErrConsecutiveDuplicate = errors.New("history: consecutive duplicate entry not allowed")

// HistoryOptions configures the optional policies layered on the log.
type HistoryOptions struct {
	// MaxEntries bounds the number of retained entries. Zero or negative means unlimited.
	MaxEntries int

	// IgnoreDups rejects an entry equal to the most recent one.
	IgnoreDups bool
}

// HistoryManager is the in-memory, append-only command log of a session.
//
// Every entry is assigned the next sequential index on Append and keeps it
// for the lifetime of the session. When MaxEntries is set the oldest entries
// are dropped, but the survivors are never renumbered.
type HistoryManager struct {
	opts      HistoryOptions
	entries   []entity.HistoryEntry
	nextIndex uint64
	mu        sync.RWMutex
}

// NewHistoryManager creates an empty HistoryManager.
func NewHistoryManager(opts HistoryOptions) *HistoryManager {
	if opts.MaxEntries < 0 {
		opts.MaxEntries = 0
	}
	return &HistoryManager{
		opts:      opts,
		entries:   []entity.HistoryEntry{},
		nextIndex: 1,
	}
}

// Append records a new entry and returns its index.
// The entry is trimmed of leading/trailing whitespace before storage.
// Returns ErrEmptyEntry if the entry is empty or whitespace-only.
// Returns ErrEmbeddedNewline if the entry contains embedded newlines.
// Returns ErrConsecutiveDuplicate if IgnoreDups is set and the entry matches the most recent entry.
func (hm *HistoryManager) Append(text string) (uint64, error) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ErrEmptyEntry
	}

	if strings.ContainsAny(trimmed, "\r\n") {
		return 0, ErrEmbeddedNewline
	}

	if hm.opts.IgnoreDups && hm.isConsecutiveDuplicate(trimmed) {
		return 0, ErrConsecutiveDuplicate
	}

	index := hm.nextIndex
	hm.nextIndex++
	hm.entries = append(hm.entries, entity.HistoryEntry{Index: index, Text: trimmed})
	hm.trimToMaxEntries()

	return index, nil
}

// isConsecutiveDuplicate checks if the entry matches the most recent history entry.
// Must be called with mu held.
func (hm *HistoryManager) isConsecutiveDuplicate(text string) bool {
	if len(hm.entries) == 0 {
		return false
	}
	return hm.entries[len(hm.entries)-1].Text == text
}

// trimToMaxEntries removes oldest entries if history exceeds MaxEntries.
// Must be called with mu held.
func (hm *HistoryManager) trimToMaxEntries() {
	if hm.opts.MaxEntries > 0 && len(hm.entries) > hm.opts.MaxEntries {
		kept := make([]entity.HistoryEntry, hm.opts.MaxEntries)
		copy(kept, hm.entries[len(hm.entries)-hm.opts.MaxEntries:])
		hm.entries = kept
	}
}

// Get returns the text stored at absolute index n.
func (hm *HistoryManager) Get(n uint64) (string, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	if len(hm.entries) == 0 {
		return "", false
	}
	// Indices are contiguous, so the position follows from the oldest index.
	first := hm.entries[0].Index
	if n < first || n-first >= uint64(len(hm.entries)) {
		return "", false
	}
	return hm.entries[n-first].Text, true
}

// Relative returns the entry k positions back from the end; k=1 is the most recent.
func (hm *HistoryManager) Relative(k int) (string, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	if k < 1 || k > len(hm.entries) {
		return "", false
	}
	return hm.entries[len(hm.entries)-k].Text, true
}

// FindLastWithPrefix returns the most recent entry starting with prefix.
func (hm *HistoryManager) FindLastWithPrefix(prefix string) (string, bool) {
	return hm.findLast(func(text string) bool {
		return strings.HasPrefix(text, prefix)
	})
}

// FindLastContaining returns the most recent entry containing substr.
func (hm *HistoryManager) FindLastContaining(substr string) (string, bool) {
	return hm.findLast(func(text string) bool {
		return strings.Contains(text, substr)
	})
}

func (hm *HistoryManager) findLast(match func(string) bool) (string, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	for i := len(hm.entries) - 1; i >= 0; i-- {
		if match(hm.entries[i].Text) {
			return hm.entries[i].Text, true
		}
	}
	return "", false
}

// Entries returns a copy of all entries in ascending index order.
func (hm *HistoryManager) Entries() []entity.HistoryEntry {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make([]entity.HistoryEntry, len(hm.entries))
	copy(result, hm.entries)
	return result
}

// RenderAll returns one "<index> <text>" line per entry in ascending order.
func (hm *HistoryManager) RenderAll() []string {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	lines := make([]string, len(hm.entries))
	for i, e := range hm.entries {
		lines[i] = e.String()
	}
	return lines
}

// Len returns the number of entries currently retained.
func (hm *HistoryManager) Len() int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	return len(hm.entries)
}

// Last returns the most recent entry and true, or empty string and false if history is empty.
func (hm *HistoryManager) Last() (string, bool) {
	return hm.Relative(1)
}
