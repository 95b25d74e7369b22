package port

import (
	"cush/internal/domain/entity"
)

// HistoryStore defines the append-only command log of a shell session.
// Every entry keeps the index it was assigned on Append for the lifetime of
// the session.
type HistoryStore interface {
	// Append records a resolved command line and returns its index.
	Append(text string) (uint64, error)

	// Get returns the text stored at the absolute index n.
	Get(n uint64) (string, bool)

	// Relative returns the entry k positions back from the end.
	// k=1 is the most recent entry.
	Relative(k int) (string, bool)

	// FindLastWithPrefix scans newest to oldest for a text starting with prefix.
	FindLastWithPrefix(prefix string) (string, bool)

	// FindLastContaining scans newest to oldest for a text containing substr.
	FindLastContaining(substr string) (string, bool)

	// Entries returns a copy of the stored entries in ascending index order.
	Entries() []entity.HistoryEntry

	// RenderAll returns one "<index> <text>" line per entry in ascending order.
	RenderAll() []string

	// Len returns the number of stored entries.
	Len() int
}
