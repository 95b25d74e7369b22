package entity

import (
	"strconv"
)

// HistoryEntry is one recorded command line paired with its permanent
// sequence index. Indices start at 1 and are never reused or renumbered.
type HistoryEntry struct {
	Index uint64 `json:"index"` // 1-based position in the session log
	Text  string `json:"text"`  // The resolved command text
}

// String renders the entry the way the history builtin prints it: the index,
// a single space, then the command text.
func (e HistoryEntry) String() string {
	return strconv.FormatUint(e.Index, 10) + " " + e.Text
}
