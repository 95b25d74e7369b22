package service

import (
	"cush/internal/domain/port"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNoHistory is returned when "!!" is used before anything was recorded.
	ErrNoHistory = errors.New("no history")

	// ErrHistoryIndexNotFound is returned when "!n" or "!-n" points outside the log.
	ErrHistoryIndexNotFound = errors.New("history index not found")

	// ErrNoMatchingHistory is returned when a prefix or substring search finds nothing.
	ErrNoMatchingHistory = errors.New("no matching history entry")
)

// ExpansionError reports a history reference that could not be resolved.
// Err is one of the sentinel errors above.
type ExpansionError struct {
	Ref string // The reference as typed, e.g. "!12"
	Err error
}

// Error implements the error interface.
func (e *ExpansionError) Error() string {
	return e.Ref + ": " + e.Err.Error()
}

// Unwrap returns the sentinel error so callers can use errors.Is.
func (e *ExpansionError) Unwrap() error {
	return e.Err
}

// Expansion is the outcome of resolving one input line.
type Expansion struct {
	Text     string // Line to execute and record
	Expanded bool   // True when Text came from history
}

// ExpansionService rewrites bang references ("!!", "!n", "!-n", "!?str?",
// "!prefix") into the command text they point at.
//
// Only a line that starts with "!" is a reference; the whole remainder of the
// line is the designator. Resolution is single-pass, so text taken from
// history is never scanned again.
type ExpansionService struct {
	history port.HistoryStore
}

// NewExpansionService creates an ExpansionService that resolves against history.
func NewExpansionService(history port.HistoryStore) (*ExpansionService, error) {
	if history == nil {
		return nil, errors.New("history store cannot be nil")
	}
	return &ExpansionService{history: history}, nil
}

// Expand resolves line. Lines that are not history references are returned
// unchanged with Expanded=false. Surrounding whitespace is trimmed.
func (s *ExpansionService) Expand(line string) (Expansion, error) {
	line = strings.TrimSpace(line)
	if !isReference(line) {
		return Expansion{Text: line}, nil
	}

	designator := line[1:]
	switch {
	case strings.HasPrefix(designator, "!"):
		return s.expandLast(designator[1:])
	case strings.HasPrefix(designator, "-") && isDigits(designator[1:]):
		return s.expandRelative(line, designator[1:])
	case isDigits(designator):
		return s.expandAbsolute(line, designator)
	case strings.HasPrefix(designator, "?"):
		return s.expandContaining(line, designator[1:])
	default:
		return s.expandPrefix(line, designator)
	}
}

// expandLast handles "!!", appending whatever followed the designator.
func (s *ExpansionService) expandLast(rest string) (Expansion, error) {
	text, ok := s.history.Relative(1)
	if !ok {
		return Expansion{}, &ExpansionError{Ref: "!!", Err: ErrNoHistory}
	}
	return Expansion{Text: text + rest, Expanded: true}, nil
}

func (s *ExpansionService) expandRelative(ref, digits string) (Expansion, error) {
	k, err := strconv.Atoi(digits)
	if err != nil {
		return Expansion{}, &ExpansionError{Ref: ref, Err: ErrHistoryIndexNotFound}
	}
	text, ok := s.history.Relative(k)
	if !ok {
		return Expansion{}, &ExpansionError{Ref: ref, Err: ErrHistoryIndexNotFound}
	}
	return Expansion{Text: text, Expanded: true}, nil
}

// expandAbsolute handles "!n". The number is an absolute index, never an
// offset from the current line.
func (s *ExpansionService) expandAbsolute(ref, digits string) (Expansion, error) {
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return Expansion{}, &ExpansionError{Ref: ref, Err: ErrHistoryIndexNotFound}
	}
	text, ok := s.history.Get(n)
	if !ok {
		return Expansion{}, &ExpansionError{Ref: ref, Err: ErrHistoryIndexNotFound}
	}
	return Expansion{Text: text, Expanded: true}, nil
}

// expandContaining handles "!?str" and "!?str?".
func (s *ExpansionService) expandContaining(ref, pattern string) (Expansion, error) {
	pattern = strings.TrimSuffix(pattern, "?")
	if pattern == "" {
		return Expansion{}, &ExpansionError{Ref: ref, Err: ErrNoMatchingHistory}
	}
	text, ok := s.history.FindLastContaining(pattern)
	if !ok {
		return Expansion{}, &ExpansionError{Ref: ref, Err: ErrNoMatchingHistory}
	}
	return Expansion{Text: text, Expanded: true}, nil
}

func (s *ExpansionService) expandPrefix(ref, prefix string) (Expansion, error) {
	text, ok := s.history.FindLastWithPrefix(prefix)
	if !ok {
		return Expansion{}, &ExpansionError{Ref: ref, Err: ErrNoMatchingHistory}
	}
	return Expansion{Text: text, Expanded: true}, nil
}

// isReference reports whether line is a history reference. A "!" followed by
// whitespace, "=" or "(" is left alone, matching bash.
func isReference(line string) bool {
	if len(line) < 2 || line[0] != '!' {
		return false
	}
	switch line[1] {
	case ' ', '\t', '=', '(':
		return false
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
