package service_test

import (
	"cush/internal/domain/entity"
	"cush/internal/domain/service"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceHistory is a minimal port.HistoryStore backed by a slice, index i+1
// holding texts[i].
type sliceHistory struct {
	texts []string
}

func (h *sliceHistory) Append(text string) (uint64, error) {
	h.texts = append(h.texts, text)
	return uint64(len(h.texts)), nil
}

func (h *sliceHistory) Get(n uint64) (string, bool) {
	if n < 1 || n > uint64(len(h.texts)) {
		return "", false
	}
	return h.texts[n-1], true
}

func (h *sliceHistory) Relative(k int) (string, bool) {
	if k < 1 || k > len(h.texts) {
		return "", false
	}
	return h.texts[len(h.texts)-k], true
}

func (h *sliceHistory) FindLastWithPrefix(prefix string) (string, bool) {
	for i := len(h.texts) - 1; i >= 0; i-- {
		if strings.HasPrefix(h.texts[i], prefix) {
			return h.texts[i], true
		}
	}
	return "", false
}

func (h *sliceHistory) FindLastContaining(substr string) (string, bool) {
	for i := len(h.texts) - 1; i >= 0; i-- {
		if strings.Contains(h.texts[i], substr) {
			return h.texts[i], true
		}
	}
	return "", false
}

func (h *sliceHistory) Entries() []entity.HistoryEntry {
	entries := make([]entity.HistoryEntry, len(h.texts))
	for i, text := range h.texts {
		entries[i] = entity.HistoryEntry{Index: uint64(i + 1), Text: text}
	}
	return entries
}

func (h *sliceHistory) RenderAll() []string {
	lines := []string{}
	for _, e := range h.Entries() {
		lines = append(lines, e.String())
	}
	return lines
}

func (h *sliceHistory) Len() int { return len(h.texts) }

func newExpander(t *testing.T, texts ...string) *service.ExpansionService {
	t.Helper()
	s, err := service.NewExpansionService(&sliceHistory{texts: texts})
	require.NoError(t, err)
	return s
}

func TestNewExpansionService(t *testing.T) {
	t.Run("nil history is rejected", func(t *testing.T) {
		s, err := service.NewExpansionService(nil)
		require.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestExpansionService_NotAReference(t *testing.T) {
	s := newExpander(t, "ls -a")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain command", "ls -l", "ls -l"},
		{"surrounding whitespace is trimmed", "  ps -j  ", "ps -j"},
		{"lone bang", "!", "!"},
		{"bang followed by space", "! true", "! true"},
		{"bang followed by equals", "!=x", "!=x"},
		{"bang followed by paren", "!(foo)", "!(foo)"},
		{"bang in the middle", "echo hi!", "echo hi!"},
		{"empty line", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Expand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Text)
			assert.False(t, got.Expanded)
		})
	}
}

func TestExpansionService_LastCommand(t *testing.T) {
	t.Run("bang bang resolves to the most recent entry", func(t *testing.T) {
		s := newExpander(t, "ls -a", "ps", "ps -j")

		got, err := s.Expand("!!")
		require.NoError(t, err)
		assert.Equal(t, "ps -j", got.Text)
		assert.True(t, got.Expanded)
	})

	t.Run("text after bang bang is appended", func(t *testing.T) {
		s := newExpander(t, "echo hello")

		got, err := s.Expand("!! | rev")
		require.NoError(t, err)
		assert.Equal(t, "echo hello | rev", got.Text)
	})

	t.Run("empty history yields ErrNoHistory", func(t *testing.T) {
		s := newExpander(t)

		_, err := s.Expand("!!")
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrNoHistory))

		var expErr *service.ExpansionError
		require.True(t, errors.As(err, &expErr))
		assert.Equal(t, "!!", expErr.Ref)
		assert.Equal(t, "!!: no history", err.Error())
	})
}

func TestExpansionService_AbsoluteIndex(t *testing.T) {
	s := newExpander(t, "ls -a", "history", "ls -l", "ps", "ps -j")

	t.Run("every valid index resolves to its exact entry", func(t *testing.T) {
		want := []string{"ls -a", "history", "ls -l", "ps", "ps -j"}
		for i, text := range want {
			got, err := s.Expand("!" + string(rune('1'+i)))
			require.NoError(t, err)
			assert.Equal(t, text, got.Text)
			assert.True(t, got.Expanded)
		}
	})

	t.Run("index is absolute, not relative to history length", func(t *testing.T) {
		got, err := s.Expand("!1")
		require.NoError(t, err)
		assert.Equal(t, "ls -a", got.Text)
	})

	for _, ref := range []string{"!0", "!6", "!99", "!99999999999999999999999"} {
		t.Run(ref+" is out of range", func(t *testing.T) {
			_, err := s.Expand(ref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, service.ErrHistoryIndexNotFound))
			assert.Contains(t, err.Error(), ref)
		})
	}
}

func TestExpansionService_RelativeIndex(t *testing.T) {
	s := newExpander(t, "one", "two", "three")

	t.Run("minus one is the most recent entry", func(t *testing.T) {
		got, err := s.Expand("!-1")
		require.NoError(t, err)
		assert.Equal(t, "three", got.Text)
	})

	t.Run("minus three is the oldest entry", func(t *testing.T) {
		got, err := s.Expand("!-3")
		require.NoError(t, err)
		assert.Equal(t, "one", got.Text)
	})

	t.Run("past the oldest entry is not found", func(t *testing.T) {
		_, err := s.Expand("!-4")
		assert.True(t, errors.Is(err, service.ErrHistoryIndexNotFound))
	})

	t.Run("minus zero is not found", func(t *testing.T) {
		_, err := s.Expand("!-0")
		assert.True(t, errors.Is(err, service.ErrHistoryIndexNotFound))
	})

	t.Run("minus followed by text is a prefix search", func(t *testing.T) {
		s := newExpander(t, "-x flag", "other")

		got, err := s.Expand("!-x")
		require.NoError(t, err)
		assert.Equal(t, "-x flag", got.Text)
	})
}

func TestExpansionService_Prefix(t *testing.T) {
	s := newExpander(t, "ls -a", "history", "ls -l", "ps", "ps -j", "history")

	t.Run("newest matching entry wins", func(t *testing.T) {
		got, err := s.Expand("!p")
		require.NoError(t, err)
		assert.Equal(t, "ps -j", got.Text)
		assert.True(t, got.Expanded)
	})

	t.Run("longer prefix narrows the match", func(t *testing.T) {
		got, err := s.Expand("!ls")
		require.NoError(t, err)
		assert.Equal(t, "ls -l", got.Text)
	})

	t.Run("whole remainder is the prefix", func(t *testing.T) {
		got, err := s.Expand("!ls -a")
		require.NoError(t, err)
		assert.Equal(t, "ls -a", got.Text)
	})

	t.Run("no match yields ErrNoMatchingHistory", func(t *testing.T) {
		_, err := s.Expand("!zzz")
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrNoMatchingHistory))
		assert.Equal(t, "!zzz: no matching history entry", err.Error())
	})
}

func TestExpansionService_Substring(t *testing.T) {
	s := newExpander(t, "echo hello | rev", "ls -la", "cat notes")

	t.Run("question mark searches anywhere in the entry", func(t *testing.T) {
		got, err := s.Expand("!?rev?")
		require.NoError(t, err)
		assert.Equal(t, "echo hello | rev", got.Text)
	})

	t.Run("trailing question mark is optional", func(t *testing.T) {
		got, err := s.Expand("!?la")
		require.NoError(t, err)
		assert.Equal(t, "ls -la", got.Text)
	})

	t.Run("empty pattern never matches", func(t *testing.T) {
		_, err := s.Expand("!??")
		assert.True(t, errors.Is(err, service.ErrNoMatchingHistory))
	})

	t.Run("missing substring yields ErrNoMatchingHistory", func(t *testing.T) {
		_, err := s.Expand("!?nothing?")
		assert.True(t, errors.Is(err, service.ErrNoMatchingHistory))
	})
}

func TestExpansionService_SinglePass(t *testing.T) {
	t.Run("resolved text is not expanded again", func(t *testing.T) {
		s := newExpander(t, "ls", "!1")

		got, err := s.Expand("!2")
		require.NoError(t, err)
		assert.Equal(t, "!1", got.Text)
	})
}
