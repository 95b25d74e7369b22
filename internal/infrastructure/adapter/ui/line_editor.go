package ui

import (
	"cush/internal/domain/port"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// EditorState is the state of a LineEditor for the current line.
type EditorState int

const (
	// StateEditing is the initial state; keys modify the buffer.
	StateEditing EditorState = iota
	// StateSubmitted means Enter was pressed; Line holds the finished line.
	StateSubmitted
	// StateCancelled means the line was discarded with Ctrl+C.
	StateCancelled
	// StateEOF means Ctrl+D was pressed on an empty buffer.
	StateEOF
)

// String returns the state name.
func (s EditorState) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitted:
		return "submitted"
	case StateCancelled:
		return "cancelled"
	case StateEOF:
		return "eof"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// LineEditor edits one logical input line at a time.
//
// Up and Down walk the history without mutating it: navigation offset k loads
// the entry k positions back from the end, and offset 0 is an empty buffer.
// Any edit leaves navigation mode. The recalled text is submitted as typed;
// bang expansion happens after submission.
type LineEditor struct {
	history port.HistoryStore
	out     io.Writer
	echo    bool

	prompt     string
	promptLine string
	buf        []rune
	cursor int
	offset int
	state  EditorState
}

// NewLineEditor creates a LineEditor that recalls from history and, when echo
// is set, renders the prompt and buffer to out.
func NewLineEditor(history port.HistoryStore, out io.Writer, echo bool) *LineEditor {
	if out == nil {
		out = io.Discard
	}
	return &LineEditor{
		history: history,
		out:     out,
		echo:    echo,
	}
}

// Begin resets the cursor state for a new line and displays prompt.
// Newlines in prompt are written as CRLF since raw mode turns off output
// processing; later redraws only repeat the text after the last newline.
func (e *LineEditor) Begin(prompt string) {
	e.prompt = strings.ReplaceAll(strings.ReplaceAll(prompt, "\r\n", "\n"), "\n", "\r\n")
	e.promptLine = e.prompt
	if i := strings.LastIndex(e.prompt, "\n"); i >= 0 {
		e.promptLine = e.prompt[i+1:]
	}
	e.buf = e.buf[:0]
	e.cursor = 0
	e.offset = 0
	e.state = StateEditing
	e.write(e.prompt)
}

// State returns the current editor state.
func (e *LineEditor) State() EditorState {
	return e.state
}

// Buffer returns the current buffer contents.
func (e *LineEditor) Buffer() string {
	return string(e.buf)
}

// Cursor returns the cursor position in runes.
func (e *LineEditor) Cursor() int {
	return e.cursor
}

// Offset returns the history navigation offset; 0 means not navigating.
func (e *LineEditor) Offset() int {
	return e.offset
}

// Line returns the submitted line. It is only meaningful in StateSubmitted.
func (e *LineEditor) Line() string {
	return string(e.buf)
}

// Handle applies one key and reports whether the line reached a terminal state.
func (e *LineEditor) Handle(k Key) bool {
	if e.state != StateEditing {
		return true
	}

	switch k.Kind {
	case KeyRune:
		e.insert(k.Rune)
	case KeyEnter:
		e.state = StateSubmitted
		e.write("\r\n")
	case KeyInterrupt:
		e.state = StateCancelled
		e.write("^C\r\n")
	case KeyEOF:
		if len(e.buf) == 0 {
			e.state = StateEOF
			e.write("\r\n")
			break
		}
		e.deleteAt(e.cursor)
	case KeyBackspace:
		if e.cursor > 0 {
			e.cursor--
			e.deleteAt(e.cursor)
		}
	case KeyDelete:
		e.deleteAt(e.cursor)
	case KeyLeft:
		if e.cursor > 0 {
			e.cursor--
			e.refresh()
		}
	case KeyRight:
		if e.cursor < len(e.buf) {
			e.cursor++
			e.refresh()
		}
	case KeyHome:
		e.cursor = 0
		e.refresh()
	case KeyEnd:
		e.cursor = len(e.buf)
		e.refresh()
	case KeyUp:
		e.navigate(e.offset + 1)
	case KeyDown:
		if e.offset > 0 {
			e.navigate(e.offset - 1)
		}
	case KeyKillToStart:
		e.offset = 0
		e.buf = append(e.buf[:0], e.buf[e.cursor:]...)
		e.cursor = 0
		e.refresh()
	case KeyKillToEnd:
		e.offset = 0
		e.buf = e.buf[:e.cursor]
		e.refresh()
	case KeyDeleteWord:
		e.deleteWord()
	case KeyClear:
		e.write("\x1b[H\x1b[2J")
		e.redraw(e.prompt)
	}

	return e.state != StateEditing
}

func (e *LineEditor) insert(r rune) {
	e.offset = 0
	if e.cursor == len(e.buf) {
		e.buf = append(e.buf, r)
		e.cursor++
		e.write(string(r))
		return
	}
	e.buf = append(e.buf, 0)
	copy(e.buf[e.cursor+1:], e.buf[e.cursor:])
	e.buf[e.cursor] = r
	e.cursor++
	e.refresh()
}

func (e *LineEditor) deleteAt(pos int) {
	if pos < 0 || pos >= len(e.buf) {
		return
	}
	e.offset = 0
	e.buf = append(e.buf[:pos], e.buf[pos+1:]...)
	e.refresh()
}

func (e *LineEditor) deleteWord() {
	start := e.cursor
	for start > 0 && e.buf[start-1] == ' ' {
		start--
	}
	for start > 0 && e.buf[start-1] != ' ' {
		start--
	}
	if start == e.cursor {
		return
	}
	e.offset = 0
	e.buf = append(e.buf[:start], e.buf[e.cursor:]...)
	e.cursor = start
	e.refresh()
}

// navigate moves to history offset k. The move is refused when no entry
// exists at k, so the buffer never goes past the oldest entry.
func (e *LineEditor) navigate(k int) {
	if e.history == nil {
		return
	}
	text := ""
	if k > 0 {
		var ok bool
		text, ok = e.history.Relative(k)
		if !ok {
			return
		}
	}
	e.offset = k
	e.buf = append(e.buf[:0], []rune(text)...)
	e.cursor = len(e.buf)
	e.refresh()
}

// refresh redraws the last prompt line and the buffer and puts the terminal
// cursor back at the editor cursor.
func (e *LineEditor) refresh() {
	e.redraw(e.promptLine)
}

func (e *LineEditor) redraw(prompt string) {
	if !e.echo {
		return
	}
	var b strings.Builder
	b.WriteString("\r")
	b.WriteString(prompt)
	b.WriteString(string(e.buf))
	b.WriteString("\x1b[K")
	if tail := runewidth.StringWidth(string(e.buf[e.cursor:])); tail > 0 {
		b.WriteString("\x1b[")
		b.WriteString(strconv.Itoa(tail))
		b.WriteString("D")
	}
	_, _ = io.WriteString(e.out, b.String())
}

func (e *LineEditor) write(s string) {
	if !e.echo || s == "" {
		return
	}
	_, _ = io.WriteString(e.out, s)
}
