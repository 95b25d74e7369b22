package ui

import (
	"unicode/utf8"
)

// KeyKind identifies a decoded keystroke.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyKillToStart
	KeyKillToEnd
	KeyDeleteWord
	KeyClear
	KeyInterrupt
	KeyEOF
)

// Key is one decoded keystroke. Rune is set only for KeyRune.
type Key struct {
	Kind KeyKind
	Rune rune
}

const (
	esc = 0x1b
	del = 0x7f
)

type decoderState int

const (
	stateGround decoderState = iota
	stateEscape              // saw ESC
	stateCSI                 // saw ESC [
	stateSS3                 // saw ESC O
	stateUTF8                // inside a multi-byte rune
)

// KeyDecoder turns raw terminal bytes into keys. It is a pure state machine:
// bytes are fed one at a time and every byte that completes a key yields it.
// Bytes that only partially match an escape sequence stay pending until the
// sequence completes or Flush is called after the escape timeout.
type KeyDecoder struct {
	state   decoderState
	pending []byte
	afterCR bool
}

// NewKeyDecoder creates a decoder in the ground state.
func NewKeyDecoder() *KeyDecoder {
	return &KeyDecoder{}
}

// Pending reports whether bytes are held waiting for more input.
func (d *KeyDecoder) Pending() bool {
	return len(d.pending) > 0
}

// Feed consumes one byte and returns the keys it completes.
func (d *KeyDecoder) Feed(b byte) []Key {
	switch d.state {
	case stateEscape:
		return d.feedEscape(b)
	case stateCSI:
		return d.feedCSI(b)
	case stateSS3:
		return d.feedSS3(b)
	case stateUTF8:
		return d.feedUTF8(b)
	default:
		return d.feedGround(b)
	}
}

// Flush releases held bytes as literal input after the escape timeout.
// Printable bytes that followed the ESC become runes. The ESC byte itself,
// including a lone ESC, is dropped so no raw 0x1b reaches the command line.
func (d *KeyDecoder) Flush() []Key {
	held := d.pending
	d.reset()

	var keys []Key
	for len(held) > 0 {
		if held[0] == esc {
			held = held[1:]
			continue
		}
		r, size := utf8.DecodeRune(held)
		held = held[size:]
		if r != utf8.RuneError && isPrintable(r) {
			keys = append(keys, Key{Kind: KeyRune, Rune: r})
		}
	}
	return keys
}

func (d *KeyDecoder) reset() {
	d.state = stateGround
	d.pending = d.pending[:0:0]
}

func (d *KeyDecoder) feedGround(b byte) []Key {
	afterCR := d.afterCR
	d.afterCR = false

	switch {
	case b == esc:
		d.state = stateEscape
		d.pending = append(d.pending, b)
		return nil
	case b == '\r':
		d.afterCR = true
		return []Key{{Kind: KeyEnter}}
	case b == '\n':
		if afterCR {
			return nil
		}
		return []Key{{Kind: KeyEnter}}
	case b == del || b == 0x08:
		return []Key{{Kind: KeyBackspace}}
	case b < 0x20:
		return controlKey(b)
	case b < utf8.RuneSelf:
		return []Key{{Kind: KeyRune, Rune: rune(b)}}
	default:
		d.state = stateUTF8
		d.pending = append(d.pending, b)
		return d.completeUTF8()
	}
}

func controlKey(b byte) []Key {
	var kind KeyKind
	switch b {
	case 0x01: // Ctrl+A
		kind = KeyHome
	case 0x02: // Ctrl+B
		kind = KeyLeft
	case 0x03: // Ctrl+C
		kind = KeyInterrupt
	case 0x04: // Ctrl+D
		kind = KeyEOF
	case 0x05: // Ctrl+E
		kind = KeyEnd
	case 0x06: // Ctrl+F
		kind = KeyRight
	case 0x0b: // Ctrl+K
		kind = KeyKillToEnd
	case 0x0c: // Ctrl+L
		kind = KeyClear
	case 0x0e: // Ctrl+N
		kind = KeyDown
	case 0x10: // Ctrl+P
		kind = KeyUp
	case 0x15: // Ctrl+U
		kind = KeyKillToStart
	case 0x17: // Ctrl+W
		kind = KeyDeleteWord
	default:
		return nil
	}
	return []Key{{Kind: kind}}
}

func (d *KeyDecoder) feedEscape(b byte) []Key {
	switch b {
	case '[':
		d.state = stateCSI
		d.pending = append(d.pending, b)
		return nil
	case 'O':
		d.state = stateSS3
		d.pending = append(d.pending, b)
		return nil
	case esc:
		// A second ESC abandons the first one.
		d.reset()
		d.state = stateEscape
		d.pending = append(d.pending, b)
		return nil
	}
	// Not a sequence we know: drop the ESC and decode b normally.
	d.reset()
	return d.feedGround(b)
}

func (d *KeyDecoder) feedCSI(b byte) []Key {
	// Parameter and intermediate bytes.
	if b >= 0x20 && b <= 0x3f {
		d.pending = append(d.pending, b)
		return nil
	}
	params := string(d.pending[2:])
	d.reset()

	if b < 0x40 || b > 0x7e {
		// Not a valid final byte; the sequence is abandoned.
		return d.feedGround(b)
	}

	switch b {
	case 'A':
		return []Key{{Kind: KeyUp}}
	case 'B':
		return []Key{{Kind: KeyDown}}
	case 'C':
		return []Key{{Kind: KeyRight}}
	case 'D':
		return []Key{{Kind: KeyLeft}}
	case 'H':
		return []Key{{Kind: KeyHome}}
	case 'F':
		return []Key{{Kind: KeyEnd}}
	case '~':
		switch params {
		case "1", "7":
			return []Key{{Kind: KeyHome}}
		case "4", "8":
			return []Key{{Kind: KeyEnd}}
		case "3":
			return []Key{{Kind: KeyDelete}}
		}
	}
	return nil
}

func (d *KeyDecoder) feedSS3(b byte) []Key {
	d.reset()
	switch b {
	case 'A':
		return []Key{{Kind: KeyUp}}
	case 'B':
		return []Key{{Kind: KeyDown}}
	case 'C':
		return []Key{{Kind: KeyRight}}
	case 'D':
		return []Key{{Kind: KeyLeft}}
	case 'H':
		return []Key{{Kind: KeyHome}}
	case 'F':
		return []Key{{Kind: KeyEnd}}
	}
	return nil
}

func (d *KeyDecoder) feedUTF8(b byte) []Key {
	if b&0xc0 != 0x80 {
		// Truncated rune; drop it and start over with b.
		d.reset()
		return d.feedGround(b)
	}
	d.pending = append(d.pending, b)
	return d.completeUTF8()
}

func (d *KeyDecoder) completeUTF8() []Key {
	if !utf8.FullRune(d.pending) {
		return nil
	}
	r, _ := utf8.DecodeRune(d.pending)
	d.reset()
	if r == utf8.RuneError || !isPrintable(r) {
		return nil
	}
	return []Key{{Kind: KeyRune, Rune: r}}
}

func isPrintable(r rune) bool {
	return r >= 0x20 && r != del && !(r >= 0x80 && r < 0xa0)
}
