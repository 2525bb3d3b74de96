// Package scan decodes keyboard-wedge card readers: a reader "types" the card
// id at machine speed and presses Enter, so a burst of fast keystrokes closed
// by a terminator is a card token, while slower human typing never is.
package scan

import (
	"unicode"
	"unicode/utf8"
)

// GapThreshold is the largest pause, in milliseconds, allowed between two
// keystrokes of the same token.
const GapThreshold int64 = 100

// InputEvent is one key press. Key is a single key symbol ("A", "7") or a
// named control key ("Enter", "Shift", "ArrowLeft"). At is unix milliseconds.
type InputEvent struct {
	Key string `json:"key"`
	At  int64  `json:"ts"`
}

// State of the tokenizer state machine.
type State int

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

type eventKind int

const (
	kindIgnored eventKind = iota
	kindChar
	kindTerminator
)

func classify(key string) eventKind {
	switch key {
	case "Enter", "Return", "\r", "\n":
		return kindTerminator
	}
	if utf8.RuneCountInString(key) != 1 {
		return kindIgnored
	}
	r, _ := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return kindIgnored
	}
	return kindChar
}

// Tokenizer turns a key-press stream into card tokens. It is not safe for
// concurrent use; Sessions serialises access per scanning session.
type Tokenizer struct {
	enabled bool
	state   State
	buf     []byte
	last    int64
	seen    bool
}

// NewTokenizer returns a disabled tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Enable turns scanning mode on with an empty buffer.
func (t *Tokenizer) Enable() {
	t.reset()
	t.enabled = true
}

// Disable turns scanning mode off and drops any partial token.
func (t *Tokenizer) Disable() {
	t.reset()
	t.enabled = false
}

func (t *Tokenizer) Enabled() bool { return t.enabled }

func (t *Tokenizer) State() State { return t.state }

func (t *Tokenizer) reset() {
	t.state = Idle
	t.buf = t.buf[:0]
	t.last = 0
	t.seen = false
}

// Feed handles one event and returns the completed token, if the event
// terminated a non-empty buffer.
func (t *Tokenizer) Feed(ev InputEvent) (string, bool) {
	if !t.enabled {
		return "", false
	}
	if t.gapExceeded(ev.At) {
		t.state = Idle
		t.buf = t.buf[:0]
	}
	t.last = ev.At
	t.seen = true

	switch classify(ev.Key) {
	case kindChar:
		t.buf = append(t.buf, ev.Key...)
		t.state = Accumulating
	case kindTerminator:
		if t.state != Accumulating {
			return "", false
		}
		token := string(t.buf)
		t.buf = t.buf[:0]
		t.state = Idle
		return token, true
	}
	return "", false
}

// FeedAll feeds events in order and returns every token they complete.
func (t *Tokenizer) FeedAll(events []InputEvent) []string {
	var tokens []string
	for _, ev := range events {
		if token, ok := t.Feed(ev); ok {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func (t *Tokenizer) gapExceeded(at int64) bool {
	return t.seen && at-t.last > GapThreshold
}
