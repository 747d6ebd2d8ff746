// Package cursor provides a forward-only reader over captured git output.
//
// Every parser in the git packages is built from these primitives so it can be
// tested against literal strings. All operations are bounds-checked: reading
// past the end returns zero values instead of panicking.
package cursor

import "strings"

// Widths of full object ids in hex.
const (
	HashLen       = 40
	SHA256HashLen = 64
)

type Cursor struct {
	text string
	pos  int
}

func New(text string) *Cursor {
	return &Cursor{text: text}
}

// Reset replaces the buffer and rewinds to the start.
func (c *Cursor) Reset(text string) {
	c.text = text
	c.pos = 0
}

func (c *Cursor) IsAtEnd() bool {
	return c.pos >= len(c.text)
}

func (c *Cursor) Remaining() int {
	if c.pos >= len(c.text) {
		return 0
	}
	return len(c.text) - c.pos
}

// Rest returns the unread text without consuming it.
func (c *Cursor) Rest() string {
	if c.pos >= len(c.text) {
		return ""
	}
	return c.text[c.pos:]
}

// Pos and Seek let a caller capture and restore a position; there is no other
// way to move backwards.
func (c *Cursor) Pos() int { return c.pos }

func (c *Cursor) Seek(pos int) {
	switch {
	case pos < 0:
		c.pos = 0
	case pos > len(c.text):
		c.pos = len(c.text)
	default:
		c.pos = pos
	}
}

// Peek returns the next byte, or 0 at end.
func (c *Cursor) Peek() byte {
	if c.pos >= len(c.text) {
		return 0
	}
	return c.text[c.pos]
}

// CheckValue reports whether the unread text starts with lit, without
// consuming anything.
func (c *Cursor) CheckValue(lit string) bool {
	return strings.HasPrefix(c.Rest(), lit)
}

// SkipValue consumes lit if the unread text starts with it.
func (c *Cursor) SkipValue(lit string) bool {
	if !c.CheckValue(lit) {
		return false
	}
	c.pos += len(lit)
	return true
}

// Skip advances n bytes. It reports false, and moves to the end, when fewer
// than n bytes remain.
func (c *Cursor) Skip(n int) bool {
	if n < 0 {
		return false
	}
	if n > c.Remaining() {
		c.pos = len(c.text)
		return false
	}
	c.pos += n
	return true
}

func (c *Cursor) SkipByte(b byte) bool {
	if c.Peek() != b || c.IsAtEnd() {
		return false
	}
	c.pos++
	return true
}

// ReadLine consumes up to and including the next line terminator and returns
// the line without it. LF, CRLF and NUL all terminate a line, so records in
// -z output can be read with the same call.
func (c *Cursor) ReadLine() string {
	rest := c.Rest()
	idx := strings.IndexAny(rest, "\n\x00")
	if idx < 0 {
		c.pos = len(c.text)
		return strings.TrimSuffix(rest, "\r")
	}
	c.pos += idx + 1
	return strings.TrimSuffix(rest[:idx], "\r")
}

func (c *Cursor) SkipLine() {
	c.ReadLine()
}

// ReadUntil consumes through the next occurrence of b and returns the text
// before it. Without a terminator it returns the remainder.
func (c *Cursor) ReadUntil(b byte) string {
	rest := c.Rest()
	idx := strings.IndexByte(rest, b)
	if idx < 0 {
		c.pos = len(c.text)
		return rest
	}
	c.pos += idx + 1
	return rest[:idx]
}

// ReadHash consumes a full object id: a run of exactly HashLen (SHA-1) or
// SHA256HashLen (SHA-256) hex digits. On failure nothing is consumed.
func (c *Cursor) ReadHash() (string, bool) {
	rest := c.Rest()
	n := hexRun(rest)
	if n != HashLen && n != SHA256HashLen {
		return "", false
	}
	c.pos += n
	return strings.ToLower(rest[:n]), true
}

// ReadHex consumes a maximal run of hex digits, e.g. an abbreviated id.
func (c *Cursor) ReadHex() string {
	rest := c.Rest()
	n := hexRun(rest)
	c.pos += n
	return strings.ToLower(rest[:n])
}

func hexRun(s string) int {
	n := 0
	for n < len(s) && isHex(s[n]) {
		n++
	}
	return n
}

// SkipSpaces consumes blanks (space and tab).
func (c *Cursor) SkipSpaces() {
	for !c.IsAtEnd() && (c.text[c.pos] == ' ' || c.text[c.pos] == '\t') {
		c.pos++
	}
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
