package backend

import (
	"strings"
	"unicode/utf8"
)

// Sink consumes decoded text as a process produces it. Chunks are delivered in
// order but may be empty or split anywhere, including mid-line. Close is
// called exactly once at end of stream. Sinks are not safe for concurrent use;
// every execution owns its sinks.
type Sink interface {
	Write(text string)
	Close()
}

// IncrementalParser is fed chunks of output while a process runs.
type IncrementalParser interface {
	Consume(chunk string)
	Finish()
}

type discard struct{}

func (discard) Write(string) {}
func (discard) Close()       {}

// Discard drops everything written to it.
var Discard Sink = discard{}

// BufferSink accumulates the whole stream.
type BufferSink struct {
	b strings.Builder
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Write(text string) { s.b.WriteString(text) }
func (s *BufferSink) Close()            {}

func (s *BufferSink) String() string {
	return s.b.String()
}

// LineSink raises onLine for every complete line. The line terminator (LF or
// CRLF) is stripped; a trailing partial line is held back until more text
// arrives or the stream closes.
type LineSink struct {
	onLine  func(line string)
	pending strings.Builder
	closed  bool
}

func NewLineSink(onLine func(line string)) *LineSink {
	return &LineSink{onLine: onLine}
}

func (s *LineSink) Write(text string) {
	for text != "" {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			s.pending.WriteString(text)
			return
		}
		var line string
		if s.pending.Len() > 0 {
			s.pending.WriteString(text[:idx])
			line = s.pending.String()
			s.pending.Reset()
		} else {
			line = text[:idx]
		}
		s.emit(strings.TrimSuffix(line, "\r"))
		text = text[idx+1:]
	}
}

func (s *LineSink) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.pending.Len() == 0 {
		return
	}
	line := s.pending.String()
	s.pending.Reset()
	s.emit(strings.TrimSuffix(line, "\r"))
}

func (s *LineSink) emit(line string) {
	if s.onLine != nil {
		s.onLine(line)
	}
}

// ParserSink drives an IncrementalParser with each chunk.
type ParserSink struct {
	p IncrementalParser
}

func NewParserSink(p IncrementalParser) *ParserSink {
	return &ParserSink{p: p}
}

func (s *ParserSink) Write(text string) {
	if text == "" {
		return
	}
	s.p.Consume(text)
}

func (s *ParserSink) Close() { s.p.Finish() }

type multiSink []Sink

// MultiSink duplicates a stream into several sinks, in argument order.
func MultiSink(sinks ...Sink) Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Write(text string) {
	for _, s := range m {
		s.Write(text)
	}
}

func (m multiSink) Close() {
	for _, s := range m {
		s.Close()
	}
}

// decoder turns raw byte reads into valid UTF-8 chunks. A multi-byte sequence
// cut by a read boundary is carried into the next call.
type decoder struct {
	carry []byte
}

func (d *decoder) decode(p []byte) string {
	if len(d.carry) > 0 {
		p = append(d.carry, p...)
		d.carry = nil
	}
	cut := incompleteSuffix(p)
	if cut > 0 {
		d.carry = append([]byte(nil), p[len(p)-cut:]...)
		p = p[:len(p)-cut]
	}
	return strings.ToValidUTF8(string(p), string(utf8.RuneError))
}

// flush returns whatever is still carried; called at end of stream.
func (d *decoder) flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	s := strings.ToValidUTF8(string(d.carry), string(utf8.RuneError))
	d.carry = nil
	return s
}

// incompleteSuffix returns the length of a trailing, possibly valid but not
// yet complete, UTF-8 sequence.
func incompleteSuffix(p []byte) int {
	// A rune is at most utf8.UTFMax bytes, so only the tail needs checking.
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		c := p[len(p)-i]
		if c < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(p[len(p)-i:]) {
				return 0
			}
			return i
		}
	}
	return 0
}
