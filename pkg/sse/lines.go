package sse

import (
	"bytes"
	"strings"
)

// lineBuffer splits a chunked byte stream into lines. Bytes after the last
// newline of a chunk are carried over until a later chunk terminates them.
type lineBuffer struct {
	pending []byte
}

// feed appends chunk to the pending tail and returns every line completed by
// it, in order, with the line terminator removed. Text decoding happens only
// on complete lines so a multi-byte character split across chunks survives.
func (b *lineBuffer) feed(chunk []byte) []string {
	var lines []string

	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			b.pending = append(b.pending, chunk...)
			break
		}

		var raw []byte
		if len(b.pending) > 0 {
			b.pending = append(b.pending, chunk[:i]...)
			raw = b.pending
		} else {
			raw = chunk[:i]
		}
		lines = append(lines, decodeLine(raw))

		b.pending = b.pending[:0]
		chunk = chunk[i+1:]
	}

	return lines
}

// buffered reports the number of bytes held for an unterminated line.
func (b *lineBuffer) buffered() int {
	return len(b.pending)
}

func (b *lineBuffer) reset() {
	b.pending = nil
}

// decodeLine converts a raw line to text, dropping a trailing carriage
// return (CRLF framing) and replacing invalid UTF-8 with U+FFFD.
func decodeLine(raw []byte) string {
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	return strings.ToValidUTF8(string(raw), "�")
}
