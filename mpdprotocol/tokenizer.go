package mpdprotocol

import (
	"strings"
)

// blockTokenizer locates entity blocks inside a raw result without splitting
// it. A block starts at a line whose key is one of the begin tokens and runs
// until the next line whose key is one of the end tokens, or end of text.
//
// All offsets handled here are line starts: 0 or the index following a '\n'.
type blockTokenizer struct {
	text  string
	begin []string
	end   []string
}

func newBlockTokenizer(text string, begin, end []string) blockTokenizer {
	if len(end) == 0 {
		end = begin
	}
	return blockTokenizer{text: text, begin: begin, end: end}
}

// lineHasKey reports whether the line starting at pos carries one of keys.
func (t blockTokenizer) lineHasKey(pos int, keys []string) bool {
	rest := t.text[pos:]
	for _, key := range keys {
		if len(rest) > len(key) && rest[len(key)] == ':' && strings.HasPrefix(rest, key) {
			return true
		}
	}
	return false
}

// nextLine returns the start of the line after the one starting at pos, or
// len(text) when pos is on the last line.
func (t blockTokenizer) nextLine(pos int) int {
	i := strings.IndexByte(t.text[pos:], '\n')
	if i < 0 {
		return len(t.text)
	}
	return pos + i + 1
}

// prevLine returns the start of the line before the one starting at pos.
// pos must be greater than zero.
func (t blockTokenizer) prevLine(pos int) int {
	// text[pos-1] is the '\n' ending the previous line.
	return strings.LastIndexByte(t.text[:pos-1], '\n') + 1
}

// nextBegin returns the first line start at or after from that begins a
// block, or -1.
func (t blockTokenizer) nextBegin(from int) int {
	for pos := from; pos < len(t.text); pos = t.nextLine(pos) {
		if t.lineHasKey(pos, t.begin) {
			return pos
		}
	}
	return -1
}

// prevBegin returns the last line start strictly before before that begins
// a block, or -1.
func (t blockTokenizer) prevBegin(before int) int {
	if before > len(t.text) {
		before = len(t.text)
	}
	pos := before
	for pos > 0 {
		if pos == len(t.text) && t.text[pos-1] != '\n' {
			// Unterminated final line: its start is the last '\n' + 1.
			pos = strings.LastIndexByte(t.text, '\n') + 1
		} else {
			pos = t.prevLine(pos)
		}
		if t.lineHasKey(pos, t.begin) {
			return pos
		}
	}
	return -1
}

// blockEnd returns the end offset of the block starting at start: the first
// following line carrying an end or begin token, or len(text).
func (t blockTokenizer) blockEnd(start int) int {
	for pos := t.nextLine(start); pos < len(t.text); pos = t.nextLine(pos) {
		if t.lineHasKey(pos, t.end) || t.lineHasKey(pos, t.begin) {
			return pos
		}
	}
	return len(t.text)
}

// count returns the number of blocks in the text.
func (t blockTokenizer) count() int {
	n := 0
	for pos := t.nextBegin(0); pos >= 0; pos = t.nextBegin(t.nextLine(pos)) {
		n++
	}
	return n
}

// block returns the text of the block at [start, end) with the trailing
// line terminator removed.
func (t blockTokenizer) block(start, end int) string {
	return strings.TrimRight(t.text[start:end], "\n")
}
