package mpdprotocol

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// decodeFile is a minimal decoder returning the value of the block's first
// line.
func decodeFile(block string) (string, error) {
	line, _, _ := strings.Cut(block, "\n")
	_, value, ok := SplitField(line)
	if !ok {
		return "", fmt.Errorf("bad block %q", block)
	}
	return value, nil
}

func newFileIterator(t *testing.T, text string, position int) *ResultIterator[string] {
	t.Helper()
	it, err := NewResultIterator(text, position, []string{FieldFile}, EntryBlockTokens, decodeFile)
	if err != nil {
		t.Fatalf("NewResultIterator(%d): %v", position, err)
	}
	return it
}

func songs(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "file: song%d.mp3\nTime: %d\n", i, 10*(i+1))
	}
	return b.String()
}

func TestBlockTokenizerCount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"Empty", "", 0},
		{"No blocks", "volume: 50\nstate: play\n", 0},
		{"One", "file: a.mp3\n", 1},
		{"Leading fields discarded", "volume: 50\nfile: a.mp3\n", 1},
		{"Unterminated last line", "file: a.mp3\nfile: b.mp3", 2},
		{"Key prefix is not a token", "filename: x\nfiles: y\nfile: a\n", 1},
		{"Token in value", "Title: file: a\n", 0},
		{"Many", songs(25), 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := newBlockTokenizer(tt.text, []string{FieldFile}, nil)
			if got := tok.count(); got != tt.expected {
				t.Errorf("count() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestBlockTokenizerEndTokens(t *testing.T) {
	text := "file: a.mp3\nTime: 1\nplaylist: p.m3u\nLast-Modified: 2024-01-01T00:00:00Z\nfile: b.mp3\n"
	tok := newBlockTokenizer(text, []string{FieldFile}, EntryBlockTokens)

	start := tok.nextBegin(0)
	if got := tok.block(start, tok.blockEnd(start)); got != "file: a.mp3\nTime: 1" {
		t.Errorf("first block = %q", got)
	}
	start = tok.nextBegin(tok.nextLine(start))
	if got := tok.block(start, tok.blockEnd(start)); got != "file: b.mp3" {
		t.Errorf("second block = %q", got)
	}
	if tok.nextBegin(tok.nextLine(start)) != -1 {
		t.Error("expected no third block")
	}
}

// TestIteratorExample checks the canonical two-song result.
func TestIteratorExample(t *testing.T) {
	text := "file: a.mp3\nTime: 10\nfile: b.mp3\nTime: 20\n"
	it := newFileIterator(t, text, -1)

	var got []string
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, v)
	}
	if !reflect.DeepEqual(got, []string{"a.mp3", "b.mp3"}) {
		t.Errorf("got %v", got)
	}
}

// TestIteratorForwardBackward checks that forward and reverse iteration yield
// the same blocks in opposite order for a range of sizes.
func TestIteratorForwardBackward(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			text := songs(n)
			if got := newBlockTokenizer(text, []string{FieldFile}, nil).count(); got != n {
				t.Fatalf("count() = %d, want %d", got, n)
			}

			fwd := newFileIterator(t, text, -1)
			var forward []string
			for fwd.HasNext() {
				v, err := fwd.Next()
				if err != nil {
					t.Fatalf("Next: %v", err)
				}
				forward = append(forward, v)
			}

			bwd := newEndIterator(text, []string{FieldFile}, EntryBlockTokens, decodeFile)
			var backward []string
			for bwd.HasPrevious() {
				v, err := bwd.Previous()
				if err != nil {
					t.Fatalf("Previous: %v", err)
				}
				backward = append(backward, v)
			}

			if len(forward) != n || len(backward) != n {
				t.Fatalf("forward %d, backward %d entities, want %d", len(forward), len(backward), n)
			}
			for i := range forward {
				if forward[i] != backward[n-1-i] {
					t.Errorf("forward[%d] = %q, backward[%d] = %q", i, forward[i], n-1-i, backward[n-1-i])
				}
			}
		})
	}
}

// TestIteratorRedecode steps back and forth and expects equal entities.
func TestIteratorRedecode(t *testing.T) {
	text := songs(4)
	response := NewEntryResponse(NewCommandResult(NewPlaylistInfoCommand(), text))

	for i := 1; i < 4; i++ {
		it, err := response.ListIterator(i - 1)
		if err != nil {
			t.Fatal(err)
		}
		first, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := it.Previous(); err != nil {
			t.Fatal(err)
		}
		again, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Errorf("block %d: %+v != %+v", i, first, again)
		}
		if first.File != fmt.Sprintf("song%d.mp3", i) {
			t.Errorf("block %d decoded %q", i, first.File)
		}
	}
}

func TestIteratorPositions(t *testing.T) {
	text := songs(3)
	tests := []struct {
		position      int
		wantErr       bool
		hasNext       bool
		hasPrevious   bool
		nextValue     string
		previousValue string
	}{
		{position: -2, wantErr: true},
		{position: -1, hasNext: true, nextValue: "song0.mp3"},
		{position: 0, hasNext: true, nextValue: "song1.mp3"},
		{position: 1, hasNext: true, hasPrevious: true, nextValue: "song2.mp3", previousValue: "song0.mp3"},
		{position: 2, hasPrevious: true, previousValue: "song1.mp3"},
		{position: 3, hasPrevious: true, previousValue: "song2.mp3"},
		{position: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("position=%d", tt.position), func(t *testing.T) {
			it, err := NewResultIterator(text, tt.position, []string{FieldFile}, nil, decodeFile)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if it.Position() != tt.position {
				t.Errorf("Position() = %d, want %d", it.Position(), tt.position)
			}
			if it.HasNext() != tt.hasNext {
				t.Errorf("HasNext() = %v, want %v", it.HasNext(), tt.hasNext)
			}
			if it.HasPrevious() != tt.hasPrevious {
				t.Errorf("HasPrevious() = %v, want %v", it.HasPrevious(), tt.hasPrevious)
			}
			if tt.hasNext {
				next := *it
				if v, err := next.Next(); err != nil || v != tt.nextValue {
					t.Errorf("Next() = %q, %v, want %q", v, err, tt.nextValue)
				}
			}
			if tt.hasPrevious {
				prev := *it
				if v, err := prev.Previous(); err != nil || v != tt.previousValue {
					t.Errorf("Previous() = %q, %v, want %q", v, err, tt.previousValue)
				}
			}
		})
	}
}

func TestIteratorPastEnds(t *testing.T) {
	it := newFileIterator(t, songs(1), -1)
	if _, err := it.Previous(); !errors.Is(err, ErrNoSuchElement) {
		t.Errorf("Previous before first: %v", err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := it.Next(); !errors.Is(err, ErrNoSuchElement) {
		t.Errorf("Next after last: %v", err)
	}
	if it.Position() != 0 {
		t.Errorf("failed Next moved the iterator to %d", it.Position())
	}
}

func TestIteratorEndPositionIsLazy(t *testing.T) {
	it := newEndIterator(songs(5), []string{FieldFile}, nil, decodeFile)
	if _, err := it.Previous(); err != nil {
		t.Fatal(err)
	}
	if got := it.Position(); got != 4 {
		t.Errorf("Position() = %d, want 4", got)
	}
	if got := it.NextIndex(); got != 5 {
		t.Errorf("NextIndex() = %d, want 5", got)
	}
	if got := it.PreviousIndex(); got != 3 {
		t.Errorf("PreviousIndex() = %d, want 3", got)
	}
}

func TestIteratorUnterminatedLastLine(t *testing.T) {
	text := "file: a.mp3\nfile: b.mp3"
	it := newEndIterator(text, []string{FieldFile}, nil, decodeFile)

	var got []string
	for it.HasPrevious() {
		v, err := it.Previous()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	if !reflect.DeepEqual(got, []string{"b.mp3", "a.mp3"}) {
		t.Errorf("got %v", got)
	}
}

func TestIteratorRemoveUnsupported(t *testing.T) {
	it := newFileIterator(t, songs(1), -1)
	if err := it.Remove(); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Remove() = %v", err)
	}
}

func TestIteratorsAreIndependent(t *testing.T) {
	text := songs(3)
	a := newFileIterator(t, text, -1)
	b := newFileIterator(t, text, -1)

	a.Next()
	a.Next()
	v, err := b.Next()
	if err != nil || v != "song0.mp3" {
		t.Errorf("second iterator got %q, %v", v, err)
	}
	if a.Position() != 1 || b.Position() != 0 {
		t.Errorf("positions %d, %d", a.Position(), b.Position())
	}
}
