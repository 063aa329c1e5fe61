package mpdprotocol

import (
	"fmt"
)

// DecodeFunc builds an entity from the text of exactly one block.
type DecodeFunc[T any] func(block string) (T, error)

// ResultIterator is a bidirectional iterator over the blocks of a raw
// result. Blocks are located on demand and decoded only when stepped onto;
// the underlying text is never copied or modified.
//
// The position is the index of the current block: -1 before the first block
// and the block count after the last. Next steps to position+1 and decodes
// that block, Previous steps to position-1 and decodes that block.
//
// A ResultIterator is not safe for concurrent use, but any number of
// iterators may read the same result at once.
type ResultIterator[T any] struct {
	tok    blockTokenizer
	decode DecodeFunc[T]

	// start is the offset of the current block, -1 before the first block
	// and len(text) after the last.
	start int

	// position is the current block index. When fromEnd is set it is
	// relative to the block count (0 means after the last block) so that
	// reverse iteration never has to count the blocks up front.
	position int
	fromEnd  bool
}

// NewResultIterator creates an iterator over text positioned at position,
// which must satisfy -1 <= position <= block count. Blocks begin at lines
// keyed by one of begin and end at lines keyed by one of end (or begin).
func NewResultIterator[T any](text string, position int, begin, end []string, decode DecodeFunc[T]) (*ResultIterator[T], error) {
	it := &ResultIterator[T]{
		tok:    newBlockTokenizer(text, begin, end),
		decode: decode,
		start:  -1,
	}
	if position < -1 {
		return nil, fmt.Errorf("%w: iterator position %d is before the first block", ErrInvalidArgument, position)
	}
	it.position = -1
	for it.position < position {
		s := it.nextStart()
		if s < 0 {
			if it.position+1 == position {
				// Position equal to the block count: after the last block.
				it.position = position
				it.start = len(text)
				return it, nil
			}
			return nil, fmt.Errorf("%w: iterator position %d is past the last block (%d)",
				ErrInvalidArgument, position, it.position+1)
		}
		it.start = s
		it.position++
	}
	return it, nil
}

// newEndIterator creates an iterator positioned after the last block without
// counting the blocks.
func newEndIterator[T any](text string, begin, end []string, decode DecodeFunc[T]) *ResultIterator[T] {
	return &ResultIterator[T]{
		tok:     newBlockTokenizer(text, begin, end),
		decode:  decode,
		start:   len(text),
		fromEnd: true,
	}
}

func (it *ResultIterator[T]) nextStart() int {
	if it.start < 0 {
		return it.tok.nextBegin(0)
	}
	return it.tok.nextBegin(it.tok.nextLine(it.start))
}

func (it *ResultIterator[T]) prevStart() int {
	if it.start < 0 {
		return -1
	}
	return it.tok.prevBegin(it.start)
}

// HasNext reports whether Next would return an element.
func (it *ResultIterator[T]) HasNext() bool {
	return it.nextStart() >= 0
}

// HasPrevious reports whether Previous would return an element.
func (it *ResultIterator[T]) HasPrevious() bool {
	return it.prevStart() >= 0
}

// Next steps forward one block and decodes it. It returns ErrNoSuchElement
// after the last block. A decode failure is returned for this block only;
// the iterator still advances so later blocks remain reachable.
func (it *ResultIterator[T]) Next() (T, error) {
	s := it.nextStart()
	if s < 0 {
		var zero T
		return zero, ErrNoSuchElement
	}
	it.start = s
	it.position++
	return it.decodeCurrent()
}

// Previous steps backward one block and decodes it. It returns
// ErrNoSuchElement on or before the first block.
func (it *ResultIterator[T]) Previous() (T, error) {
	s := it.prevStart()
	if s < 0 {
		var zero T
		return zero, ErrNoSuchElement
	}
	it.start = s
	it.position--
	return it.decodeCurrent()
}

func (it *ResultIterator[T]) decodeCurrent() (T, error) {
	return it.decode(it.tok.block(it.start, it.tok.blockEnd(it.start)))
}

// Position returns the index of the current block. For iterators created at
// the end of a result the first call counts the blocks.
func (it *ResultIterator[T]) Position() int {
	if it.fromEnd {
		it.position += it.tok.count()
		it.fromEnd = false
	}
	return it.position
}

// NextIndex returns the index of the block Next would return.
func (it *ResultIterator[T]) NextIndex() int {
	return it.Position() + 1
}

// PreviousIndex returns the index of the block Previous would return.
func (it *ResultIterator[T]) PreviousIndex() int {
	return it.Position() - 1
}

// Remove always fails: the iterator is a view over an immutable result.
func (it *ResultIterator[T]) Remove() error {
	return ErrUnsupported
}
