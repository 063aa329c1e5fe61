package mpdprotocol

import (
	"errors"
	"iter"
	"sync"
)

// ObjectResponse exposes the entities of one command result as a read-only
// collection. Entities are decoded lazily as they are iterated; nothing is
// materialised unless List is called.
type ObjectResponse[T any] struct {
	result CommandResult
	begin  []string
	end    []string
	decode DecodeFunc[T]

	sizeOnce sync.Once
	size     int
}

// NewObjectResponse creates a response over result whose entities begin at
// lines keyed by one of begin, end at lines keyed by one of end, and are
// built by decode.
func NewObjectResponse[T any](result CommandResult, begin, end []string, decode DecodeFunc[T]) *ObjectResponse[T] {
	return &ObjectResponse[T]{result: result, begin: begin, end: end, decode: decode}
}

// NewEntryResponse creates a response decoding the song entries of result.
// Directory and playlist blocks in the same result are skipped.
func NewEntryResponse(result CommandResult) *ObjectResponse[Entry] {
	return NewObjectResponse(result, []string{FieldFile}, EntryBlockTokens, DecodeEntry)
}

// NewDirectoryResponse creates a response decoding the directories of result.
func NewDirectoryResponse(result CommandResult) *ObjectResponse[Directory] {
	return NewObjectResponse(result, []string{FieldDirectory}, EntryBlockTokens, DecodeDirectory)
}

// Result returns the underlying command result.
func (r *ObjectResponse[T]) Result() CommandResult {
	return r.result
}

// Iterator returns an iterator before the first entity when fromStart is
// set, or after the last entity for reverse iteration with Previous.
func (r *ObjectResponse[T]) Iterator(fromStart bool) *ResultIterator[T] {
	if fromStart {
		it, _ := NewResultIterator(r.result.Raw, -1, r.begin, r.end, r.decode)
		return it
	}
	return newEndIterator(r.result.Raw, r.begin, r.end, r.decode)
}

// ListIterator returns an iterator at position, which must satisfy
// -1 <= position <= Size().
func (r *ObjectResponse[T]) ListIterator(position int) (*ResultIterator[T], error) {
	return NewResultIterator(r.result.Raw, position, r.begin, r.end, r.decode)
}

// Size returns the number of entities. The result is scanned once.
func (r *ObjectResponse[T]) Size() int {
	r.sizeOnce.Do(func() {
		r.size = newBlockTokenizer(r.result.Raw, r.begin, r.end).count()
	})
	return r.size
}

// IsEmpty reports whether the response holds no entities. It stops at the
// first block found.
func (r *ObjectResponse[T]) IsEmpty() bool {
	return newBlockTokenizer(r.result.Raw, r.begin, r.end).nextBegin(0) < 0
}

// Get decodes the entity at index.
func (r *ObjectResponse[T]) Get(index int) (T, error) {
	var zero T
	if index < 0 {
		return zero, ErrInvalidArgument
	}
	it, err := r.ListIterator(index - 1)
	if err != nil {
		return zero, err
	}
	v, err := it.Next()
	if errors.Is(err, ErrNoSuchElement) {
		return zero, ErrInvalidArgument
	}
	return v, err
}

// All yields every entity from first to last. A decode failure is yielded
// with the zero entity in place of the block that failed; iteration then
// continues with the next block unless the caller stops.
func (r *ObjectResponse[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := r.Iterator(true)
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Backward yields every entity from last to first.
func (r *ObjectResponse[T]) Backward() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := r.Iterator(false)
		for it.HasPrevious() {
			if !yield(it.Previous()) {
				return
			}
		}
	}
}

// List decodes every entity into a slice. It fails on the first block that
// does not decode.
func (r *ObjectResponse[T]) List() ([]T, error) {
	list := make([]T, 0, r.Size())
	for v, err := range r.All() {
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}
