package levelkv

// iterator.go implements the database iterator.
//
// An Iterator walks the key space in comparator order. It starts unpositioned;
// one of the Seek methods must be called before Key and Value return data.
//
// Reference: LevelDB include/leveldb/iterator.h

import (
	"iter"

	"github.com/aalhour/levelkv/internal/handle"
	"github.com/aalhour/levelkv/internal/logging"
	"github.com/aalhour/levelkv/internal/marshal"
	"github.com/aalhour/levelkv/internal/native"
)

// Iterator iterates over a database's key/value pairs.
// An Iterator is not safe for concurrent use.
type Iterator struct {
	h          handle.Handle
	db         *DB
	positioned bool
}

// Valid returns true if the iterator is positioned at a valid entry.
func (it *Iterator) Valid() bool {
	_, ok := it.validPtr()
	return ok
}

func (it *Iterator) validPtr() (uintptr, bool) {
	p, err := it.h.Ptr()
	if err != nil {
		return 0, false
	}
	return p, native.IterValid(p) != 0
}

// SeekToFirst positions the iterator at the first key.
func (it *Iterator) SeekToFirst() {
	if p, err := it.h.Ptr(); err == nil {
		it.positioned = true
		native.IterSeekToFirst(p)
	}
}

// SeekToLast positions the iterator at the last key.
func (it *Iterator) SeekToLast() {
	if p, err := it.h.Ptr(); err == nil {
		it.positioned = true
		native.IterSeekToLast(p)
	}
}

// Seek positions the iterator at the first key >= target.
func (it *Iterator) Seek(target []byte) {
	p, err := it.h.Ptr()
	if err != nil {
		return
	}
	it.positioned = true

	var s marshal.Scope
	defer s.Release()
	tp, tn := s.Bytes(target)
	native.IterSeek(p, tp, tn)
}

// Next moves to the next entry. It does nothing if the iterator is invalid.
func (it *Iterator) Next() {
	if p, ok := it.validPtr(); ok {
		native.IterNext(p)
	}
}

// Prev moves to the previous entry. It does nothing if the iterator is invalid.
func (it *Iterator) Prev() {
	if p, ok := it.validPtr(); ok {
		native.IterPrev(p)
	}
}

// Key returns a copy of the current key, or nil if the iterator is invalid.
func (it *Iterator) Key() []byte {
	return it.current(native.IterKey)
}

// Value returns a copy of the current value, or nil if the iterator is invalid.
func (it *Iterator) Value() []byte {
	return it.current(native.IterValue)
}

func (it *Iterator) current(fn func(it uintptr, n *uintptr) uintptr) []byte {
	p, ok := it.validPtr()
	if !ok {
		return nil
	}
	var n uintptr
	b, err := marshal.GoBytes(fn(p, &n), n)
	if err != nil {
		if it.db != nil {
			it.db.log.Errorf("%s%v", logging.NSIter, err)
		}
		return nil
	}
	return b
}

// Error returns any engine fault the iterator ran into. After Close it
// returns ErrUseAfterDispose.
func (it *Iterator) Error() error {
	p, err := it.h.Ptr()
	if err != nil {
		return err
	}
	var errptr uintptr
	native.IterGetError(p, &errptr)
	return engineError(ErrIterator, "iterator", errptr)
}

// Close destroys the iterator. It is idempotent.
func (it *Iterator) Close() {
	if it.h.Release(native.IterDestroy) && it.db != nil {
		it.db.forgetIterator(it)
	}
}

// All returns a single-pass sequence of the remaining entries in key order.
// An iterator that was never positioned starts from the first key.
//
//	for k, v := range it.All() { ... }
//	if err := it.Error(); err != nil { ... }
func (it *Iterator) All() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		if !it.positioned {
			it.SeekToFirst()
		}
		for ; it.Valid(); it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Backward returns a single-pass sequence of the remaining entries in
// reverse key order. An iterator that was never positioned starts from the
// last key.
func (it *Iterator) Backward() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		if !it.positioned {
			it.SeekToLast()
		}
		for ; it.Valid(); it.Prev() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}
