package levelkv

// comparator.go implements key comparison.
//
// Comparer defines the total ordering over keys in the database. The default
// is bytewise comparison. A custom Comparer is handed to the engine through a
// Comparator, whose compare and name callbacks call back into Go.
//
// Reference: LevelDB include/leveldb/comparator.h

import (
	"bytes"

	"github.com/aalhour/levelkv/internal/native"
)

// Comparer defines a total ordering over keys.
type Comparer interface {
	// Compare returns a value < 0 if a < b, 0 if a == b, > 0 if a > b.
	Compare(a, b []byte) int

	// Name returns the name of the comparator. The engine stores it and
	// refuses to reopen a database with a differently named comparator.
	Name() string
}

// BytewiseComparer is the engine's default ordering.
var BytewiseComparer Comparer = bytewiseComparer{}

type bytewiseComparer struct{}

// Compare compares two keys lexicographically.
func (bytewiseComparer) Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Name returns the comparator name.
func (bytewiseComparer) Name() string {
	return "leveldb.BytewiseComparator"
}

// Comparator is an engine comparator backed by a Comparer.
//
// Compare is called from engine threads, including background compaction,
// so it must be safe for concurrent use and must not call into the database.
// A panic inside Compare is logged and the keys are treated as equal.
type Comparator struct {
	res   *resource
	cmp   Comparer
	state *native.Comparator
}

// NewComparator registers c with the engine.
func NewComparator(c Comparer) (*Comparator, error) {
	if c == nil {
		return nil, newError(ErrOperation, "comparator", "nil Comparer")
	}
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	state, err := native.NewComparator(c.Name(), c.Compare, nil)
	if err != nil {
		return nil, err
	}
	p := state.Create()
	if p == 0 {
		state.Discard()
		return nil, newError(ErrOperation, "comparator", "engine returned no comparator")
	}
	return &Comparator{
		res:   newResource(p, native.ComparatorDestroy),
		cmp:   c,
		state: state,
	}, nil
}

// Name returns the name of the underlying Comparer.
func (c *Comparator) Name() string {
	return c.cmp.Name()
}

// Panics returns how many Compare calls panicked.
func (c *Comparator) Panics() int64 {
	return c.state.Panics()
}

// Close destroys the comparator once no open database references it.
func (c *Comparator) Close() {
	c.res.close()
}
