package native

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/aalhour/levelkv/internal/logging"
	"github.com/aalhour/levelkv/internal/marshal"
)

// registry maps the opaque state tokens handed to the engine back to Go
// values. The engine only ever sees the token, never a Go pointer.
type registry struct {
	next atomic.Uintptr
	m    sync.Map
}

var states registry

func (r *registry) add(v any) uintptr {
	tok := r.next.Add(1)
	r.m.Store(tok, v)
	return tok
}

func (r *registry) lookup(tok uintptr) (any, bool) {
	return r.m.Load(tok)
}

func (r *registry) remove(tok uintptr) {
	r.m.Delete(tok)
}

func (r *registry) len() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// trampolines are the process-wide C entry points. purego caps the number
// of callbacks a process may create, so each is created once and dispatches
// on the state token.
type trampolines struct {
	destructor  uintptr
	compare     uintptr
	name        uintptr
	batchPut    uintptr
	batchDelete uintptr
}

var (
	cbOnce sync.Once
	cb     trampolines
)

func callbacks() trampolines {
	cbOnce.Do(func() {
		cb = trampolines{
			destructor:  purego.NewCallback(comparatorDestructor),
			compare:     purego.NewCallback(comparatorCompare),
			name:        purego.NewCallback(comparatorName),
			batchPut:    purego.NewCallback(batchPut),
			batchDelete: purego.NewCallback(batchDelete),
		}
	})
	return cb
}

// =============================================================================
// Comparator
// =============================================================================

// Comparator is the Go side of a user-defined key ordering.
type Comparator struct {
	compare func(a, b []byte) int
	name    []byte // NUL-terminated, pinned until the engine destroys it
	pinner  runtime.Pinner
	log     logging.Logger
	token   uintptr
	panics  atomic.Int64
}

// NewComparator prepares a comparator state. The name is what the engine
// records in the database and must be non-empty without NUL bytes.
func NewComparator(name string, compare func(a, b []byte) int, log logging.Logger) (*Comparator, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: comparator name is empty", marshal.ErrMarshaling)
	}
	if strings.IndexByte(name, 0) >= 0 {
		return nil, fmt.Errorf("%w: comparator name %q contains NUL", marshal.ErrMarshaling, name)
	}
	if compare == nil {
		return nil, fmt.Errorf("%w: comparator %s has no compare function", marshal.ErrMarshaling, name)
	}
	c := &Comparator{
		compare: compare,
		name:    append([]byte(name), 0),
		log:     logging.OrDefault(log),
	}
	c.pinner.Pin(&c.name[0])
	c.token = states.add(c)
	return c, nil
}

// Create builds the engine comparator. The engine calls back into c until
// it runs the destructor, which happens on ComparatorDestroy.
func (c *Comparator) Create() uintptr {
	t := callbacks()
	return ComparatorCreate(c.token, t.destructor, t.compare, t.name)
}

// Discard drops a comparator whose engine object was never created.
func (c *Comparator) Discard() {
	c.destroy()
}

// Panics returns how many compare calls panicked and were reported as equal.
func (c *Comparator) Panics() int64 {
	return c.panics.Load()
}

func (c *Comparator) destroy() {
	states.remove(c.token)
	c.pinner.Unpin()
}

func (c *Comparator) safeCompare(a, b []byte) (r int) {
	defer func() {
		if p := recover(); p != nil {
			c.panics.Add(1)
			c.log.Errorf("%s%s panicked: %v", logging.NSCmp, c.name[:len(c.name)-1], p)
			r = 0
		}
	}()
	switch r = c.compare(a, b); {
	case r < 0:
		return -1
	case r > 0:
		return 1
	}
	return 0
}

func lookupComparator(state uintptr) *Comparator {
	v, ok := states.lookup(state)
	if !ok {
		return nil
	}
	c, _ := v.(*Comparator)
	return c
}

func comparatorCompare(state, a, alen, b, blen uintptr) int {
	c := lookupComparator(state)
	if c == nil {
		return 0
	}
	return c.safeCompare(marshal.View(a, alen), marshal.View(b, blen))
}

func comparatorName(state uintptr) uintptr {
	c := lookupComparator(state)
	if c == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(&c.name[0]))
}

func comparatorDestructor(state uintptr) uintptr {
	if c := lookupComparator(state); c != nil {
		c.destroy()
	}
	return 0
}

// =============================================================================
// Write batch replay
// =============================================================================

// BatchSink receives the records of a write batch in insertion order.
type BatchSink struct {
	Put    func(key, value []byte)
	Delete func(key []byte)

	err      error
	panicked any
	stopped  bool
}

// IterateBatch replays batch into sink. Keys and values are copies. A panic
// raised by a sink function stops delivery and is re-raised once the engine
// call has returned.
func IterateBatch(batch uintptr, sink *BatchSink) error {
	tok := states.add(sink)
	defer states.remove(tok)

	t := callbacks()
	WriteBatchIterate(batch, tok, t.batchPut, t.batchDelete)
	runtime.KeepAlive(sink)

	if sink.panicked != nil {
		panic(sink.panicked)
	}
	return sink.err
}

func (s *BatchSink) deliver(fn func()) {
	if s.stopped {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			s.panicked = p
			s.stopped = true
		}
	}()
	fn()
}

func (s *BatchSink) fail(err error) {
	s.err = err
	s.stopped = true
}

func lookupSink(state uintptr) *BatchSink {
	v, ok := states.lookup(state)
	if !ok {
		return nil
	}
	s, _ := v.(*BatchSink)
	return s
}

func batchPut(state, k, klen, v, vlen uintptr) uintptr {
	s := lookupSink(state)
	if s == nil || s.stopped {
		return 0
	}
	key, err := marshal.GoBytes(k, klen)
	if err != nil {
		s.fail(err)
		return 0
	}
	value, err := marshal.GoBytes(v, vlen)
	if err != nil {
		s.fail(err)
		return 0
	}
	if s.Put != nil {
		s.deliver(func() { s.Put(key, value) })
	}
	return 0
}

func batchDelete(state, k, klen uintptr) uintptr {
	s := lookupSink(state)
	if s == nil || s.stopped {
		return 0
	}
	key, err := marshal.GoBytes(k, klen)
	if err != nil {
		s.fail(err)
		return 0
	}
	if s.Delete != nil {
		s.deliver(func() { s.Delete(key) })
	}
	return 0
}
