package levelkv

// db.go implements the database handle.
//
// A DB owns one engine database plus the default read and write option
// objects used when callers pass nil. It keeps the configuration objects
// referenced by its options alive while open and tracks the iterators and
// snapshots it hands out, so that Close can retire them before the engine
// database goes away.
//
// Reference: LevelDB include/leveldb/db.h, include/leveldb/c.h

import (
	"iter"
	"math"
	"sync"
	"unsafe"

	"github.com/aalhour/levelkv/internal/handle"
	"github.com/aalhour/levelkv/internal/logging"
	"github.com/aalhour/levelkv/internal/marshal"
	"github.com/aalhour/levelkv/internal/native"
)

// Range represents a key range [Start, Limit) for size approximation.
// A nil Start means from the first key; a nil Limit means past the last key.
type Range struct {
	Start []byte
	Limit []byte
}

// DB is an open database.
type DB struct {
	h    handle.Handle
	path string
	log  logging.Logger
	cmp  Comparer
	held []*resource

	defaultRead  uintptr
	defaultWrite uintptr

	mu     sync.Mutex
	closed bool
	iters  map[*Iterator]struct{}
	snaps  map[*Snapshot]struct{}
}

// Open opens the database at path, loading the engine on first use.
// If opts is nil, DefaultOptions() is used.
func Open(path string, opts *Options) (*DB, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	log := logging.OrDefault(opts.Logger)

	var s marshal.Scope
	defer s.Release()
	name, err := s.CString(path)
	if err != nil {
		return nil, err
	}

	no, err := opts.build()
	if err != nil {
		return nil, err
	}
	defer no.free()

	var errptr uintptr
	p := native.Open(no.ptr, name, &errptr)
	if err := engineError(ErrOpen, "open", errptr); err != nil {
		releaseAll(no.held)
		log.Errorf("%sopen %s failed: %v", logging.NSDB, path, err)
		return nil, err
	}
	if p == 0 {
		releaseAll(no.held)
		return nil, newError(ErrOpen, "open", "engine returned no database")
	}

	db := &DB{
		path:         path,
		log:          log,
		cmp:          no.cmp,
		held:         no.held,
		defaultRead:  native.ReadOptionsCreate(),
		defaultWrite: native.WriteOptionsCreate(),
		iters:        make(map[*Iterator]struct{}),
		snaps:        make(map[*Snapshot]struct{}),
	}
	db.h.Reset(p)
	log.Infof("%sopened %s", logging.NSDB, path)
	return db, nil
}

// Path returns the path the database was opened with.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database. Iterators and snapshots still open are
// destroyed first and report ErrUseAfterDispose afterwards. Close is
// idempotent and always returns nil.
func (db *DB) Close() error {
	released := db.h.Release(func(p uintptr) {
		db.mu.Lock()
		db.closed = true
		iters, snaps := db.iters, db.snaps
		db.iters, db.snaps = nil, nil
		db.mu.Unlock()

		if len(iters) > 0 || len(snaps) > 0 {
			db.log.Warnf("%sclosing %s with %d open iterators and %d unreleased snapshots",
				logging.NSDB, db.path, len(iters), len(snaps))
		}
		for it := range iters {
			if it.h.Release(native.IterDestroy) {
				db.log.Debugf("%sretired by close of %s", logging.NSIter, db.path)
			}
		}
		for snap := range snaps {
			snap.h.Release(func(sp uintptr) { native.ReleaseSnapshot(p, sp) })
		}

		native.ReadOptionsDestroy(db.defaultRead)
		native.WriteOptionsDestroy(db.defaultWrite)
		native.Close(p)
	})
	if released {
		releaseAll(db.held)
		db.held = nil
		db.log.Infof("%sclosed %s", logging.NSDB, db.path)
	}
	return nil
}

// Get returns the value stored under key. found is false when the key is
// absent, which is distinct from a present empty value.
func (db *DB) Get(ro *ReadOptions, key []byte) (value []byte, found bool, err error) {
	p, err := db.h.Ptr()
	if err != nil {
		return nil, false, err
	}
	rp, done, err := db.readOptions("get", ro)
	if err != nil {
		return nil, false, err
	}
	defer done()

	var s marshal.Scope
	defer s.Release()
	kp, kn := s.Bytes(key)

	var vlen, errptr uintptr
	vp := native.Get(p, rp, kp, kn, &vlen, &errptr)
	if err := engineError(ErrOperation, "get", errptr); err != nil {
		if vp != 0 {
			native.Free(vp)
		}
		return nil, false, err
	}
	if vp == 0 {
		return nil, false, nil
	}
	value, err = native.TakeBytes(vp, vlen)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put sets the value for key.
func (db *DB) Put(wo *WriteOptions, key, value []byte) error {
	p, err := db.h.Ptr()
	if err != nil {
		return err
	}
	wp, done := db.writeOptions(wo)
	defer done()

	var s marshal.Scope
	defer s.Release()
	kp, kn := s.Bytes(key)
	vp, vn := s.Bytes(value)

	var errptr uintptr
	native.Put(p, wp, kp, kn, vp, vn, &errptr)
	return engineError(ErrOperation, "put", errptr)
}

// Delete removes key. Deleting an absent key succeeds.
func (db *DB) Delete(wo *WriteOptions, key []byte) error {
	p, err := db.h.Ptr()
	if err != nil {
		return err
	}
	wp, done := db.writeOptions(wo)
	defer done()

	var s marshal.Scope
	defer s.Release()
	kp, kn := s.Bytes(key)

	var errptr uintptr
	native.Delete(p, wp, kp, kn, &errptr)
	return engineError(ErrOperation, "delete", errptr)
}

// Write applies every operation in wb atomically.
func (db *DB) Write(wo *WriteOptions, wb *WriteBatch) error {
	p, err := db.h.Ptr()
	if err != nil {
		return err
	}
	bp, err := wb.h.Ptr()
	if err != nil {
		return err
	}
	wp, done := db.writeOptions(wo)
	defer done()

	var errptr uintptr
	native.Write(p, wp, bp, &errptr)
	if err := engineError(ErrOperation, "write", errptr); err != nil {
		return err
	}
	db.log.Debugf("%sapplied %d records to %s", logging.NSBatch, wb.Count(), db.path)
	return nil
}

// NewIterator returns an iterator over the database, positioned nowhere.
// The iterator must be closed; closing the database also closes it.
func (db *DB) NewIterator(ro *ReadOptions) (*Iterator, error) {
	p, err := db.h.Ptr()
	if err != nil {
		return nil, err
	}
	rp, done, err := db.readOptions("iterator", ro)
	if err != nil {
		return nil, err
	}
	defer done()

	ip := native.CreateIterator(p, rp)
	if ip == 0 {
		return nil, newError(ErrOperation, "iterator", "engine returned no iterator")
	}
	it := &Iterator{db: db}
	it.h.Reset(ip)

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		it.h.Release(native.IterDestroy)
		return nil, ErrUseAfterDispose
	}
	db.iters[it] = struct{}{}
	return it, nil
}

// GetSnapshot returns a snapshot of the current database state. Reads with
// ReadOptions.Snapshot set to it observe that state.
func (db *DB) GetSnapshot() (*Snapshot, error) {
	p, err := db.h.Ptr()
	if err != nil {
		return nil, err
	}
	sp := native.CreateSnapshot(p)
	if sp == 0 {
		return nil, newError(ErrOperation, "snapshot", "engine returned no snapshot")
	}
	snap := &Snapshot{db: db}
	snap.h.Reset(sp)

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		snap.h.Release(func(sp uintptr) { native.ReleaseSnapshot(p, sp) })
		return nil, ErrUseAfterDispose
	}
	db.snaps[snap] = struct{}{}
	return snap, nil
}

// ReleaseSnapshot releases snap. It is idempotent, and a snapshot taken
// from another database is left untouched.
func (db *DB) ReleaseSnapshot(snap *Snapshot) {
	if snap == nil {
		return
	}
	if snap.db != db {
		owner := "another database"
		if snap.db != nil {
			owner = snap.db.path
		}
		db.log.Warnf("%signored release of a snapshot owned by %s", logging.NSDB, owner)
		return
	}
	p, err := db.h.Ptr()
	if err != nil {
		return
	}
	snap.h.Release(func(sp uintptr) { native.ReleaseSnapshot(p, sp) })

	db.mu.Lock()
	delete(db.snaps, snap)
	db.mu.Unlock()
}

func (db *DB) forgetIterator(it *Iterator) {
	db.mu.Lock()
	delete(db.iters, it)
	db.mu.Unlock()
}

// GetProperty returns the value of an engine property such as
// "leveldb.stats". Unknown properties report false.
func (db *DB) GetProperty(name string) (string, bool) {
	p, err := db.h.Ptr()
	if err != nil {
		return "", false
	}
	var s marshal.Scope
	defer s.Release()
	np, err := s.CString(name)
	if err != nil {
		return "", false
	}
	return native.TakeString(native.PropertyValue(p, np))
}

// GetApproximateSizes returns the approximate file system space used by
// each range, in input order. Ranges may overlap.
func (db *DB) GetApproximateSizes(ranges []Range) ([]uint64, error) {
	p, err := db.h.Ptr()
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return []uint64{}, nil
	}
	if len(ranges) > math.MaxInt32 {
		return nil, newError(ErrMarshaling, "approximate sizes", "too many ranges")
	}

	starts, limits, err := db.resolveRanges(ranges)
	if err != nil {
		return nil, err
	}

	var s marshal.Scope
	defer s.Release()
	sj := s.Jagged(starts)
	lj := s.Jagged(limits)
	if err := marshal.CheckLen("range limits", lj.Len(), sj.Len()); err != nil {
		return nil, err
	}
	sizes := make([]uint64, len(ranges))
	native.ApproximateSizes(p, int32(len(ranges)),
		sj.Pointers(), sj.Lengths(), lj.Pointers(), lj.Lengths(), s.Uint64s(sizes))
	return sizes, nil
}

// resolveRanges replaces nil bounds with concrete keys: a nil Start becomes
// the first key, a nil Limit a key just past the last one. An empty
// database resolves both to the empty key.
func (db *DB) resolveRanges(ranges []Range) (starts, limits [][]byte, err error) {
	var (
		first, last []byte
		resolved    bool
	)
	resolve := func() error {
		if resolved {
			return nil
		}
		resolved = true
		first, last, err = db.edgeKeys()
		if err != nil {
			return err
		}
		if first == nil {
			first, last = []byte{}, []byte{}
			return nil
		}
		past := append(append([]byte{}, last...), 0)
		if db.cmp.Compare(past, last) > 0 {
			last = past
		}
		return nil
	}

	starts = make([][]byte, len(ranges))
	limits = make([][]byte, len(ranges))
	for i, r := range ranges {
		starts[i], limits[i] = r.Start, r.Limit
		if r.Start == nil {
			if err := resolve(); err != nil {
				return nil, nil, err
			}
			starts[i] = first
		}
		if r.Limit == nil {
			if err := resolve(); err != nil {
				return nil, nil, err
			}
			limits[i] = last
		}
	}
	return starts, limits, nil
}

// edgeKeys returns the first and last keys, or nils for an empty database.
func (db *DB) edgeKeys() (first, last []byte, err error) {
	it, err := db.NewIterator(nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()

	it.SeekToFirst()
	if !it.Valid() {
		return nil, nil, it.Error()
	}
	first = it.Key()
	it.SeekToLast()
	last = it.Key()
	return first, last, it.Error()
}

// CompactRange compacts the underlying storage for the key range
// [start, limit]. A nil bound leaves that side of the range open, so
// CompactRange(nil, nil) compacts the whole database.
func (db *DB) CompactRange(start, limit []byte) error {
	p, err := db.h.Ptr()
	if err != nil {
		return err
	}
	var s marshal.Scope
	defer s.Release()
	sp, sn := s.Bytes(start)
	lp, ln := s.Bytes(limit)
	native.CompactRange(p, sp, sn, lp, ln)
	return nil
}

// All returns a sequence over every key/value pair in key order, and a
// function reporting the error that ended the most recent loop, if any.
// Each range loop opens and closes its own iterator.
//
//	seq, errf := db.All(nil)
//	for k, v := range seq { ... }
//	if err := errf(); err != nil { ... }
func (db *DB) All(ro *ReadOptions) (iter.Seq2[[]byte, []byte], func() error) {
	var lastErr error
	seq := func(yield func([]byte, []byte) bool) {
		lastErr = nil
		it, err := db.NewIterator(ro)
		if err != nil {
			lastErr = err
			return
		}
		defer it.Close()
		for it.SeekToFirst(); it.Valid(); it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
		lastErr = it.Error()
	}
	return seq, func() error { return lastErr }
}

// RepairDB attempts to recover as much data as possible from a corrupted
// database. Some data may be lost. If opts is nil, DefaultOptions() is used.
func RepairDB(path string, opts *Options) error {
	return withOptions("repair", ErrRepair, path, opts, native.RepairDB)
}

// DestroyDB deletes the database at path. If opts is nil, DefaultOptions()
// is used.
func DestroyDB(path string, opts *Options) error {
	return withOptions("destroy", ErrDestroy, path, opts, native.DestroyDB)
}

func withOptions(op string, kind error, path string, opts *Options,
	call func(opts uintptr, name unsafe.Pointer, errptr *uintptr)) error {
	if err := ensureLoaded(); err != nil {
		return err
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	var s marshal.Scope
	defer s.Release()
	name, err := s.CString(path)
	if err != nil {
		return err
	}

	no, err := opts.build()
	if err != nil {
		return err
	}
	defer releaseAll(no.held)
	defer no.free()

	var errptr uintptr
	call(no.ptr, name, &errptr)
	if err := engineError(kind, op, errptr); err != nil {
		logging.OrDefault(opts.Logger).Errorf("%s%s %s failed: %v", logging.NSDB, op, path, err)
		return err
	}
	return nil
}
