// write_batch.go implements the public WriteBatch API for atomic writes.
//
// Reference: LevelDB include/leveldb/write_batch.h
package levelkv

import (
	"github.com/aalhour/levelkv/internal/handle"
	"github.com/aalhour/levelkv/internal/marshal"
	"github.com/aalhour/levelkv/internal/native"
)

// WriteBatch holds a collection of writes to be applied atomically.
// Keys and values are copied, so you can modify them after calling Put/Delete.
//
// A WriteBatch can be reused by calling Clear() after Write().
//
// Example:
//
//	wb, err := levelkv.NewWriteBatch()
//	if err != nil { ... }
//	defer wb.Close()
//	wb.Put([]byte("key1"), []byte("value1"))
//	wb.Put([]byte("key2"), []byte("value2"))
//	wb.Delete([]byte("key3"))
//	err = database.Write(nil, wb)
//	wb.Clear() // Reuse the batch
type WriteBatch struct {
	h     handle.Handle
	count int
}

// NewWriteBatch creates a new empty WriteBatch.
func NewWriteBatch() (*WriteBatch, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	p := native.WriteBatchCreate()
	if p == 0 {
		return nil, newError(ErrOperation, "write batch", "engine returned no batch")
	}
	wb := &WriteBatch{}
	wb.h.Reset(p)
	return wb, nil
}

// Put adds a key-value pair to the batch.
func (wb *WriteBatch) Put(key, value []byte) error {
	p, err := wb.h.Ptr()
	if err != nil {
		return err
	}
	var s marshal.Scope
	defer s.Release()
	kp, kn := s.Bytes(key)
	vp, vn := s.Bytes(value)
	native.WriteBatchPut(p, kp, kn, vp, vn)
	wb.count++
	return nil
}

// Delete adds a deletion for the key to the batch.
func (wb *WriteBatch) Delete(key []byte) error {
	p, err := wb.h.Ptr()
	if err != nil {
		return err
	}
	var s marshal.Scope
	defer s.Release()
	kp, kn := s.Bytes(key)
	native.WriteBatchDelete(p, kp, kn)
	wb.count++
	return nil
}

// Clear removes all operations from the batch.
func (wb *WriteBatch) Clear() error {
	p, err := wb.h.Ptr()
	if err != nil {
		return err
	}
	native.WriteBatchClear(p)
	wb.count = 0
	return nil
}

// Count returns the number of operations in the batch.
func (wb *WriteBatch) Count() int {
	return wb.count
}

// Iterate replays the batch in insertion order, calling put for every Put
// and del for every Delete. Keys and values are copies. Either function may
// be nil. A panic in put or del stops the replay and is re-raised from
// Iterate.
func (wb *WriteBatch) Iterate(put func(key, value []byte), del func(key []byte)) error {
	p, err := wb.h.Ptr()
	if err != nil {
		return err
	}
	return native.IterateBatch(p, &native.BatchSink{Put: put, Delete: del})
}

// Close destroys the batch. It is idempotent.
func (wb *WriteBatch) Close() {
	wb.h.Release(native.WriteBatchDestroy)
}
