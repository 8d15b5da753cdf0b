package levelkv

// snapshot.go implements snapshot management.
//
// Snapshots provide consistent point-in-time views of the database.
// All reads from a snapshot see the database state at creation time.
//
// Reference: LevelDB include/leveldb/db.h (GetSnapshot, ReleaseSnapshot)

import "github.com/aalhour/levelkv/internal/handle"

// Snapshot is an immutable view of the database at the time it was taken.
// Bind reads to it through ReadOptions.Snapshot.
type Snapshot struct {
	h  handle.Handle
	db *DB
}

// Release releases the snapshot. It is idempotent; after the first call,
// reads bound to the snapshot fail with ErrUseAfterDispose.
func (s *Snapshot) Release() {
	if s.db != nil {
		s.db.ReleaseSnapshot(s)
	}
}

// Released reports whether the snapshot has been released, either directly
// or by closing its database.
func (s *Snapshot) Released() bool {
	return s.h.Released()
}
