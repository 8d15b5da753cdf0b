/*
Package levelkv is a client binding for the LevelDB storage engine.

levelkv drives an unmodified LevelDB shared library through its C API
(include/leveldb/c.h). The engine owns persistence, compaction, the log and
the table format; this package owns native handle lifetimes, byte-exact
marshaling of binary keys and values, snapshot-isolated reads, atomic write
batches, and staging of the native library itself. No cgo is required: the
library is loaded at run time on first use.

# Usage

	opts := levelkv.DefaultOptions()
	opts.CreateIfMissing = true

	db, err := levelkv.Open("/tmp/cities", opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Put(nil, []byte("London"), []byte("red")); err != nil {
		return err
	}
	value, found, err := db.Get(nil, []byte("London"))

For runnable programs, see the repository's examples directory.

# Loading the engine

The first call that needs the engine loads it, once per process. By default
the system's libleveldb is used; SetLoaderOptions can point at a specific
file or at a bundle of prebuilt binaries that is staged into a versioned
cache directory. The LEVELKV_LIBRARY_PATH environment variable overrides the
library location. A load failure is reported by every later call.

# Concurrency

A DB is safe for concurrent use by multiple goroutines. Point operations take
no Go-side lock. Iterator and Snapshot values are not safe for concurrent
use; each goroutine should use its own iterator.

# Resource lifetimes

Every object backed by an engine allocation has a Close or Release method
that is idempotent and never fails. Closing a DB also destroys the iterators
and releases the snapshots it created; using them afterwards reports
ErrUseAfterDispose. Caches, filter policies, comparators and environments
may be shared by several databases and are destroyed only after the last
database referencing them has closed.

Reference: LevelDB include/leveldb/c.h, include/leveldb/db.h
*/
package levelkv
