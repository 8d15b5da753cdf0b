package levelkv

// options.go implements database configuration options.
//
// Options are plain values. Each engine call that takes options builds a
// native options object from them, passes it, and destroys it right after;
// the engine keeps its own copy.
//
// Reference: LevelDB include/leveldb/options.h

import (
	"github.com/aalhour/levelkv/internal/logging"
	"github.com/aalhour/levelkv/internal/native"
)

// Logger is an alias for the logging.Logger interface.
// This allows users to pass their own logger implementation.
type Logger = logging.Logger

// NewZapLogger adapts a zap logger. A nil logger discards everything.
var NewZapLogger = logging.NewZapLogger

// NewDefaultLogger returns a logger writing to stderr at the given level.
var NewDefaultLogger = logging.NewDefaultLogger

// Log levels for NewDefaultLogger.
const (
	LogLevelError = logging.LevelError
	LogLevelWarn  = logging.LevelWarn
	LogLevelInfo  = logging.LevelInfo
	LogLevelDebug = logging.LevelDebug
)

// Compression selects the block compression used by the engine.
type Compression int32

// Compression constants, numbered as the engine numbers them.
const (
	NoCompression     Compression = 0
	SnappyCompression Compression = 1
)

// String returns the string representation of the compression type.
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "NoCompression"
	case SnappyCompression:
		return "Snappy"
	default:
		return "Unknown"
	}
}

// Options contains all configuration options for opening a database.
type Options struct {
	// CreateIfMissing causes Open to create the database if it does not exist.
	CreateIfMissing bool

	// ErrorIfExists causes Open to return an error if the database already exists.
	ErrorIfExists bool

	// ParanoidChecks enables aggressive checking of data integrity.
	ParanoidChecks bool

	// WriteBufferSize is the amount of data to build up in memory before
	// converting to a sorted on-disk file.
	// Default: 4MB
	WriteBufferSize int

	// MaxOpenFiles is the number of open files the engine may use.
	// Default: 1000
	MaxOpenFiles int

	// BlockSize is the approximate size of user data packed per block.
	// Default: 4KB
	BlockSize int

	// BlockRestartInterval is the number of keys between restart points for
	// delta encoding of keys.
	// Default: 16
	BlockRestartInterval int

	// Compression specifies the block compression.
	// Default: SnappyCompression
	Compression Compression

	// Cache is the block cache. If nil, the engine uses an 8MB internal cache.
	Cache *Cache

	// Comparator defines the order of keys in the database.
	// If nil, keys are ordered bytewise.
	Comparator *Comparator

	// FilterPolicy reduces disk reads for missing keys.
	// If nil, no filter is used.
	FilterPolicy *FilterPolicy

	// Env is the engine's environment. If nil, the default environment is used.
	Env *Env

	// Logger is the logger for binding events (open, close, leaked handles).
	// If nil, a default logger writing warnings and errors to stderr is used.
	Logger Logger
}

// DefaultOptions returns a new Options with the engine's default values.
func DefaultOptions() *Options {
	return &Options{
		CreateIfMissing:      false,
		ErrorIfExists:        false,
		ParanoidChecks:       false,
		WriteBufferSize:      4 * 1024 * 1024, // 4MB
		MaxOpenFiles:         1000,
		BlockSize:            4096,
		BlockRestartInterval: 16,
		Compression:          SnappyCompression,
		Logger:               nil, // Will use defaultLogger
	}
}

// ReadOptions contains options for read operations.
type ReadOptions struct {
	// VerifyChecksums verifies all data read from storage against its checksum.
	VerifyChecksums bool

	// FillCache indicates whether data read for this call should be cached.
	FillCache bool

	// Snapshot provides a consistent view of the database.
	// If nil, the most recent state is used.
	Snapshot *Snapshot
}

// DefaultReadOptions returns ReadOptions with default values.
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		VerifyChecksums: false,
		FillCache:       true,
		Snapshot:        nil,
	}
}

// WriteOptions contains options for write operations.
type WriteOptions struct {
	// Sync flushes the write from the operating system buffer cache before
	// the write is considered complete.
	Sync bool
}

// DefaultWriteOptions returns WriteOptions with default values.
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{
		Sync: false,
	}
}

// nativeOptions is an engine options object built from Options, plus the
// configuration objects it references.
type nativeOptions struct {
	ptr  uintptr
	held []*resource
	cmp  Comparer
}

// build acquires every configuration object referenced by o and creates
// the engine options object. The caller must call free, and release the
// held resources once the engine no longer needs them.
func (o *Options) build() (*nativeOptions, error) {
	no := &nativeOptions{cmp: BytewiseComparer}

	var cachePtr, cmpPtr, filterPtr, envPtr uintptr
	acquire := func(r *resource, dst *uintptr) error {
		p, err := r.acquire()
		if err != nil {
			return err
		}
		no.held = append(no.held, r)
		*dst = p
		return nil
	}

	var err error
	if o.Cache != nil {
		err = acquire(o.Cache.res, &cachePtr)
	}
	if err == nil && o.Comparator != nil {
		if err = acquire(o.Comparator.res, &cmpPtr); err == nil {
			no.cmp = o.Comparator.cmp
		}
	}
	if err == nil && o.FilterPolicy != nil {
		err = acquire(o.FilterPolicy.res, &filterPtr)
	}
	if err == nil && o.Env != nil {
		err = acquire(o.Env.res, &envPtr)
	}
	if err != nil {
		releaseAll(no.held)
		return nil, err
	}

	p := native.OptionsCreate()
	native.OptionsSetCreateIfMissing(p, native.Bool(o.CreateIfMissing))
	native.OptionsSetErrorIfExists(p, native.Bool(o.ErrorIfExists))
	native.OptionsSetParanoidChecks(p, native.Bool(o.ParanoidChecks))
	if o.WriteBufferSize > 0 {
		native.OptionsSetWriteBufferSize(p, uintptr(o.WriteBufferSize))
	}
	if o.MaxOpenFiles > 0 {
		native.OptionsSetMaxOpenFiles(p, int32(o.MaxOpenFiles))
	}
	if o.BlockSize > 0 {
		native.OptionsSetBlockSize(p, uintptr(o.BlockSize))
	}
	if o.BlockRestartInterval > 0 {
		native.OptionsSetBlockRestartInterval(p, int32(o.BlockRestartInterval))
	}
	native.OptionsSetCompression(p, int32(o.Compression))
	if cachePtr != 0 {
		native.OptionsSetCache(p, cachePtr)
	}
	if cmpPtr != 0 {
		native.OptionsSetComparator(p, cmpPtr)
	}
	if filterPtr != 0 {
		native.OptionsSetFilterPolicy(p, filterPtr)
	}
	if envPtr != 0 {
		native.OptionsSetEnv(p, envPtr)
	}
	no.ptr = p
	return no, nil
}

// free destroys the engine options object. Held resources are unaffected.
func (no *nativeOptions) free() {
	if no.ptr != 0 {
		native.OptionsDestroy(no.ptr)
		no.ptr = 0
	}
}

// readOptions builds an engine read options object for db. The returned
// function destroys it; for nil ro the database's shared default is used.
func (db *DB) readOptions(op string, ro *ReadOptions) (uintptr, func(), error) {
	if ro == nil {
		return db.defaultRead, func() {}, nil
	}

	var snap uintptr
	if ro.Snapshot != nil {
		if ro.Snapshot.db != db {
			return 0, nil, newError(ErrOperation, op, "snapshot belongs to another database")
		}
		p, err := ro.Snapshot.h.Ptr()
		if err != nil {
			return 0, nil, err
		}
		snap = p
	}

	p := native.ReadOptionsCreate()
	native.ReadOptionsSetVerifyChecksums(p, native.Bool(ro.VerifyChecksums))
	native.ReadOptionsSetFillCache(p, native.Bool(ro.FillCache))
	if snap != 0 {
		native.ReadOptionsSetSnapshot(p, snap)
	}
	return p, func() { native.ReadOptionsDestroy(p) }, nil
}

// writeOptions builds an engine write options object for db.
func (db *DB) writeOptions(wo *WriteOptions) (uintptr, func()) {
	if wo == nil || !wo.Sync {
		return db.defaultWrite, func() {}
	}
	p := native.WriteOptionsCreate()
	native.WriteOptionsSetSync(p, 1)
	return p, func() { native.WriteOptionsDestroy(p) }
}
