// Package native binds the LevelDB C API.
//
// Every exported function variable mirrors one leveldb_* entry point from
// include/leveldb/c.h. They are nil until Init succeeds. Opaque engine
// objects travel as uintptr; Go memory handed to the engine travels as
// unsafe.Pointer and must be pinned by the caller (see internal/marshal).
// char* results and error out-parameters are engine allocations that must be
// copied and then freed with Free; TakeError and TakeBytes do both.
package native

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/aalhour/levelkv/internal/loader"
	"github.com/aalhour/levelkv/internal/marshal"
)

// Database.
var (
	Open             func(opts uintptr, name unsafe.Pointer, errptr *uintptr) uintptr
	Close            func(db uintptr)
	Put              func(db, wo uintptr, key unsafe.Pointer, klen uintptr, val unsafe.Pointer, vlen uintptr, errptr *uintptr)
	Delete           func(db, wo uintptr, key unsafe.Pointer, klen uintptr, errptr *uintptr)
	Write            func(db, wo, batch uintptr, errptr *uintptr)
	Get              func(db, ro uintptr, key unsafe.Pointer, klen uintptr, vallen *uintptr, errptr *uintptr) uintptr
	CreateIterator   func(db, ro uintptr) uintptr
	CreateSnapshot   func(db uintptr) uintptr
	ReleaseSnapshot  func(db, snap uintptr)
	PropertyValue    func(db uintptr, name unsafe.Pointer) uintptr
	ApproximateSizes func(db uintptr, n int32, starts, startLens, limits, limitLens unsafe.Pointer, sizes unsafe.Pointer)
	CompactRange     func(db uintptr, start unsafe.Pointer, slen uintptr, limit unsafe.Pointer, llen uintptr)
	DestroyDB        func(opts uintptr, name unsafe.Pointer, errptr *uintptr)
	RepairDB         func(opts uintptr, name unsafe.Pointer, errptr *uintptr)
)

// Iterator.
var (
	IterDestroy     func(it uintptr)
	IterValid       func(it uintptr) uint8
	IterSeekToFirst func(it uintptr)
	IterSeekToLast  func(it uintptr)
	IterSeek        func(it uintptr, key unsafe.Pointer, klen uintptr)
	IterNext        func(it uintptr)
	IterPrev        func(it uintptr)
	IterKey         func(it uintptr, klen *uintptr) uintptr
	IterValue       func(it uintptr, vlen *uintptr) uintptr
	IterGetError    func(it uintptr, errptr *uintptr)
)

// Write batch.
var (
	WriteBatchCreate  func() uintptr
	WriteBatchDestroy func(b uintptr)
	WriteBatchClear   func(b uintptr)
	WriteBatchPut     func(b uintptr, key unsafe.Pointer, klen uintptr, val unsafe.Pointer, vlen uintptr)
	WriteBatchDelete  func(b uintptr, key unsafe.Pointer, klen uintptr)
	WriteBatchIterate func(b, state, put, deleted uintptr)
)

// Options.
var (
	OptionsCreate                  func() uintptr
	OptionsDestroy                 func(o uintptr)
	OptionsSetComparator           func(o, cmp uintptr)
	OptionsSetFilterPolicy         func(o, policy uintptr)
	OptionsSetCreateIfMissing      func(o uintptr, v uint8)
	OptionsSetErrorIfExists        func(o uintptr, v uint8)
	OptionsSetParanoidChecks       func(o uintptr, v uint8)
	OptionsSetEnv                  func(o, env uintptr)
	OptionsSetWriteBufferSize      func(o uintptr, n uintptr)
	OptionsSetMaxOpenFiles         func(o uintptr, n int32)
	OptionsSetCache                func(o, cache uintptr)
	OptionsSetBlockSize            func(o uintptr, n uintptr)
	OptionsSetBlockRestartInterval func(o uintptr, n int32)
	OptionsSetCompression          func(o uintptr, c int32)

	ReadOptionsCreate             func() uintptr
	ReadOptionsDestroy            func(o uintptr)
	ReadOptionsSetVerifyChecksums func(o uintptr, v uint8)
	ReadOptionsSetFillCache       func(o uintptr, v uint8)
	ReadOptionsSetSnapshot        func(o, snap uintptr)

	WriteOptionsCreate  func() uintptr
	WriteOptionsDestroy func(o uintptr)
	WriteOptionsSetSync func(o uintptr, v uint8)
)

// Configuration objects.
var (
	CacheCreateLRU      func(capacity uintptr) uintptr
	CacheDestroy        func(c uintptr)
	ComparatorCreate    func(state, destructor, compare, name uintptr) uintptr
	ComparatorDestroy   func(c uintptr)
	FilterPolicyBloom   func(bitsPerKey int32) uintptr
	FilterPolicyDestroy func(p uintptr)
	CreateDefaultEnv    func() uintptr
	EnvDestroy          func(e uintptr)
)

// Utility.
var (
	Free func(p uintptr)

	// MajorVersion and MinorVersion stay nil on engines older than 1.20.
	MajorVersion func() int32
	MinorVersion func() int32
)

type binding struct {
	name     string
	fptr     any
	optional bool
}

func bindings() []binding {
	return []binding{
		{"leveldb_open", &Open, false},
		{"leveldb_close", &Close, false},
		{"leveldb_put", &Put, false},
		{"leveldb_delete", &Delete, false},
		{"leveldb_write", &Write, false},
		{"leveldb_get", &Get, false},
		{"leveldb_create_iterator", &CreateIterator, false},
		{"leveldb_create_snapshot", &CreateSnapshot, false},
		{"leveldb_release_snapshot", &ReleaseSnapshot, false},
		{"leveldb_property_value", &PropertyValue, false},
		{"leveldb_approximate_sizes", &ApproximateSizes, false},
		{"leveldb_compact_range", &CompactRange, false},
		{"leveldb_destroy_db", &DestroyDB, false},
		{"leveldb_repair_db", &RepairDB, false},

		{"leveldb_iter_destroy", &IterDestroy, false},
		{"leveldb_iter_valid", &IterValid, false},
		{"leveldb_iter_seek_to_first", &IterSeekToFirst, false},
		{"leveldb_iter_seek_to_last", &IterSeekToLast, false},
		{"leveldb_iter_seek", &IterSeek, false},
		{"leveldb_iter_next", &IterNext, false},
		{"leveldb_iter_prev", &IterPrev, false},
		{"leveldb_iter_key", &IterKey, false},
		{"leveldb_iter_value", &IterValue, false},
		{"leveldb_iter_get_error", &IterGetError, false},

		{"leveldb_writebatch_create", &WriteBatchCreate, false},
		{"leveldb_writebatch_destroy", &WriteBatchDestroy, false},
		{"leveldb_writebatch_clear", &WriteBatchClear, false},
		{"leveldb_writebatch_put", &WriteBatchPut, false},
		{"leveldb_writebatch_delete", &WriteBatchDelete, false},
		{"leveldb_writebatch_iterate", &WriteBatchIterate, false},

		{"leveldb_options_create", &OptionsCreate, false},
		{"leveldb_options_destroy", &OptionsDestroy, false},
		{"leveldb_options_set_comparator", &OptionsSetComparator, false},
		{"leveldb_options_set_filter_policy", &OptionsSetFilterPolicy, false},
		{"leveldb_options_set_create_if_missing", &OptionsSetCreateIfMissing, false},
		{"leveldb_options_set_error_if_exists", &OptionsSetErrorIfExists, false},
		{"leveldb_options_set_paranoid_checks", &OptionsSetParanoidChecks, false},
		{"leveldb_options_set_env", &OptionsSetEnv, false},
		{"leveldb_options_set_write_buffer_size", &OptionsSetWriteBufferSize, false},
		{"leveldb_options_set_max_open_files", &OptionsSetMaxOpenFiles, false},
		{"leveldb_options_set_cache", &OptionsSetCache, false},
		{"leveldb_options_set_block_size", &OptionsSetBlockSize, false},
		{"leveldb_options_set_block_restart_interval", &OptionsSetBlockRestartInterval, false},
		{"leveldb_options_set_compression", &OptionsSetCompression, false},

		{"leveldb_readoptions_create", &ReadOptionsCreate, false},
		{"leveldb_readoptions_destroy", &ReadOptionsDestroy, false},
		{"leveldb_readoptions_set_verify_checksums", &ReadOptionsSetVerifyChecksums, false},
		{"leveldb_readoptions_set_fill_cache", &ReadOptionsSetFillCache, false},
		{"leveldb_readoptions_set_snapshot", &ReadOptionsSetSnapshot, false},

		{"leveldb_writeoptions_create", &WriteOptionsCreate, false},
		{"leveldb_writeoptions_destroy", &WriteOptionsDestroy, false},
		{"leveldb_writeoptions_set_sync", &WriteOptionsSetSync, false},

		{"leveldb_cache_create_lru", &CacheCreateLRU, false},
		{"leveldb_cache_destroy", &CacheDestroy, false},
		{"leveldb_comparator_create", &ComparatorCreate, false},
		{"leveldb_comparator_destroy", &ComparatorDestroy, false},
		{"leveldb_filterpolicy_create_bloom", &FilterPolicyBloom, false},
		{"leveldb_filterpolicy_destroy", &FilterPolicyDestroy, false},
		{"leveldb_create_default_env", &CreateDefaultEnv, false},
		{"leveldb_env_destroy", &EnvDestroy, false},

		{"leveldb_free", &Free, false},
		{"leveldb_major_version", &MajorVersion, true},
		{"leveldb_minor_version", &MinorVersion, true},
	}
}

// symbolSource resolves exported functions; *loader.Library implements it.
type symbolSource interface {
	Symbol(name string) (uintptr, error)
}

var (
	initOnce sync.Once
	initErr  error
	info     loader.Info
	started  atomic.Bool
)

// loadLibrary is replaced by tests.
var loadLibrary = func(opts loader.Options) (symbolSource, loader.Info, error) {
	lib, err := loader.Load(opts)
	if err != nil {
		return nil, loader.Info{}, err
	}
	return lib, lib.Info(), nil
}

// Init loads the engine and binds every entry point. Only the first call
// does any work; its outcome, success or failure, is returned to every later
// caller regardless of opts.
func Init(opts loader.Options) (loader.Info, error) {
	started.Store(true)
	initOnce.Do(func() {
		var lib symbolSource
		lib, info, initErr = loadLibrary(opts)
		if initErr != nil {
			return
		}
		initErr = bind(lib, bindings())
	})
	return info, initErr
}

// Started reports whether Init has been called.
func Started() bool {
	return started.Load()
}

func bind(lib symbolSource, table []binding) error {
	for _, b := range table {
		sym, err := lib.Symbol(b.name)
		if err != nil {
			if b.optional {
				continue
			}
			return err
		}
		if err := register(b.fptr, sym, b.name); err != nil {
			return err
		}
	}
	return nil
}

func register(fptr any, sym uintptr, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: bind %s: %v", loader.ErrLoad, name, r)
		}
	}()
	purego.RegisterFunc(fptr, sym)
	return nil
}

// TakeError converts an error out-parameter into a Go string and frees the
// engine's copy. ok is false when no error was reported.
func TakeError(errptr uintptr) (msg string, ok bool) {
	if errptr == 0 {
		return "", false
	}
	msg = marshal.GoString(errptr)
	Free(errptr)
	return msg, true
}

// TakeBytes copies an engine-allocated buffer and frees it.
func TakeBytes(ptr, n uintptr) ([]byte, error) {
	b, err := marshal.GoBytes(ptr, n)
	if ptr != 0 {
		Free(ptr)
	}
	return b, err
}

// TakeString copies an engine-allocated NUL-terminated string and frees it.
func TakeString(ptr uintptr) (string, bool) {
	if ptr == 0 {
		return "", false
	}
	s := marshal.GoString(ptr)
	Free(ptr)
	return s, true
}

// Bool converts a Go bool to the engine's unsigned char flag.
func Bool(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
