package levelkv

import (
	"path/filepath"
	"testing"

	"github.com/aalhour/levelkv/internal/logging"
)

// requireEngine skips the test when the LevelDB shared library cannot be
// loaded. Point LEVELKV_LIBRARY_PATH at a libleveldb build to run them.
func requireEngine(t *testing.T) {
	t.Helper()
	if _, err := Load(); err != nil {
		t.Skipf("LevelDB engine not available: %v", err)
	}
}

func testOptions() *Options {
	opts := DefaultOptions()
	opts.CreateIfMissing = true
	opts.Logger = logging.Discard
	return opts
}

// openTestDB opens a fresh database in a temp dir and closes it on cleanup.
func openTestDB(t *testing.T, opts *Options) *DB {
	t.Helper()
	requireEngine(t)
	if opts == nil {
		opts = testOptions()
	}
	db, err := Open(filepath.Join(t.TempDir(), "db"), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustPut(t *testing.T, db *DB, key, value string) {
	t.Helper()
	if err := db.Put(nil, []byte(key), []byte(value)); err != nil {
		t.Fatalf("Put(%q) failed: %v", key, err)
	}
}

func mustGet(t *testing.T, db *DB, ro *ReadOptions, key string) (string, bool) {
	t.Helper()
	v, found, err := db.Get(ro, []byte(key))
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return string(v), found
}

func keysOf(t *testing.T, db *DB, ro *ReadOptions) []string {
	t.Helper()
	it, err := db.NewIterator(ro)
	if err != nil {
		t.Fatalf("NewIterator failed: %v", err)
	}
	defer it.Close()

	var keys []string
	for it.SeekToFirst(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
