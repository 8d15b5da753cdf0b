package levelkv_test

import (
	"errors"
	"fmt"
	"os"

	"github.com/aalhour/levelkv"
)

func ExampleOpen() {
	dir, err := os.MkdirTemp("", "levelkv-example-*")
	if err != nil {
		panic(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	opts := levelkv.DefaultOptions()
	opts.CreateIfMissing = true

	db, err := levelkv.Open(dir, opts)
	if errors.Is(err, levelkv.ErrLoad) {
		fmt.Println("LevelDB is not installed:", err)
		return
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Put(nil, []byte("k"), []byte("v")); err != nil {
		panic(err)
	}

	val, found, err := db.Get(nil, []byte("k"))
	if err != nil {
		panic(err)
	}
	fmt.Println(string(val), found)
}

func ExampleDB_All() {
	dir, err := os.MkdirTemp("", "levelkv-example-*")
	if err != nil {
		panic(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	opts := levelkv.DefaultOptions()
	opts.CreateIfMissing = true

	db, err := levelkv.Open(dir, opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer func() { _ = db.Close() }()

	for _, k := range []string{"b", "a", "c"} {
		_ = db.Put(nil, []byte(k), []byte(k+k))
	}

	seq, errf := db.All(nil)
	for k, v := range seq {
		fmt.Printf("%s=%s\n", k, v)
	}
	if err := errf(); err != nil {
		fmt.Println(err)
	}
}

func ExampleSetLoaderOptions() {
	// Must run before anything touches the engine.
	err := levelkv.SetLoaderOptions(levelkv.LoaderOptions{
		LibraryPath: "/opt/leveldb/lib/libleveldb.so.1",
	})
	if errors.Is(err, levelkv.ErrLoaderStarted) {
		fmt.Println("too late: the engine is already loaded")
	}
}
