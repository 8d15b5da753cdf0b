package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zeebo/xxh3"
	"go.uber.org/multierr"

	"github.com/aalhour/levelkv/internal/compression"
	"github.com/aalhour/levelkv/internal/logging"
	"github.com/aalhour/levelkv/internal/vfs"
)

const lockName = ".lock"

// Stage extracts the current variant from opts.Bundle into StageDir(opts).
// The staged file is rewritten only when its bytes differ from the bundle.
func Stage(opts Options) (Info, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	info := Info{Variant: Variant(), Staged: true}
	if opts.Bundle == nil {
		return info, fmt.Errorf("%w: no bundle configured", ErrLoad)
	}

	contents, src, err := readBundle(opts.Bundle)
	if err != nil {
		return info, err
	}
	info.Digest = xxh3.Hash(contents)

	dir := StageDir(opts)
	if err := opts.FS.MkdirAll(dir, 0o755); err != nil {
		return info, fmt.Errorf("%w: create %s: %v", ErrLoad, dir, err)
	}
	dst := filepath.Join(dir, LibraryName())
	info.Path = dst

	if same, err := sameContents(opts.FS, dst, contents); err != nil {
		return info, fmt.Errorf("%w: compare %s: %v", ErrLoad, dst, err)
	} else if same {
		log.Debugf("%s%s is up to date (xxh3 %016x)", logging.NSLoader, dst, info.Digest)
		return info, nil
	}

	lock, err := opts.FS.Lock(filepath.Join(dir, lockName))
	if err != nil {
		return info, fmt.Errorf("%w: lock %s: %v", ErrLoad, dir, err)
	}
	defer func() { _ = lock.Close() }()

	// Another process may have staged the same bytes while we waited.
	if same, err := sameContents(opts.FS, dst, contents); err != nil {
		return info, fmt.Errorf("%w: compare %s: %v", ErrLoad, dst, err)
	} else if same {
		return info, nil
	}

	if err := writeAtomic(opts.FS, dst, contents); err != nil {
		return info, fmt.Errorf("%w: stage %s: %v", ErrLoad, dst, err)
	}
	info.Rewritten = true
	log.Infof("%sstaged %s from %s (%d bytes, xxh3 %016x)",
		logging.NSLoader, dst, src, len(contents), info.Digest)
	return info, nil
}

// readBundle finds the current variant in bundle, trying the plain name
// first and then every compressed suffix, and returns the decoded bytes.
func readBundle(bundle fs.FS) ([]byte, string, error) {
	base := BundlePath()
	names := []string{base}
	for _, s := range compression.Suffixes() {
		names = append(names, base+s)
	}

	for _, name := range names {
		f, err := bundle.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, name, fmt.Errorf("%w: open bundle %s: %v", ErrLoad, name, err)
		}
		data, err := compression.Decompress(compression.FromName(name), f)
		_ = f.Close()
		if err != nil {
			return nil, name, fmt.Errorf("%w: decode bundle %s: %v", ErrLoad, name, err)
		}
		if len(data) == 0 {
			return nil, name, fmt.Errorf("%w: bundle %s is empty", ErrLoad, name)
		}
		return data, name, nil
	}
	return nil, base, fmt.Errorf("%w: bundle has no %s", ErrLoad, base)
}

// sameContents reports whether the file at name holds exactly want.
func sameContents(fsys vfs.FS, name string, want []byte) (bool, error) {
	st, err := fsys.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if st.Size() != int64(len(want)) {
		return false, nil
	}

	f, err := fsys.Open(name)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	have, err := io.ReadAll(f)
	if err != nil {
		return false, err
	}
	return bytes.Equal(have, want), nil
}

// writeAtomic writes data to a temporary sibling of name, syncs it, and
// renames it into place.
func writeAtomic(fsys vfs.FS, name string, data []byte) (err error) {
	tmp := name + ".tmp-" + strconv.Itoa(os.Getpid())

	f, err := fsys.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rmErr := fsys.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
				err = multierr.Append(err, rmErr)
			}
		}
	}()

	if _, err = f.Write(data); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err = f.Sync(); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = fsys.Rename(tmp, name); err != nil {
		return err
	}
	return fsys.SyncDir(filepath.Dir(name))
}
