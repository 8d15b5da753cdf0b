package levelkv

import (
	"io/fs"
	"sync"

	"github.com/aalhour/levelkv/internal/loader"
	"github.com/aalhour/levelkv/internal/logging"
	"github.com/aalhour/levelkv/internal/native"
)

// Version is the binding version. It names the staging directory so that
// binaries bundled with different versions never overwrite each other.
const Version = "0.1.0"

// LibraryPathEnv names the environment variable that overrides the engine
// library location.
const LibraryPathEnv = loader.EnvLibraryPath

// LoaderOptions configures how the engine library is located.
type LoaderOptions struct {
	// LibraryPath loads a specific shared library and bypasses staging.
	LibraryPath string

	// Bundle holds prebuilt engine binaries, typically an embed.FS, laid out
	// as <GOOS>-<GOARCH>/leveldb<32|64>/<library name>. Binaries may be
	// stored compressed with a .sz, .zz, .lz4 or .zst suffix.
	Bundle fs.FS

	// CacheDir is where bundled binaries are staged.
	// Default: os.TempDir()
	CacheDir string

	// Logger receives staging and loading events.
	// If nil, warnings and errors go to stderr.
	Logger Logger
}

// LibraryInfo describes the loaded engine library.
type LibraryInfo struct {
	// Path is the file handed to the dynamic loader.
	Path string

	// Variant is the pointer-width variant, "leveldb32" or "leveldb64".
	Variant string

	// Staged is true when Path was extracted from the bundle.
	Staged bool

	// Rewritten is true when staging had to write the cached copy.
	Rewritten bool

	// Digest is the xxh3 hash of the staged binary, zero when not staged.
	Digest uint64

	// MajorVersion and MinorVersion report the engine version when the
	// engine exports it, and are zero otherwise.
	MajorVersion int
	MinorVersion int
}

var (
	loaderMu   sync.Mutex
	loaderOpts LoaderOptions
)

// SetLoaderOptions configures the engine loader. It must be called before
// any other function in this package and fails with ErrLoaderStarted after
// the first load attempt.
func SetLoaderOptions(opts LoaderOptions) error {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	if native.Started() {
		return ErrLoaderStarted
	}
	loaderOpts = opts
	return nil
}

// Load loads the engine library now instead of on first use.
func Load() (LibraryInfo, error) {
	if err := ensureLoaded(); err != nil {
		return LibraryInfo{}, err
	}
	return LoadInfo(), nil
}

// LoadInfo reports the loaded engine library. It is the zero value when
// nothing has been loaded.
func LoadInfo() LibraryInfo {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	if !native.Started() {
		return LibraryInfo{}
	}
	li, err := native.Init(loader.Options{})
	if err != nil {
		return LibraryInfo{}
	}
	info := LibraryInfo{
		Path:      li.Path,
		Variant:   li.Variant,
		Staged:    li.Staged,
		Rewritten: li.Rewritten,
		Digest:    li.Digest,
	}
	if native.MajorVersion != nil && native.MinorVersion != nil {
		info.MajorVersion = int(native.MajorVersion())
		info.MinorVersion = int(native.MinorVersion())
	}
	return info
}

func ensureLoaded() error {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	_, err := native.Init(loader.Options{
		Version:     Version,
		Bundle:      loaderOpts.Bundle,
		CacheDir:    loaderOpts.CacheDir,
		LibraryPath: loaderOpts.LibraryPath,
		Logger:      logging.OrDefault(loaderOpts.Logger),
	})
	return err
}
