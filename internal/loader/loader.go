// Package loader stages and loads the native LevelDB library.
//
// The engine binary is selected for the running process (operating system,
// architecture and pointer width), copied out of an optional bundle into a
// per-version cache directory, and handed to the platform dynamic loader.
// An already-staged copy is compared byte-for-byte with the bundle and only
// rewritten when it differs, so processes sharing the cache directory do not
// rewrite (and on Windows, fail to overwrite) a library another process has
// mapped.
//
// Resolution order:
//  1. Options.LibraryPath, then the LEVELKV_LIBRARY_PATH environment variable
//  2. Options.Bundle, staged into the cache directory
//  3. the platform's system library names, searched by the dynamic loader
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"

	"go.uber.org/multierr"

	"github.com/aalhour/levelkv/internal/logging"
	"github.com/aalhour/levelkv/internal/vfs"
)

// ErrLoad is returned when the native library cannot be staged or loaded.
var ErrLoad = errors.New("levelkv: native library load failure")

// EnvLibraryPath names the environment variable that overrides the library
// location.
const EnvLibraryPath = "LEVELKV_LIBRARY_PATH"

// Options configures staging and loading.
type Options struct {
	// Version names the staging directory (levelkv-<Version>). Binaries of
	// different binding versions never overwrite each other.
	Version string

	// Bundle holds prebuilt engine binaries laid out as
	// <GOOS>-<GOARCH>/<Variant()>/<LibraryName()>[compression suffix].
	// Typically an embed.FS. Nil disables staging.
	Bundle fs.FS

	// CacheDir is the root of the staging cache. Default: os.TempDir().
	CacheDir string

	// LibraryPath loads a specific file and bypasses staging.
	LibraryPath string

	// FS is the filesystem used for staging. Default: vfs.Default().
	FS vfs.FS

	// Logger receives staging and loading events. Default: WARN to stderr.
	Logger logging.Logger
}

// Info describes the library that was loaded.
type Info struct {
	// Path is the file handed to the dynamic loader.
	Path string

	// Variant is the pointer-width variant, e.g. "leveldb64".
	Variant string

	// Staged is true when Path was extracted from the bundle.
	Staged bool

	// Rewritten is true when staging had to (re)write the cached copy.
	Rewritten bool

	// Digest is the xxh3 hash of the staged binary; zero when not staged.
	Digest uint64
}

// Library is a loaded native library.
type Library struct {
	handle uintptr
	info   Info
}

// Info returns what was loaded.
func (l *Library) Info() Info { return l.info }

// Symbol resolves an exported function by name.
func (l *Library) Symbol(name string) (uintptr, error) {
	sym, err := lookupSymbol(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("%w: symbol %s: %v", ErrLoad, name, err)
	}
	if sym == 0 {
		return 0, fmt.Errorf("%w: symbol %s resolved to nil", ErrLoad, name)
	}
	return sym, nil
}

// openLibrary is the platform dynamic loader; tests replace it.
var openLibrary = openNative

// Variant returns the binary variant for the current pointer width.
func Variant() string {
	return "leveldb" + strconv.Itoa(strconv.IntSize)
}

// Platform returns the GOOS-GOARCH pair used in bundle and cache paths.
func Platform() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}

// LibraryName returns the engine's shared library file name on this OS.
func LibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "leveldb.dll"
	case "darwin", "ios":
		return "libleveldb.dylib"
	default:
		return "libleveldb.so"
	}
}

// systemNames lists the names the dynamic loader is asked for when neither
// an explicit path nor a bundle is configured.
func systemNames() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"leveldb.dll", "libleveldb.dll"}
	case "darwin", "ios":
		return []string{
			"libleveldb.1.dylib",
			"libleveldb.dylib",
			"/opt/homebrew/lib/libleveldb.dylib",
			"/usr/local/lib/libleveldb.dylib",
		}
	default:
		return []string{"libleveldb.so.1", "libleveldb.so"}
	}
}

func (o Options) withDefaults() Options {
	if o.Version == "" {
		o.Version = "0"
	}
	if o.CacheDir == "" {
		o.CacheDir = os.TempDir()
	}
	if o.FS == nil {
		o.FS = vfs.Default()
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

// StageDir returns the directory the current variant is staged into.
func StageDir(opts Options) string {
	opts = opts.withDefaults()
	return filepath.Join(opts.CacheDir, "levelkv-"+opts.Version, Platform(), Variant())
}

// BundlePath returns the uncompressed bundle path of the current variant.
func BundlePath() string {
	return path.Join(Platform(), Variant(), LibraryName())
}

// Load resolves, stages if needed, and loads the engine library.
func Load(opts Options) (*Library, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	var (
		info       = Info{Variant: Variant()}
		candidates []string
	)

	switch explicit := firstNonEmpty(opts.LibraryPath, os.Getenv(EnvLibraryPath)); {
	case explicit != "":
		candidates = []string{explicit}
	case opts.Bundle != nil:
		staged, err := Stage(opts)
		if err != nil {
			return nil, err
		}
		info = staged
		candidates = []string{staged.Path}
	default:
		candidates = systemNames()
	}

	var errs error
	for _, name := range candidates {
		h, err := openLibrary(name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if h == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: loader returned no handle", name))
			continue
		}
		info.Path = name
		log.Infof("%sloaded %s (%s)", logging.NSLoader, name, info.Variant)
		return &Library{handle: h, info: info}, nil
	}

	log.Errorf("%scannot load %s: %v", logging.NSLoader, info.Variant, errs)
	return nil, fmt.Errorf("%w: %v", ErrLoad, errs)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
