package vfs

import (
	"errors"
	"io"
	"os"
	"sync"
)

var (
	// ErrInjectedReadError is returned when a read error is injected.
	ErrInjectedReadError = errors.New("vfs: injected read error")

	// ErrInjectedWriteError is returned when a write error is injected.
	ErrInjectedWriteError = errors.New("vfs: injected write error")

	// ErrInjectedSyncError is returned when a sync error is injected.
	ErrInjectedSyncError = errors.New("vfs: injected sync error")

	// ErrInjectedRenameError is returned when a rename error is injected.
	ErrInjectedRenameError = errors.New("vfs: injected rename error")
)

// FaultInjectionFS wraps an FS and fails selected operations. It also counts
// the files created through it, which lets tests assert that an up-to-date
// staged library is not rewritten.
type FaultInjectionFS struct {
	base FS

	mu sync.RWMutex

	injectReadError   bool
	injectWriteError  bool
	injectSyncError   bool
	injectRenameError bool
	creates           int
	renames           int
}

// NewFaultInjectionFS creates a new fault-injecting filesystem wrapper.
func NewFaultInjectionFS(base FS) *FaultInjectionFS {
	return &FaultInjectionFS{base: base}
}

// InjectReadError makes every Open fail.
func (fs *FaultInjectionFS) InjectReadError() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectReadError = true
}

// InjectWriteError makes every Create and Write fail.
func (fs *FaultInjectionFS) InjectWriteError() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectWriteError = true
}

// InjectSyncError makes every file Sync fail.
func (fs *FaultInjectionFS) InjectSyncError() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectSyncError = true
}

// InjectRenameError makes every Rename fail.
func (fs *FaultInjectionFS) InjectRenameError() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectRenameError = true
}

// ClearErrors clears all error injection.
func (fs *FaultInjectionFS) ClearErrors() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectReadError = false
	fs.injectWriteError = false
	fs.injectSyncError = false
	fs.injectRenameError = false
}

// Creates returns how many files were created through fs.
func (fs *FaultInjectionFS) Creates() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.creates
}

// Renames returns how many successful renames went through fs.
func (fs *FaultInjectionFS) Renames() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.renames
}

func (fs *FaultInjectionFS) flag(f *bool) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return *f
}

// Create creates a new writable file with fault injection.
func (fs *FaultInjectionFS) Create(name string) (WritableFile, error) {
	if fs.flag(&fs.injectWriteError) {
		return nil, ErrInjectedWriteError
	}
	f, err := fs.base.Create(name)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	fs.creates++
	fs.mu.Unlock()
	return &faultWritableFile{base: f, fs: fs}, nil
}

// Open opens an existing file for reading.
func (fs *FaultInjectionFS) Open(name string) (io.ReadCloser, error) {
	if fs.flag(&fs.injectReadError) {
		return nil, ErrInjectedReadError
	}
	return fs.base.Open(name)
}

// Rename atomically renames a file.
func (fs *FaultInjectionFS) Rename(oldname, newname string) error {
	if fs.flag(&fs.injectRenameError) {
		return ErrInjectedRenameError
	}
	if err := fs.base.Rename(oldname, newname); err != nil {
		return err
	}
	fs.mu.Lock()
	fs.renames++
	fs.mu.Unlock()
	return nil
}

// Remove deletes a file.
func (fs *FaultInjectionFS) Remove(name string) error {
	return fs.base.Remove(name)
}

// MkdirAll creates a directory and all parent directories.
func (fs *FaultInjectionFS) MkdirAll(path string, perm os.FileMode) error {
	if fs.flag(&fs.injectWriteError) {
		return ErrInjectedWriteError
	}
	return fs.base.MkdirAll(path, perm)
}

// Stat returns file info.
func (fs *FaultInjectionFS) Stat(name string) (os.FileInfo, error) {
	return fs.base.Stat(name)
}

// Lock acquires an exclusive lock on a file.
func (fs *FaultInjectionFS) Lock(name string) (io.Closer, error) {
	return fs.base.Lock(name)
}

// SyncDir syncs a directory.
func (fs *FaultInjectionFS) SyncDir(path string) error {
	if fs.flag(&fs.injectSyncError) {
		return ErrInjectedSyncError
	}
	return fs.base.SyncDir(path)
}

// faultWritableFile wraps WritableFile with fault injection.
type faultWritableFile struct {
	base WritableFile
	fs   *FaultInjectionFS
}

func (f *faultWritableFile) Write(p []byte) (int, error) {
	if f.fs.flag(&f.fs.injectWriteError) {
		return 0, ErrInjectedWriteError
	}
	return f.base.Write(p)
}

func (f *faultWritableFile) Sync() error {
	if f.fs.flag(&f.fs.injectSyncError) {
		return ErrInjectedSyncError
	}
	return f.base.Sync()
}

func (f *faultWritableFile) Close() error {
	return f.base.Close()
}
