//go:build windows

package vfs

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
)

// fileLock implements file locking on Windows systems.
type fileLock struct {
	f *os.File
}

// lockFile acquires an exclusive LockFileEx lock on the named file.
func lockFile(name string) (io.Closer, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) Close() error {
	ol := new(windows.Overlapped)
	_ = windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, 1, 0, ol)
	return l.f.Close()
}

// syncDir is a no-op: Windows has no directory fsync.
func syncDir(string) error {
	return nil
}
