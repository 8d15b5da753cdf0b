package vfs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFS_CreateOpenRename(t *testing.T) {
	fs := Default()
	dir := t.TempDir()
	tmp := filepath.Join(dir, "lib.tmp")
	final := filepath.Join(dir, "lib.so")

	f, err := fs.Create(tmp)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.Write([]byte("\x7fELF")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := f.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := fs.Rename(tmp, final); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if err := fs.SyncDir(dir); err != nil {
		t.Fatalf("SyncDir failed: %v", err)
	}

	r, err := fs.Open(final)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "\x7fELF" {
		t.Errorf("content = %q, want ELF magic", data)
	}

	if _, err := fs.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("Stat(tmp) error = %v, want not-exist", err)
	}
}

func TestOSFS_LockIsReentrantAfterRelease(t *testing.T) {
	fs := Default()
	name := filepath.Join(t.TempDir(), ".lock")

	for i := range 3 {
		l, err := fs.Lock(name)
		if err != nil {
			t.Fatalf("Lock %d failed: %v", i, err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("Unlock %d failed: %v", i, err)
		}
	}
}

func TestFaultInjectionFS_Errors(t *testing.T) {
	dir := t.TempDir()
	fs := NewFaultInjectionFS(Default())

	fs.InjectWriteError()
	if _, err := fs.Create(filepath.Join(dir, "a")); !errors.Is(err, ErrInjectedWriteError) {
		t.Errorf("Create error = %v, want ErrInjectedWriteError", err)
	}
	if err := fs.MkdirAll(filepath.Join(dir, "sub"), 0o755); !errors.Is(err, ErrInjectedWriteError) {
		t.Errorf("MkdirAll error = %v, want ErrInjectedWriteError", err)
	}
	fs.ClearErrors()

	f, err := fs.Create(filepath.Join(dir, "a"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fs.InjectSyncError()
	if err := f.Sync(); !errors.Is(err, ErrInjectedSyncError) {
		t.Errorf("Sync error = %v, want ErrInjectedSyncError", err)
	}
	_ = f.Close()
	fs.ClearErrors()

	fs.InjectRenameError()
	if err := fs.Rename(filepath.Join(dir, "a"), filepath.Join(dir, "b")); !errors.Is(err, ErrInjectedRenameError) {
		t.Errorf("Rename error = %v, want ErrInjectedRenameError", err)
	}
	fs.ClearErrors()

	fs.InjectReadError()
	if _, err := fs.Open(filepath.Join(dir, "a")); !errors.Is(err, ErrInjectedReadError) {
		t.Errorf("Open error = %v, want ErrInjectedReadError", err)
	}
}

func TestFaultInjectionFS_Counters(t *testing.T) {
	dir := t.TempDir()
	fs := NewFaultInjectionFS(Default())

	f, err := fs.Create(filepath.Join(dir, "a"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_ = f.Close()
	if err := fs.Rename(filepath.Join(dir, "a"), filepath.Join(dir, "b")); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if fs.Creates() != 1 || fs.Renames() != 1 {
		t.Errorf("Creates/Renames = %d/%d, want 1/1", fs.Creates(), fs.Renames())
	}
}
