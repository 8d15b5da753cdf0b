package levelkv

import (
	"errors"
	"testing"
)

func newTestBatch(t *testing.T) *WriteBatch {
	t.Helper()
	requireEngine(t)
	wb, err := NewWriteBatch()
	if err != nil {
		t.Fatalf("NewWriteBatch failed: %v", err)
	}
	t.Cleanup(wb.Close)
	return wb
}

func TestWriteBatch_Atomic(t *testing.T) {
	db := openTestDB(t, nil)
	mustPut(t, db, "NA", "gone soon")

	wb := newTestBatch(t)
	steps := []func() error{
		func() error { return wb.Delete([]byte("NA")) },
		func() error { return wb.Put([]byte("Tampa"), []byte("Green")) },
		func() error { return wb.Put([]byte("London"), []byte("red")) },
		func() error { return wb.Put([]byte("New York"), []byte("blue")) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}

	// Nothing is visible before Write.
	if got := keysOf(t, db, nil); !equalStrings(got, []string{"NA"}) {
		t.Fatalf("keys before Write = %v", got)
	}

	if err := db.Write(nil, wb); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := []string{"London", "New York", "Tampa"}
	if got := keysOf(t, db, nil); !equalStrings(got, want) {
		t.Errorf("keys after Write = %v, want %v", got, want)
	}
}

func TestWriteBatch_CountAndClear(t *testing.T) {
	wb := newTestBatch(t)
	if wb.Count() != 0 {
		t.Errorf("new batch Count = %d", wb.Count())
	}
	_ = wb.Put([]byte("a"), []byte("1"))
	_ = wb.Delete([]byte("b"))
	if wb.Count() != 2 {
		t.Errorf("Count = %d, want 2", wb.Count())
	}
	if err := wb.Clear(); err != nil {
		t.Fatal(err)
	}
	if wb.Count() != 0 {
		t.Errorf("Count after Clear = %d", wb.Count())
	}

	calls := 0
	if err := wb.Iterate(func(k, v []byte) { calls++ }, func(k []byte) { calls++ }); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("cleared batch replayed %d records", calls)
	}
}

func TestWriteBatch_Iterate(t *testing.T) {
	wb := newTestBatch(t)
	_ = wb.Put([]byte("k\x001"), []byte("v1"))
	_ = wb.Delete([]byte("k2"))
	_ = wb.Put([]byte("k3"), []byte{})

	var got []string
	err := wb.Iterate(
		func(k, v []byte) { got = append(got, "put "+string(k)+"="+string(v)) },
		func(k []byte) { got = append(got, "del "+string(k)) },
	)
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	want := []string{"put k\x001=v1", "del k2", "put k3="}
	if !equalStrings(got, want) {
		t.Errorf("Iterate = %q, want %q", got, want)
	}

	// Nil sinks skip that record kind.
	n := 0
	if err := wb.Iterate(nil, func([]byte) { n++ }); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deletes replayed = %d, want 1", n)
	}
}

func TestWriteBatch_IteratePanic(t *testing.T) {
	wb := newTestBatch(t)
	_ = wb.Put([]byte("a"), []byte("1"))
	_ = wb.Put([]byte("b"), []byte("2"))

	calls := 0
	defer func() {
		if r := recover(); r != "stop" {
			t.Errorf("recovered %v, want stop", r)
		}
		if calls != 1 {
			t.Errorf("sink called %d times after panic, want 1", calls)
		}
	}()
	_ = wb.Iterate(func(k, v []byte) {
		calls++
		panic("stop")
	}, nil)
	t.Error("Iterate did not re-raise the panic")
}

func TestWriteBatch_UseAfterClose(t *testing.T) {
	wb := newTestBatch(t)
	wb.Close()
	wb.Close()

	if err := wb.Put([]byte("k"), []byte("v")); !errors.Is(err, ErrUseAfterDispose) {
		t.Errorf("Put = %v", err)
	}
	if err := wb.Delete([]byte("k")); !errors.Is(err, ErrUseAfterDispose) {
		t.Errorf("Delete = %v", err)
	}
	if err := wb.Clear(); !errors.Is(err, ErrUseAfterDispose) {
		t.Errorf("Clear = %v", err)
	}
	if err := wb.Iterate(nil, nil); !errors.Is(err, ErrUseAfterDispose) {
		t.Errorf("Iterate = %v", err)
	}
}
