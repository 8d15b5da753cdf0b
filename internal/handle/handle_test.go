package handle

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestHandle_Ptr(t *testing.T) {
	h := New(0x1000)

	p, err := h.Ptr()
	if err != nil {
		t.Fatalf("Ptr() error = %v", err)
	}
	if p != 0x1000 {
		t.Errorf("Ptr() = %#x, want 0x1000", p)
	}
	if h.Released() {
		t.Error("Released() = true before Release")
	}
}

func TestHandle_ZeroValueIsReleased(t *testing.T) {
	var h Handle
	if !h.Released() {
		t.Error("zero Handle should be released")
	}
	if _, err := h.Ptr(); !errors.Is(err, ErrUseAfterDispose) {
		t.Errorf("Ptr() error = %v, want ErrUseAfterDispose", err)
	}
	if h.Release(func(uintptr) { t.Error("destroy called on zero handle") }) {
		t.Error("Release() on zero handle reported a release")
	}
}

func TestHandle_ReleaseIsIdempotent(t *testing.T) {
	h := New(42)
	calls := 0
	destroy := func(p uintptr) {
		calls++
		if p != 42 {
			t.Errorf("destroy got %d, want 42", p)
		}
	}

	if !h.Release(destroy) {
		t.Error("first Release() = false, want true")
	}
	if h.Release(destroy) {
		t.Error("second Release() = true, want false")
	}
	if calls != 1 {
		t.Errorf("destroy called %d times, want 1", calls)
	}
	if _, err := h.Ptr(); !errors.Is(err, ErrUseAfterDispose) {
		t.Errorf("Ptr() after release error = %v, want ErrUseAfterDispose", err)
	}
}

func TestHandle_ConcurrentRelease(t *testing.T) {
	h := New(7)
	var calls atomic.Int32
	var wg sync.WaitGroup

	for range 32 {
		wg.Go(func() {
			h.Release(func(uintptr) { calls.Add(1) })
		})
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("destroy called %d times, want 1", got)
	}
}

func TestHandle_DestroyPanicIsSwallowed(t *testing.T) {
	h := New(1)
	released := h.Release(func(uintptr) { panic("native destructor failed") })
	if !released {
		t.Error("Release() = false, want true")
	}
	if !h.Released() {
		t.Error("handle should be released even when destroy panics")
	}
}

func TestHandle_Reset(t *testing.T) {
	h := New(1)
	h.Release(nil)
	h.Reset(2)

	p, err := h.Ptr()
	if err != nil || p != 2 {
		t.Errorf("Ptr() = %d, %v; want 2, nil", p, err)
	}
}
