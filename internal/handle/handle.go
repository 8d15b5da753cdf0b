// Package handle provides the release-once wrapper around opaque native
// pointers owned by the binding.
//
// Every engine object (database, iterator, snapshot, batch, options, cache,
// comparator, filter policy, env) is an opaque pointer that must be passed to
// exactly one destroy function. Handle stores that pointer atomically and
// clears it on the first Release, so later calls observe a released handle
// instead of a dangling pointer.
package handle

import (
	"errors"
	"sync/atomic"
)

// ErrUseAfterDispose is returned when a released handle is used.
var ErrUseAfterDispose = errors.New("levelkv: handle used after release")

// Handle owns one native pointer. The zero value is a released handle.
//
// Handle must not be copied after first use.
type Handle struct {
	_   noCopy
	ptr atomic.Uintptr
}

// New returns a Handle owning ptr.
func New(ptr uintptr) *Handle {
	h := &Handle{}
	h.ptr.Store(ptr)
	return h
}

// Reset makes h own ptr. It is only valid on a released handle.
func (h *Handle) Reset(ptr uintptr) {
	h.ptr.Store(ptr)
}

// Ptr returns the native pointer, or ErrUseAfterDispose once released.
func (h *Handle) Ptr() (uintptr, error) {
	p := h.ptr.Load()
	if p == 0 {
		return 0, ErrUseAfterDispose
	}
	return p, nil
}

// Released reports whether the handle no longer owns a pointer.
func (h *Handle) Released() bool {
	return h.ptr.Load() == 0
}

// Release detaches the pointer and passes it to destroy. Only the first
// caller observes a non-zero pointer, so destroy runs at most once even under
// concurrent calls. Panics raised by destroy are swallowed.
//
// Release reports whether this call performed the release.
func (h *Handle) Release(destroy func(ptr uintptr)) bool {
	p := h.ptr.Swap(0)
	if p == 0 {
		return false
	}
	if destroy != nil {
		func() {
			defer func() { _ = recover() }()
			destroy(p)
		}()
	}
	return true
}

// noCopy trips `go vet -copylocks` on accidental copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
