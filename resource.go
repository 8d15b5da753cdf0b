package levelkv

import (
	"sync"

	"github.com/aalhour/levelkv/internal/handle"
)

// resource is the shared lifetime of a configuration object (cache, filter
// policy, comparator, env). Databases acquire it while open; Close marks it
// closing and the engine object is destroyed once the last user is gone.
type resource struct {
	h       *handle.Handle
	destroy func(ptr uintptr)

	mu      sync.Mutex
	users   int
	closing bool
}

func newResource(ptr uintptr, destroy func(uintptr)) *resource {
	return &resource{h: handle.New(ptr), destroy: destroy}
}

// acquire registers a user and returns the native pointer.
func (r *resource) acquire() (uintptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return 0, ErrUseAfterDispose
	}
	p, err := r.h.Ptr()
	if err != nil {
		return 0, err
	}
	r.users++
	return p, nil
}

// release drops a user taken by acquire.
func (r *resource) release() {
	r.mu.Lock()
	r.users--
	last := r.closing && r.users == 0
	r.mu.Unlock()
	if last {
		r.h.Release(r.destroy)
	}
}

// close destroys the object now, or after its last user releases it.
func (r *resource) close() {
	r.mu.Lock()
	r.closing = true
	idle := r.users == 0
	r.mu.Unlock()
	if idle {
		r.h.Release(r.destroy)
	}
}

func releaseAll(rs []*resource) {
	for _, r := range rs {
		r.release()
	}
}
