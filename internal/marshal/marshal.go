// Package marshal moves byte sequences across the native boundary.
//
// Keys and values are always passed as an explicit (pointer, length) pair and
// never as NUL-terminated strings, because they may contain zero bytes. Go
// memory handed to the engine is pinned with a runtime.Pinner for exactly one
// native call. Engine-owned memory returned to Go is copied before the engine
// is allowed to free or reuse it.
//
// Reference: LevelDB include/leveldb/c.h (Slice arguments as char*/size_t).
package marshal

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"unsafe"
)

// ErrMarshaling reports a buffer that cannot be represented on the other side
// of the boundary (length mismatch, null buffer with a length, embedded NUL
// in a C string).
var ErrMarshaling = errors.New("levelkv: marshaling failure")

// emptyBuf backs zero-length non-nil slices so the engine sees a non-null
// pointer with length 0.
var emptyBuf [1]byte

// Scope pins Go memory for the duration of one native call.
//
//	var s marshal.Scope
//	defer s.Release()
//	kp, kn := s.Bytes(key)
//	native.Put(db, wo, kp, kn, ...)
//
// Pointers obtained from a Scope must not be used after Release.
type Scope struct {
	pinner runtime.Pinner
}

// Bytes pins b and returns its address and length. A nil slice yields a null
// pointer; an empty non-nil slice yields a non-null pointer with length 0.
func (s *Scope) Bytes(b []byte) (unsafe.Pointer, uintptr) {
	if b == nil {
		return nil, 0
	}
	if len(b) == 0 {
		return unsafe.Pointer(&emptyBuf[0]), 0
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	s.pinner.Pin(p)
	return p, uintptr(len(b))
}

// CString returns a pinned NUL-terminated copy of str.
func (s *Scope) CString(str string) (unsafe.Pointer, error) {
	if strings.IndexByte(str, 0) >= 0 {
		return nil, fmt.Errorf("%w: string %q contains NUL", ErrMarshaling, str)
	}
	buf := make([]byte, len(str)+1)
	copy(buf, str)
	p := unsafe.Pointer(&buf[0])
	s.pinner.Pin(p)
	return p, nil
}

// Jagged is a pinned table of buffers laid out as the engine expects for
// multi-range calls: an array of char* and a parallel array of size_t.
type Jagged struct {
	ptrs []unsafe.Pointer
	lens []uintptr
}

// Len returns the number of buffers in the table.
func (j *Jagged) Len() int { return len(j.ptrs) }

// Pointers returns the address of the pointer table, or nil when empty.
func (j *Jagged) Pointers() unsafe.Pointer {
	if len(j.ptrs) == 0 {
		return nil
	}
	return unsafe.Pointer(&j.ptrs[0])
}

// Lengths returns the address of the length table, or nil when empty.
func (j *Jagged) Lengths() unsafe.Pointer {
	if len(j.lens) == 0 {
		return nil
	}
	return unsafe.Pointer(&j.lens[0])
}

// Jagged pins every buffer in bufs individually, then builds and pins the
// pointer and length tables that reference them.
func (s *Scope) Jagged(bufs [][]byte) *Jagged {
	j := &Jagged{
		ptrs: make([]unsafe.Pointer, len(bufs)),
		lens: make([]uintptr, len(bufs)),
	}
	for i, b := range bufs {
		j.ptrs[i], j.lens[i] = s.Bytes(b)
	}
	if len(bufs) > 0 {
		s.pinner.Pin(&j.ptrs[0])
		s.pinner.Pin(&j.lens[0])
	}
	return j
}

// Uint64s pins dst as an output table for the engine to fill.
func (s *Scope) Uint64s(dst []uint64) unsafe.Pointer {
	if len(dst) == 0 {
		return nil
	}
	p := unsafe.Pointer(&dst[0])
	s.pinner.Pin(p)
	return p
}

// Release unpins everything pinned through s.
func (s *Scope) Release() {
	s.pinner.Unpin()
}

// GoBytes copies n bytes of engine memory at ptr into a new Go slice.
// A null pointer with zero length yields an empty non-nil slice.
func GoBytes(ptr uintptr, n uintptr) ([]byte, error) {
	if n > math.MaxInt {
		return nil, fmt.Errorf("%w: length %d exceeds addressable size", ErrMarshaling, n)
	}
	if ptr == 0 {
		if n != 0 {
			return nil, fmt.Errorf("%w: null buffer with length %d", ErrMarshaling, n)
		}
		return []byte{}, nil
	}
	out := make([]byte, n)
	copy(out, View(ptr, n))
	return out, nil
}

// View aliases n bytes of engine memory at ptr without copying. The result
// is only valid until the engine reuses the memory, which is usually the end
// of the current callback.
func View(ptr uintptr, n uintptr) []byte {
	if ptr == 0 || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
}

// GoString copies the NUL-terminated engine string at ptr.
func GoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	base := unsafe.Pointer(ptr)
	var n uintptr
	for *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
	}
	return string(View(ptr, n))
}

// CheckLen verifies that a native result table has the expected length.
func CheckLen(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s has %d entries, want %d", ErrMarshaling, what, got, want)
	}
	return nil
}
