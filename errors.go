package levelkv

import (
	"errors"

	"github.com/aalhour/levelkv/internal/handle"
	"github.com/aalhour/levelkv/internal/loader"
	"github.com/aalhour/levelkv/internal/marshal"
	"github.com/aalhour/levelkv/internal/native"
)

var (
	// ErrLoad is returned when the native library cannot be staged or loaded.
	ErrLoad = loader.ErrLoad

	// ErrLoaderStarted is returned by SetLoaderOptions once the engine has
	// been loaded (or a load was attempted).
	ErrLoaderStarted = errors.New("levelkv: native library already loaded")

	// ErrOpen is returned when the engine refuses to open a database.
	ErrOpen = errors.New("levelkv: open failed")

	// ErrOperation is returned when a read, write or query fails in the engine.
	ErrOperation = errors.New("levelkv: operation failed")

	// ErrIterator is returned when an iterator reports an engine fault.
	ErrIterator = errors.New("levelkv: iterator failed")

	// ErrRepair is returned when RepairDB fails.
	ErrRepair = errors.New("levelkv: repair failed")

	// ErrDestroy is returned when DestroyDB fails.
	ErrDestroy = errors.New("levelkv: destroy failed")

	// ErrMarshaling is returned when a buffer cannot cross the native boundary.
	ErrMarshaling = marshal.ErrMarshaling

	// ErrUseAfterDispose is returned when a closed or released object is used.
	ErrUseAfterDispose = handle.ErrUseAfterDispose
)

// Error is an engine failure. It unwraps to one of the sentinel errors above
// and carries the engine's diagnostic text.
//
//	if errors.Is(err, levelkv.ErrOpen) { ... }
type Error struct {
	// Kind is the sentinel this error belongs to.
	Kind error

	// Op names the operation that failed, e.g. "put".
	Op string

	// Msg is the engine's message, e.g. "IO error: lock /tmp/db/LOCK: ...".
	Msg string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Op + ": " + e.Msg
}

// Unwrap returns Kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

// engineError converts an error out-parameter into an *Error and frees it.
func engineError(kind error, op string, errptr uintptr) error {
	msg, ok := native.TakeError(errptr)
	if !ok {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func newError(kind error, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}
