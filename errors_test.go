package levelkv

import (
	"errors"
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: ErrOpen, Op: "open", Msg: "IO error: lock held"})

	if !errors.Is(err, ErrOpen) {
		t.Error("errors.Is(ErrOpen) = false")
	}
	if errors.Is(err, ErrOperation) {
		t.Error("errors.Is(ErrOperation) = true")
	}
	var e *Error
	if !errors.As(err, &e) || e.Msg != "IO error: lock held" {
		t.Errorf("errors.As = %+v", e)
	}
	if want := "wrapped: levelkv: open failed: open: IO error: lock held"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestEngineError_NoError(t *testing.T) {
	if err := engineError(ErrOperation, "put", 0); err != nil {
		t.Errorf("engineError(0) = %v, want nil", err)
	}
}

func TestSentinelsDistinct(t *testing.T) {
	sentinels := []error{
		ErrLoad, ErrLoaderStarted, ErrOpen, ErrOperation, ErrIterator,
		ErrRepair, ErrDestroy, ErrMarshaling, ErrUseAfterDispose,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}
