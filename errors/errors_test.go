package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseLoad, Kind: KindInvalidData},
			want: "[load] invalid_data",
		},
		{
			name: "with symbol",
			err:  &Error{Phase: PhaseCall, Kind: KindTrap, Symbol: "mlirAffineMapGetResult"},
			want: "[call] trap at mlirAffineMapGetResult",
		},
		{
			name: "with detail",
			err:  &Error{Phase: PhaseMarshal, Kind: KindAllocation, Detail: "failed to allocate 64 bytes"},
			want: "[marshal] allocation: failed to allocate 64 bytes",
		},
		{
			name: "with cause",
			err:  &Error{Phase: PhasePrint, Kind: KindSink, Symbol: "wasmlirAffineMapPrint", Cause: fmt.Errorf("broken pipe")},
			want: "[print] sink at wasmlirAffineMapPrint (caused by: broken pipe)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := Trap("mlirContextCreate", fmt.Errorf("wasm trap"))

	if !stderrors.Is(err, &Error{Phase: PhaseCall, Kind: KindTrap}) {
		t.Error("expected Is to match on phase+kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseLoad, Kind: KindTrap}) {
		t.Error("expected Is to reject a different phase")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Sink("wasmlirAffineMapPrint", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseCall, KindNotFound).
		Symbol("mlirAffineMapEmptyGet").
		Detail("missing export %q", "mlirAffineMapEmptyGet").
		Build()

	if err.Phase != PhaseCall || err.Kind != KindNotFound {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if !strings.Contains(err.Error(), "mlirAffineMapEmptyGet") {
		t.Errorf("symbol missing from message: %s", err)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if got := Closed("affine expression").Kind; got != KindClosed {
		t.Errorf("Closed kind = %s", got)
	}
	if got := MixedContext("mlirAffineAddExprGet").Kind; got != KindMixedContext {
		t.Errorf("MixedContext kind = %s", got)
	}
	if got := NotFound("mlirContextCreate").Kind; got != KindNotFound {
		t.Errorf("NotFound kind = %s", got)
	}
	if got := AllocationFailed(128, nil).Phase; got != PhaseMarshal {
		t.Errorf("AllocationFailed phase = %s", got)
	}
	if got := OutOfBounds("write at %d", 42).Detail; got != "write at 42" {
		t.Errorf("OutOfBounds detail = %q", got)
	}
}
