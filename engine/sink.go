package engine

import (
	"context"
	"io"

	"github.com/tetratelabs/wazero/api"

	"github.com/wasmlir/wasmlir/errors"
)

// sinkState collects the bytes the library's print shim pushes through the
// host write function. The first writer failure is recorded and all further
// output is swallowed; the host function itself never panics, because a
// panic here would unwind through the foreign call frame.
type sinkState struct {
	w   io.Writer
	err error
}

type sinkKey struct{}

// withSink carries the active sink through the foreign call.
func withSink(ctx context.Context, s *sinkState) context.Context {
	return context.WithValue(ctx, sinkKey{}, s)
}

func sinkFrom(ctx context.Context) *sinkState {
	s, _ := ctx.Value(sinkKey{}).(*sinkState)
	return s
}

// hostWrite is the wasmlir.write host function: (ptr i32, len i32) -> ().
// The library's print shim forwards every output chunk here.
func hostWrite(ctx context.Context, mod api.Module, stack []uint64) {
	s := sinkFrom(ctx)
	if s == nil || s.err != nil {
		return
	}

	ptr := uint32(stack[0])
	length := uint32(stack[1])
	if length == 0 {
		return
	}

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		s.err = errors.OutOfBounds("print chunk out of bounds: ptr=%d, length=%d", ptr, length)
		return
	}
	if _, err := s.w.Write(data); err != nil {
		s.err = err
	}
}
