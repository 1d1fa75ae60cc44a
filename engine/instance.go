package engine

import (
	"context"
	"io"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/errors"
)

// Instance is a running library module. It implements wasmlir.Library.
//
// All calls are serialized on an internal mutex: a wazero module instance is
// not safe for concurrent use, and the wrapped library's context arenas carry
// the same contract.
type Instance struct {
	module    api.Module
	memory    *Memory
	allocFn   api.Function
	freeFn    api.Function
	callCtx   context.Context
	funcCache map[string]api.Function
	stackBuf  []uint64
	mu        sync.Mutex
	closed    bool
}

var _ wasmlir.Library = (*Instance)(nil)

// fn resolves an exported entry point, caching the lookup.
// Must be called with i.mu held.
func (i *Instance) fn(symbol string) (api.Function, error) {
	if f, ok := i.funcCache[symbol]; ok {
		return f, nil
	}
	f := i.module.ExportedFunction(symbol)
	if f == nil {
		return nil, errors.NotFound(symbol)
	}
	i.funcCache[symbol] = f
	return f, nil
}

// invoke runs symbol with args on the shared stack buffer and leaves results
// in place. Must be called with i.mu held.
func (i *Instance) invoke(ctx context.Context, symbol string, args []uint64) (api.Function, error) {
	if i.closed {
		return nil, errors.Closed("library instance")
	}

	f, err := i.fn(symbol)
	if err != nil {
		return nil, err
	}

	def := f.Definition()
	if len(args) != len(def.ParamTypes()) {
		return nil, errors.InvalidInput(errors.PhaseCall,
			symbol+": argument count does not match the entry point signature")
	}

	height := len(args)
	if r := len(def.ResultTypes()); r > height {
		height = r
	}
	if height > len(i.stackBuf) {
		i.stackBuf = make([]uint64, height)
	}
	copy(i.stackBuf, args)

	if err := f.CallWithStack(ctx, i.stackBuf[:height]); err != nil {
		return nil, errors.Trap(symbol, err)
	}
	return f, nil
}

// Call invokes a single-result entry point.
func (i *Instance) Call(symbol string, args ...uint64) (uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, err := i.invoke(i.callCtx, symbol, args); err != nil {
		return 0, err
	}
	return i.stackBuf[0], nil
}

// CallVoid invokes an entry point with no results.
func (i *Instance) CallVoid(symbol string, args ...uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, err := i.invoke(i.callCtx, symbol, args)
	return err
}

// Alloc reserves size bytes in the module's linear memory via its exported
// allocator.
func (i *Instance) Alloc(size uint32) (uint32, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return 0, errors.Closed("library instance")
	}
	if i.allocFn == nil {
		return 0, errors.AllocationFailed(size, errors.NotFound(allocExport))
	}

	i.stackBuf[0] = uint64(size)
	if err := i.allocFn.CallWithStack(i.callCtx, i.stackBuf[:1]); err != nil {
		return 0, errors.AllocationFailed(size, err)
	}
	ptr := uint32(i.stackBuf[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(size, nil)
	}
	return ptr, nil
}

// Free releases a buffer obtained from Alloc. Freeing 0 is a no-op.
func (i *Instance) Free(ptr uint32) {
	if ptr == 0 {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed || i.freeFn == nil {
		return
	}

	i.stackBuf[0] = uint64(ptr)
	if err := i.freeFn.CallWithStack(i.callCtx, i.stackBuf[:1]); err != nil {
		Logger().Warn("free failed in guest allocator",
			zap.Uint32("ptr", ptr),
			zap.Error(err))
	}
}

// Memory exposes the module's linear memory.
func (i *Instance) Memory() wasmlir.Memory {
	return i.memory
}

// Print invokes a print entry point for handle, streaming the library's
// output into w through the host byte sink. A failing writer stops the
// collection; its error is returned once the foreign call has completed, so
// nothing unwinds through foreign code.
func (i *Instance) Print(symbol string, handle uint64, w io.Writer) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	sink := &sinkState{w: w}
	ctx := withSink(i.callCtx, sink)

	if _, err := i.invoke(ctx, symbol, []uint64{handle}); err != nil {
		return err
	}
	if sink.err != nil {
		return errors.Sink(symbol, sink.err)
	}
	return nil
}

// Close releases the module instance. Subsequent calls fail with a closed
// error; Close itself is idempotent.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true

	err := i.module.Close(ctx)
	i.funcCache = nil
	i.memory = nil
	i.allocFn = nil
	i.freeFn = nil
	if err != nil {
		return errors.New(errors.PhaseClose, errors.KindInvalidData).
			Detail("close library module").Cause(err).Build()
	}
	return nil
}

// Memory wraps wazero linear memory to implement wasmlir.Memory.
type Memory struct {
	mem api.Memory
}

var _ wasmlir.Memory = (*Memory)(nil)

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds("read out of bounds: offset=%d", offset)
	}
	return val, nil
}

func (m *Memory) ReadU64(offset uint32) (uint64, error) {
	val, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds("read out of bounds: offset=%d", offset)
	}
	return val, nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds("write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *Memory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return errors.OutOfBounds("write out of bounds: offset=%d", offset)
	}
	return nil
}
