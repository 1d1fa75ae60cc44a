package ir

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/errors"
)

// Context owns every handle created through it. The foreign context is an
// arena: expressions, maps, and sets are interned inside it and freed all at
// once by Close.
//
// All foreign calls through one Context are serialized on an internal mutex.
type Context struct {
	lib    wasmlir.Library
	raw    uint64
	mu     sync.Mutex
	closed atomic.Bool
}

// NewContext creates a foreign context on lib. The caller keeps ownership of
// lib; closing the context does not close the library.
func NewContext(lib wasmlir.Library) (*Context, error) {
	raw, err := lib.Call("mlirContextCreate")
	if err != nil {
		return nil, err
	}
	return &Context{lib: lib, raw: raw}, nil
}

// Close destroys the foreign context and everything interned in it. Close is
// idempotent; any other use of the context or its handles afterwards panics.
func (c *Context) Close(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lib.CallVoid("mlirContextDestroy", c.raw); err != nil {
		return errors.New(errors.PhaseClose, errors.KindTrap).
			Symbol("mlirContextDestroy").Cause(err).Build()
	}
	return nil
}

// Raw returns the foreign context handle.
func (c *Context) Raw() uint64 {
	return c.raw
}

func (c *Context) ensureLive() {
	if c.closed.Load() {
		panic(errors.Closed("context"))
	}
}

// invoke runs one foreign call under the context mutex.
func (c *Context) invoke(symbol string, args ...uint64) (uint64, error) {
	c.ensureLive()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lib.Call(symbol, args...)
}

// word is the pure-delegation call path: a failure here means the library
// trapped or the export is missing, both contract violations, so it panics
// with the structured error.
func (c *Context) word(symbol string, args ...uint64) uint64 {
	v, err := c.invoke(symbol, args...)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Context) flag(symbol string, args ...uint64) bool {
	return c.word(symbol, args...) != 0
}

// print streams a handle's textual rendering through the library's print
// shim into w.
func (c *Context) print(symbol string, handle uint64, w io.Writer) error {
	c.ensureLive()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lib.Print(symbol, handle, w)
}

// render is the String() backend. Rendering failures end up in the returned
// text instead of panicking; fmt.Stringer gives no error channel.
func (c *Context) render(symbol string, handle uint64) string {
	var b strings.Builder
	if err := c.print(symbol, handle, &b); err != nil {
		return "<print failed: " + err.Error() + ">"
	}
	return b.String()
}

// marshalHandles writes the raw expression handles into a fresh guest
// buffer as 4-byte words, the library's in-memory layout for handle arrays.
// Every expression must belong to c. The release closure frees the buffer.
func (c *Context) marshalHandles(symbol string, exprs []AffineExpr) (uint32, func(), error) {
	words := make([]uint32, len(exprs))
	for i, e := range exprs {
		if e.ctx != c {
			return 0, nil, errors.MixedContext(symbol)
		}
		words[i] = uint32(e.raw)
	}
	return c.marshalU32s(words)
}

func (c *Context) marshalU32s(values []uint32) (uint32, func(), error) {
	c.ensureLive()

	size := uint32(len(values)) * 4
	if size == 0 {
		size = 4 // the library still expects a valid pointer
	}
	ptr, err := c.lib.Alloc(size)
	if err != nil {
		return 0, nil, err
	}
	mem := c.lib.Memory()
	for i, v := range values {
		if err := mem.WriteU32(ptr+uint32(i)*4, v); err != nil {
			c.lib.Free(ptr)
			return 0, nil, err
		}
	}
	return ptr, func() { c.lib.Free(ptr) }, nil
}

func (c *Context) marshalBools(flags []bool) (uint32, func(), error) {
	c.ensureLive()

	size := uint32(len(flags))
	if size == 0 {
		size = 1
	}
	buf := make([]byte, len(flags))
	for i, f := range flags {
		if f {
			buf[i] = 1
		}
	}
	ptr, err := c.lib.Alloc(size)
	if err != nil {
		return 0, nil, err
	}
	if err := c.lib.Memory().Write(ptr, buf); err != nil {
		c.lib.Free(ptr)
		return 0, nil, err
	}
	return ptr, func() { c.lib.Free(ptr) }, nil
}

// sameContext panics when two operand handles belong to different contexts.
// Forwarding such a pair to the library would be undefined behavior, the
// same contract class as using a closed context.
func sameContext(symbol string, a, b *Context) {
	if a != b {
		panic(errors.MixedContext(symbol))
	}
}
