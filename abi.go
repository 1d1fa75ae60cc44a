package wasmlir

import (
	"context"
	"io"
)

// Memory represents the library module's linear memory.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// Library is the foreign call surface of the wrapped native library.
//
// Arguments and results are raw call words: wasm32 handles and i32 scalars
// occupy the low 32 bits of a word, i64 scalars the full word. The binding
// layer above never interprets a handle; it only passes handles back to the
// symbols that understand them.
type Library interface {
	// Call invokes a single-result entry point. A foreign trap is returned
	// as an error; it is never recovered into a usable result.
	Call(symbol string, args ...uint64) (uint64, error)

	// CallVoid invokes an entry point with no results.
	CallVoid(symbol string, args ...uint64) error

	// Alloc reserves size bytes inside the library module's linear memory.
	// The returned buffer is used to marshal list arguments and must be
	// released with Free once the foreign call it served has returned.
	Alloc(size uint32) (uint32, error)

	// Free releases a buffer obtained from Alloc. Freeing 0 is a no-op.
	Free(ptr uint32)

	// Memory exposes the module's linear memory for marshaling.
	Memory() Memory

	// Print invokes a print entry point for the given handle, streaming the
	// library's output into w. A failing writer stops collection and its
	// error is reported after the foreign call returns; nothing unwinds
	// through foreign code.
	Print(symbol string, handle uint64, w io.Writer) error

	// Close releases the hosted module. All contexts created inside it must
	// be closed first.
	Close(ctx context.Context) error
}
