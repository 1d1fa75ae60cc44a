// Package engine hosts the wrapped native library as a WebAssembly module
// and exposes its C ABI as a raw call surface.
//
// The engine owns a wazero runtime plus the small host module the library
// binary imports (the print byte sink). Loading a library binary yields an
// Instance, which implements the root wasmlir.Library interface: named entry
// point calls over a reused value stack, guest buffer allocation through the
// module's exported allocator, and linear memory access for marshaling.
//
// An Instance serializes all calls internally; a wazero module instance is
// not safe for concurrent use, and neither is a context arena inside the
// wrapped library.
package engine
