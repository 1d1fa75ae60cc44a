// Package wasmlir provides Go bindings to the MLIR C API, hosted as an
// in-process WebAssembly module.
//
// The wrapped library is a wasm32 build of the upstream C API. Every binding
// operation is a 1:1 call to a foreign entry point; the values flowing across
// the boundary are opaque handles (linear-memory addresses) owned by the
// library's context arena. This repository contains binding glue only; the
// affine expression algebra, map composition, and set canonicalization all
// live inside the wrapped library.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wasmlir/          Root package with the Library and Memory interfaces
//	├── engine/       wazero transport: module loading, raw calls, guest
//	│                 allocation, and the print-sink host module
//	├── ir/           Handle wrappers: Context, AffineExpr, AffineMap,
//	│                 IntegerSet
//	├── pass/         Pass handles and registration entries
//	│   └── sparsetensor/  The sparse-tensor pass table
//	├── errors/       Structured error types for debugging
//	└── cmd/affine/   Interactive explorer over a library binary
//
// # Quick Start
//
// Load a library binary and build an affine map:
//
//	eng, err := engine.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	lib, err := eng.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mctx, err := ir.NewContext(lib)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mctx.Close(ctx)
//
//	m := ir.MultiDimIdentityMap(mctx, 2)
//	fmt.Println(m) // (d0, d1) -> (d0, d1)
//
// # Ownership and lifetimes
//
// A handle never owns the memory it refers to; the context that allocated it
// does. Handles are trivially copyable and compared with the library's deep
// equality, never by address. Every operation on a handle requires its owning
// context to be alive: using a handle after Context.Close is a caller
// contract violation and is reported as a panic carrying a structured error,
// the same class of failure as violating one of the library's documented
// preconditions (out-of-range positions, mixed contexts, wrong variant).
package wasmlir
