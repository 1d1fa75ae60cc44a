package ir_test

import (
	"context"
	"os"
	"testing"

	"github.com/wasmlir/wasmlir/engine"
	"github.com/wasmlir/wasmlir/ir"
)

// TestAgainstRealLibrary runs a smoke pass over an actual library binary.
// Point WASMLIR_LIBRARY at a wasm build of the C API to enable it.
func TestAgainstRealLibrary(t *testing.T) {
	path := os.Getenv("WASMLIR_LIBRARY")
	if path == "" {
		t.Skip("WASMLIR_LIBRARY not set")
	}

	wasm, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read library: %v", err)
	}

	bg := context.Background()
	eng, err := engine.New(bg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer eng.Close(bg)

	lib, err := eng.Load(bg, wasm)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, err := ir.NewContext(lib)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	defer ctx.Close(bg)

	d0 := ir.NewDimension(ctx, 0)
	if !d0.IsDimension() || d0.DimensionPosition() != 0 {
		t.Error("dimension round trip failed")
	}

	m := ir.MultiDimIdentityMap(ctx, 2)
	if !m.IsIdentity() {
		t.Error("identity map not recognized")
	}
	if got, want := m.String(), "(d0, d1) -> (d0, d1)"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}

	set, err := ir.NewIntegerSet(ctx, 1, 0, []ir.AffineExpr{d0}, []bool{true})
	if err != nil {
		t.Fatalf("NewIntegerSet: %v", err)
	}
	if got := set.NumEqualities(); got != 1 {
		t.Errorf("NumEqualities = %d, want 1", got)
	}
}
