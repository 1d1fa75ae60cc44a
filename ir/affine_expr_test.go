package ir_test

import (
	"testing"

	"github.com/wasmlir/wasmlir/errors"
	"github.com/wasmlir/wasmlir/ir"
)

func TestDimensionRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	d3 := ir.NewDimension(ctx, 3)

	if !d3.IsDimension() {
		t.Error("IsDimension = false")
	}
	if d3.IsSymbol() || d3.IsConstant() || d3.IsBinary() {
		t.Error("dimension claims another kind")
	}
	if got := d3.DimensionPosition(); got != 3 {
		t.Errorf("DimensionPosition = %d, want 3", got)
	}
	if !d3.IsPureAffine() {
		t.Error("IsPureAffine = false")
	}
	if d3.IsSymbolicOrConstant() {
		t.Error("IsSymbolicOrConstant = true for a dimension")
	}
	if !d3.IsFunctionOfDimension(3) {
		t.Error("IsFunctionOfDimension(3) = false")
	}
	if d3.IsFunctionOfDimension(2) {
		t.Error("IsFunctionOfDimension(2) = true")
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	s1 := ir.NewSymbol(ctx, 1)

	if !s1.IsSymbol() {
		t.Error("IsSymbol = false")
	}
	if got := s1.SymbolPosition(); got != 1 {
		t.Errorf("SymbolPosition = %d, want 1", got)
	}
	if !s1.IsSymbolicOrConstant() {
		t.Error("IsSymbolicOrConstant = false for a symbol")
	}
}

func TestConstantRoundTrip(t *testing.T) {
	ctx := newTestContext(t)

	for _, value := range []int64{0, 7, -42} {
		c := ir.NewConstant(ctx, value)
		if !c.IsConstant() {
			t.Errorf("IsConstant = false for %d", value)
		}
		if got := c.ConstantValue(); got != value {
			t.Errorf("ConstantValue = %d, want %d", got, value)
		}
	}

	if got := ir.NewConstant(ctx, -42).LargestKnownDivisor(); got != 42 {
		t.Errorf("LargestKnownDivisor(-42) = %d, want 42", got)
	}
}

func TestBinaryConstructors(t *testing.T) {
	ctx := newTestContext(t)
	d0 := ir.NewDimension(ctx, 0)
	c2 := ir.NewConstant(ctx, 2)

	tests := []struct {
		name  string
		build func(ir.AffineExpr, ir.AffineExpr) ir.AffineExpr
		check func(ir.AffineExpr) bool
	}{
		{"add", ir.AffineExpr.Add, ir.AffineExpr.IsAdd},
		{"mul", ir.AffineExpr.Mul, ir.AffineExpr.IsMul},
		{"mod", ir.AffineExpr.Mod, ir.AffineExpr.IsMod},
		{"floordiv", ir.AffineExpr.FloorDiv, ir.AffineExpr.IsFloorDiv},
		{"ceildiv", ir.AffineExpr.CeilDiv, ir.AffineExpr.IsCeilDiv},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.build(d0, c2)
			if !e.IsBinary() {
				t.Error("IsBinary = false")
			}
			if !tt.check(e) {
				t.Error("kind predicate = false")
			}
			if !e.BinaryLHS().Equal(d0) {
				t.Error("BinaryLHS does not recover the left operand")
			}
			if !e.BinaryRHS().Equal(c2) {
				t.Error("BinaryRHS does not recover the right operand")
			}
		})
	}
}

func TestEqualAcrossIndependentConstruction(t *testing.T) {
	ctx := newTestContext(t)

	a := ir.NewDimension(ctx, 0).Add(ir.NewSymbol(ctx, 0))
	b := ir.NewDimension(ctx, 0).Add(ir.NewSymbol(ctx, 0))
	if !a.Equal(b) {
		t.Error("structurally identical expressions are not equal")
	}

	c := ir.NewDimension(ctx, 1).Add(ir.NewSymbol(ctx, 0))
	if a.Equal(c) {
		t.Error("distinct expressions compare equal")
	}
}

func TestEqualAcrossContexts(t *testing.T) {
	a := ir.NewDimension(newTestContext(t), 0)
	b := ir.NewDimension(newTestContext(t), 0)
	if a.Equal(b) {
		t.Error("handles from different contexts compare equal")
	}
}

func TestMixedContextOperandsPanic(t *testing.T) {
	a := ir.NewDimension(newTestContext(t), 0)
	b := ir.NewDimension(newTestContext(t), 0)

	wantPanicKind(t, errors.KindMixedContext, func() {
		a.Add(b)
	})
}

func TestComposeSubstitutesDimensions(t *testing.T) {
	ctx := newTestContext(t)
	d0 := ir.NewDimension(ctx, 0)
	d1 := ir.NewDimension(ctx, 1)
	c2 := ir.NewConstant(ctx, 2)

	// d0 -> 2, d1 -> d0
	m, err := ir.NewMap(ctx, 1, 0, []ir.AffineExpr{c2, d0})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}

	got := d0.Add(d1).Compose(m)
	want := c2.Add(d0)
	if !got.Equal(want) {
		t.Errorf("Compose = %s, want %s", got, want)
	}
}

func TestPureAffine(t *testing.T) {
	ctx := newTestContext(t)
	d0 := ir.NewDimension(ctx, 0)
	d1 := ir.NewDimension(ctx, 1)
	c2 := ir.NewConstant(ctx, 2)

	if !d0.Mul(c2).IsPureAffine() {
		t.Error("d0 * 2 should be pure affine")
	}
	if d0.Mul(d1).IsPureAffine() {
		t.Error("d0 * d1 should not be pure affine")
	}
	if !d0.Mod(c2).IsPureAffine() {
		t.Error("d0 mod 2 should be pure affine")
	}
	if d0.Mod(d1).IsPureAffine() {
		t.Error("d0 mod d1 should not be pure affine")
	}
}

func TestLargestKnownDivisor(t *testing.T) {
	ctx := newTestContext(t)
	d0 := ir.NewDimension(ctx, 0)
	c4 := ir.NewConstant(ctx, 4)
	c6 := ir.NewConstant(ctx, 6)

	if got := d0.Mul(c4).LargestKnownDivisor(); got != 4 {
		t.Errorf("divisor of d0 * 4 = %d, want 4", got)
	}
	sum := d0.Mul(c4).Add(d0.Mul(c6))
	if got := sum.LargestKnownDivisor(); got != 2 {
		t.Errorf("divisor of d0 * 4 + d0 * 6 = %d, want 2", got)
	}

	if !d0.Mul(c4).IsMultipleOf(2) {
		t.Error("d0 * 4 should be a multiple of 2")
	}
	if d0.Mul(c4).IsMultipleOf(3) {
		t.Error("d0 * 4 should not be a multiple of 3")
	}
}

func TestExprString(t *testing.T) {
	ctx := newTestContext(t)
	d0 := ir.NewDimension(ctx, 0)
	d1 := ir.NewDimension(ctx, 1)
	s0 := ir.NewSymbol(ctx, 0)
	c2 := ir.NewConstant(ctx, 2)

	tests := []struct {
		expr ir.AffineExpr
		want string
	}{
		{d0.Add(s0.Mul(c2)), "d0 + s0 * 2"},
		{d0.Add(d1).Mul(c2), "(d0 + d1) * 2"},
		{d0.FloorDiv(c2), "d0 floordiv 2"},
		{d0.Mod(c2).Add(d1), "d0 mod 2 + d1"},
	}
	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("String = %q, want %q", got, tt.want)
		}
	}
}

func TestExprRawRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	e := ir.NewDimension(ctx, 2).Add(ir.NewConstant(ctx, 5))

	back := ir.ExprFromRaw(ctx, e.Raw())
	if !back.Equal(e) {
		t.Error("raw round trip lost the handle")
	}
}

func TestNullExpr(t *testing.T) {
	var e ir.AffineExpr
	if !e.IsNull() {
		t.Error("zero value should be null")
	}
	if !ir.ExprFromRaw(newTestContext(t), 0).IsNull() {
		t.Error("raw 0 should be null")
	}
}
