package ir_test

import (
	stderrors "errors"
	"testing"

	"github.com/wasmlir/wasmlir/errors"
	"github.com/wasmlir/wasmlir/ir"
)

func TestNewIntegerSet(t *testing.T) {
	ctx := newTestContext(t)
	d0 := ir.NewDimension(ctx, 0)
	d1 := ir.NewDimension(ctx, 1)
	s0 := ir.NewSymbol(ctx, 0)

	// d0 == 0, d1 + s0 >= 0
	set, err := ir.NewIntegerSet(ctx, 2, 1,
		[]ir.AffineExpr{d0, d1.Add(s0)},
		[]bool{true, false})
	if err != nil {
		t.Fatalf("NewIntegerSet: %v", err)
	}

	if got := set.NumConstraints(); got != 2 {
		t.Errorf("NumConstraints = %d, want 2", got)
	}
	if got := set.NumEqualities(); got != 1 {
		t.Errorf("NumEqualities = %d, want 1", got)
	}
	if got := set.NumInequalities(); got != 1 {
		t.Errorf("NumInequalities = %d, want 1", got)
	}
	if got := set.NumDimensions(); got != 2 {
		t.Errorf("NumDimensions = %d, want 2", got)
	}
	if got := set.NumSymbols(); got != 1 {
		t.Errorf("NumSymbols = %d, want 1", got)
	}
	if got := set.NumInputs(); got != 3 {
		t.Errorf("NumInputs = %d, want 3", got)
	}
	if !set.IsConstraintEq(0) {
		t.Error("IsConstraintEq(0) = false")
	}
	if set.IsConstraintEq(1) {
		t.Error("IsConstraintEq(1) = true")
	}
	if !set.Constraint(0).Equal(d0) {
		t.Error("Constraint(0) does not recover the expression")
	}
	if !set.Constraint(1).Equal(d1.Add(s0)) {
		t.Error("Constraint(1) does not recover the expression")
	}
	if set.IsEmpty() {
		t.Error("constrained set claims canonical emptiness")
	}
}

func TestEqFlagsLengthMismatch(t *testing.T) {
	ctx := newTestContext(t)
	d0 := ir.NewDimension(ctx, 0)

	_, err := ir.NewIntegerSet(ctx, 1, 0, []ir.AffineExpr{d0}, []bool{true, false})
	if err == nil {
		t.Fatal("expected rejection of mismatched flag count")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidInput {
		t.Errorf("error = %v, want kind %q", err, errors.KindInvalidInput)
	}
}

func TestCanonicalEmptySet(t *testing.T) {
	ctx := newTestContext(t)

	empty := ir.EmptySet(ctx, 2, 1)
	if !empty.IsEmpty() {
		t.Error("IsEmpty = false for the canonical empty set")
	}
	if got := empty.NumConstraints(); got != 0 {
		t.Errorf("NumConstraints = %d, want 0", got)
	}
	if got := empty.NumDimensions(); got != 2 {
		t.Errorf("NumDimensions = %d, want 2", got)
	}

	// A set constructed with zero constraints is unconstrained, not empty.
	unconstrained, err := ir.NewIntegerSet(ctx, 2, 1, nil, nil)
	if err != nil {
		t.Fatalf("NewIntegerSet: %v", err)
	}
	if unconstrained.IsEmpty() {
		t.Error("unconstrained set claims canonical emptiness")
	}
	if empty.Equal(unconstrained) {
		t.Error("canonical empty set equals the unconstrained set")
	}
}

func TestSetEqualAcrossIndependentConstruction(t *testing.T) {
	ctx := newTestContext(t)

	build := func() ir.IntegerSet {
		set, err := ir.NewIntegerSet(ctx, 1, 0,
			[]ir.AffineExpr{ir.NewDimension(ctx, 0)}, []bool{true})
		if err != nil {
			t.Fatalf("NewIntegerSet: %v", err)
		}
		return set
	}
	if !build().Equal(build()) {
		t.Error("structurally identical sets are not equal")
	}
}

func TestSetString(t *testing.T) {
	ctx := newTestContext(t)

	if got, want := ir.EmptySet(ctx, 1, 0).String(), "(d0) : (1 == 0)"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}

	set, err := ir.NewIntegerSet(ctx, 1, 1,
		[]ir.AffineExpr{ir.NewDimension(ctx, 0).Add(ir.NewSymbol(ctx, 0))},
		[]bool{false})
	if err != nil {
		t.Fatalf("NewIntegerSet: %v", err)
	}
	if got, want := set.String(), "(d0)[s0] : (d0 + s0 >= 0)"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestSetRawRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	set := ir.EmptySet(ctx, 1, 0)

	if !ir.SetFromRaw(ctx, set.Raw()).Equal(set) {
		t.Error("raw round trip lost the handle")
	}
	if !ir.SetFromRaw(ctx, 0).IsNull() {
		t.Error("raw 0 should be null")
	}
}
