package ir

import (
	"io"

	"github.com/wasmlir/wasmlir/errors"
)

// IntegerSet is a handle to an interned integer set: affine constraints
// over dimension and symbol inputs, each either an equality (expr == 0) or
// an inequality (expr >= 0).
type IntegerSet struct {
	ctx *Context
	raw uint64
}

// NewIntegerSet creates a set from constraints and their kinds. eqFlags
// carries one flag per constraint: true marks an equality, false an
// inequality. A length mismatch is rejected before anything is forwarded.
func NewIntegerSet(ctx *Context, dimCount, symbolCount int, constraints []AffineExpr, eqFlags []bool) (IntegerSet, error) {
	if len(eqFlags) != len(constraints) {
		return IntegerSet{}, errors.InvalidInput(errors.PhaseMarshal,
			"one equality flag is required per constraint")
	}

	exprPtr, releaseExprs, err := ctx.marshalHandles("mlirIntegerSetGet", constraints)
	if err != nil {
		return IntegerSet{}, err
	}
	defer releaseExprs()

	flagPtr, releaseFlags, err := ctx.marshalBools(eqFlags)
	if err != nil {
		return IntegerSet{}, err
	}
	defer releaseFlags()

	raw, err := ctx.invoke("mlirIntegerSetGet",
		ctx.raw, uint64(dimCount), uint64(symbolCount),
		uint64(len(constraints)), uint64(exprPtr), uint64(flagPtr))
	if err != nil {
		return IntegerSet{}, err
	}
	return IntegerSet{ctx, raw}, nil
}

// EmptySet creates the canonical empty set over the given inputs. It is the
// only set for which IsEmpty holds; a set built through NewIntegerSet is
// never canonical-empty, even with no constraints.
func EmptySet(ctx *Context, dimCount, symbolCount int) IntegerSet {
	return IntegerSet{ctx, ctx.word("mlirIntegerSetEmptyGet",
		ctx.raw, uint64(dimCount), uint64(symbolCount))}
}

// NumConstraints returns the constraint count.
func (s IntegerSet) NumConstraints() int {
	return int(s.ctx.word("mlirIntegerSetGetNumConstraints", s.raw))
}

// NumEqualities returns the number of equality constraints.
func (s IntegerSet) NumEqualities() int {
	return int(s.ctx.word("mlirIntegerSetGetNumEqualities", s.raw))
}

// NumInequalities returns the number of inequality constraints.
func (s IntegerSet) NumInequalities() int {
	return int(s.ctx.word("mlirIntegerSetGetNumInequalities", s.raw))
}

// NumDimensions returns the dimension input count.
func (s IntegerSet) NumDimensions() int {
	return int(s.ctx.word("mlirIntegerSetGetNumDims", s.raw))
}

// NumSymbols returns the symbol input count.
func (s IntegerSet) NumSymbols() int {
	return int(s.ctx.word("mlirIntegerSetGetNumSymbols", s.raw))
}

// NumInputs returns dimensions plus symbols.
func (s IntegerSet) NumInputs() int {
	return int(s.ctx.word("mlirIntegerSetGetNumInputs", s.raw))
}

// IsEmpty reports whether s is the canonical empty set.
func (s IntegerSet) IsEmpty() bool {
	return s.ctx.flag("mlirIntegerSetIsCanonicalEmpty", s.raw)
}

// Constraint returns constraint expression pos. pos must be below
// NumConstraints; the library does not check.
func (s IntegerSet) Constraint(pos int) AffineExpr {
	return AffineExpr{s.ctx, s.ctx.word("mlirIntegerSetGetConstraint", s.raw, uint64(pos))}
}

// IsConstraintEq reports whether constraint pos is an equality. pos must be
// below NumConstraints; the library does not check.
func (s IntegerSet) IsConstraintEq(pos int) bool {
	return s.ctx.flag("mlirIntegerSetIsConstraintEq", s.raw, uint64(pos))
}

// Equal reports delegated equality. Handles from different contexts are
// never equal.
func (s IntegerSet) Equal(other IntegerSet) bool {
	if s.ctx != other.ctx {
		return false
	}
	return s.ctx.flag("mlirIntegerSetEqual", s.raw, other.raw)
}

// IsNull reports whether s carries the foreign null handle.
func (s IntegerSet) IsNull() bool {
	return s.raw == 0
}

// Context returns the owning context.
func (s IntegerSet) Context() *Context {
	return s.ctx
}

// Raw returns the foreign handle word. It bypasses every invariant this
// package maintains; intended only for crossing the foreign boundary.
func (s IntegerSet) Raw() uint64 {
	return s.raw
}

// SetFromRaw wraps a foreign handle word obtained from ctx's library. The
// caller vouches that raw is a live set handle owned by ctx.
func SetFromRaw(ctx *Context, raw uint64) IntegerSet {
	return IntegerSet{ctx, raw}
}

// Print renders s in the library's textual syntax.
func (s IntegerSet) Print(w io.Writer) error {
	return s.ctx.print("wasmlirIntegerSetPrint", s.raw, w)
}

// String implements fmt.Stringer over Print.
func (s IntegerSet) String() string {
	return s.ctx.render("wasmlirIntegerSetPrint", s.raw)
}
