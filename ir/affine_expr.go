package ir

import (
	"io"
)

// AffineExpr is a handle to an interned affine expression: dimensions,
// symbols, constants, and the five binary combinators over them. The zero
// value is the null handle.
type AffineExpr struct {
	ctx *Context
	raw uint64
}

// NewDimension creates the dimension expression d<position>.
func NewDimension(ctx *Context, position int) AffineExpr {
	return AffineExpr{ctx, ctx.word("mlirAffineDimExprGet", ctx.raw, uint64(position))}
}

// NewSymbol creates the symbol expression s<position>.
func NewSymbol(ctx *Context, position int) AffineExpr {
	return AffineExpr{ctx, ctx.word("mlirAffineSymbolExprGet", ctx.raw, uint64(position))}
}

// NewConstant creates a constant expression.
func NewConstant(ctx *Context, value int64) AffineExpr {
	return AffineExpr{ctx, ctx.word("mlirAffineConstantExprGet", ctx.raw, uint64(value))}
}

func (e AffineExpr) binary(symbol string, rhs AffineExpr) AffineExpr {
	sameContext(symbol, e.ctx, rhs.ctx)
	return AffineExpr{e.ctx, e.ctx.word(symbol, e.raw, rhs.raw)}
}

// Add returns e + rhs. Both operands must belong to the same context.
func (e AffineExpr) Add(rhs AffineExpr) AffineExpr {
	return e.binary("mlirAffineAddExprGet", rhs)
}

// Mul returns e * rhs. Both operands must belong to the same context.
func (e AffineExpr) Mul(rhs AffineExpr) AffineExpr {
	return e.binary("mlirAffineMulExprGet", rhs)
}

// Mod returns e mod rhs. Both operands must belong to the same context.
func (e AffineExpr) Mod(rhs AffineExpr) AffineExpr {
	return e.binary("mlirAffineModExprGet", rhs)
}

// FloorDiv returns e floordiv rhs. Both operands must belong to the same
// context.
func (e AffineExpr) FloorDiv(rhs AffineExpr) AffineExpr {
	return e.binary("mlirAffineFloorDivExprGet", rhs)
}

// CeilDiv returns e ceildiv rhs. Both operands must belong to the same
// context.
func (e AffineExpr) CeilDiv(rhs AffineExpr) AffineExpr {
	return e.binary("mlirAffineCeilDivExprGet", rhs)
}

// Compose substitutes every dimension d<i> in e with result i of m.
func (e AffineExpr) Compose(m AffineMap) AffineExpr {
	sameContext("mlirAffineExprCompose", e.ctx, m.ctx)
	return AffineExpr{e.ctx, e.ctx.word("mlirAffineExprCompose", e.raw, m.raw)}
}

// IsDimension reports whether e is a dimension expression.
func (e AffineExpr) IsDimension() bool {
	return e.ctx.flag("mlirAffineExprIsADim", e.raw)
}

// IsSymbol reports whether e is a symbol expression.
func (e AffineExpr) IsSymbol() bool {
	return e.ctx.flag("mlirAffineExprIsASymbol", e.raw)
}

// IsConstant reports whether e is a constant expression.
func (e AffineExpr) IsConstant() bool {
	return e.ctx.flag("mlirAffineExprIsAConstant", e.raw)
}

// IsAdd reports whether e is an addition.
func (e AffineExpr) IsAdd() bool {
	return e.ctx.flag("mlirAffineExprIsAAdd", e.raw)
}

// IsMul reports whether e is a multiplication.
func (e AffineExpr) IsMul() bool {
	return e.ctx.flag("mlirAffineExprIsAMul", e.raw)
}

// IsMod reports whether e is a modulo.
func (e AffineExpr) IsMod() bool {
	return e.ctx.flag("mlirAffineExprIsAMod", e.raw)
}

// IsFloorDiv reports whether e is a floor division.
func (e AffineExpr) IsFloorDiv() bool {
	return e.ctx.flag("mlirAffineExprIsAFloorDiv", e.raw)
}

// IsCeilDiv reports whether e is a ceiling division.
func (e AffineExpr) IsCeilDiv() bool {
	return e.ctx.flag("mlirAffineExprIsACeilDiv", e.raw)
}

// IsBinary reports whether e is any of the binary combinators.
func (e AffineExpr) IsBinary() bool {
	return e.ctx.flag("mlirAffineExprIsABinary", e.raw)
}

// IsPureAffine reports whether e is affine in the strict sense: products
// need a constant factor, mod and division need a constant right operand.
func (e AffineExpr) IsPureAffine() bool {
	return e.ctx.flag("mlirAffineExprIsPureAffine", e.raw)
}

// IsSymbolicOrConstant reports whether e involves no dimensions.
func (e AffineExpr) IsSymbolicOrConstant() bool {
	return e.ctx.flag("mlirAffineExprIsSymbolicOrConstant", e.raw)
}

// IsMultipleOf reports whether e is provably a multiple of factor.
func (e AffineExpr) IsMultipleOf(factor int64) bool {
	return e.ctx.flag("mlirAffineExprIsMultipleOf", e.raw, uint64(factor))
}

// IsFunctionOfDimension reports whether e mentions d<position>.
func (e AffineExpr) IsFunctionOfDimension(position int) bool {
	return e.ctx.flag("mlirAffineExprIsFunctionOfDim", e.raw, uint64(position))
}

// DimensionPosition returns the position of a dimension expression.
// Requires IsDimension.
func (e AffineExpr) DimensionPosition() int {
	return int(int64(e.ctx.word("mlirAffineDimExprGetPosition", e.raw)))
}

// SymbolPosition returns the position of a symbol expression.
// Requires IsSymbol.
func (e AffineExpr) SymbolPosition() int {
	return int(int64(e.ctx.word("mlirAffineSymbolExprGetPosition", e.raw)))
}

// ConstantValue returns the value of a constant expression.
// Requires IsConstant.
func (e AffineExpr) ConstantValue() int64 {
	return int64(e.ctx.word("mlirAffineConstantExprGetValue", e.raw))
}

// BinaryLHS returns the left operand. Requires IsBinary.
func (e AffineExpr) BinaryLHS() AffineExpr {
	return AffineExpr{e.ctx, e.ctx.word("mlirAffineBinaryOpExprGetLHS", e.raw)}
}

// BinaryRHS returns the right operand. Requires IsBinary.
func (e AffineExpr) BinaryRHS() AffineExpr {
	return AffineExpr{e.ctx, e.ctx.word("mlirAffineBinaryOpExprGetRHS", e.raw)}
}

// LargestKnownDivisor returns the greatest positive integer that provably
// divides e.
func (e AffineExpr) LargestKnownDivisor() int64 {
	return int64(e.ctx.word("mlirAffineExprGetLargestKnownDivisor", e.raw))
}

// Equal reports delegated equality. Handles from different contexts are
// never equal.
func (e AffineExpr) Equal(other AffineExpr) bool {
	if e.ctx != other.ctx {
		return false
	}
	return e.ctx.flag("mlirAffineExprEqual", e.raw, other.raw)
}

// IsNull reports whether e carries the foreign null handle.
func (e AffineExpr) IsNull() bool {
	return e.raw == 0
}

// Context returns the owning context.
func (e AffineExpr) Context() *Context {
	return e.ctx
}

// Raw returns the foreign handle word. It bypasses every invariant this
// package maintains; intended only for crossing the foreign boundary.
func (e AffineExpr) Raw() uint64 {
	return e.raw
}

// ExprFromRaw wraps a foreign handle word obtained from ctx's library. The
// caller vouches that raw is a live expression handle owned by ctx.
func ExprFromRaw(ctx *Context, raw uint64) AffineExpr {
	return AffineExpr{ctx, raw}
}

// Print renders e in the library's textual syntax.
func (e AffineExpr) Print(w io.Writer) error {
	return e.ctx.print("wasmlirAffineExprPrint", e.raw, w)
}

// String implements fmt.Stringer over Print.
func (e AffineExpr) String() string {
	return e.ctx.render("wasmlirAffineExprPrint", e.raw)
}
