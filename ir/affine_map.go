package ir

import (
	"io"
)

// AffineMap is a handle to an interned affine map: a list of affine
// expression results over dimension and symbol inputs. The zero value is
// the null handle; some derivations return it deliberately.
type AffineMap struct {
	ctx *Context
	raw uint64
}

// NewMap creates a map with the given input counts and result expressions.
// The expression handles are marshaled into a guest buffer that lives only
// for the call; all of them must belong to ctx.
func NewMap(ctx *Context, dimCount, symbolCount int, exprs []AffineExpr) (AffineMap, error) {
	ptr, release, err := ctx.marshalHandles("mlirAffineMapGet", exprs)
	if err != nil {
		return AffineMap{}, err
	}
	defer release()

	raw, err := ctx.invoke("mlirAffineMapGet",
		ctx.raw, uint64(dimCount), uint64(symbolCount), uint64(len(exprs)), uint64(ptr))
	if err != nil {
		return AffineMap{}, err
	}
	return AffineMap{ctx, raw}, nil
}

// ConstantMap creates the zero-input map () -> (value).
func ConstantMap(ctx *Context, value int64) AffineMap {
	return AffineMap{ctx, ctx.word("mlirAffineMapConstantGet", ctx.raw, uint64(value))}
}

// MultiDimIdentityMap creates (d0, ..., d<n-1>) -> (d0, ..., d<n-1>).
func MultiDimIdentityMap(ctx *Context, n int) AffineMap {
	return AffineMap{ctx, ctx.word("mlirAffineMapMultiDimIdentityGet", ctx.raw, uint64(n))}
}

// MinorIdentityMap creates an identity over the trailing results dimensions
// of dims inputs. dims must be at least results; the library does not check.
func MinorIdentityMap(ctx *Context, dims, results int) AffineMap {
	return AffineMap{ctx, ctx.word("mlirAffineMapMinorIdentityGet",
		ctx.raw, uint64(dims), uint64(results))}
}

// PermutationMap creates the map whose result i is d<perm[i]>. perm must be
// a bijection over [0, len(perm)); the library does not check.
func PermutationMap(ctx *Context, perm []uint32) (AffineMap, error) {
	ptr, release, err := ctx.marshalU32s(perm)
	if err != nil {
		return AffineMap{}, err
	}
	defer release()

	raw, err := ctx.invoke("mlirAffineMapPermutationGet",
		ctx.raw, uint64(len(perm)), uint64(ptr))
	if err != nil {
		return AffineMap{}, err
	}
	return AffineMap{ctx, raw}, nil
}

// EmptyMap creates the map with no inputs and no results.
func EmptyMap(ctx *Context) AffineMap {
	return AffineMap{ctx, ctx.word("mlirAffineMapEmptyGet", ctx.raw)}
}

// ZeroResultMap creates a map with inputs but no results.
func ZeroResultMap(ctx *Context, dims, symbols int) AffineMap {
	return AffineMap{ctx, ctx.word("mlirAffineMapZeroResultGet",
		ctx.raw, uint64(dims), uint64(symbols))}
}

// NumDimensions returns the dimension input count.
func (m AffineMap) NumDimensions() int {
	return int(m.ctx.word("mlirAffineMapGetNumDims", m.raw))
}

// NumSymbols returns the symbol input count.
func (m AffineMap) NumSymbols() int {
	return int(m.ctx.word("mlirAffineMapGetNumSymbols", m.raw))
}

// NumInputs returns dimensions plus symbols.
func (m AffineMap) NumInputs() int {
	return int(m.ctx.word("mlirAffineMapGetNumInputs", m.raw))
}

// NumResults returns the result count.
func (m AffineMap) NumResults() int {
	return int(m.ctx.word("mlirAffineMapGetNumResults", m.raw))
}

// Result returns result expression pos. pos must be below NumResults; the
// library does not check.
func (m AffineMap) Result(pos int) AffineExpr {
	return AffineExpr{m.ctx, m.ctx.word("mlirAffineMapGetResult", m.raw, uint64(pos))}
}

// IsIdentity reports whether m is the identity over its dimensions.
func (m AffineMap) IsIdentity() bool {
	return m.ctx.flag("mlirAffineMapIsIdentity", m.raw)
}

// IsMinorIdentity reports whether m is an identity over its trailing
// dimensions.
func (m AffineMap) IsMinorIdentity() bool {
	return m.ctx.flag("mlirAffineMapIsMinorIdentity", m.raw)
}

// IsEmpty reports whether m has no inputs and no results.
func (m AffineMap) IsEmpty() bool {
	return m.ctx.flag("mlirAffineMapIsEmpty", m.raw)
}

// IsSingleConstant reports whether m has exactly one result and it is a
// constant.
func (m AffineMap) IsSingleConstant() bool {
	return m.ctx.flag("mlirAffineMapIsSingleConstant", m.raw)
}

// SingleConstantResult returns the constant result value.
// Requires IsSingleConstant.
func (m AffineMap) SingleConstantResult() int64 {
	return int64(m.ctx.word("mlirAffineMapGetSingleConstantResult", m.raw))
}

// IsPermutation reports whether m permutes its dimensions.
func (m AffineMap) IsPermutation() bool {
	return m.ctx.flag("mlirAffineMapIsPermutation", m.raw)
}

// IsProjectedPermutation reports whether m is a permutation of a subset of
// its dimensions.
func (m AffineMap) IsProjectedPermutation() bool {
	return m.ctx.flag("mlirAffineMapIsProjectedPermutation", m.raw)
}

// SubMap selects the results at positions, keeping the inputs. Every
// position must be below NumResults; the library does not check.
func (m AffineMap) SubMap(positions []int) (AffineMap, error) {
	words := make([]uint32, len(positions))
	for i, p := range positions {
		words[i] = uint32(p)
	}
	ptr, release, err := m.ctx.marshalU32s(words)
	if err != nil {
		return AffineMap{}, err
	}
	defer release()

	raw, err := m.ctx.invoke("mlirAffineMapGetSubMap",
		m.raw, uint64(len(positions)), uint64(ptr))
	if err != nil {
		return AffineMap{}, err
	}
	return AffineMap{m.ctx, raw}, nil
}

// MajorSubMap keeps the first n results. n of zero yields the null map;
// n at or above NumResults yields m itself.
func (m AffineMap) MajorSubMap(n int) AffineMap {
	return AffineMap{m.ctx, m.ctx.word("mlirAffineMapGetMajorSubMap", m.raw, uint64(n))}
}

// MinorSubMap keeps the last n results. n of zero yields the null map;
// n at or above NumResults yields m itself.
func (m AffineMap) MinorSubMap(n int) AffineMap {
	return AffineMap{m.ctx, m.ctx.word("mlirAffineMapGetMinorSubMap", m.raw, uint64(n))}
}

// Replace substitutes every occurrence of expr in the results with
// replacement and re-shapes the inputs to the new counts.
func (m AffineMap) Replace(expr, replacement AffineExpr, newDimCount, newSymbolCount int) AffineMap {
	sameContext("mlirAffineMapReplace", m.ctx, expr.ctx)
	sameContext("mlirAffineMapReplace", m.ctx, replacement.ctx)
	return AffineMap{m.ctx, m.ctx.word("mlirAffineMapReplace",
		m.raw, expr.raw, replacement.raw, uint64(newDimCount), uint64(newSymbolCount))}
}

// Equal reports delegated equality. Handles from different contexts are
// never equal.
func (m AffineMap) Equal(other AffineMap) bool {
	if m.ctx != other.ctx {
		return false
	}
	return m.ctx.flag("mlirAffineMapEqual", m.raw, other.raw)
}

// IsNull reports whether m carries the foreign null handle.
func (m AffineMap) IsNull() bool {
	return m.raw == 0
}

// Context returns the owning context.
func (m AffineMap) Context() *Context {
	return m.ctx
}

// Raw returns the foreign handle word. It bypasses every invariant this
// package maintains; intended only for crossing the foreign boundary.
func (m AffineMap) Raw() uint64 {
	return m.raw
}

// MapFromRaw wraps a foreign handle word obtained from ctx's library. The
// caller vouches that raw is a live map handle owned by ctx.
func MapFromRaw(ctx *Context, raw uint64) AffineMap {
	return AffineMap{ctx, raw}
}

// Print renders m in the library's textual syntax.
func (m AffineMap) Print(w io.Writer) error {
	return m.ctx.print("wasmlirAffineMapPrint", m.raw, w)
}

// String implements fmt.Stringer over Print.
func (m AffineMap) String() string {
	return m.ctx.render("wasmlirAffineMapPrint", m.raw)
}
