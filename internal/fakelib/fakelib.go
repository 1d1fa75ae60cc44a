// Package fakelib is an in-process stand-in for a real library build. It
// implements the root Library interface over Go maps with the same interning
// discipline the wrapped library uses: structurally identical values built
// through any constructor sequence collapse to one handle per context. The
// wrapper tests run against it so they exercise marshaling, handle plumbing,
// and rendering without a wasm binary fixture.
package fakelib

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/errors"
)

type exprKind uint8

const (
	dimExpr exprKind = iota
	symbolExpr
	constantExpr
	addExpr
	mulExpr
	modExpr
	floorDivExpr
	ceilDivExpr
)

// exprNode is comparable, so it doubles as its own interning key.
type exprNode struct {
	ctx  uint64
	kind exprKind
	// position for dim/symbol, value for constant
	arg int64
	lhs uint64
	rhs uint64
}

type mapNode struct {
	ctx     uint64
	dims    int64
	syms    int64
	results []uint64
}

type setNode struct {
	ctx         uint64
	dims        int64
	syms        int64
	constraints []uint64
	eqFlags     []bool
	empty       bool
}

const heapBase = 1024

// Lib implements wasmlir.Library in memory.
type Lib struct {
	mu        sync.Mutex
	next      uint64
	contexts  map[uint64]bool
	exprs     map[uint64]exprNode
	maps      map[uint64]mapNode
	sets      map[uint64]setNode
	passes    map[uint64]string
	exprIndex map[exprNode]uint64
	mapIndex  map[string]uint64
	setIndex  map[string]uint64
	mem       []byte
	heap      uint32
	closed    bool
}

var _ wasmlir.Library = (*Lib)(nil)

// New creates an empty fake library with a 1MB linear memory.
func New() *Lib {
	return &Lib{
		next:      0x1000,
		contexts:  make(map[uint64]bool),
		exprs:     make(map[uint64]exprNode),
		maps:      make(map[uint64]mapNode),
		sets:      make(map[uint64]setNode),
		passes:    make(map[uint64]string),
		exprIndex: make(map[exprNode]uint64),
		mapIndex:  make(map[string]uint64),
		setIndex:  make(map[string]uint64),
		mem:       make([]byte, 1<<20),
		heap:      heapBase,
	}
}

func (l *Lib) handle() uint64 {
	h := l.next
	l.next++
	return h
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Call dispatches on the C API symbol name. Violated preconditions trap the
// way the real library would.
func (l *Lib) Call(symbol string, args ...uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, errors.Closed("fake library")
	}
	return l.dispatch(symbol, args)
}

// CallVoid dispatches an entry point whose result is discarded.
func (l *Lib) CallVoid(symbol string, args ...uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.Closed("fake library")
	}
	_, err := l.dispatch(symbol, args)
	return err
}

func (l *Lib) dispatch(symbol string, args []uint64) (uint64, error) {
	switch symbol {
	case "mlirContextCreate":
		h := l.handle()
		l.contexts[h] = true
		return h, nil
	case "mlirContextDestroy":
		delete(l.contexts, args[0])
		return 0, nil

	case "mlirAffineDimExprGet":
		return l.internExpr(exprNode{ctx: args[0], kind: dimExpr, arg: int64(args[1])}), nil
	case "mlirAffineSymbolExprGet":
		return l.internExpr(exprNode{ctx: args[0], kind: symbolExpr, arg: int64(args[1])}), nil
	case "mlirAffineConstantExprGet":
		return l.internExpr(exprNode{ctx: args[0], kind: constantExpr, arg: int64(args[1])}), nil
	case "mlirAffineAddExprGet":
		return l.internBinary(addExpr, args[0], args[1])
	case "mlirAffineMulExprGet":
		return l.internBinary(mulExpr, args[0], args[1])
	case "mlirAffineModExprGet":
		return l.internBinary(modExpr, args[0], args[1])
	case "mlirAffineFloorDivExprGet":
		return l.internBinary(floorDivExpr, args[0], args[1])
	case "mlirAffineCeilDivExprGet":
		return l.internBinary(ceilDivExpr, args[0], args[1])
	case "mlirAffineExprCompose":
		m, err := l.mapOf(args[1])
		if err != nil {
			return 0, err
		}
		return l.compose(args[0], m)

	case "mlirAffineExprEqual":
		return boolWord(args[0] == args[1]), nil
	case "mlirAffineExprIsADim":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == dimExpr })
	case "mlirAffineExprIsASymbol":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == symbolExpr })
	case "mlirAffineExprIsAConstant":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == constantExpr })
	case "mlirAffineExprIsAAdd":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == addExpr })
	case "mlirAffineExprIsAMul":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == mulExpr })
	case "mlirAffineExprIsAMod":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == modExpr })
	case "mlirAffineExprIsAFloorDiv":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == floorDivExpr })
	case "mlirAffineExprIsACeilDiv":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind == ceilDivExpr })
	case "mlirAffineExprIsABinary":
		return l.exprPredicate(args[0], func(e exprNode) bool { return e.kind >= addExpr })
	case "mlirAffineExprIsPureAffine":
		return l.exprPredicate(args[0], l.isPureAffine)
	case "mlirAffineExprIsSymbolicOrConstant":
		return l.exprPredicate(args[0], l.isSymbolicOrConstant)
	case "mlirAffineExprIsMultipleOf":
		e, err := l.exprOf(args[0])
		if err != nil {
			return 0, err
		}
		factor := int64(args[1])
		if factor == 0 {
			return 0, trap(symbol, "zero factor")
		}
		return boolWord(l.largestKnownDivisor(e)%factor == 0), nil
	case "mlirAffineExprIsFunctionOfDim":
		e, err := l.exprOf(args[0])
		if err != nil {
			return 0, err
		}
		return boolWord(l.isFunctionOfDim(e, int64(args[1]))), nil
	case "mlirAffineDimExprGetPosition":
		return l.exprField(args[0], symbol, dimExpr)
	case "mlirAffineSymbolExprGetPosition":
		return l.exprField(args[0], symbol, symbolExpr)
	case "mlirAffineConstantExprGetValue":
		return l.exprField(args[0], symbol, constantExpr)
	case "mlirAffineBinaryOpExprGetLHS":
		e, err := l.binaryOf(args[0], symbol)
		if err != nil {
			return 0, err
		}
		return e.lhs, nil
	case "mlirAffineBinaryOpExprGetRHS":
		e, err := l.binaryOf(args[0], symbol)
		if err != nil {
			return 0, err
		}
		return e.rhs, nil
	case "mlirAffineExprGetLargestKnownDivisor":
		e, err := l.exprOf(args[0])
		if err != nil {
			return 0, err
		}
		return uint64(l.largestKnownDivisor(e)), nil

	case "mlirAffineMapGet":
		results, err := l.readHandles(uint32(args[4]), uint32(args[3]))
		if err != nil {
			return 0, err
		}
		for _, r := range results {
			if _, err := l.exprOf(r); err != nil {
				return 0, err
			}
		}
		return l.internMap(mapNode{ctx: args[0], dims: int64(args[1]), syms: int64(args[2]), results: results}), nil
	case "mlirAffineMapConstantGet":
		c := l.internExpr(exprNode{ctx: args[0], kind: constantExpr, arg: int64(args[1])})
		return l.internMap(mapNode{ctx: args[0], results: []uint64{c}}), nil
	case "mlirAffineMapMultiDimIdentityGet":
		n := int64(args[1])
		results := make([]uint64, n)
		for i := int64(0); i < n; i++ {
			results[i] = l.internExpr(exprNode{ctx: args[0], kind: dimExpr, arg: i})
		}
		return l.internMap(mapNode{ctx: args[0], dims: n, results: results}), nil
	case "mlirAffineMapMinorIdentityGet":
		dims, nres := int64(args[1]), int64(args[2])
		if nres > dims {
			return 0, trap(symbol, "more results than dimensions")
		}
		results := make([]uint64, nres)
		for i := int64(0); i < nres; i++ {
			results[i] = l.internExpr(exprNode{ctx: args[0], kind: dimExpr, arg: dims - nres + i})
		}
		return l.internMap(mapNode{ctx: args[0], dims: dims, results: results}), nil
	case "mlirAffineMapPermutationGet":
		n := uint32(args[1])
		results := make([]uint64, n)
		for i := uint32(0); i < n; i++ {
			pos, err := l.memReadU32(uint32(args[2]) + 4*i)
			if err != nil {
				return 0, err
			}
			if uint64(pos) >= uint64(n) {
				return 0, trap(symbol, "permutation target out of range")
			}
			results[i] = l.internExpr(exprNode{ctx: args[0], kind: dimExpr, arg: int64(pos)})
		}
		return l.internMap(mapNode{ctx: args[0], dims: int64(n), results: results}), nil
	case "mlirAffineMapEmptyGet":
		return l.internMap(mapNode{ctx: args[0]}), nil
	case "mlirAffineMapZeroResultGet":
		return l.internMap(mapNode{ctx: args[0], dims: int64(args[1]), syms: int64(args[2])}), nil

	case "mlirAffineMapEqual":
		return boolWord(args[0] == args[1]), nil
	case "mlirAffineMapGetNumDims":
		return l.mapField(args[0], func(m mapNode) uint64 { return uint64(m.dims) })
	case "mlirAffineMapGetNumSymbols":
		return l.mapField(args[0], func(m mapNode) uint64 { return uint64(m.syms) })
	case "mlirAffineMapGetNumInputs":
		return l.mapField(args[0], func(m mapNode) uint64 { return uint64(m.dims + m.syms) })
	case "mlirAffineMapGetNumResults":
		return l.mapField(args[0], func(m mapNode) uint64 { return uint64(len(m.results)) })
	case "mlirAffineMapGetResult":
		m, err := l.mapOf(args[0])
		if err != nil {
			return 0, err
		}
		pos := int64(args[1])
		if pos < 0 || pos >= int64(len(m.results)) {
			return 0, trap(symbol, "result position out of range")
		}
		return m.results[pos], nil
	case "mlirAffineMapIsIdentity":
		return l.mapPredicate(args[0], l.mapIsIdentity)
	case "mlirAffineMapIsMinorIdentity":
		return l.mapPredicate(args[0], l.mapIsMinorIdentity)
	case "mlirAffineMapIsEmpty":
		return l.mapPredicate(args[0], func(m mapNode) bool {
			return m.dims == 0 && m.syms == 0 && len(m.results) == 0
		})
	case "mlirAffineMapIsSingleConstant":
		return l.mapPredicate(args[0], l.mapIsSingleConstant)
	case "mlirAffineMapGetSingleConstantResult":
		m, err := l.mapOf(args[0])
		if err != nil {
			return 0, err
		}
		if !l.mapIsSingleConstant(m) {
			return 0, trap(symbol, "map is not a single constant")
		}
		return uint64(l.exprs[m.results[0]].arg), nil
	case "mlirAffineMapIsPermutation":
		return l.mapPredicate(args[0], func(m mapNode) bool {
			return int64(len(m.results)) == m.dims && l.mapIsProjectedPermutation(m)
		})
	case "mlirAffineMapIsProjectedPermutation":
		return l.mapPredicate(args[0], l.mapIsProjectedPermutation)

	case "mlirAffineMapGetSubMap":
		m, err := l.mapOf(args[0])
		if err != nil {
			return 0, err
		}
		n := uint32(args[1])
		results := make([]uint64, n)
		for i := uint32(0); i < n; i++ {
			pos, err := l.memReadU32(uint32(args[2]) + 4*i)
			if err != nil {
				return 0, err
			}
			if int64(pos) >= int64(len(m.results)) {
				return 0, trap(symbol, "sub-map position out of range")
			}
			results[i] = m.results[pos]
		}
		return l.internMap(mapNode{ctx: m.ctx, dims: m.dims, syms: m.syms, results: results}), nil
	case "mlirAffineMapGetMajorSubMap":
		return l.subMapPrefix(args[0], int64(args[1]), true)
	case "mlirAffineMapGetMinorSubMap":
		return l.subMapPrefix(args[0], int64(args[1]), false)
	case "mlirAffineMapReplace":
		m, err := l.mapOf(args[0])
		if err != nil {
			return 0, err
		}
		results := make([]uint64, len(m.results))
		for i, r := range m.results {
			rr, err := l.replaceExpr(r, args[1], args[2])
			if err != nil {
				return 0, err
			}
			results[i] = rr
		}
		return l.internMap(mapNode{ctx: m.ctx, dims: int64(args[3]), syms: int64(args[4]), results: results}), nil

	case "mlirIntegerSetGet":
		n := uint32(args[3])
		constraints, err := l.readHandles(uint32(args[4]), n)
		if err != nil {
			return 0, err
		}
		eqFlags := make([]bool, n)
		for i := uint32(0); i < n; i++ {
			b, err := l.memReadByte(uint32(args[5]) + i)
			if err != nil {
				return 0, err
			}
			eqFlags[i] = b != 0
		}
		return l.internSet(setNode{
			ctx: args[0], dims: int64(args[1]), syms: int64(args[2]),
			constraints: constraints, eqFlags: eqFlags,
		}), nil
	case "mlirIntegerSetEmptyGet":
		return l.internSet(setNode{
			ctx: args[0], dims: int64(args[1]), syms: int64(args[2]), empty: true,
		}), nil
	case "mlirIntegerSetEqual":
		return boolWord(args[0] == args[1]), nil
	case "mlirIntegerSetGetNumConstraints":
		return l.setField(args[0], func(s setNode) uint64 { return uint64(len(s.constraints)) })
	case "mlirIntegerSetGetNumEqualities":
		return l.setField(args[0], func(s setNode) uint64 {
			var n uint64
			for _, eq := range s.eqFlags {
				if eq {
					n++
				}
			}
			return n
		})
	case "mlirIntegerSetGetNumInequalities":
		return l.setField(args[0], func(s setNode) uint64 {
			var n uint64
			for _, eq := range s.eqFlags {
				if !eq {
					n++
				}
			}
			return n
		})
	case "mlirIntegerSetGetNumDims":
		return l.setField(args[0], func(s setNode) uint64 { return uint64(s.dims) })
	case "mlirIntegerSetGetNumSymbols":
		return l.setField(args[0], func(s setNode) uint64 { return uint64(s.syms) })
	case "mlirIntegerSetGetNumInputs":
		return l.setField(args[0], func(s setNode) uint64 { return uint64(s.dims + s.syms) })
	case "mlirIntegerSetIsCanonicalEmpty":
		return l.setField(args[0], func(s setNode) uint64 { return boolWord(s.empty) })
	case "mlirIntegerSetGetConstraint":
		s, err := l.setOf(args[0])
		if err != nil {
			return 0, err
		}
		pos := int64(args[1])
		if pos < 0 || pos >= int64(len(s.constraints)) {
			return 0, trap(symbol, "constraint position out of range")
		}
		return s.constraints[pos], nil
	case "mlirIntegerSetIsConstraintEq":
		s, err := l.setOf(args[0])
		if err != nil {
			return 0, err
		}
		pos := int64(args[1])
		if pos < 0 || pos >= int64(len(s.eqFlags)) {
			return 0, trap(symbol, "constraint position out of range")
		}
		return boolWord(s.eqFlags[pos]), nil
	}

	if strings.HasPrefix(symbol, "mlirCreateSparseTensor") {
		h := l.handle()
		l.passes[h] = symbol
		return h, nil
	}

	return 0, errors.NotFound(symbol)
}

// Alloc bump-allocates in the fake linear memory, 8-byte aligned.
func (l *Lib) Alloc(size uint32) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, errors.Closed("fake library")
	}
	ptr := (l.heap + 7) &^ 7
	if uint64(ptr)+uint64(size) > uint64(len(l.mem)) {
		return 0, errors.AllocationFailed(size, nil)
	}
	l.heap = ptr + size
	return ptr, nil
}

// Free is a no-op; the bump allocator never reclaims.
func (l *Lib) Free(ptr uint32) {}

// Memory exposes the fake linear memory.
func (l *Lib) Memory() wasmlir.Memory {
	return &memory{lib: l}
}

// Print renders the handle behind one of the print shim symbols into w.
func (l *Lib) Print(symbol string, handle uint64, w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.Closed("fake library")
	}

	var text string
	switch symbol {
	case "wasmlirAffineExprPrint":
		e, err := l.exprOf(handle)
		if err != nil {
			return err
		}
		text = l.renderExpr(e, 0)
	case "wasmlirAffineMapPrint":
		m, err := l.mapOf(handle)
		if err != nil {
			return err
		}
		text = l.renderMap(m)
	case "wasmlirIntegerSetPrint":
		s, err := l.setOf(handle)
		if err != nil {
			return err
		}
		text = l.renderSet(s)
	default:
		return errors.NotFound(symbol)
	}

	if _, err := io.WriteString(w, text); err != nil {
		return errors.Sink(symbol, err)
	}
	return nil
}

// Close tears the fake down. Further calls fail closed.
func (l *Lib) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// lookups

func (l *Lib) exprOf(h uint64) (exprNode, error) {
	e, ok := l.exprs[h]
	if !ok {
		return exprNode{}, trap("expr", fmt.Sprintf("unknown expression handle %#x", h))
	}
	return e, nil
}

func (l *Lib) mapOf(h uint64) (mapNode, error) {
	m, ok := l.maps[h]
	if !ok {
		return mapNode{}, trap("map", fmt.Sprintf("unknown map handle %#x", h))
	}
	return m, nil
}

func (l *Lib) setOf(h uint64) (setNode, error) {
	s, ok := l.sets[h]
	if !ok {
		return setNode{}, trap("set", fmt.Sprintf("unknown set handle %#x", h))
	}
	return s, nil
}

func (l *Lib) binaryOf(h uint64, symbol string) (exprNode, error) {
	e, err := l.exprOf(h)
	if err != nil {
		return exprNode{}, err
	}
	if e.kind < addExpr {
		return exprNode{}, trap(symbol, "expression is not binary")
	}
	return e, nil
}

func (l *Lib) exprPredicate(h uint64, p func(exprNode) bool) (uint64, error) {
	e, err := l.exprOf(h)
	if err != nil {
		return 0, err
	}
	return boolWord(p(e)), nil
}

func (l *Lib) exprField(h uint64, symbol string, want exprKind) (uint64, error) {
	e, err := l.exprOf(h)
	if err != nil {
		return 0, err
	}
	if e.kind != want {
		return 0, trap(symbol, "expression kind mismatch")
	}
	return uint64(e.arg), nil
}

func (l *Lib) mapField(h uint64, f func(mapNode) uint64) (uint64, error) {
	m, err := l.mapOf(h)
	if err != nil {
		return 0, err
	}
	return f(m), nil
}

func (l *Lib) mapPredicate(h uint64, p func(mapNode) bool) (uint64, error) {
	m, err := l.mapOf(h)
	if err != nil {
		return 0, err
	}
	return boolWord(p(m)), nil
}

func (l *Lib) setField(h uint64, f func(setNode) uint64) (uint64, error) {
	s, err := l.setOf(h)
	if err != nil {
		return 0, err
	}
	return f(s), nil
}

// interning

func (l *Lib) internExpr(n exprNode) uint64 {
	if h, ok := l.exprIndex[n]; ok {
		return h
	}
	h := l.handle()
	l.exprs[h] = n
	l.exprIndex[n] = h
	return h
}

func (l *Lib) internBinary(kind exprKind, lhs, rhs uint64) (uint64, error) {
	le, err := l.exprOf(lhs)
	if err != nil {
		return 0, err
	}
	if _, err := l.exprOf(rhs); err != nil {
		return 0, err
	}
	return l.internExpr(exprNode{ctx: le.ctx, kind: kind, lhs: lhs, rhs: rhs}), nil
}

func (l *Lib) internMap(n mapNode) uint64 {
	key := fmt.Sprintf("%d/%d/%d/%v", n.ctx, n.dims, n.syms, n.results)
	if h, ok := l.mapIndex[key]; ok {
		return h
	}
	h := l.handle()
	l.maps[h] = n
	l.mapIndex[key] = h
	return h
}

func (l *Lib) internSet(n setNode) uint64 {
	key := fmt.Sprintf("%d/%d/%d/%v/%v/%t", n.ctx, n.dims, n.syms, n.constraints, n.eqFlags, n.empty)
	if h, ok := l.setIndex[key]; ok {
		return h
	}
	h := l.handle()
	l.sets[h] = n
	l.setIndex[key] = h
	return h
}

// semantics

func (l *Lib) isPureAffine(e exprNode) bool {
	switch e.kind {
	case dimExpr, symbolExpr, constantExpr:
		return true
	case addExpr:
		return l.isPureAffine(l.exprs[e.lhs]) && l.isPureAffine(l.exprs[e.rhs])
	case mulExpr:
		lhs, rhs := l.exprs[e.lhs], l.exprs[e.rhs]
		return l.isPureAffine(lhs) && l.isPureAffine(rhs) &&
			(lhs.kind == constantExpr || rhs.kind == constantExpr)
	default:
		// mod and the divisions need a constant right operand
		return l.isPureAffine(l.exprs[e.lhs]) && l.exprs[e.rhs].kind == constantExpr
	}
}

func (l *Lib) isSymbolicOrConstant(e exprNode) bool {
	switch e.kind {
	case dimExpr:
		return false
	case symbolExpr, constantExpr:
		return true
	default:
		return l.isSymbolicOrConstant(l.exprs[e.lhs]) && l.isSymbolicOrConstant(l.exprs[e.rhs])
	}
}

func (l *Lib) isFunctionOfDim(e exprNode, pos int64) bool {
	switch e.kind {
	case dimExpr:
		return e.arg == pos
	case symbolExpr, constantExpr:
		return false
	default:
		return l.isFunctionOfDim(l.exprs[e.lhs], pos) || l.isFunctionOfDim(l.exprs[e.rhs], pos)
	}
}

func (l *Lib) largestKnownDivisor(e exprNode) int64 {
	switch e.kind {
	case constantExpr:
		if e.arg < 0 {
			return -e.arg
		}
		return e.arg
	case dimExpr, symbolExpr:
		return 1
	case addExpr:
		return gcd(l.largestKnownDivisor(l.exprs[e.lhs]), l.largestKnownDivisor(l.exprs[e.rhs]))
	case mulExpr:
		return l.largestKnownDivisor(l.exprs[e.lhs]) * l.largestKnownDivisor(l.exprs[e.rhs])
	default:
		return 1
	}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func (l *Lib) mapIsIdentity(m mapNode) bool {
	if m.dims != int64(len(m.results)) || m.syms != 0 {
		return false
	}
	for i, r := range m.results {
		e := l.exprs[r]
		if e.kind != dimExpr || e.arg != int64(i) {
			return false
		}
	}
	return true
}

func (l *Lib) mapIsMinorIdentity(m mapNode) bool {
	if int64(len(m.results)) > m.dims || m.syms != 0 || len(m.results) == 0 {
		return false
	}
	offset := m.dims - int64(len(m.results))
	for i, r := range m.results {
		e := l.exprs[r]
		if e.kind != dimExpr || e.arg != offset+int64(i) {
			return false
		}
	}
	return true
}

func (l *Lib) mapIsSingleConstant(m mapNode) bool {
	return len(m.results) == 1 && l.exprs[m.results[0]].kind == constantExpr
}

func (l *Lib) mapIsProjectedPermutation(m mapNode) bool {
	if m.syms != 0 {
		return false
	}
	seen := make(map[int64]bool)
	for _, r := range m.results {
		e := l.exprs[r]
		if e.kind != dimExpr || seen[e.arg] {
			return false
		}
		seen[e.arg] = true
	}
	return true
}

// subMapPrefix implements the major/minor sub-map policy: zero results is
// the null map, asking for at least as many results as exist returns the
// original handle.
func (l *Lib) subMapPrefix(h uint64, n int64, major bool) (uint64, error) {
	m, err := l.mapOf(h)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if n >= int64(len(m.results)) {
		return h, nil
	}
	var results []uint64
	if major {
		results = m.results[:n]
	} else {
		results = m.results[int64(len(m.results))-n:]
	}
	return l.internMap(mapNode{ctx: m.ctx, dims: m.dims, syms: m.syms, results: results}), nil
}

func (l *Lib) compose(h uint64, m mapNode) (uint64, error) {
	e, err := l.exprOf(h)
	if err != nil {
		return 0, err
	}
	switch e.kind {
	case dimExpr:
		if e.arg >= int64(len(m.results)) {
			return 0, trap("mlirAffineExprCompose", "dimension has no replacement in the map")
		}
		return m.results[e.arg], nil
	case symbolExpr, constantExpr:
		return h, nil
	default:
		lhs, err := l.compose(e.lhs, m)
		if err != nil {
			return 0, err
		}
		rhs, err := l.compose(e.rhs, m)
		if err != nil {
			return 0, err
		}
		return l.internBinary(e.kind, lhs, rhs)
	}
}

func (l *Lib) replaceExpr(h, old, repl uint64) (uint64, error) {
	if h == old {
		return repl, nil
	}
	e, err := l.exprOf(h)
	if err != nil {
		return 0, err
	}
	if e.kind < addExpr {
		return h, nil
	}
	lhs, err := l.replaceExpr(e.lhs, old, repl)
	if err != nil {
		return 0, err
	}
	rhs, err := l.replaceExpr(e.rhs, old, repl)
	if err != nil {
		return 0, err
	}
	return l.internBinary(e.kind, lhs, rhs)
}

// rendering, matching the library's textual forms

func (l *Lib) renderExpr(e exprNode, parentPrec int) string {
	prec, text := 0, ""
	switch e.kind {
	case dimExpr:
		return fmt.Sprintf("d%d", e.arg)
	case symbolExpr:
		return fmt.Sprintf("s%d", e.arg)
	case constantExpr:
		return fmt.Sprintf("%d", e.arg)
	case addExpr:
		prec = 1
		text = l.renderExpr(l.exprs[e.lhs], prec) + " + " + l.renderExpr(l.exprs[e.rhs], prec)
	case mulExpr:
		prec = 2
		text = l.renderExpr(l.exprs[e.lhs], prec) + " * " + l.renderExpr(l.exprs[e.rhs], prec)
	case modExpr:
		prec = 2
		text = l.renderExpr(l.exprs[e.lhs], prec) + " mod " + l.renderExpr(l.exprs[e.rhs], prec)
	case floorDivExpr:
		prec = 2
		text = l.renderExpr(l.exprs[e.lhs], prec) + " floordiv " + l.renderExpr(l.exprs[e.rhs], prec)
	case ceilDivExpr:
		prec = 2
		text = l.renderExpr(l.exprs[e.lhs], prec) + " ceildiv " + l.renderExpr(l.exprs[e.rhs], prec)
	}
	if prec < parentPrec {
		return "(" + text + ")"
	}
	return text
}

func (l *Lib) signature(dims, syms int64) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := int64(0); i < dims; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "d%d", i)
	}
	b.WriteByte(')')
	if syms > 0 {
		b.WriteByte('[')
		for i := int64(0); i < syms; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "s%d", i)
		}
		b.WriteByte(']')
	}
	return b.String()
}

func (l *Lib) renderMap(m mapNode) string {
	parts := make([]string, len(m.results))
	for i, r := range m.results {
		parts[i] = l.renderExpr(l.exprs[r], 0)
	}
	return l.signature(m.dims, m.syms) + " -> (" + strings.Join(parts, ", ") + ")"
}

func (l *Lib) renderSet(s setNode) string {
	if s.empty {
		return l.signature(s.dims, s.syms) + " : (1 == 0)"
	}
	parts := make([]string, len(s.constraints))
	for i, c := range s.constraints {
		rel := " >= 0"
		if s.eqFlags[i] {
			rel = " == 0"
		}
		parts[i] = l.renderExpr(l.exprs[c], 0) + rel
	}
	return l.signature(s.dims, s.syms) + " : (" + strings.Join(parts, ", ") + ")"
}

// guest memory

func (l *Lib) readHandles(ptr, count uint32) ([]uint64, error) {
	handles := make([]uint64, count)
	for i := uint32(0); i < count; i++ {
		v, err := l.memReadU32(ptr + 4*i)
		if err != nil {
			return nil, err
		}
		handles[i] = uint64(v)
	}
	return handles, nil
}

func (l *Lib) memReadU32(offset uint32) (uint32, error) {
	if uint64(offset)+4 > uint64(len(l.mem)) {
		return 0, errors.OutOfBounds("read out of bounds: offset=%d", offset)
	}
	return uint32(l.mem[offset]) | uint32(l.mem[offset+1])<<8 |
		uint32(l.mem[offset+2])<<16 | uint32(l.mem[offset+3])<<24, nil
}

func (l *Lib) memReadByte(offset uint32) (byte, error) {
	if uint64(offset) >= uint64(len(l.mem)) {
		return 0, errors.OutOfBounds("read out of bounds: offset=%d", offset)
	}
	return l.mem[offset], nil
}

func trap(symbol, detail string) *errors.Error {
	return errors.New(errors.PhaseCall, errors.KindTrap).
		Symbol(symbol).Detail(detail).Build()
}

// memory implements wasmlir.Memory over the fake byte slice.
type memory struct {
	lib *Lib
}

var _ wasmlir.Memory = (*memory)(nil)

func (m *memory) Read(offset, length uint32) ([]byte, error) {
	m.lib.mu.Lock()
	defer m.lib.mu.Unlock()

	if uint64(offset)+uint64(length) > uint64(len(m.lib.mem)) {
		return nil, errors.OutOfBounds("read out of bounds: offset=%d, length=%d", offset, length)
	}
	out := make([]byte, length)
	copy(out, m.lib.mem[offset:])
	return out, nil
}

func (m *memory) Write(offset uint32, data []byte) error {
	m.lib.mu.Lock()
	defer m.lib.mu.Unlock()

	if uint64(offset)+uint64(len(data)) > uint64(len(m.lib.mem)) {
		return errors.OutOfBounds("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(m.lib.mem[offset:], data)
	return nil
}

func (m *memory) ReadU32(offset uint32) (uint32, error) {
	m.lib.mu.Lock()
	defer m.lib.mu.Unlock()
	return m.lib.memReadU32(offset)
}

func (m *memory) ReadU64(offset uint32) (uint64, error) {
	lo, err := m.ReadU32(offset)
	if err != nil {
		return 0, err
	}
	hi, err := m.ReadU32(offset + 4)
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

func (m *memory) WriteU32(offset uint32, value uint32) error {
	var buf [4]byte
	buf[0] = byte(value)
	buf[1] = byte(value >> 8)
	buf[2] = byte(value >> 16)
	buf[3] = byte(value >> 24)
	return m.Write(offset, buf[:])
}

func (m *memory) WriteU64(offset uint32, value uint64) error {
	if err := m.WriteU32(offset, uint32(value)); err != nil {
		return err
	}
	return m.WriteU32(offset+4, uint32(value>>32))
}
