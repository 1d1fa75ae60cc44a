// Package sparsetensor declares the SparseTensor pass constructors.
package sparsetensor

import (
	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/pass"
)

// Group is the pass family name.
const Group = "SparseTensor"

// The table is written out by hand on purpose: twelve constructors do not
// justify generated code, and an explicit table keeps the symbol surface
// reviewable.
var entries = []pass.Entry{
	{Group: Group, Name: "LowerForeachToSCF", Symbol: "mlirCreateSparseTensorLowerForeachToSCF"},
	{Group: Group, Name: "LowerSparseOpsToForeach", Symbol: "mlirCreateSparseTensorLowerSparseOpsToForeach"},
	{Group: Group, Name: "PreSparsificationRewrite", Symbol: "mlirCreateSparseTensorPreSparsificationRewrite"},
	{Group: Group, Name: "SparseBufferRewrite", Symbol: "mlirCreateSparseTensorSparseBufferRewrite"},
	{Group: Group, Name: "SparseTensorCodegen", Symbol: "mlirCreateSparseTensorSparseTensorCodegen"},
	{Group: Group, Name: "SparseTensorConversionPass", Symbol: "mlirCreateSparseTensorSparseTensorConversionPass"},
	{Group: Group, Name: "SparseReinterpretMap", Symbol: "mlirCreateSparseTensorSparseReinterpretMap"},
	{Group: Group, Name: "SparseVectorization", Symbol: "mlirCreateSparseTensorSparseVectorization"},
	{Group: Group, Name: "SparsificationPass", Symbol: "mlirCreateSparseTensorSparsificationPass"},
	{Group: Group, Name: "StorageSpecifierToLLVM", Symbol: "mlirCreateSparseTensorStorageSpecifierToLLVM"},
	{Group: Group, Name: "SparsificationAndBufferization", Symbol: "mlirCreateSparseTensorSparsificationAndBufferization"},
	{Group: Group, Name: "StageSparseOperations", Symbol: "mlirCreateSparseTensorStageSparseOperations"},
}

// Passes returns the full constructor table for the group.
func Passes() []pass.Entry {
	out := make([]pass.Entry, len(entries))
	copy(out, entries)
	return out
}

func create(lib wasmlir.Library, name string) (pass.Pass, error) {
	for _, e := range entries {
		if e.Name == name {
			return e.Create(lib)
		}
	}
	panic("sparsetensor: unknown pass " + name)
}

// LowerForeachToSCF creates the foreach-to-SCF lowering pass.
func LowerForeachToSCF(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "LowerForeachToSCF")
}

// LowerSparseOpsToForeach creates the sparse-ops-to-foreach lowering pass.
func LowerSparseOpsToForeach(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "LowerSparseOpsToForeach")
}

// PreSparsificationRewrite creates the pre-sparsification rewrite pass.
func PreSparsificationRewrite(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "PreSparsificationRewrite")
}

// SparseBufferRewrite creates the sparse buffer rewrite pass.
func SparseBufferRewrite(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "SparseBufferRewrite")
}

// SparseTensorCodegen creates the sparse tensor codegen pass.
func SparseTensorCodegen(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "SparseTensorCodegen")
}

// SparseTensorConversionPass creates the sparse tensor conversion pass.
func SparseTensorConversionPass(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "SparseTensorConversionPass")
}

// SparseReinterpretMap creates the sparse reinterpret-map pass.
func SparseReinterpretMap(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "SparseReinterpretMap")
}

// SparseVectorization creates the sparse vectorization pass.
func SparseVectorization(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "SparseVectorization")
}

// SparsificationPass creates the sparsification pass.
func SparsificationPass(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "SparsificationPass")
}

// StorageSpecifierToLLVM creates the storage-specifier-to-LLVM pass.
func StorageSpecifierToLLVM(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "StorageSpecifierToLLVM")
}

// SparsificationAndBufferization creates the combined sparsification and
// bufferization pass.
func SparsificationAndBufferization(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "SparsificationAndBufferization")
}

// StageSparseOperations creates the sparse operation staging pass.
func StageSparseOperations(lib wasmlir.Library) (pass.Pass, error) {
	return create(lib, "StageSparseOperations")
}
