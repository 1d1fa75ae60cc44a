// Package errors provides structured error types for the wasmlir binding.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the foreign symbol involved and a cause
// chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCall, errors.KindTrap).
//		Symbol("mlirAffineMapGetResult").
//		Detail("position out of range").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Trap("mlirAffineMapGetResult", cause)
//	err := errors.Closed("affine map")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
