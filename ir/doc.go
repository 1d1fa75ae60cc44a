// Package ir wraps the library's affine IR handles: contexts, affine
// expressions, affine maps, and integer sets.
//
// Every wrapper pairs a raw foreign handle with the *Context that owns it.
// Handles are values; copying one never duplicates foreign state, and
// derived handles always belong to the context of their operands. Nothing
// is destroyed individually: closing the context frees its whole arena, and
// using any handle after that is a contract violation reported as a
// structured panic, the same class as a foreign trap.
//
// Operations that marshal buffers into guest memory return errors; pure
// delegations return plain values. Preconditions the library does not check
// (result positions in range, permutation bijectivity) are documented per
// method and remain the caller's obligation.
package ir
