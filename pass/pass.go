// Package pass wraps the library's pass constructors behind a uniform
// registration table. A pass handle is opaque; this layer only creates it
// and hands it on, it never runs anything.
package pass

import (
	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/errors"
)

// Pass is a handle to a foreign pass instance.
type Pass struct {
	raw uint64
}

// Raw returns the foreign handle word.
func (p Pass) Raw() uint64 {
	return p.raw
}

// IsNull reports whether p carries the foreign null handle.
func (p Pass) IsNull() bool {
	return p.raw == 0
}

// FromRaw wraps a foreign pass handle word.
func FromRaw(raw uint64) Pass {
	return Pass{raw}
}

// Entry describes one foreign pass constructor. Tables of entries are the
// whole registration surface; there is no code generation behind them.
type Entry struct {
	// Group is the dialect or family the pass belongs to.
	Group string
	// Name is the pass name within its group.
	Name string
	// Symbol is the constructor entry point in the library.
	Symbol string
}

// Create invokes the constructor on lib and wraps the resulting handle.
func (e Entry) Create(lib wasmlir.Library) (Pass, error) {
	raw, err := lib.Call(e.Symbol)
	if err != nil {
		return Pass{}, errors.New(errors.PhaseRegistry, errors.KindTrap).
			Symbol(e.Symbol).Detail("pass constructor failed").Cause(err).Build()
	}
	if raw == 0 {
		return Pass{}, errors.New(errors.PhaseRegistry, errors.KindInvalidData).
			Symbol(e.Symbol).Detail("pass constructor returned a null handle").Build()
	}
	return Pass{raw}, nil
}
