// Package synth assembles small WebAssembly binaries in memory. The engine
// tests use it to stand in for a real library build: a module with exported
// entry points, a linear memory, and an allocator, without shipping a binary
// fixture in the tree.
package synth

import (
	"github.com/tetratelabs/wazero/api"
)

// Common opcodes for hand-written function bodies.
const (
	OpUnreachable = 0x00
	OpEnd         = 0x0b
	OpI32Add      = 0x6a
	OpI32Sub      = 0x6b
	OpI64Add      = 0x7c
	OpDrop        = 0x1a
)

type importedFunc struct {
	module      string
	name        string
	paramTypes  []api.ValueType
	resultTypes []api.ValueType
}

type localFunc struct {
	name        string
	paramTypes  []api.ValueType
	resultTypes []api.ValueType
	body        []byte
}

type global struct {
	valType api.ValueType
	mutable bool
	init    int64
}

type segment struct {
	offset uint32
	data   []byte
}

// Builder accumulates module contents and emits the binary encoding.
// Function index space is imports first, then local functions, in the order
// they were added. Globals and data segments are always local.
type Builder struct {
	imports   []importedFunc
	funcs     []localFunc
	globals   []global
	data      []segment
	memPages  uint32
	hasMemory bool
}

// NewBuilder creates an empty module builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// ImportFunc declares a function import and returns its index in the
// function index space.
func (b *Builder) ImportFunc(module, name string, params, results []api.ValueType) uint32 {
	b.imports = append(b.imports, importedFunc{
		module:      module,
		name:        name,
		paramTypes:  params,
		resultTypes: results,
	})
	return uint32(len(b.imports) - 1)
}

// AddFunc defines an exported function with a raw opcode body. The body must
// terminate with OpEnd; Body assembles one from fragments. The returned index
// accounts for all imports declared so far.
func (b *Builder) AddFunc(name string, params, results []api.ValueType, body []byte) uint32 {
	b.funcs = append(b.funcs, localFunc{
		name:        name,
		paramTypes:  params,
		resultTypes: results,
		body:        body,
	})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// AddMemory defines a linear memory of minPages 64KB pages, exported as
// "memory".
func (b *Builder) AddMemory(minPages uint32) {
	b.hasMemory = true
	b.memPages = minPages
}

// AddData places bytes at a fixed offset in the linear memory.
func (b *Builder) AddData(offset uint32, data []byte) {
	b.data = append(b.data, segment{offset: offset, data: data})
}

// AddGlobal defines a module global and returns its index.
func (b *Builder) AddGlobal(valType api.ValueType, mutable bool, init int64) uint32 {
	b.globals = append(b.globals, global{valType: valType, mutable: mutable, init: init})
	return uint32(len(b.globals) - 1)
}

// Build emits the module binary.
func (b *Builder) Build() []byte {
	var wasm []byte

	// Magic and version
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	wasm = appendSection(wasm, 0x01, b.buildTypeSection())
	if len(b.imports) > 0 {
		wasm = appendSection(wasm, 0x02, b.buildImportSection())
	}
	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, 0x03, b.buildFuncSection())
	}
	if b.hasMemory {
		wasm = appendSection(wasm, 0x05, b.buildMemorySection())
	}
	if len(b.globals) > 0 {
		wasm = appendSection(wasm, 0x06, b.buildGlobalSection())
	}
	wasm = appendSection(wasm, 0x07, b.buildExportSection())
	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, 0x0a, b.buildCodeSection())
	}
	if len(b.data) > 0 {
		wasm = appendSection(wasm, 0x0b, b.buildDataSection())
	}

	return wasm
}

func appendSection(wasm []byte, id byte, section []byte) []byte {
	wasm = append(wasm, id)
	wasm = append(wasm, encodeULEB128(uint32(len(section)))...)
	return append(wasm, section...)
}

// One type entry per function, imports first. Duplicate signatures are not
// deduplicated; the modules built here are a handful of functions.
func (b *Builder) buildTypeSection() []byte {
	var section []byte
	section = append(section, encodeULEB128(uint32(len(b.imports)+len(b.funcs)))...)

	emit := func(params, results []api.ValueType) {
		section = append(section, 0x60)
		section = append(section, encodeULEB128(uint32(len(params)))...)
		for _, t := range params {
			section = append(section, valTypeToWasm(t))
		}
		section = append(section, encodeULEB128(uint32(len(results)))...)
		for _, t := range results {
			section = append(section, valTypeToWasm(t))
		}
	}
	for _, f := range b.imports {
		emit(f.paramTypes, f.resultTypes)
	}
	for _, f := range b.funcs {
		emit(f.paramTypes, f.resultTypes)
	}

	return section
}

func (b *Builder) buildImportSection() []byte {
	var section []byte
	section = append(section, encodeULEB128(uint32(len(b.imports)))...)

	for i, f := range b.imports {
		section = appendName(section, f.module)
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, encodeULEB128(uint32(i))...)
	}

	return section
}

func (b *Builder) buildFuncSection() []byte {
	var section []byte
	section = append(section, encodeULEB128(uint32(len(b.funcs)))...)
	for i := range b.funcs {
		section = append(section, encodeULEB128(uint32(len(b.imports)+i))...)
	}
	return section
}

func (b *Builder) buildMemorySection() []byte {
	var section []byte
	section = append(section, 0x01)
	section = append(section, 0x00)
	section = append(section, encodeULEB128(b.memPages)...)
	return section
}

func (b *Builder) buildGlobalSection() []byte {
	var section []byte
	section = append(section, encodeULEB128(uint32(len(b.globals)))...)

	for _, g := range b.globals {
		section = append(section, valTypeToWasm(g.valType))
		if g.mutable {
			section = append(section, 0x01)
		} else {
			section = append(section, 0x00)
		}
		switch g.valType {
		case api.ValueTypeI64:
			section = append(section, 0x42)
			section = append(section, encodeSLEB128(g.init)...)
		default:
			section = append(section, 0x41)
			section = append(section, encodeSLEB128(int64(int32(g.init)))...)
		}
		section = append(section, OpEnd)
	}

	return section
}

func (b *Builder) buildExportSection() []byte {
	var section []byte

	numExports := len(b.funcs)
	if b.hasMemory {
		numExports++
	}
	section = append(section, encodeULEB128(uint32(numExports))...)

	if b.hasMemory {
		section = appendName(section, "memory")
		section = append(section, 0x02, 0x00)
	}
	for i, f := range b.funcs {
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, encodeULEB128(uint32(len(b.imports)+i))...)
	}

	return section
}

func (b *Builder) buildCodeSection() []byte {
	var section []byte
	section = append(section, encodeULEB128(uint32(len(b.funcs)))...)

	for _, f := range b.funcs {
		body := make([]byte, 0, len(f.body)+1)
		body = append(body, 0x00) // no local declarations
		body = append(body, f.body...)
		section = append(section, encodeULEB128(uint32(len(body)))...)
		section = append(section, body...)
	}

	return section
}

func (b *Builder) buildDataSection() []byte {
	var section []byte
	section = append(section, encodeULEB128(uint32(len(b.data)))...)

	for _, s := range b.data {
		section = append(section, 0x00) // active segment in memory 0
		section = append(section, 0x41)
		section = append(section, encodeSLEB128(int64(int32(s.offset)))...)
		section = append(section, OpEnd)
		section = append(section, encodeULEB128(uint32(len(s.data)))...)
		section = append(section, s.data...)
	}

	return section
}

func appendName(section []byte, name string) []byte {
	section = append(section, encodeULEB128(uint32(len(name)))...)
	return append(section, []byte(name)...)
}

// Body concatenates instruction fragments and terminates them with OpEnd.
func Body(parts ...[]byte) []byte {
	var body []byte
	for _, p := range parts {
		body = append(body, p...)
	}
	return append(body, OpEnd)
}

// LocalGet emits local.get.
func LocalGet(idx uint32) []byte {
	return append([]byte{0x20}, encodeULEB128(idx)...)
}

// GlobalGet emits global.get.
func GlobalGet(idx uint32) []byte {
	return append([]byte{0x23}, encodeULEB128(idx)...)
}

// GlobalSet emits global.set.
func GlobalSet(idx uint32) []byte {
	return append([]byte{0x24}, encodeULEB128(idx)...)
}

// I32Const emits i32.const.
func I32Const(v int32) []byte {
	return append([]byte{0x41}, encodeSLEB128(int64(v))...)
}

// I64Const emits i64.const.
func I64Const(v int64) []byte {
	return append([]byte{0x42}, encodeSLEB128(v)...)
}

// CallFunc emits call with a function index.
func CallFunc(idx uint32) []byte {
	return append([]byte{0x10}, encodeULEB128(idx)...)
}

// Op wraps single-byte opcodes so bodies read uniformly.
func Op(opcodes ...byte) []byte {
	return opcodes
}

func encodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}

func encodeSLEB128(v int64) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			result = append(result, b)
			break
		}
		result = append(result, b|0x80)
	}
	return result
}

func valTypeToWasm(t api.ValueType) byte {
	switch t {
	case api.ValueTypeI32:
		return 0x7f
	case api.ValueTypeI64:
		return 0x7e
	case api.ValueTypeF32:
		return 0x7d
	case api.ValueTypeF64:
		return 0x7c
	default:
		return 0x7f
	}
}
