package synth

import (
	"bytes"
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestBuildHeader(t *testing.T) {
	b := NewBuilder()
	b.AddFunc("answer", nil, []api.ValueType{api.ValueTypeI64},
		Body(I64Const(42)))

	wasm := b.Build()
	want := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if len(wasm) < len(want) || !bytes.Equal(wasm[:len(want)], want) {
		t.Fatalf("module does not start with wasm magic and version: % x", wasm[:8])
	}
}

func TestBuildContainsExportNames(t *testing.T) {
	b := NewBuilder()
	b.AddMemory(1)
	b.AddFunc("echo", []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64},
		Body(LocalGet(0)))

	wasm := b.Build()
	for _, name := range []string{"memory", "echo"} {
		if !bytes.Contains(wasm, []byte(name)) {
			t.Errorf("export name %q missing from module bytes", name)
		}
	}
}

func TestBuildContainsDataPayload(t *testing.T) {
	b := NewBuilder()
	b.AddMemory(1)
	payload := []byte("(d0) -> (d0)")
	b.AddData(1024, payload)

	if wasm := b.Build(); !bytes.Contains(wasm, payload) {
		t.Fatal("data segment payload missing from module bytes")
	}
}

func TestImportIndexesPrecedeLocals(t *testing.T) {
	b := NewBuilder()
	imported := b.ImportFunc("host", "write",
		[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil)
	local := b.AddFunc("run", nil, nil, Body(I32Const(0), I32Const(0), CallFunc(imported)))

	if imported != 0 {
		t.Errorf("imported function index = %d, want 0", imported)
	}
	if local != 1 {
		t.Errorf("local function index = %d, want 1", local)
	}
}

func TestLEB128Encoding(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"uleb small", encodeULEB128(5), []byte{0x05}},
		{"uleb boundary", encodeULEB128(127), []byte{0x7f}},
		{"uleb multi", encodeULEB128(128), []byte{0x80, 0x01}},
		{"sleb positive", encodeSLEB128(42), []byte{0x2a}},
		{"sleb negative", encodeSLEB128(-1), []byte{0x7f}},
		{"sleb boundary", encodeSLEB128(64), []byte{0xc0, 0x00}},
	}
	for _, tt := range tests {
		if !bytes.Equal(tt.got, tt.want) {
			t.Errorf("%s: got % x, want % x", tt.name, tt.got, tt.want)
		}
	}
}
