package main

import (
	"context"
	"testing"

	"github.com/wasmlir/wasmlir/internal/fakelib"
	"github.com/wasmlir/wasmlir/ir"
)

func parserContext(t *testing.T) *ir.Context {
	t.Helper()
	ctx, err := ir.NewContext(fakelib.New())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(func() { ctx.Close(context.Background()) })
	return ctx
}

func TestParseExpr(t *testing.T) {
	ctx := parserContext(t)

	tests := []struct {
		input string
		want  string
		dims  int
		syms  int
	}{
		{"d0", "d0", 1, 0},
		{"d0 + s0 * 2", "d0 + s0 * 2", 1, 1},
		{"(d0 + d1) floordiv 4", "(d0 + d1) floordiv 4", 2, 0},
		{"d2 mod 3", "d2 mod 3", 3, 0},
		{"-5", "-5", 0, 0},
		{"d0 - s0", "d0 + s0 * -1", 1, 1},
	}
	for _, tt := range tests {
		parsed, err := parseExpr(ctx, tt.input)
		if err != nil {
			t.Errorf("parseExpr(%q): %v", tt.input, err)
			continue
		}
		if got := parsed.expr.String(); got != tt.want {
			t.Errorf("parseExpr(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if parsed.dims != tt.dims || parsed.syms != tt.syms {
			t.Errorf("parseExpr(%q) inputs = %d/%d, want %d/%d",
				tt.input, parsed.dims, parsed.syms, tt.dims, tt.syms)
		}
	}
}

func TestParseExprErrors(t *testing.T) {
	ctx := parserContext(t)

	for _, input := range []string{"", "d0 +", "(d0", "dx", "d0 d1", "foo"} {
		if _, err := parseExpr(ctx, input); err == nil {
			t.Errorf("parseExpr(%q) should fail", input)
		}
	}
}

func TestParsePerm(t *testing.T) {
	if _, err := parsePerm("1,2,0"); err != nil {
		t.Errorf("parsePerm(1,2,0): %v", err)
	}
	for _, input := range []string{"0,0", "0,2", "a,b"} {
		if _, err := parsePerm(input); err == nil {
			t.Errorf("parsePerm(%q) should fail", input)
		}
	}
}
