// Command affine explores affine maps and expressions through a library
// binary, or through the built-in in-memory stand-in when no binary is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/engine"
	"github.com/wasmlir/wasmlir/internal/fakelib"
	"github.com/wasmlir/wasmlir/ir"
)

func main() {
	var (
		libPath     = flag.String("lib", "", "Path to a library wasm binary (omit for the built-in stand-in)")
		dims        = flag.Int("dims", 0, "Print the n-dimensional identity map and its properties")
		perm        = flag.String("perm", "", "Print a permutation map, e.g. 1,2,0")
		exprText    = flag.String("expr", "", "Parse an expression, e.g. 'd0 + s0 * 2'")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose engine logging")
	)
	flag.Parse()

	if *dims == 0 && *perm == "" && *exprText == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: affine [-lib <file.wasm>] -dims <n>")
		fmt.Fprintln(os.Stderr, "       affine [-lib <file.wasm>] -perm 1,2,0")
		fmt.Fprintln(os.Stderr, "       affine [-lib <file.wasm>] -expr 'd0 + s0 * 2'")
		fmt.Fprintln(os.Stderr, "       affine [-lib <file.wasm>] -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			engine.SetLogger(logger)
			defer logger.Sync()
		}
	}

	if err := run(*libPath, *dims, *perm, *exprText, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(libPath string, dims int, perm, exprText string, interactive bool) error {
	bg := context.Background()

	lib, cleanup, err := openLibrary(bg, libPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if interactive {
		return runInteractive(lib, libPath)
	}

	ctx, err := ir.NewContext(lib)
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	defer ctx.Close(bg)

	if dims > 0 {
		reportMap(ir.MultiDimIdentityMap(ctx, dims))
	}
	if perm != "" {
		positions, err := parsePerm(perm)
		if err != nil {
			return err
		}
		m, err := ir.PermutationMap(ctx, positions)
		if err != nil {
			return fmt.Errorf("permutation map: %w", err)
		}
		reportMap(m)
	}
	if exprText != "" {
		parsed, err := parseExpr(ctx, exprText)
		if err != nil {
			return fmt.Errorf("parse %q: %v", exprText, err)
		}
		reportExpr(parsed)
	}
	return nil
}

// openLibrary loads a wasm binary through the engine, or falls back to the
// in-memory stand-in when no path is given.
func openLibrary(ctx context.Context, path string) (wasmlir.Library, func(), error) {
	if path == "" {
		lib := fakelib.New()
		return lib, func() { lib.Close(ctx) }, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read library: %w", err)
	}
	eng, err := engine.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	lib, err := eng.Load(ctx, data)
	if err != nil {
		eng.Close(ctx)
		return nil, nil, err
	}
	return lib, func() { eng.Close(ctx) }, nil
}

func parsePerm(s string) ([]uint32, error) {
	parts := strings.Split(s, ",")
	positions := make([]uint32, len(parts))
	seen := make(map[uint64]bool)
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil || v >= uint64(len(parts)) || seen[v] {
			return nil, fmt.Errorf("-perm must be a permutation of 0..%d", len(parts)-1)
		}
		seen[v] = true
		positions[i] = uint32(v)
	}
	return positions, nil
}

func reportMap(m ir.AffineMap) {
	fmt.Printf("map:        %s\n", m)
	fmt.Printf("inputs:     %d dims, %d symbols\n", m.NumDimensions(), m.NumSymbols())
	fmt.Printf("results:    %d\n", m.NumResults())
	fmt.Printf("identity:   %t (minor: %t)\n", m.IsIdentity(), m.IsMinorIdentity())
	fmt.Printf("permutation: %t (projected: %t)\n", m.IsPermutation(), m.IsProjectedPermutation())
}

func reportExpr(parsed parsedExpr) {
	e := parsed.expr
	fmt.Printf("expr:       %s\n", e)
	fmt.Printf("inputs:     %d dims, %d symbols\n", parsed.dims, parsed.syms)
	fmt.Printf("pure affine: %t\n", e.IsPureAffine())
	fmt.Printf("symbolic or constant: %t\n", e.IsSymbolicOrConstant())
	fmt.Printf("largest known divisor: %d\n", e.LargestKnownDivisor())
	if e.IsBinary() {
		fmt.Printf("operands:   %s | %s\n", e.BinaryLHS(), e.BinaryRHS())
	}
}
