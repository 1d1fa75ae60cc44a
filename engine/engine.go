package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wasmlir/wasmlir/errors"
)

// Export names the engine relies on. The library binary is a freestanding
// wasm32 build of the C API; malloc/free come from its libc, memory is the
// canonical linear memory export.
const (
	// HostModule is the import namespace the library's print shim expects.
	HostModule = "wasmlir"
	// HostWrite is the byte-sink function inside HostModule.
	HostWrite = "write"

	allocExport  = "malloc"
	freeExport   = "free"
	memoryExport = "memory"
)

// Engine owns a wazero runtime shared by the library instances loaded
// through it.
type Engine struct {
	runtime      wazero.Runtime
	hostInitMu   sync.Mutex
	hostInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB
	// each). 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// New creates a new wazero-based engine
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a new engine with custom configuration
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &Engine{runtime: runtime}, nil
}

// Close releases the runtime and every instance loaded through it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// initHost instantiates the host module the library binary imports.
// Safe for concurrent calls from multiple Load invocations.
func (e *Engine) initHost(ctx context.Context) error {
	if e.hostInitDone.Load() {
		return nil
	}

	e.hostInitMu.Lock()
	defer e.hostInitMu.Unlock()

	if e.hostInitDone.Load() {
		return nil
	}

	_, err := e.runtime.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(hostWrite),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil).
		Export(HostWrite).
		Instantiate(ctx)
	if err != nil {
		return errors.Load("instantiate host module", err)
	}

	e.hostInitDone.Store(true)
	return nil
}

// Load compiles and instantiates a library binary.
//
// The returned Instance keeps ctx for the synchronous foreign calls made
// through it, mirroring the lifetime of the instantiation.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Instance, error) {
	if err := e.initHost(ctx); err != nil {
		return nil, err
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile library module", err)
	}

	// Anonymous name so several instances of the same binary can coexist.
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Load("instantiate library module", err)
	}

	inst := &Instance{
		module:    mod,
		callCtx:   ctx,
		funcCache: make(map[string]api.Function),
		stackBuf:  make([]uint64, 16),
	}

	if mem := mod.Memory(); mem != nil {
		inst.memory = &Memory{mem: mem}
	}
	inst.allocFn = mod.ExportedFunction(allocExport)
	inst.freeFn = mod.ExportedFunction(freeExport)

	Logger().Debug("library module loaded",
		zap.Int("binary_bytes", len(wasmBytes)),
		zap.Bool("allocator", inst.allocFn != nil))

	return inst, nil
}
