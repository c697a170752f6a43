package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/mosn/layotto/hostfuncs"
)

// Executor owns a wazero runtime with the proxy-wasm imports registered.
// Plugins loaded by one executor share its state.
type Executor struct {
	runtime wazero.Runtime
	state   *hostfuncs.State
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := executorConfig{
		logger: slog.Default(),
		stdout: io.Discard,
		stderr: io.Discard,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	state := cfg.state
	if state == nil {
		var err error
		state, err = hostfuncs.NewState(append([]hostfuncs.Option{hostfuncs.WithLogger(cfg.logger)}, cfg.stateOpts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create host state: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.memoryPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	e := &Executor{
		runtime: rt,
		state:   state,
		logger:  cfg.logger,
		stdout:  cfg.stdout,
		stderr:  cfg.stderr,
	}
	if err := e.registerHostFunctions(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}
	return e, nil
}

// State returns the host data the imports are served from.
func (e *Executor) State() *hostfuncs.State {
	return e.state
}

// Close releases resources held by the executor and every plugin it loaded.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadPlugin compiles and instantiates a guest. The reactor's _initialize
// runs first, so package init functions have registered the root context
// before any lifecycle export is called.
func (e *Executor) LoadPlugin(ctx context.Context, wasmBytes []byte) (*PluginInstance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithStdout(e.stdout).
		WithStderr(e.stderr)
	mod, err := e.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	p := &PluginInstance{module: mod, state: e.state, logger: e.logger}
	if err := p.checkABI(ctx); err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return p, nil
}
