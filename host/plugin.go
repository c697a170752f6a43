package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/hostfuncs"
)

// ErrNotProxyWasm is returned by LoadPlugin for modules without the
// proxy_abi_version_0_2_0 marker.
var ErrNotProxyWasm = errors.New("module does not export proxy_abi_version_0_2_0")

// PluginInstance is an instantiated guest. Lifecycle calls are serialized:
// a guest is single-threaded.
type PluginInstance struct {
	module api.Module
	state  *hostfuncs.State
	logger *slog.Logger

	mu     sync.Mutex
	lastID uint32
}

// Module exposes the underlying wazero module.
func (p *PluginInstance) Module() api.Module {
	return p.module
}

// Close releases the guest instance.
func (p *PluginInstance) Close(ctx context.Context) error {
	return p.module.Close(ctx)
}

func (p *PluginInstance) checkABI(ctx context.Context) error {
	if p.module.ExportedFunction("proxy_abi_version_0_2_0") == nil {
		return ErrNotProxyWasm
	}
	_, err := p.call(ctx, "proxy_abi_version_0_2_0")
	return err
}

// call invokes an export with uint32 parameters and returns its first
// result, or 0 when it has none.
func (p *PluginInstance) call(ctx context.Context, name string, params ...uint32) (uint32, error) {
	f := p.module.ExportedFunction(name)
	if f == nil {
		return 0, fmt.Errorf("export %q not found", name)
	}

	args := make([]uint64, len(params))
	for i, v := range params {
		args[i] = api.EncodeU32(v)
	}

	p.mu.Lock()
	results, err := f.Call(ctx, args...)
	p.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return api.DecodeU32(results[0]), nil
}

func (p *PluginInstance) callBool(ctx context.Context, name string, params ...uint32) (bool, error) {
	r, err := p.call(ctx, name, params...)
	return r != 0, err
}

func (p *PluginInstance) callAction(ctx context.Context, name string, params ...uint32) (entities.Action, error) {
	r, err := p.call(ctx, name, params...)
	return entities.Action(r), err
}

func boolParam(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// NextContextID returns a context id not used before by this instance.
func (p *PluginInstance) NextContextID() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastID++
	return p.lastID
}

// CreateContext calls proxy_on_context_create. A parentID of 0 creates a
// root context.
func (p *PluginInstance) CreateContext(ctx context.Context, contextID, parentID uint32) error {
	_, err := p.call(ctx, "proxy_on_context_create", contextID, parentID)
	return err
}

// StartVM calls proxy_on_vm_start.
func (p *PluginInstance) StartVM(ctx context.Context, rootID uint32, vmConfigurationSize int) (bool, error) {
	return p.callBool(ctx, "proxy_on_vm_start", rootID, uint32(vmConfigurationSize))
}

// Configure calls proxy_on_configure.
func (p *PluginInstance) Configure(ctx context.Context, rootID uint32, pluginConfigurationSize int) (bool, error) {
	return p.callBool(ctx, "proxy_on_configure", rootID, uint32(pluginConfigurationSize))
}

// Start creates a root context, starts the VM and configures the plugin
// with the sizes of the configuration buffers held by the executor's state.
func (p *PluginInstance) Start(ctx context.Context, vmConfigurationSize, pluginConfigurationSize int) (rootID uint32, err error) {
	rootID = p.NextContextID()
	if err := p.CreateContext(ctx, rootID, 0); err != nil {
		return 0, err
	}
	ok, err := p.StartVM(ctx, rootID, vmConfigurationSize)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("plugin refused to start")
	}
	ok, err = p.Configure(ctx, rootID, pluginConfigurationSize)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("plugin rejected its configuration")
	}
	p.logger.Debug("plugin started", "root_context_id", rootID)
	return rootID, nil
}

// OnRequestHeaders calls proxy_on_request_headers.
func (p *PluginInstance) OnRequestHeaders(ctx context.Context, contextID uint32, numHeaders int, endOfStream bool) (entities.Action, error) {
	return p.callAction(ctx, "proxy_on_request_headers", contextID, uint32(numHeaders), boolParam(endOfStream))
}

// OnRequestBody calls proxy_on_request_body.
func (p *PluginInstance) OnRequestBody(ctx context.Context, contextID uint32, bodySize int, endOfStream bool) (entities.Action, error) {
	return p.callAction(ctx, "proxy_on_request_body", contextID, uint32(bodySize), boolParam(endOfStream))
}

// OnRequestTrailers calls proxy_on_request_trailers.
func (p *PluginInstance) OnRequestTrailers(ctx context.Context, contextID uint32, numTrailers int) (entities.Action, error) {
	return p.callAction(ctx, "proxy_on_request_trailers", contextID, uint32(numTrailers))
}

// Done calls proxy_on_done and, when the guest agrees, proxy_on_delete.
func (p *PluginInstance) Done(ctx context.Context, contextID uint32) (bool, error) {
	done, err := p.callBool(ctx, "proxy_on_done", contextID)
	if err != nil || !done {
		return done, err
	}
	return true, p.Delete(ctx, contextID)
}

// Delete calls proxy_on_delete.
func (p *PluginInstance) Delete(ctx context.Context, contextID uint32) error {
	_, err := p.call(ctx, "proxy_on_delete", contextID)
	return err
}

// GetID calls proxy_get_id. The guest answers by writing its id to the
// CallData buffer; ok is false when the guest does not export it.
func (p *PluginInstance) GetID(ctx context.Context) (ok bool, err error) {
	if p.module.ExportedFunction("proxy_get_id") == nil {
		return false, nil
	}
	_, err = p.call(ctx, "proxy_get_id")
	return err == nil, err
}
