//go:build !wasip1

// Package proxytest runs guest code natively against an in-process proxy.
//
// A HostEmulator answers the proxy-wasm imports from a hostfuncs.State and
// drives the plugin entry points the way a proxy would, so a plugin's
// contexts can be unit tested with `go test` and no WASM runtime.
package proxytest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mosn/layotto/application/plugin"
	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/hostfuncs"
	"github.com/mosn/layotto/internal/abi"
	"github.com/mosn/layotto/internal/imports"
)

// Import names accepted by InjectStatus.
const (
	ImportLog                 = "proxy_log"
	ImportGetBufferBytes      = "proxy_get_buffer_bytes"
	ImportSetBufferBytes      = "proxy_set_buffer_bytes"
	ImportGetHeaderMapValue   = "proxy_get_header_map_value"
	ImportReplaceHeaderMap    = "proxy_replace_header_map_value"
	ImportGetState            = "proxy_get_state"
	ImportInvokeService       = "proxy_invoke_service"
	ImportCallForeignFunction = "proxy_call_foreign_function"
)

// Context ids are unique per process so that emulators sharing the default
// dispatcher never collide.
var lastContextID atomic.Uint32

func nextContextID() uint32 {
	return lastContextID.Add(1)
}

// HostEmulator is an in-process proxy. Only one emulator can be installed at
// a time; Close uninstalls it.
type HostEmulator struct {
	state    *hostfuncs.State
	entry    plugin.Entry
	injected map[string]entities.Status
	live     map[uint32]bool
	restore  func()
	mu       sync.Mutex
}

type config struct {
	dispatcher *plugin.Dispatcher
	logger     *slog.Logger
	stateOpts  []hostfuncs.Option
}

// Option configures a HostEmulator.
type Option func(*config)

// WithDispatcher drives d instead of the module-wide default dispatcher.
func WithDispatcher(d *plugin.Dispatcher) Option {
	return func(c *config) {
		c.dispatcher = d
	}
}

// WithHostOptions configures the emulated host state: buffers, headers,
// stores, services and foreign functions.
func WithHostOptions(opts ...hostfuncs.Option) Option {
	return func(c *config) {
		c.stateOpts = append(c.stateOpts, opts...)
	}
}

// WithLogger receives the host-side log output. It must not be a logger
// that writes through proxy_log.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// NewHostEmulator builds the emulator and installs it as the import host.
func NewHostEmulator(opts ...Option) (*HostEmulator, error) {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dispatcher == nil {
		cfg.dispatcher = plugin.Default()
	}

	state, err := hostfuncs.NewState(append([]hostfuncs.Option{hostfuncs.WithLogger(cfg.logger)}, cfg.stateOpts...)...)
	if err != nil {
		return nil, err
	}

	e := &HostEmulator{
		state:    state,
		entry:    plugin.EntryFor(cfg.dispatcher),
		injected: make(map[string]entities.Status),
		live:     make(map[uint32]bool),
	}
	e.restore = imports.Install(e)
	return e, nil
}

// Close deletes the contexts the emulator created, uninstalls it and drops
// any guest allocation the host never handed back.
func (e *HostEmulator) Close() {
	for id := range e.liveIDs() {
		e.entry.OnDelete(id)
	}
	e.restore()
	abi.FreeAllTracked()
}

// State exposes the emulated host data.
func (e *HostEmulator) State() *hostfuncs.State {
	return e.state
}

// InjectStatus makes the next call of importName fail with status instead
// of being served.
func (e *HostEmulator) InjectStatus(importName string, status entities.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.injected[importName] = status
}

func (e *HostEmulator) takeInjected(importName string) (entities.Status, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	status, ok := e.injected[importName]
	delete(e.injected, importName)
	return status, ok
}

func (e *HostEmulator) liveIDs() map[uint32]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make(map[uint32]bool, len(e.live))
	for id := range e.live {
		ids[id] = true
	}
	return ids
}

func (e *HostEmulator) track(id uint32, live bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if live {
		e.live[id] = true
	} else {
		delete(e.live, id)
	}
}

// CreateRootContext asks the guest to create a root context and returns its id.
func (e *HostEmulator) CreateRootContext() uint32 {
	id := nextContextID()
	e.entry.OnContextCreate(id, 0)
	e.track(id, true)
	return id
}

// StartVM calls proxy_on_vm_start with the size of the VM configuration.
func (e *HostEmulator) StartVM(rootID uint32) bool {
	cfg, _ := e.state.Buffer(entities.BufferTypeVMConfiguration)
	return e.entry.OnVMStart(rootID, len(cfg))
}

// Configure calls proxy_on_configure with the size of the plugin configuration.
func (e *HostEmulator) Configure(rootID uint32) bool {
	cfg, _ := e.state.Buffer(entities.BufferTypePluginConfiguration)
	return e.entry.OnConfigure(rootID, len(cfg))
}

// StartPlugin creates a root context, starts the VM and configures the
// plugin, as a proxy does when it loads a module.
func (e *HostEmulator) StartPlugin() (rootID uint32, ok bool) {
	rootID = e.CreateRootContext()
	return rootID, e.StartVM(rootID) && e.Configure(rootID)
}

// CreateHttpContext starts a new request under rootID. Request buffers and
// header maps of the previous request are dropped.
func (e *HostEmulator) CreateHttpContext(rootID uint32) uint32 {
	e.state.ResetRequest()
	id := nextContextID()
	e.entry.OnContextCreate(id, rootID)
	e.track(id, true)
	return id
}

// CallOnRequestHeaders adds headers to the request and delivers them.
func (e *HostEmulator) CallOnRequestHeaders(contextID uint32, headers [][2]string, endOfStream bool) entities.Action {
	for _, h := range headers {
		e.state.PutHeader(entities.MapTypeHttpRequestHeaders, h[0], h[1])
	}
	return e.entry.OnRequestHeaders(contextID, len(headers), endOfStream)
}

// CallOnRequestBody appends body to the request body and delivers it.
func (e *HostEmulator) CallOnRequestBody(contextID uint32, body []byte, endOfStream bool) entities.Action {
	prev, _ := e.state.Buffer(entities.BufferTypeHttpRequestBody)
	all := append(prev, body...)
	e.state.PutBuffer(entities.BufferTypeHttpRequestBody, all)
	return e.entry.OnRequestBody(contextID, len(all), endOfStream)
}

// CallOnRequestTrailers adds trailers to the request and delivers them.
func (e *HostEmulator) CallOnRequestTrailers(contextID uint32, trailers [][2]string) entities.Action {
	for _, h := range trailers {
		e.state.PutHeader(entities.MapTypeHttpRequestTrailers, h[0], h[1])
	}
	return e.entry.OnRequestTrailers(contextID, len(trailers))
}

// CompleteContext runs proxy_on_done and, when the guest agrees, proxy_on_delete.
func (e *HostEmulator) CompleteContext(contextID uint32) bool {
	if !e.entry.OnDone(contextID) {
		return false
	}
	e.DeleteContext(contextID)
	return true
}

// DeleteContext runs proxy_on_delete.
func (e *HostEmulator) DeleteContext(contextID uint32) {
	e.entry.OnDelete(contextID)
	e.track(contextID, false)
}

// GetID runs proxy_get_id and returns what the guest wrote to the call data.
func (e *HostEmulator) GetID() string {
	e.entry.OnGetID()
	id, _ := e.state.Buffer(entities.BufferTypeCallData)
	return string(id)
}

// ResponseBody returns the response body written by the guest.
func (e *HostEmulator) ResponseBody() ([]byte, bool) {
	return e.state.Buffer(entities.BufferTypeHttpResponseBody)
}

// Logs returns the messages the guest logged at level.
func (e *HostEmulator) Logs(level entities.LogLevel) []string {
	return e.state.LogsAt(level)
}

// deliver copies data into guest memory the way a proxy does: through the
// guest's allocator, then reporting the address and size. A nil slice is
// reported as a null pointer.
func (e *HostEmulator) deliver(data []byte, status entities.Status, returnData, returnSize *uint32) entities.Status {
	if status != entities.StatusOK || data == nil {
		return status
	}
	ptr := plugin.OnMemoryAllocate(uint32(len(data)))
	copy(abi.Region(ptr), data)
	*returnData = ptr
	*returnSize = uint32(len(data))
	return status
}

func (e *HostEmulator) ProxyLog(level entities.LogLevel, message string) entities.Status {
	if status, ok := e.takeInjected(ImportLog); ok {
		return status
	}
	e.state.Log(level, message)
	return entities.StatusOK
}

func (e *HostEmulator) ProxyGetBufferBytes(bufferType entities.BufferType, start, maxSize uint32, returnData, returnSize *uint32) entities.Status {
	if status, ok := e.takeInjected(ImportGetBufferBytes); ok {
		return status
	}
	data, status := e.state.GetBufferBytes(bufferType, start, maxSize)
	return e.deliver(data, status, returnData, returnSize)
}

func (e *HostEmulator) ProxySetBufferBytes(bufferType entities.BufferType, start, size uint32, data []byte) entities.Status {
	if status, ok := e.takeInjected(ImportSetBufferBytes); ok {
		return status
	}
	return e.state.SetBufferBytes(bufferType, start, size, data)
}

func (e *HostEmulator) ProxyGetHeaderMapValue(mapType entities.MapType, key string, returnData, returnSize *uint32) entities.Status {
	if status, ok := e.takeInjected(ImportGetHeaderMapValue); ok {
		return status
	}
	value, status := e.state.GetMapValue(mapType, key)
	return e.deliver(append([]byte{}, value...), status, returnData, returnSize)
}

func (e *HostEmulator) ProxyReplaceHeaderMapValue(mapType entities.MapType, key, value string) entities.Status {
	if status, ok := e.takeInjected(ImportReplaceHeaderMap); ok {
		return status
	}
	return e.state.ReplaceMapValue(mapType, key, value)
}

func (e *HostEmulator) ProxyGetState(storeName, key string, returnData, returnSize *uint32) entities.Status {
	if status, ok := e.takeInjected(ImportGetState); ok {
		return status
	}
	data, status := e.state.GetState(storeName, key)
	return e.deliver(data, status, returnData, returnSize)
}

func (e *HostEmulator) ProxyInvokeService(id, method string, param []byte, returnData, returnSize *uint32) entities.Status {
	if status, ok := e.takeInjected(ImportInvokeService); ok {
		return status
	}
	data, status := e.state.InvokeService(context.Background(), id, method, param)
	return e.deliver(data, status, returnData, returnSize)
}

func (e *HostEmulator) ProxyCallForeignFunction(name string, args []byte, returnData, returnSize *uint32) entities.Status {
	if status, ok := e.takeInjected(ImportCallForeignFunction); ok {
		return status
	}
	data, status := e.state.CallForeignFunction(context.Background(), name, args)
	return e.deliver(data, status, returnData, returnSize)
}
