package plugin

import (
	"context"
	"log/slog"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/internal/abi"
	"github.com/mosn/layotto/log"
	"github.com/mosn/layotto/proxywasm"
)

// Entry adapts a Dispatcher to the host-facing calling convention. A
// contract violation is logged at critical level and then panics, which
// traps the module instance; the host must not keep using it.
type Entry struct {
	d  *Dispatcher
	id string
}

// EntryFor returns the entry points backed by d.
func EntryFor(d *Dispatcher) Entry {
	return Entry{d: d, id: functionID}
}

var functionID string

// SetFunctionID sets the id proxy_get_id reports. Layotto uses it to route
// proxy_invoke_service calls between functions.
func SetFunctionID(id string) {
	functionID = id
}

func (e Entry) OnContextCreate(contextID, parentID uint32) {
	must(e.d.CreateContext(contextID, parentID))
}

func (e Entry) OnRequestHeaders(contextID uint32, numHeaders int, endOfStream bool) entities.Action {
	return mustValue(e.d.OnHttpRequestHeaders(contextID, numHeaders, endOfStream))
}

func (e Entry) OnRequestBody(contextID uint32, bodySize int, endOfStream bool) entities.Action {
	return mustValue(e.d.OnHttpRequestBody(contextID, bodySize, endOfStream))
}

func (e Entry) OnRequestTrailers(contextID uint32, numTrailers int) entities.Action {
	return mustValue(e.d.OnHttpRequestTrailers(contextID, numTrailers))
}

func (e Entry) OnVMStart(contextID uint32, vmConfigurationSize int) bool {
	return mustValue(e.d.OnVMStart(contextID, vmConfigurationSize))
}

func (e Entry) OnConfigure(contextID uint32, pluginConfigurationSize int) bool {
	return mustValue(e.d.OnConfigure(contextID, pluginConfigurationSize))
}

func (e Entry) OnDone(contextID uint32) bool {
	return mustValue(e.d.OnDone(contextID))
}

func (e Entry) OnDelete(contextID uint32) {
	must(e.d.OnDelete(contextID))
}

// OnGetID writes the function id into the call data buffer. Modules
// without an id leave the buffer alone.
func (e Entry) OnGetID() {
	if e.id == "" {
		return
	}
	must(proxywasm.SetCallData([]byte(e.id)))
}

// OnMemoryAllocate serves proxy_on_memory_allocate.
func OnMemoryAllocate(size uint32) uint32 {
	return abi.Allocate(size)
}

// ABIVersion marks ABI 0.2.0 support. It has no behavior.
func ABIVersion() {}

func must(err error) {
	if err == nil {
		return
	}
	slog.Log(context.Background(), log.LevelCritical, "proxy-wasm: aborting host call", "error", err)
	panic(err)
}

func mustValue[T any](v T, err error) T {
	must(err)
	return v
}
