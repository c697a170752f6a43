// Package plugin routes proxy-wasm lifecycle callbacks to user contexts.
//
// A guest registers a root context factory from init (the reactor's start
// entry point) with SetRootContext. The host then creates root contexts
// (parent 0) and HTTP contexts (parent != 0) by id and drives them through
// the exported entry points; the Dispatcher keeps the id to context maps.
package plugin

import "github.com/mosn/layotto/domain/entities"

// Context is the part shared by every context kind.
type Context interface {
	// OnDone is called when the host is about to delete the context.
	// Returning false asks the host to wait.
	OnDone() bool
	// OnDelete is called when the host deletes the context.
	OnDelete()
}

// RootContext lives as long as its plugin configuration.
type RootContext interface {
	Context
	OnVMStart(vmConfigurationSize int) bool
	OnConfigure(pluginConfigurationSize int) bool
	// NewHttpContext creates the context for one HTTP stream. A false
	// result means the root does not produce HTTP contexts.
	NewHttpContext(contextID uint32) (HttpContext, bool)
	// ContextType declares what kind of children the root creates.
	ContextType() (entities.ContextType, bool)
}

// HttpContext handles a single HTTP stream.
type HttpContext interface {
	Context
	OnHttpRequestHeaders(numHeaders int, endOfStream bool) entities.Action
	OnHttpRequestBody(bodySize int, endOfStream bool) entities.Action
	OnHttpRequestTrailers(numTrailers int) entities.Action
}

// ContextDefaults implements Context with no-ops.
type ContextDefaults struct{}

func (ContextDefaults) OnDone() bool { return true }
func (ContextDefaults) OnDelete()    {}

// RootContextDefaults implements RootContext with no-ops. Embed it and
// override only what is needed.
type RootContextDefaults struct {
	ContextDefaults
}

func (RootContextDefaults) OnVMStart(int) bool   { return true }
func (RootContextDefaults) OnConfigure(int) bool { return true }

func (RootContextDefaults) NewHttpContext(uint32) (HttpContext, bool) {
	return nil, false
}

func (RootContextDefaults) ContextType() (entities.ContextType, bool) {
	return 0, false
}

// HttpContextDefaults implements HttpContext with callbacks that let the
// stream continue.
type HttpContextDefaults struct {
	ContextDefaults
}

func (HttpContextDefaults) OnHttpRequestHeaders(int, bool) entities.Action {
	return entities.ActionContinue
}

func (HttpContextDefaults) OnHttpRequestBody(int, bool) entities.Action {
	return entities.ActionContinue
}

func (HttpContextDefaults) OnHttpRequestTrailers(int) entities.Action {
	return entities.ActionContinue
}

// DefaultRootContext is a root for modules with a single HTTP context type
// T. It declares ContextTypeHttpContext and hands every stream a fresh zero
// T.
//
//	plugin.SetRootContext(plugin.NewDefaultRootContext[inventoryContext])
type DefaultRootContext[T any, PT interface {
	*T
	HttpContext
}] struct {
	RootContextDefaults
}

// NewDefaultRootContext is a root context factory for DefaultRootContext.
func NewDefaultRootContext[T any, PT interface {
	*T
	HttpContext
}](uint32) RootContext {
	return &DefaultRootContext[T, PT]{}
}

func (*DefaultRootContext[T, PT]) NewHttpContext(uint32) (HttpContext, bool) {
	return PT(new(T)), true
}

func (*DefaultRootContext[T, PT]) ContextType() (entities.ContextType, bool) {
	return entities.ContextTypeHttpContext, true
}
