package plugin

import (
	"sync"

	"github.com/mosn/layotto/domain/entities"
	sdkerrors "github.com/mosn/layotto/domain/errors"
)

// RootContextFactory creates the root context for contextID.
type RootContextFactory func(contextID uint32) RootContext

// HttpContextFactory creates the HTTP context contextID under the root
// rootContextID. When registered it takes precedence over the roots' own
// NewHttpContext.
type HttpContextFactory func(contextID, rootContextID uint32) HttpContext

type httpContextEntry struct {
	ctx    HttpContext
	rootID uint32
}

// Dispatcher owns the live contexts of a module instance and routes host
// callbacks to them. Every failure it reports is a
// *errors.ContractViolationError. It is not safe for concurrent use; the
// host calls a module instance from one thread at a time.
type Dispatcher struct {
	newRootContext RootContextFactory
	newHttpContext HttpContextFactory
	rootContexts   map[uint32]RootContext
	httpContexts   map[uint32]httpContextEntry
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		rootContexts: make(map[uint32]RootContext),
		httpContexts: make(map[uint32]httpContextEntry),
	}
}

var defaultDispatcher = sync.OnceValue(NewDispatcher)

// Default returns the process-wide Dispatcher used by the exported entry
// points.
func Default() *Dispatcher {
	return defaultDispatcher()
}

// SetRootContext registers the root context factory.
func (d *Dispatcher) SetRootContext(factory RootContextFactory) {
	d.newRootContext = factory
}

// SetHttpContext registers a factory that creates every HTTP context,
// whatever its root.
func (d *Dispatcher) SetHttpContext(factory HttpContextFactory) {
	d.newHttpContext = factory
}

// CreateContext creates a root context when parentID is 0 and an HTTP
// context otherwise.
func (d *Dispatcher) CreateContext(contextID, parentID uint32) error {
	if d.isLive(contextID) {
		return violation(sdkerrors.ErrDuplicateContextID, contextID, parentID)
	}
	if parentID == 0 {
		return d.createRootContext(contextID)
	}
	return d.createHttpContext(contextID, parentID)
}

func (d *Dispatcher) createRootContext(contextID uint32) error {
	if d.newRootContext == nil {
		return violation(sdkerrors.ErrMissingRootFactory, contextID, 0)
	}
	root := d.newRootContext(contextID)
	if root == nil {
		return violation(sdkerrors.ErrFactoryReturnedNone, contextID, 0)
	}
	d.rootContexts[contextID] = root
	return nil
}

func (d *Dispatcher) createHttpContext(contextID, rootID uint32) error {
	root, ok := d.rootContexts[rootID]
	if !ok {
		return violation(sdkerrors.ErrUnknownRootContext, contextID, rootID)
	}
	if d.newHttpContext != nil {
		ctx := d.newHttpContext(contextID, rootID)
		if ctx == nil {
			return violation(sdkerrors.ErrFactoryReturnedNone, contextID, rootID)
		}
		d.httpContexts[contextID] = httpContextEntry{ctx: ctx, rootID: rootID}
		return nil
	}

	if typ, ok := root.ContextType(); !ok || typ != entities.ContextTypeHttpContext {
		return violation(sdkerrors.ErrUnknownContextType, contextID, rootID)
	}
	ctx, ok := root.NewHttpContext(contextID)
	if !ok || ctx == nil {
		return violation(sdkerrors.ErrFactoryReturnedNone, contextID, rootID)
	}
	d.httpContexts[contextID] = httpContextEntry{ctx: ctx, rootID: rootID}
	return nil
}

// OnHttpRequestHeaders forwards to the HTTP context contextID.
func (d *Dispatcher) OnHttpRequestHeaders(contextID uint32, numHeaders int, endOfStream bool) (entities.Action, error) {
	ctx, err := d.httpContext(contextID)
	if err != nil {
		return entities.ActionContinue, err
	}
	return ctx.OnHttpRequestHeaders(numHeaders, endOfStream), nil
}

// OnHttpRequestBody forwards to the HTTP context contextID.
func (d *Dispatcher) OnHttpRequestBody(contextID uint32, bodySize int, endOfStream bool) (entities.Action, error) {
	ctx, err := d.httpContext(contextID)
	if err != nil {
		return entities.ActionContinue, err
	}
	return ctx.OnHttpRequestBody(bodySize, endOfStream), nil
}

// OnHttpRequestTrailers forwards to the HTTP context contextID.
func (d *Dispatcher) OnHttpRequestTrailers(contextID uint32, numTrailers int) (entities.Action, error) {
	ctx, err := d.httpContext(contextID)
	if err != nil {
		return entities.ActionContinue, err
	}
	return ctx.OnHttpRequestTrailers(numTrailers), nil
}

// OnVMStart forwards to the root context contextID.
func (d *Dispatcher) OnVMStart(contextID uint32, vmConfigurationSize int) (bool, error) {
	root, err := d.rootContext(contextID)
	if err != nil {
		return false, err
	}
	return root.OnVMStart(vmConfigurationSize), nil
}

// OnConfigure forwards to the root context contextID.
func (d *Dispatcher) OnConfigure(contextID uint32, pluginConfigurationSize int) (bool, error) {
	root, err := d.rootContext(contextID)
	if err != nil {
		return false, err
	}
	return root.OnConfigure(pluginConfigurationSize), nil
}

// OnDone forwards to whichever context owns contextID.
func (d *Dispatcher) OnDone(contextID uint32) (bool, error) {
	ctx, err := d.context(contextID)
	if err != nil {
		return false, err
	}
	return ctx.OnDone(), nil
}

// OnDelete forwards to the context and forgets it.
func (d *Dispatcher) OnDelete(contextID uint32) error {
	ctx, err := d.context(contextID)
	if err != nil {
		return err
	}
	ctx.OnDelete()
	delete(d.rootContexts, contextID)
	delete(d.httpContexts, contextID)
	return nil
}

// RootContextID returns the root an HTTP context was created under.
func (d *Dispatcher) RootContextID(contextID uint32) (uint32, bool) {
	e, ok := d.httpContexts[contextID]
	return e.rootID, ok
}

func (d *Dispatcher) isLive(contextID uint32) bool {
	_, root := d.rootContexts[contextID]
	_, stream := d.httpContexts[contextID]
	return root || stream
}

func (d *Dispatcher) httpContext(contextID uint32) (HttpContext, error) {
	e, ok := d.httpContexts[contextID]
	if !ok {
		return nil, violation(sdkerrors.ErrUnknownContextID, contextID, 0)
	}
	return e.ctx, nil
}

func (d *Dispatcher) rootContext(contextID uint32) (RootContext, error) {
	root, ok := d.rootContexts[contextID]
	if !ok {
		return nil, violation(sdkerrors.ErrUnknownContextID, contextID, 0)
	}
	return root, nil
}

func (d *Dispatcher) context(contextID uint32) (Context, error) {
	if root, ok := d.rootContexts[contextID]; ok {
		return root, nil
	}
	if e, ok := d.httpContexts[contextID]; ok {
		return e.ctx, nil
	}
	return nil, violation(sdkerrors.ErrUnknownContextID, contextID, 0)
}

func violation(err error, contextID, parentID uint32) error {
	return &sdkerrors.ContractViolationError{Err: err, ContextID: contextID, ParentID: parentID}
}

// SetRootContext registers the root context factory of the module. Call it
// from init.
func SetRootContext(factory RootContextFactory) {
	Default().SetRootContext(factory)
}

// SetHttpContext registers a module-wide HTTP context factory that takes
// precedence over the roots' own NewHttpContext.
func SetHttpContext(factory HttpContextFactory) {
	Default().SetHttpContext(factory)
}
