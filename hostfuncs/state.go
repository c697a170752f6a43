package hostfuncs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mosn/layotto/domain/entities"
)

// LogEntry is one proxy_log call as seen by the host.
type LogEntry struct {
	Message string
	Level   entities.LogLevel
}

// State is the host-side data a guest can reach through the proxy-wasm
// imports. Request-scoped data (body buffers, header maps) and long-lived
// data (configuration buffers, stores, services) live side by side;
// ResetRequest clears the former.
type State struct {
	logger   *slog.Logger
	services *HandlerRegistry
	foreign  *HandlerRegistry
	buffers  map[entities.BufferType][]byte
	maps     map[entities.MapType]*HeaderMap
	stores   map[string]map[string][]byte
	logs     []LogEntry
	mu       sync.Mutex
}

type stateBuilder struct {
	state      *State
	services   []RegistryOption
	foreign    []RegistryOption
	middleware []Middleware
}

// Option configures a State.
type Option func(*stateBuilder)

// NewState creates a State. Handler registration errors (empty or duplicate
// names) are reported here.
func NewState(opts ...Option) (*State, error) {
	b := &stateBuilder{
		state: &State{
			logger:  slog.Default(),
			buffers: make(map[entities.BufferType][]byte),
			maps:    make(map[entities.MapType]*HeaderMap),
			stores:  make(map[string]map[string][]byte),
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	s := b.state
	mw := append([]Middleware{PanicRecoveryMiddleware(), LoggingMiddleware(s.logger)}, b.middleware...)

	var err error
	s.services, err = NewRegistry(append(b.services, WithMiddleware(mw...))...)
	if err != nil {
		return nil, err
	}
	s.foreign, err = NewRegistry(append(b.foreign, WithMiddleware(mw...))...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// WithLogger sets the logger used for guest logs and handler tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(b *stateBuilder) {
		if logger != nil {
			b.state.logger = logger
		}
	}
}

// WithBuffer preloads a buffer, typically the VM or plugin configuration.
func WithBuffer(bufferType entities.BufferType, data []byte) Option {
	return func(b *stateBuilder) {
		b.state.buffers[bufferType] = append([]byte{}, data...)
	}
}

// WithHeader preloads a header pair.
func WithHeader(mapType entities.MapType, key, value string) Option {
	return func(b *stateBuilder) {
		b.state.headerMap(mapType).Add(key, value)
	}
}

// WithStoreValue preloads key in the state store storeName.
func WithStoreValue(storeName, key string, value []byte) Option {
	return func(b *stateBuilder) {
		b.state.putState(storeName, key, value)
	}
}

// WithService registers the handler of a service reachable through
// proxy_invoke_service.
func WithService(id string, fn ServiceFunc) Option {
	return func(b *stateBuilder) {
		b.services = append(b.services, WithServiceHandler(id, fn))
	}
}

// WithForeignFunction registers a function reachable through
// proxy_call_foreign_function.
func WithForeignFunction(name string, handler ByteHandler) Option {
	return func(b *stateBuilder) {
		b.foreign = append(b.foreign, WithByteHandler(name, handler))
	}
}

// WithLayottoFunctions registers the SayHello and State foreign functions.
func WithLayottoFunctions(greet Greeter) Option {
	return func(b *stateBuilder) {
		b.foreign = append(b.foreign,
			WithByteHandler(SayHelloFunction, SayHelloFunc(greet)),
			WithByteHandler(StateFunction, StateFunc()),
		)
	}
}

// WithHandlerMiddleware wraps every service and foreign function, inside the
// built-in panic recovery and logging.
func WithHandlerMiddleware(mw ...Middleware) Option {
	return func(b *stateBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// Logger returns the logger the State reports to.
func (s *State) Logger() *slog.Logger {
	return s.logger
}

// Log records a guest log line and forwards it to the logger.
func (s *State) Log(level entities.LogLevel, message string) {
	s.mu.Lock()
	s.logs = append(s.logs, LogEntry{Level: level, Message: message})
	s.mu.Unlock()

	s.logger.Log(context.Background(), SlogLevel(level), message, "source", "guest")
}

// Logs returns every recorded guest log line.
func (s *State) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// LogsAt returns the messages logged at level.
func (s *State) LogsAt(level entities.LogLevel) []string {
	var out []string
	for _, e := range s.Logs() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Buffer returns a copy of a buffer.
func (s *State) Buffer(bufferType entities.BufferType) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[bufferType]
	if !ok {
		return nil, false
	}
	return append([]byte{}, buf...), true
}

// PutBuffer replaces a buffer.
func (s *State) PutBuffer(bufferType entities.BufferType, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[bufferType] = append([]byte{}, data...)
}

// GetBufferBytes serves proxy_get_buffer_bytes. At most maxSize bytes from
// start are returned. A missing buffer is NotFound; start past the end is
// BadArgument.
func (s *State) GetBufferBytes(bufferType entities.BufferType, start, maxSize uint32) ([]byte, entities.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[bufferType]
	if !ok {
		return nil, entities.StatusNotFound
	}
	if uint64(start) > uint64(len(buf)) {
		return nil, entities.StatusBadArgument
	}
	end := uint64(start) + uint64(maxSize)
	if end > uint64(len(buf)) {
		end = uint64(len(buf))
	}
	return append([]byte{}, buf[start:end]...), entities.StatusOK
}

// SetBufferBytes serves proxy_set_buffer_bytes. Writing at offset 0 with a
// size of 0 or at least the current length replaces the buffer; writing at
// or past the end appends. Partial overwrites are rejected with BadArgument.
func (s *State) SetBufferBytes(bufferType entities.BufferType, start, size uint32, data []byte) entities.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.buffers[bufferType]
	switch {
	case start == 0 && (size == 0 || uint64(size) >= uint64(len(cur))):
		s.buffers[bufferType] = append([]byte{}, data...)
	case uint64(start) >= uint64(len(cur)):
		s.buffers[bufferType] = append(append([]byte{}, cur...), data...)
	default:
		return entities.StatusBadArgument
	}
	return entities.StatusOK
}

// Header returns the first value of key in a header map.
func (s *State) Header(mapType entities.MapType, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maps[mapType].Get(key)
}

// Headers returns all pairs of a header map in insertion order.
func (s *State) Headers(mapType entities.MapType) [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maps[mapType].Pairs()
}

// PutHeader appends a header pair.
func (s *State) PutHeader(mapType entities.MapType, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headerMap(mapType).Add(key, value)
}

// GetMapValue serves proxy_get_header_map_value.
func (s *State) GetMapValue(mapType entities.MapType, key string) (string, entities.Status) {
	v, ok := s.Header(mapType, key)
	if !ok {
		return "", entities.StatusNotFound
	}
	return v, entities.StatusOK
}

// ReplaceMapValue serves proxy_replace_header_map_value.
func (s *State) ReplaceMapValue(mapType entities.MapType, key, value string) entities.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headerMap(mapType).Replace(key, value)
	return entities.StatusOK
}

// PutState stores value under key in storeName.
func (s *State) PutState(storeName, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putState(storeName, key, value)
}

// GetState serves proxy_get_state. Unknown stores and keys are NotFound.
func (s *State) GetState(storeName, key string) ([]byte, entities.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.stores[storeName][key]
	if !ok {
		return nil, entities.StatusNotFound
	}
	return append([]byte{}, v...), entities.StatusOK
}

// InvokeService serves proxy_invoke_service.
func (s *State) InvokeService(ctx context.Context, id, method string, payload []byte) ([]byte, entities.Status) {
	ctx = withState(WithMethod(ctx, method), s)
	resp, err := s.services.Invoke(ctx, id, payload)
	if err != nil {
		return nil, StatusOf(err)
	}
	return resp, entities.StatusOK
}

// CallForeignFunction serves proxy_call_foreign_function.
func (s *State) CallForeignFunction(ctx context.Context, name string, args []byte) ([]byte, entities.Status) {
	resp, err := s.foreign.Invoke(withState(ctx, s), name, args)
	if err != nil {
		return nil, StatusOf(err)
	}
	return resp, entities.StatusOK
}

// Services returns the registered service ids.
func (s *State) Services() []string {
	return s.services.Names()
}

// ForeignFunctions returns the registered foreign function names.
func (s *State) ForeignFunctions() []string {
	return s.foreign.Names()
}

// ResetRequest drops the per-request buffers and header maps. Configuration
// buffers, call data, stores and logs are kept.
func (s *State) ResetRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bt := range []entities.BufferType{
		entities.BufferTypeHttpRequestBody,
		entities.BufferTypeHttpResponseBody,
		entities.BufferTypeDownstreamData,
		entities.BufferTypeUpstreamData,
		entities.BufferTypeHttpCallResponseBody,
		entities.BufferTypeGrpcReceiveBuffer,
	} {
		delete(s.buffers, bt)
	}
	clear(s.maps)
}

func (s *State) headerMap(mapType entities.MapType) *HeaderMap {
	m, ok := s.maps[mapType]
	if !ok {
		m = &HeaderMap{}
		s.maps[mapType] = m
	}
	return m
}

func (s *State) putState(storeName, key string, value []byte) {
	store, ok := s.stores[storeName]
	if !ok {
		store = make(map[string][]byte)
		s.stores[storeName] = store
	}
	store[key] = append([]byte{}, value...)
}

// SlogLevel maps a proxy-wasm log level onto slog.
func SlogLevel(level entities.LogLevel) slog.Level {
	switch level {
	case entities.LogLevelTrace:
		return slog.LevelDebug - 4
	case entities.LogLevelDebug:
		return slog.LevelDebug
	case entities.LogLevelInfo:
		return slog.LevelInfo
	case entities.LogLevelWarn:
		return slog.LevelWarn
	case entities.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}
