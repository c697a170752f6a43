// Package log provides structured logging (slog) routed through proxy_log.
//
// Importing the package installs a Handler as the slog default, so guest
// code logs with the standard slog functions. Records are flattened into a
// single line, "message key=value ...", and sent at the proxy-wasm level
// matching the slog level.
package log

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/mosn/layotto/domain/entities"
)

// Levels beyond the four slog defines.
const (
	LevelTrace    = slog.Level(-8)
	LevelCritical = slog.Level(12)
)

// Handler implements slog.Handler on top of proxy_log.
type Handler struct {
	opts   handlerConfig
	prefix string // pre-formatted attrs from WithAttrs
	group  string // dotted group path from WithGroup
}

// HandlerOption configures the Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are dropped on the guest side.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file:line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts ...HandlerOption) *Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle formats the record and forwards it to the host.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Message)
	b.WriteString(h.prefix)
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&b, h.group, attr)
		return true
	})
	if h.opts.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		appendAttr(&b, "", slog.String(slog.SourceKey, frame.File+":"+strconv.Itoa(frame.Line)))
	}
	return emit(ProxyLevel(record.Level), b.String())
}

// WithAttrs returns a Handler that adds attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, attr := range attrs {
		appendAttr(&b, h.group, attr)
	}
	h2 := *h
	h2.prefix = b.String()
	return &h2
}

// WithGroup returns a Handler that qualifies later attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = joinKey(h.group, name)
	return &h2
}

// ProxyLevel maps a slog level onto the proxy-wasm level at or below it.
func ProxyLevel(level slog.Level) entities.LogLevel {
	switch {
	case level < slog.LevelDebug:
		return entities.LogLevelTrace
	case level < slog.LevelInfo:
		return entities.LogLevelDebug
	case level < slog.LevelWarn:
		return entities.LogLevelInfo
	case level < slog.LevelError:
		return entities.LogLevelWarn
	case level < LevelCritical:
		return entities.LogLevelError
	default:
		return entities.LogLevelCritical
	}
}

func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
