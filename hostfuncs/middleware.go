package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mosn/layotto/domain/entities"
)

// Middleware wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// PanicRecoveryMiddleware converts a handler panic into an InternalFailure
// for the guest instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					err = NewStatusError(entities.StatusInternalFailure, fmt.Errorf("panic: %v", r))
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs every invocation and its resulting status.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName := "unknown"
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}
			logger.DebugContext(ctx, "invoking host function", "function", funcName, "payload_bytes", len(payload))

			resp, err := next(ctx, payload)
			if err != nil {
				logger.WarnContext(ctx, "host function failed",
					"function", funcName,
					"status", StatusOf(err).String(),
					"error", err)
				return resp, err
			}
			logger.DebugContext(ctx, "host function completed", "function", funcName, "response_bytes", len(resp))
			return resp, nil
		}
	}
}
