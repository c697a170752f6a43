package hostfuncs

import (
	"context"
)

// ByteHandler is a function that accepts the raw guest payload and returns
// the raw bytes handed back to the guest. It is the common shape of services
// and foreign functions.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// ServiceFunc handles proxy_invoke_service for one service id.
type ServiceFunc func(ctx context.Context, method string, payload []byte) ([]byte, error)

// StaticService answers every invocation with the same bytes.
func StaticService(response []byte) ServiceFunc {
	return func(context.Context, string, []byte) ([]byte, error) {
		return response, nil
	}
}

// serviceHandler adapts a ServiceFunc to a ByteHandler; the method travels
// in the context.
func serviceHandler(fn ServiceFunc) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		return fn(ctx, MethodFrom(ctx), payload)
	}
}
