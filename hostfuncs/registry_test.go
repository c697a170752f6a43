package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(_ context.Context, payload []byte) ([]byte, error) {
	return append([]byte("echo:"), payload...), nil
}

func TestNewRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Empty(t, reg.Names())
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []RegistryOption
		wantErr string
	}{
		{"duplicate", []RegistryOption{WithByteHandler("id_1", echo), WithByteHandler("id_1", echo)}, "duplicate handler name"},
		{"empty name", []RegistryOption{WithByteHandler("", echo)}, "cannot be empty"},
		{"nil handler", []RegistryOption{WithByteHandler("id_1", nil)}, "is nil"},
		{"nil service", []RegistryOption{WithServiceHandler("id_2", nil)}, "is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHandlerRegistry_Invoke(t *testing.T) {
	reg, err := NewRegistry(WithByteHandler("echo", echo))
	require.NoError(t, err)

	t.Run("found handler", func(t *testing.T) {
		resp, err := reg.Invoke(context.Background(), "echo", []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "echo:hello", string(resp))
	})

	t.Run("not found handler", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "unknown", nil)
		require.ErrorIs(t, err, ErrFunctionNotFound)
		assert.Contains(t, err.Error(), `"unknown"`)
	})
}

func TestHandlerRegistry_NamesSorted(t *testing.T) {
	reg, err := NewRegistry(
		WithByteHandler("zebra", echo),
		WithByteHandler("alpha", echo),
		WithServiceHandler("middle", StaticService(nil)),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "middle", "zebra"}, reg.Names())
	assert.True(t, reg.Has("middle"))
	assert.False(t, reg.Has("nonexistent"))
}

func TestHandlerRegistry_ServiceSeesMethod(t *testing.T) {
	var gotMethod, gotName string
	reg, err := NewRegistry(WithServiceHandler("id_2", func(ctx context.Context, method string, payload []byte) ([]byte, error) {
		gotMethod = method
		if hc, ok := ctx.(HostContext); ok {
			gotName = hc.FunctionName()
		}
		return payload, nil
	}))
	require.NoError(t, err)

	resp, err := reg.Invoke(WithMethod(context.Background(), "lookup"), "id_2", []byte("book1"))
	require.NoError(t, err)
	assert.Equal(t, "book1", string(resp))
	assert.Equal(t, "lookup", gotMethod)
	assert.Equal(t, "id_2", gotName)
}

func TestWithMiddleware_FIFO(t *testing.T) {
	var callOrder []string
	record := func(name string) Middleware {
		return func(next ByteHandler) ByteHandler {
			return func(ctx context.Context, payload []byte) ([]byte, error) {
				callOrder = append(callOrder, name+"-before")
				resp, err := next(ctx, payload)
				callOrder = append(callOrder, name+"-after")
				return resp, err
			}
		}
	}

	reg, err := NewRegistry(
		WithMiddleware(record("mw1"), record("mw2")),
		WithByteHandler("test", func(context.Context, []byte) ([]byte, error) {
			callOrder = append(callOrder, "handler")
			return nil, nil
		}),
	)
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), "test", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}, callOrder)
}
