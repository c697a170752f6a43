package hostfuncs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/wireformat"
)

func TestSayHello(t *testing.T) {
	s := newTestState(t, WithLayottoFunctions(nil))

	t.Run("protobuf", func(t *testing.T) {
		req := wireformat.SayHelloRequest{ServiceName: "helloworld", Name: "Layotto"}
		raw, status := s.CallForeignFunction(context.Background(), SayHelloFunction, req.MarshalProto())
		require.Equal(t, entities.StatusOK, status)

		var resp wireformat.SayHelloResponse
		require.NoError(t, resp.UnmarshalProto(raw))
		assert.Equal(t, "hello, Layotto", resp.Hello)
	})

	t.Run("json gets bare value", func(t *testing.T) {
		raw, status := s.CallForeignFunction(context.Background(), SayHelloFunction,
			[]byte(`{"service_name":"helloworld","name":"Foo_id_1"}`))
		require.Equal(t, entities.StatusOK, status)
		assert.Equal(t, "hello, Foo_id_1", string(raw))
	})

	t.Run("undecodable", func(t *testing.T) {
		_, status := s.CallForeignFunction(context.Background(), SayHelloFunction, []byte{0xff, 0xff})
		assert.Equal(t, entities.StatusBadArgument, status)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, status := s.CallForeignFunction(context.Background(), "Nope", nil)
		assert.Equal(t, entities.StatusNotFound, status)
	})
}

func TestSayHello_GreeterFailure(t *testing.T) {
	s := newTestState(t, WithLayottoFunctions(func(context.Context, string, string) (string, error) {
		return "", errors.New("component unavailable")
	}))

	_, status := s.CallForeignFunction(context.Background(), SayHelloFunction, []byte(`{"name":"x"}`))
	assert.Equal(t, entities.StatusInternalFailure, status)
}

func TestStateFunction(t *testing.T) {
	s := newTestState(t,
		WithLayottoFunctions(nil),
		WithStoreValue("state_demo", "book1", []byte("100")),
	)

	req := wireformat.GetStateRequest{StoreName: "state_demo", Key: "book1"}
	raw, status := s.CallForeignFunction(context.Background(), StateFunction, req.MarshalProto())
	require.Equal(t, entities.StatusOK, status)
	var resp wireformat.GetStateResponse
	require.NoError(t, resp.UnmarshalProto(raw))
	assert.Equal(t, "100", string(resp.Data))

	raw, status = s.CallForeignFunction(context.Background(), StateFunction,
		[]byte(`{"store_name":"state_demo","key":"book1"}`))
	require.Equal(t, entities.StatusOK, status)
	assert.Equal(t, "100", string(raw))

	raw, status = s.CallForeignFunction(context.Background(), StateFunction,
		[]byte(`{"store_name":"state_demo","key":"missing"}`))
	require.Equal(t, entities.StatusOK, status)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)

	assert.Equal(t, []string{SayHelloFunction, StateFunction}, s.ForeignFunctions())
}
