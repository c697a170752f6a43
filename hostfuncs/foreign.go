package hostfuncs

import (
	"context"
	"errors"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/wireformat"
)

// Foreign function names understood by Layotto hosts.
const (
	SayHelloFunction = "SayHello"
	StateFunction    = "State"
)

// Greeter produces the greeting for a SayHello call.
type Greeter func(ctx context.Context, serviceName, name string) (string, error)

// DefaultGreeter greets name on behalf of any service.
func DefaultGreeter(_ context.Context, _, name string) (string, error) {
	if name == "" {
		return "hello", nil
	}
	return "hello, " + name, nil
}

// SayHelloFunc implements the SayHello foreign function. Requests are
// decoded as protobuf first and JSON second; a JSON request gets the bare
// greeting back instead of a SayHelloResponse.
func SayHelloFunc(greet Greeter) ByteHandler {
	if greet == nil {
		greet = DefaultGreeter
	}
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req, isJSON, err := wireformat.DecodeSayHelloRequest(payload)
		if err != nil {
			return nil, NewStatusError(entities.StatusBadArgument, err)
		}

		hello, err := greet(ctx, req.ServiceName, req.Name)
		if err != nil {
			return nil, err
		}
		if isJSON {
			return []byte(hello), nil
		}
		resp := wireformat.SayHelloResponse{Hello: hello}
		return resp.MarshalProto(), nil
	}
}

// StateFunc implements the State foreign function, reading from the stores
// of the State serving the call. Missing keys yield empty data, as a state
// store would. Encoding follows SayHelloFunc.
func StateFunc() ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req, isJSON, err := wireformat.DecodeGetStateRequest(payload)
		if err != nil {
			return nil, NewStatusError(entities.StatusBadArgument, err)
		}

		s, ok := StateFrom(ctx)
		if !ok {
			return nil, errors.New("no host state bound to call")
		}
		data, _ := s.GetState(req.StoreName, req.Key)

		if isJSON {
			return append([]byte{}, data...), nil
		}
		resp := wireformat.GetStateResponse{Data: data}
		return append([]byte{}, resp.MarshalProto()...), nil
	}
}
