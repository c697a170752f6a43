// Package wireformat defines the payloads exchanged through
// proxy_call_foreign_function. They mirror the Layotto runtime API messages
// of the same name. The protobuf encoding is canonical; hosts also accept
// JSON, in which case they answer with the bare value instead of a message.
package wireformat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

var errWireType = errors.New("wireformat: unexpected wire type")

// SayHelloRequest asks the hello component of serviceName to greet Name.
type SayHelloRequest struct {
	ServiceName string `json:"service_name"`
	Name        string `json:"name"`
}

// SayHelloResponse carries the greeting.
type SayHelloResponse struct {
	Hello string `json:"hello"`
}

// GetStateRequest reads Key from the state store StoreName.
type GetStateRequest struct {
	Metadata    map[string]string `json:"metadata,omitempty"`
	StoreName   string            `json:"store_name,omitempty"`
	Key         string            `json:"key,omitempty"`
	Consistency int32             `json:"consistency,omitempty"`
}

// GetStateResponse carries the stored value.
type GetStateResponse struct {
	Metadata map[string]string `json:"metadata,omitempty"`
	Data     []byte            `json:"data,omitempty"`
	Etag     string            `json:"etag,omitempty"`
}

// MarshalProto encodes r as runtime.v1.SayHelloRequest.
func (r *SayHelloRequest) MarshalProto() []byte {
	var b []byte
	b = appendString(b, 1, r.ServiceName)
	b = appendString(b, 2, r.Name)
	return b
}

// UnmarshalProto decodes runtime.v1.SayHelloRequest. Unknown fields are skipped.
func (r *SayHelloRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &r.ServiceName)
		case 2:
			return consumeString(typ, b, &r.Name)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

// MarshalProto encodes r as runtime.v1.SayHelloResponse.
func (r *SayHelloResponse) MarshalProto() []byte {
	return appendString(nil, 1, r.Hello)
}

// UnmarshalProto decodes runtime.v1.SayHelloResponse.
func (r *SayHelloResponse) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeString(typ, b, &r.Hello)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// MarshalProto encodes r as runtime.v1.GetStateRequest.
func (r *GetStateRequest) MarshalProto() []byte {
	var b []byte
	b = appendString(b, 1, r.StoreName)
	b = appendString(b, 2, r.Key)
	if r.Consistency != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Consistency))
	}
	return appendMap(b, 4, r.Metadata)
}

// UnmarshalProto decodes runtime.v1.GetStateRequest.
func (r *GetStateRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &r.StoreName)
		case 2:
			return consumeString(typ, b, &r.Key)
		case 3:
			if typ != protowire.VarintType {
				return 0, errWireType
			}
			v, n := protowire.ConsumeVarint(b)
			r.Consistency = int32(v)
			return n, nil
		case 4:
			return consumeMapEntry(typ, b, &r.Metadata)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

// MarshalProto encodes r as runtime.v1.GetStateResponse.
func (r *GetStateResponse) MarshalProto() []byte {
	var b []byte
	if len(r.Data) > 0 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Data)
	}
	b = appendString(b, 2, r.Etag)
	return appendMap(b, 3, r.Metadata)
}

// UnmarshalProto decodes runtime.v1.GetStateResponse.
func (r *GetStateResponse) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			if typ != protowire.BytesType {
				return 0, errWireType
			}
			v, n := protowire.ConsumeBytes(b)
			r.Data = append([]byte(nil), v...)
			return n, nil
		case 2:
			return consumeString(typ, b, &r.Etag)
		case 3:
			return consumeMapEntry(typ, b, &r.Metadata)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

// DecodeSayHelloRequest accepts either encoding. isJSON reports which one
// matched, so that the answer can be encoded the same way.
func DecodeSayHelloRequest(payload []byte) (req SayHelloRequest, isJSON bool, err error) {
	if protoErr := req.UnmarshalProto(payload); protoErr == nil {
		return req, false, nil
	}
	req = SayHelloRequest{}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, false, fmt.Errorf("failed to decode SayHelloRequest: %w", err)
	}
	return req, true, nil
}

// DecodeGetStateRequest accepts either encoding, like DecodeSayHelloRequest.
func DecodeGetStateRequest(payload []byte) (req GetStateRequest, isJSON bool, err error) {
	if protoErr := req.UnmarshalProto(payload); protoErr == nil {
		return req, false, nil
	}
	req = GetStateRequest{}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, false, fmt.Errorf("failed to decode GetStateRequest: %w", err)
	}
	return req, true, nil
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func unmarshalFields(b []byte, field fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func consumeString(typ protowire.Type, b []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	v, n := protowire.ConsumeString(b)
	*dst = v
	return n, nil
}

// appendMap encodes a map<string,string> field with entries in key order.
func appendMap(b []byte, num protowire.Number, m map[string]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, m[k])
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func consumeMapEntry(typ protowire.Type, b []byte, dst *map[string]string) (int, error) {
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	entry, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}

	var key, value string
	err := unmarshalFields(entry, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &key)
		case 2:
			return consumeString(typ, b, &value)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return 0, err
	}
	if *dst == nil {
		*dst = make(map[string]string)
	}
	(*dst)[key] = value
	return n, nil
}
