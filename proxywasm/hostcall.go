// Package proxywasm wraps the proxy-wasm host imports in memory-safe calls.
//
// Every wrapper that returns data decodes the host's status and
// pointer/size pair with the same rules:
//
//   - Ok with a non-null pointer yields the owned bytes and ok == true.
//   - Ok with a null pointer, or NotFound, yields no value: ok == false and
//     a nil error. An empty value is a non-nil, zero-length slice.
//   - Any other status yields an *errors.UnexpectedHostStatusError.
//
// Callers must propagate errors rather than substitute defaults.
package proxywasm

import (
	"fmt"
	"unicode/utf8"

	"github.com/mosn/layotto/domain/entities"
	sdkerrors "github.com/mosn/layotto/domain/errors"
	"github.com/mosn/layotto/internal/abi"
	"github.com/mosn/layotto/internal/imports"
)

// receive takes ownership of the host's result exactly once.
func receive(call string, status entities.Status, ptr, size uint32) ([]byte, bool, error) {
	switch status {
	case entities.StatusOK:
		if ptr == 0 {
			return nil, false, nil
		}
		return abi.Take(ptr, size), true, nil
	case entities.StatusNotFound:
		abi.Release(ptr)
		return nil, false, nil
	default:
		abi.Release(ptr)
		return nil, false, &sdkerrors.UnexpectedHostStatusError{Call: call, Status: status}
	}
}

// expectOK is the decoding rule for imports that return no data.
func expectOK(call string, status entities.Status) error {
	if status != entities.StatusOK {
		return &sdkerrors.UnexpectedHostStatusError{Call: call, Status: status}
	}
	return nil
}

func receiveString(call, key string, status entities.Status, ptr, size uint32) (string, bool, error) {
	data, ok, err := receive(call, status, ptr, size)
	if err != nil || !ok {
		return "", ok, err
	}
	if !utf8.Valid(data) {
		return "", false, &sdkerrors.InvalidUTF8Error{Call: call, Key: key}
	}
	return string(data), true, nil
}

// Log emits message at level through the host.
func Log(level entities.LogLevel, message string) error {
	return expectOK("proxy_log", imports.ProxyLog(level, message))
}

// Logf formats according to a format specifier and logs the result.
func Logf(level entities.LogLevel, format string, args ...any) error {
	return Log(level, fmt.Sprintf(format, args...))
}

// GetBuffer reads up to maxSize bytes of the buffer starting at offset.
func GetBuffer(bufferType entities.BufferType, offset, maxSize int) ([]byte, bool, error) {
	var ptr, size uint32
	status := imports.ProxyGetBufferBytes(bufferType, uint32(offset), uint32(maxSize), &ptr, &size)
	return receive("proxy_get_buffer_bytes", status, ptr, size)
}

// SetBuffer replaces the buffer region starting at offset with data. The
// length of data is passed both as the size of the replaced region and as
// the size of the new payload, since hosts do not support partial splices.
func SetBuffer(bufferType entities.BufferType, offset int, data []byte) error {
	status := imports.ProxySetBufferBytes(bufferType, uint32(offset), uint32(len(data)), data)
	return expectOK("proxy_set_buffer_bytes", status)
}

// GetMapValue looks up key in the host map selected by mapType.
func GetMapValue(mapType entities.MapType, key string) (string, bool, error) {
	var ptr, size uint32
	status := imports.ProxyGetHeaderMapValue(mapType, key, &ptr, &size)
	return receiveString("proxy_get_header_map_value", key, status, ptr, size)
}

// SetMapValue sets key to value in the host map selected by mapType,
// replacing any existing value.
func SetMapValue(mapType entities.MapType, key, value string) error {
	return expectOK("proxy_replace_header_map_value", imports.ProxyReplaceHeaderMapValue(mapType, key, value))
}

// GetState looks up key in the named state store.
func GetState(storeName, key string) ([]byte, bool, error) {
	var ptr, size uint32
	status := imports.ProxyGetState(storeName, key, &ptr, &size)
	return receive("proxy_get_state", status, ptr, size)
}

// InvokeService synchronously calls method of the service registered as
// serviceID. ok is false when the service answered without a body.
func InvokeService(serviceID, method string, payload []byte) ([]byte, bool, error) {
	var ptr, size uint32
	status := imports.ProxyInvokeService(serviceID, method, payload, &ptr, &size)
	return receive("proxy_invoke_service", status, ptr, size)
}

// CallForeignFunction invokes a host-registered native function. args may be
// nil. Neither args nor the result are interpreted here.
func CallForeignFunction(name string, args []byte) ([]byte, bool, error) {
	var ptr, size uint32
	status := imports.ProxyCallForeignFunction(name, args, &ptr, &size)
	return receive("proxy_call_foreign_function", status, ptr, size)
}
