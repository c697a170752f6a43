//go:build wasip1

package imports

import (
	"unsafe"

	"github.com/mosn/layotto/domain/entities"
)

//go:wasmimport env proxy_log
//nolint:revive // intentional snake_case to match WASM import convention
func proxy_log(level uint32, messageData unsafe.Pointer, messageSize uint32) uint32

//go:wasmimport env proxy_get_buffer_bytes
//nolint:revive
func proxy_get_buffer_bytes(bufferType uint32, start uint32, maxSize uint32, returnBufferData *uint32, returnBufferSize *uint32) uint32

//go:wasmimport env proxy_set_buffer_bytes
//nolint:revive
func proxy_set_buffer_bytes(bufferType uint32, start uint32, size uint32, bufferData unsafe.Pointer, bufferSize uint32) uint32

//go:wasmimport env proxy_get_header_map_value
//nolint:revive
func proxy_get_header_map_value(mapType uint32, keyData unsafe.Pointer, keySize uint32, returnValueData *uint32, returnValueSize *uint32) uint32

//go:wasmimport env proxy_replace_header_map_value
//nolint:revive
func proxy_replace_header_map_value(mapType uint32, keyData unsafe.Pointer, keySize uint32, valueData unsafe.Pointer, valueSize uint32) uint32

//go:wasmimport env proxy_get_state
//nolint:revive
func proxy_get_state(storeNameData unsafe.Pointer, storeNameSize uint32, keyData unsafe.Pointer, keySize uint32, returnData *uint32, returnSize *uint32) uint32

//go:wasmimport env proxy_invoke_service
//nolint:revive
func proxy_invoke_service(idData unsafe.Pointer, idSize uint32, methodData unsafe.Pointer, methodSize uint32, paramData unsafe.Pointer, paramSize uint32, returnData *uint32, returnSize *uint32) uint32

//go:wasmimport env proxy_call_foreign_function
//nolint:revive
func proxy_call_foreign_function(functionNameData unsafe.Pointer, functionNameSize uint32, argumentsData unsafe.Pointer, argumentsSize uint32, returnResultsData *uint32, returnResultsSize *uint32) uint32

// ProxyLog forwards to proxy_log.
func ProxyLog(level entities.LogLevel, message string) entities.Status {
	return entities.Status(proxy_log(uint32(level), stringData(message), uint32(len(message))))
}

// ProxyGetBufferBytes forwards to proxy_get_buffer_bytes.
func ProxyGetBufferBytes(bufferType entities.BufferType, start, maxSize uint32, returnData, returnSize *uint32) entities.Status {
	return entities.Status(proxy_get_buffer_bytes(uint32(bufferType), start, maxSize, returnData, returnSize))
}

// ProxySetBufferBytes forwards to proxy_set_buffer_bytes. data supplies
// both the pointer and the buffer size.
func ProxySetBufferBytes(bufferType entities.BufferType, start, size uint32, data []byte) entities.Status {
	return entities.Status(proxy_set_buffer_bytes(uint32(bufferType), start, size, bytesData(data), uint32(len(data))))
}

// ProxyGetHeaderMapValue forwards to proxy_get_header_map_value.
func ProxyGetHeaderMapValue(mapType entities.MapType, key string, returnData, returnSize *uint32) entities.Status {
	return entities.Status(proxy_get_header_map_value(uint32(mapType), stringData(key), uint32(len(key)), returnData, returnSize))
}

// ProxyReplaceHeaderMapValue forwards to proxy_replace_header_map_value.
func ProxyReplaceHeaderMapValue(mapType entities.MapType, key, value string) entities.Status {
	return entities.Status(proxy_replace_header_map_value(uint32(mapType),
		stringData(key), uint32(len(key)), stringData(value), uint32(len(value))))
}

// ProxyGetState forwards to proxy_get_state.
func ProxyGetState(storeName, key string, returnData, returnSize *uint32) entities.Status {
	return entities.Status(proxy_get_state(stringData(storeName), uint32(len(storeName)),
		stringData(key), uint32(len(key)), returnData, returnSize))
}

// ProxyInvokeService forwards to proxy_invoke_service.
func ProxyInvokeService(id, method string, param []byte, returnData, returnSize *uint32) entities.Status {
	return entities.Status(proxy_invoke_service(stringData(id), uint32(len(id)),
		stringData(method), uint32(len(method)), bytesData(param), uint32(len(param)), returnData, returnSize))
}

// ProxyCallForeignFunction forwards to proxy_call_foreign_function. A nil
// args slice is passed as a null pointer.
func ProxyCallForeignFunction(name string, args []byte, returnData, returnSize *uint32) entities.Status {
	return entities.Status(proxy_call_foreign_function(stringData(name), uint32(len(name)),
		bytesData(args), uint32(len(args)), returnData, returnSize))
}

func stringData(s string) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.StringData(s))
}

func bytesData(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}
