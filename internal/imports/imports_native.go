//go:build !wasip1

package imports

import "github.com/mosn/layotto/domain/entities"

// Host is the import surface a native stand-in for the proxy implements.
// Data results must be placed in memory obtained from abi.Allocate and
// reported through returnData/returnSize, as a real host would do through
// proxy_on_memory_allocate.
type Host interface {
	ProxyLog(level entities.LogLevel, message string) entities.Status
	ProxyGetBufferBytes(bufferType entities.BufferType, start, maxSize uint32, returnData, returnSize *uint32) entities.Status
	ProxySetBufferBytes(bufferType entities.BufferType, start, size uint32, data []byte) entities.Status
	ProxyGetHeaderMapValue(mapType entities.MapType, key string, returnData, returnSize *uint32) entities.Status
	ProxyReplaceHeaderMapValue(mapType entities.MapType, key, value string) entities.Status
	ProxyGetState(storeName, key string, returnData, returnSize *uint32) entities.Status
	ProxyInvokeService(id, method string, param []byte, returnData, returnSize *uint32) entities.Status
	ProxyCallForeignFunction(name string, args []byte, returnData, returnSize *uint32) entities.Status
}

var current Host

// Install makes h answer every import and returns a function restoring the
// previous host.
func Install(h Host) (restore func()) {
	prev := current
	current = h
	return func() {
		current = prev
	}
}

// Installed reports whether a host is installed.
func Installed() bool {
	return current != nil
}

func host() Host {
	if current == nil {
		panic("imports: no host installed; proxy-wasm imports need a proxy or the proxytest emulator")
	}
	return current
}

func ProxyLog(level entities.LogLevel, message string) entities.Status {
	return host().ProxyLog(level, message)
}

func ProxyGetBufferBytes(bufferType entities.BufferType, start, maxSize uint32, returnData, returnSize *uint32) entities.Status {
	return host().ProxyGetBufferBytes(bufferType, start, maxSize, returnData, returnSize)
}

func ProxySetBufferBytes(bufferType entities.BufferType, start, size uint32, data []byte) entities.Status {
	return host().ProxySetBufferBytes(bufferType, start, size, data)
}

func ProxyGetHeaderMapValue(mapType entities.MapType, key string, returnData, returnSize *uint32) entities.Status {
	return host().ProxyGetHeaderMapValue(mapType, key, returnData, returnSize)
}

func ProxyReplaceHeaderMapValue(mapType entities.MapType, key, value string) entities.Status {
	return host().ProxyReplaceHeaderMapValue(mapType, key, value)
}

func ProxyGetState(storeName, key string, returnData, returnSize *uint32) entities.Status {
	return host().ProxyGetState(storeName, key, returnData, returnSize)
}

func ProxyInvokeService(id, method string, param []byte, returnData, returnSize *uint32) entities.Status {
	return host().ProxyInvokeService(id, method, param, returnData, returnSize)
}

func ProxyCallForeignFunction(name string, args []byte, returnData, returnSize *uint32) entities.Status {
	return host().ProxyCallForeignFunction(name, args, returnData, returnSize)
}
