package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/hostfuncs"
)

const hostModuleName = "env"

// guestMemory is the part of api.Memory the imports use.
type guestMemory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	WriteUint32Le(offset, v uint32) bool
}

// allocator reserves size bytes of guest memory.
type allocator func(ctx context.Context, size uint32) (uint32, error)

// callFrame serves one import call made by a guest.
type callFrame struct {
	state *hostfuncs.State
	mem   guestMemory
	alloc allocator
}

func frameOf(state *hostfuncs.State, m api.Module) callFrame {
	return callFrame{
		state: state,
		mem:   m.Memory(),
		alloc: func(ctx context.Context, size uint32) (uint32, error) {
			return allocateIn(ctx, m, size)
		},
	}
}

// allocateIn calls the guest allocator, proxy_on_memory_allocate or malloc.
func allocateIn(ctx context.Context, m api.Module, size uint32) (uint32, error) {
	fn := m.ExportedFunction("proxy_on_memory_allocate")
	if fn == nil {
		fn = m.ExportedFunction("malloc")
	}
	if fn == nil {
		return 0, fmt.Errorf("guest exports neither proxy_on_memory_allocate nor malloc")
	}
	results, err := fn.Call(ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("failed to allocate in guest: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocate returned no results")
	}
	return api.DecodeU32(results[0]), nil
}

// read copies size bytes at ptr. A null pointer reads as nil.
func (f callFrame) read(ptr, size uint32) ([]byte, bool) {
	if ptr == 0 {
		return nil, size == 0
	}
	b, ok := f.mem.Read(ptr, size)
	if !ok {
		return nil, false
	}
	return append([]byte{}, b...), true
}

func (f callFrame) readString(ptr, size uint32) (string, bool) {
	b, ok := f.read(ptr, size)
	return string(b), ok
}

// deliver writes data into fresh guest memory and reports its address and
// size. Nil data, or a status other than Ok, leaves the return slots alone.
func (f callFrame) deliver(ctx context.Context, data []byte, status entities.Status, returnData, returnSize uint32) entities.Status {
	if status != entities.StatusOK || data == nil {
		return status
	}
	ptr, err := f.alloc(ctx, uint32(len(data)))
	if err != nil {
		f.state.Logger().Error("guest allocation failed", "size", len(data), "error", err)
		return entities.StatusInternalFailure
	}
	if !f.mem.Write(ptr, data) ||
		!f.mem.WriteUint32Le(returnData, ptr) ||
		!f.mem.WriteUint32Le(returnSize, uint32(len(data))) {
		return entities.StatusInvalidMemoryAccess
	}
	return entities.StatusOK
}

func (f callFrame) proxyLog(level, messageData, messageSize uint32) entities.Status {
	msg, ok := f.readString(messageData, messageSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	f.state.Log(entities.LogLevel(level), msg)
	return entities.StatusOK
}

func (f callFrame) proxyGetBufferBytes(ctx context.Context, bufferType, start, maxSize, returnData, returnSize uint32) entities.Status {
	data, status := f.state.GetBufferBytes(entities.BufferType(bufferType), start, maxSize)
	return f.deliver(ctx, data, status, returnData, returnSize)
}

func (f callFrame) proxySetBufferBytes(bufferType, start, size, bufferData, bufferSize uint32) entities.Status {
	data, ok := f.read(bufferData, bufferSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	return f.state.SetBufferBytes(entities.BufferType(bufferType), start, size, data)
}

func (f callFrame) proxyGetHeaderMapValue(ctx context.Context, mapType, keyData, keySize, returnData, returnSize uint32) entities.Status {
	key, ok := f.readString(keyData, keySize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	value, status := f.state.GetMapValue(entities.MapType(mapType), key)
	return f.deliver(ctx, append([]byte{}, value...), status, returnData, returnSize)
}

func (f callFrame) proxyReplaceHeaderMapValue(mapType, keyData, keySize, valueData, valueSize uint32) entities.Status {
	key, ok := f.readString(keyData, keySize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	value, ok := f.readString(valueData, valueSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	return f.state.ReplaceMapValue(entities.MapType(mapType), key, value)
}

func (f callFrame) proxyGetState(ctx context.Context, storeData, storeSize, keyData, keySize, returnData, returnSize uint32) entities.Status {
	store, ok := f.readString(storeData, storeSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	key, ok := f.readString(keyData, keySize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	data, status := f.state.GetState(store, key)
	return f.deliver(ctx, data, status, returnData, returnSize)
}

func (f callFrame) proxyInvokeService(ctx context.Context, idData, idSize, methodData, methodSize, paramData, paramSize, returnData, returnSize uint32) entities.Status {
	id, ok := f.readString(idData, idSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	method, ok := f.readString(methodData, methodSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	param, ok := f.read(paramData, paramSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	data, status := f.state.InvokeService(ctx, id, method, param)
	return f.deliver(ctx, data, status, returnData, returnSize)
}

func (f callFrame) proxyCallForeignFunction(ctx context.Context, nameData, nameSize, argsData, argsSize, returnData, returnSize uint32) entities.Status {
	name, ok := f.readString(nameData, nameSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	args, ok := f.read(argsData, argsSize)
	if !ok {
		return entities.StatusInvalidMemoryAccess
	}
	data, status := f.state.CallForeignFunction(ctx, name, args)
	return f.deliver(ctx, data, status, returnData, returnSize)
}

// registerHostFunctions instantiates the env module every guest imports.
func (e *Executor) registerHostFunctions(ctx context.Context) error {
	s := e.state
	builder := e.runtime.NewHostModuleBuilder(hostModuleName)

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, level, messageData, messageSize uint32) uint32 {
			return uint32(frameOf(s, m).proxyLog(level, messageData, messageSize))
		}).
		Export("proxy_log")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, bufferType, start, maxSize, returnData, returnSize uint32) uint32 {
			return uint32(frameOf(s, m).proxyGetBufferBytes(ctx, bufferType, start, maxSize, returnData, returnSize))
		}).
		Export("proxy_get_buffer_bytes")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, bufferType, start, size, bufferData, bufferSize uint32) uint32 {
			return uint32(frameOf(s, m).proxySetBufferBytes(bufferType, start, size, bufferData, bufferSize))
		}).
		Export("proxy_set_buffer_bytes")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, mapType, keyData, keySize, returnData, returnSize uint32) uint32 {
			return uint32(frameOf(s, m).proxyGetHeaderMapValue(ctx, mapType, keyData, keySize, returnData, returnSize))
		}).
		Export("proxy_get_header_map_value")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, mapType, keyData, keySize, valueData, valueSize uint32) uint32 {
			return uint32(frameOf(s, m).proxyReplaceHeaderMapValue(mapType, keyData, keySize, valueData, valueSize))
		}).
		Export("proxy_replace_header_map_value")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, storeData, storeSize, keyData, keySize, returnData, returnSize uint32) uint32 {
			return uint32(frameOf(s, m).proxyGetState(ctx, storeData, storeSize, keyData, keySize, returnData, returnSize))
		}).
		Export("proxy_get_state")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, idData, idSize, methodData, methodSize, paramData, paramSize, returnData, returnSize uint32) uint32 {
			return uint32(frameOf(s, m).proxyInvokeService(ctx, idData, idSize, methodData, methodSize, paramData, paramSize, returnData, returnSize))
		}).
		Export("proxy_invoke_service")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, nameData, nameSize, argsData, argsSize, returnData, returnSize uint32) uint32 {
			return uint32(frameOf(s, m).proxyCallForeignFunction(ctx, nameData, nameSize, argsData, argsSize, returnData, returnSize))
		}).
		Export("proxy_call_foreign_function")

	_, err := builder.Instantiate(ctx)
	return err
}
