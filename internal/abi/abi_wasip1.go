//go:build wasip1

package abi

import "unsafe"

// addressOf returns the linear memory offset of buf.
func addressOf(buf []byte) uint32 {
	// WASM linear memory: uint32 offset -> pointer conversion is safe and necessary
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}

// readUntracked copies size bytes at ptr. Hosts may hand back memory they
// did not obtain through proxy_on_memory_allocate.
func readUntracked(ptr, size uint32) []byte {
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), size)
	data := make([]byte, size) // Create a new slice to return a copy
	copy(data, src)
	return data
}
