// Package abi manages guest memory handed across the proxy-wasm boundary.
//
// Before the host returns variable-length data from an import it asks the
// guest for memory through proxy_on_memory_allocate, writes the data there
// and passes the pointer back. Every such allocation is pinned in a table
// until the guest takes it, which keeps the Go GC away from memory the host
// still writes to and lets a pointer be received exactly once.
package abi

import (
	"fmt"
	"sync"

	sdkerrors "github.com/mosn/layotto/domain/errors"
)

// DefaultMaxTotalAllocations is the default ceiling on pinned guest memory.
// This prevents unbounded memory growth in WASM linear memory.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// memoryManager keeps a reference to every allocation handed to the host,
// effectively "pinning" it until Take or Release drops the reference.
var memoryManager = struct {
	sync.Mutex
	ptrs           map[uint32][]byte // ptr -> slice reference
	totalAllocated int               // Total bytes currently pinned
	maxTotal       int
}{
	ptrs:     make(map[uint32][]byte),
	maxTotal: DefaultMaxTotalAllocations,
}

// Option configures the memory manager.
type Option func(*config)

type config struct {
	maxTotalAllocations int
}

// WithMaxTotalAllocations sets the ceiling on pinned memory.
// Zero or negative values are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(c *config) {
		c.maxTotalAllocations = limit
	}
}

// Configure applies options to the memory manager.
func Configure(opts ...Option) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	memoryManager.Lock()
	defer memoryManager.Unlock()
	if cfg.maxTotalAllocations > 0 {
		memoryManager.maxTotal = cfg.maxTotalAllocations
	}
}

// Allocate reserves size bytes for the host and returns their address.
// It never returns 0, not even for a zero size: a null pointer means
// "no value" on this boundary while an empty allocation means "empty value".
// Panics with a *errors.MemoryError if the ceiling would be exceeded.
func Allocate(size uint32) uint32 {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	if memoryManager.totalAllocated+int(size) > memoryManager.maxTotal {
		panic(&sdkerrors.MemoryError{
			Requested: int(size),
			Current:   memoryManager.totalAllocated,
			Limit:     memoryManager.maxTotal,
		})
	}

	buf := make([]byte, max(size, 1))
	ptr := addressOf(buf)

	memoryManager.ptrs[ptr] = buf[:size] // PIN THE MEMORY
	memoryManager.totalAllocated += int(size)

	return ptr
}

// Take moves the allocation at ptr out of the pin table and returns its
// first size bytes; the caller is the only owner from then on. A null
// pointer yields nil. A second Take of the same pointer does not find a
// pinned allocation any more.
func Take(ptr, size uint32) []byte {
	if ptr == 0 {
		return nil
	}

	buf, ok := unpin(ptr)
	if !ok {
		return readUntracked(ptr, size)
	}
	if int(size) > len(buf) {
		panic(fmt.Sprintf("abi: host reported %d bytes for an allocation of %d bytes at 0x%x", size, len(buf), ptr))
	}
	return buf[:size:size]
}

// Release drops the allocation at ptr without reading it. Untracked and
// null pointers are ignored.
func Release(ptr uint32) {
	if ptr != 0 {
		unpin(ptr)
	}
}

// Region returns the pinned allocation at ptr without unpinning it, or nil.
// Hosts that live in the same address space use it to fill an allocation.
func Region(ptr uint32) []byte {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	return memoryManager.ptrs[ptr]
}

// Stats returns the number of pinned allocations and their total size.
func Stats() (count, totalBytes int) {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	return len(memoryManager.ptrs), memoryManager.totalAllocated
}

// FreeAllTracked unpins everything. Used when a module instance is torn
// down or in tests.
func FreeAllTracked() {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	for ptr := range memoryManager.ptrs {
		delete(memoryManager.ptrs, ptr)
	}
	memoryManager.totalAllocated = 0
}

func unpin(ptr uint32) ([]byte, bool) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	buf, ok := memoryManager.ptrs[ptr]
	if !ok {
		return nil, false
	}
	delete(memoryManager.ptrs, ptr)
	memoryManager.totalAllocated -= len(buf)
	return buf, true
}
