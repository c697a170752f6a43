//go:build !wasip1

// Benchmarks for the allocation paths every host call goes through.
package abi

import (
	"testing"
)

// BenchmarkAllocateTake measures a host result being delivered and moved
// out of the pin table.
func BenchmarkAllocateTake(b *testing.B) {
	resetMemoryManager()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr := Allocate(256)
		buf := Take(ptr, 256)
		_ = buf
	}
}

// BenchmarkAllocateRelease measures the path taken when a host call fails
// after the guest allocated its result.
func BenchmarkAllocateRelease(b *testing.B) {
	resetMemoryManager()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr := Allocate(256)
		Release(ptr)
	}
}

// BenchmarkAllocateTake_Sizes measures the take path at various sizes.
func BenchmarkAllocateTake_Sizes(b *testing.B) {
	sizes := []struct {
		name string
		size uint32
	}{
		{"64B", 64},
		{"256B", 256},
		{"1KB", 1024},
		{"4KB", 4096},
	}

	for _, tc := range sizes {
		b.Run(tc.name, func(b *testing.B) {
			resetMemoryManager()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Take(Allocate(tc.size), tc.size)
			}
		})
	}
}
