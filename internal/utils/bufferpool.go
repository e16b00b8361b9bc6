// Package utils provides small utilities shared by the neondb packages:
// pooled scratch buffers, overflow-checked arithmetic, and a context-
// wrapping error type.
package utils

import "sync"

// bufferPool backs every block-header read in internal/alloc (16 bytes
// each); the 4096-byte default arena covers a header read without
// growing, and GetBuffer only falls back to a fresh allocation for
// requests larger than that.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, 4096)
	},
}

// GetBuffer returns a byte slice of the requested length from the pool.
// Callers must return it with ReleaseBuffer once done.
func GetBuffer(size int) []byte {
	buf := bufferPool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size, size*2) // Increase capacity.
	}
	return buf[:size]
}

// ReleaseBuffer returns a buffer to the pool.
func ReleaseBuffer(buf []byte) {
	//nolint:staticcheck // SA6002: slice descriptor copy is acceptable for sync.Pool
	bufferPool.Put(buf[:0])
}
