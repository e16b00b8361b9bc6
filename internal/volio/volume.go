// Package volio provides positioned byte I/O over the single file that
// backs a neondb volume. It knows nothing about blocks or allocation —
// it only opens, reads, and writes at absolute addresses.
package volio

import (
	"fmt"
	"os"

	"github.com/snaztoz/neondb/internal/format"
)

// Volume wraps an *os.File opened on a fixed-size .neondb file.
//
// Thread-safety: NOT thread-safe. The owning Storage facade must
// serialize access to a single Volume.
type Volume struct {
	file *os.File
}

// Open opens an existing file in read-write mode for use as a volume.
// Callers are expected to have already validated the path (see package
// mount) before calling Open.
func Open(path string) (*Volume, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("volio: open %q: %w", path, err)
	}
	return &Volume{file: f}, nil
}

// OpenReadOnly opens an existing file in read-only mode.
func OpenReadOnly(path string) (*Volume, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("volio: open %q: %w", path, err)
	}
	return &Volume{file: f}, nil
}

// FromFile wraps an already-opened file. Used by mount.CreateNew, which
// needs to create and size the file before the allocator can write the
// head block into it.
func FromFile(f *os.File) *Volume {
	return &Volume{file: f}
}

// ReadAt reads at most len(buf) bytes starting at addr with a positioned
// read (os.File.ReadAt, no seek) and returns the number of bytes
// transferred, which may be less than len(buf). An error is returned
// only when no byte was read; callers above this layer are responsible
// for treating a short read as meaningful or not.
func (v *Volume) ReadAt(addr uint64, buf []byte) (int, error) {
	n, err := v.file.ReadAt(buf, int64(addr))
	if err != nil && n == 0 {
		return n, fmt.Errorf("volio: read at %d: %w", addr, err)
	}
	return n, nil
}

// WriteAt writes buf starting at addr with a positioned write
// (os.File.WriteAt, no seek), returning the number of bytes transferred.
func (v *Volume) WriteAt(addr uint64, buf []byte) (int, error) {
	n, err := v.file.WriteAt(buf, int64(addr))
	if err != nil {
		return n, fmt.Errorf("volio: write at %d: %w", addr, err)
	}
	return n, nil
}

// Size reports the fixed volume size. A Volume opened through this
// package is always exactly format.VolSize bytes once mounted.
func (v *Volume) Size() uint64 {
	return format.VolSize
}

// Close closes the underlying file. Safe to call more than once.
func (v *Volume) Close() error {
	if v.file == nil {
		return nil
	}
	err := v.file.Close()
	v.file = nil
	return err
}
