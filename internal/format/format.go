// Package format defines the on-disk layout shared by every other
// neondb package: the volume-wide constants and the 16-byte block
// header codec. Centralizing them here means the mount validator, the
// allocator, and the bounded-I/O layer all agree on one definition of
// "where the arena starts" and "what a header looks like".
package format

import "encoding/binary"

const (
	// VolSize is the fixed size, in bytes, of every volume file.
	VolSize = 1 << 23

	// Mark is the ASCII magic string stamped at offset 0 of every volume.
	Mark = "A NeonDB Volume!"

	// MarkLen is len(Mark); also the address of the arena's first byte.
	MarkLen = uint64(len(Mark))

	// HeaderSize is the size, in bytes, of a block header (size + next).
	HeaderSize = 16

	// AllocatableStart is the first address of the allocatable arena.
	AllocatableStart = MarkLen

	// AllocatableSize is the number of bytes available to the allocator.
	AllocatableSize = VolSize - MarkLen

	// FileExt is the required extension for volume files, without the dot.
	FileExt = "neondb"

	// NullAddress marks the end of the on-disk used-block chain.
	NullAddress = uint64(0)
)

// Header is the decoded form of a block's 16-byte on-disk header.
type Header struct {
	// Size is the total block size, header included.
	Size uint64
	// Next is the absolute address of the next used block, or
	// NullAddress if this is the last one in the chain.
	Next uint64
}

// Encode renders h as the 16 big-endian bytes written at the start of a
// used block: size first, then next.
func Encode(h Header) [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint64(buf[0:8], h.Size)
	binary.BigEndian.PutUint64(buf[8:16], h.Next)
	return buf
}

// Decode parses a 16-byte on-disk header. Panics if buf is shorter than
// HeaderSize — callers always read exactly HeaderSize bytes first.
func Decode(buf []byte) Header {
	_ = buf[HeaderSize-1] // bounds check hint
	return Header{
		Size: binary.BigEndian.Uint64(buf[0:8]),
		Next: binary.BigEndian.Uint64(buf[8:16]),
	}
}
