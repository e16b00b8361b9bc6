// Package ioblock bounds reads and writes to the block a client
// address falls inside. It trusts the block list it is given — it
// does no allocation bookkeeping of its own, only address arithmetic
// and delegation to volio.
package ioblock

import (
	"sort"

	"github.com/snaztoz/neondb/internal/alloc"
	"github.com/snaztoz/neondb/internal/volio"
)

// FindContaining returns the index in blocks (sorted ascending by
// Address, as returned by alloc.Allocator.Blocks) of the block whose
// range [Address, Address+Size) contains addr.
func FindContaining(addr uint64, blocks []alloc.Block) (int, error) {
	i := sort.Search(len(blocks), func(i int) bool { return blocks[i].Address > addr })
	if i == 0 {
		return 0, alloc.ErrBlockNotFound
	}
	b := blocks[i-1]
	if addr < b.Address || addr >= b.Address+b.Size {
		return 0, alloc.ErrBlockNotFound
	}
	return i - 1, nil
}

// MaxLenAt returns how many bytes can be read or written starting at
// addr before running past the end of its containing block.
func MaxLenAt(addr uint64, blocks []alloc.Block) (int, error) {
	idx, err := FindContaining(addr, blocks)
	if err != nil {
		return 0, err
	}
	b := blocks[idx]
	return int(b.Address + b.Size - addr), nil
}

// Read copies into buf starting at addr, truncating the copy to the
// containing block's remaining length, and returns the bytes copied.
func Read(vol *volio.Volume, addr uint64, buf []byte, blocks []alloc.Block) (int, error) {
	max, err := MaxLenAt(addr, blocks)
	if err != nil {
		return 0, err
	}
	return vol.ReadAt(addr, buf[:clampLen(len(buf), max)])
}

// Write copies buf to addr, truncating to the containing block's
// remaining length, and returns the bytes written.
func Write(vol *volio.Volume, addr uint64, buf []byte, blocks []alloc.Block) (int, error) {
	max, err := MaxLenAt(addr, blocks)
	if err != nil {
		return 0, err
	}
	return vol.WriteAt(addr, buf[:clampLen(len(buf), max)])
}

func clampLen(want, max int) int {
	if want > max {
		return max
	}
	return want
}
