// Package alloc implements neondb's block allocator: the in-memory
// list of used and free regions of a volume's arena, and the on-disk
// linked list of block headers that lets that list be reconstructed
// from nothing but the raw bytes at mount time.
//
// The in-memory list is a flat, address-sorted slice rather than a
// pointer-linked structure — random access by index gives O(log n)
// address lookup (binary search) and O(1) neighbor inspection for
// coalescing, which a pointer list would not.
package alloc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/snaztoz/neondb/internal/format"
	"github.com/snaztoz/neondb/internal/mount"
	"github.com/snaztoz/neondb/internal/utils"
	"github.com/snaztoz/neondb/internal/volio"
)

// Sentinel errors returned by Allocator methods.
var (
	ErrNotEnoughSpace = errors.New("not enough space in volume")
	ErrBlockNotFound  = errors.New("block not found")
	ErrNotInitialized = errors.New("allocator not initialized")
)

// Block is the client-visible view of a used block: Address and Size
// exclude the 16-byte header, and the head sentinel is never reported.
type Block struct {
	Address uint64
	Size    uint64
}

// block is the allocator's internal bookkeeping record. address/size
// are header-relative: for a used block, size includes the header.
type block struct {
	address uint64
	size    uint64
	used    bool
}

// Allocator tracks every region of a volume's arena as used or free
// and places new allocations with smallest-sufficient fit, coalescing
// freed neighbors back together.
//
// Thread-safety: NOT thread-safe. The owning Storage facade serializes
// all access to a single Allocator.
type Allocator struct {
	blocks      []block
	initialized bool
}

// New returns an uninitialized Allocator. Call Init or InitNew before
// Alloc/Dealloc.
func New() *Allocator {
	return &Allocator{}
}

// Init reconstructs the in-memory block list by reading the head block
// and walking the on-disk chain of an existing volume, inferring
// UNUSED gaps between consecutive USED blocks and after the last one.
func (a *Allocator) Init(vol *volio.Volume) ([]Block, error) {
	a.blocks = nil
	a.initialized = false

	head, err := readHeader(vol, format.AllocatableStart)
	if err != nil {
		return nil, err
	}
	if head.Size != format.HeaderSize {
		return nil, mount.ErrCorrupted
	}
	a.blocks = append(a.blocks, block{address: format.AllocatableStart, size: head.Size, used: true})

	address := head.Next
	for address != format.NullAddress {
		h, err := readHeader(vol, address)
		if err != nil {
			return nil, err
		}

		last := a.blocks[len(a.blocks)-1]
		expected := last.address + last.size
		switch {
		case expected > address:
			return nil, mount.ErrCorrupted
		case expected < address:
			a.blocks = append(a.blocks, block{address: expected, size: address - expected, used: false})
		}

		a.blocks = append(a.blocks, block{address: address, size: h.Size, used: true})
		address = h.Next
	}

	last := a.blocks[len(a.blocks)-1]
	end := last.address + last.size
	switch {
	case end < format.VolSize:
		a.blocks = append(a.blocks, block{address: end, size: format.VolSize - end, used: false})
	case end > format.VolSize:
		return nil, mount.ErrCorrupted
	}

	a.initialized = true
	return a.publicBlocks(), nil
}

// InitNew writes the head block's header to vol and sets up the
// in-memory list as [USED head, UNUSED rest] for a freshly created,
// otherwise-empty volume.
func (a *Allocator) InitNew(vol *volio.Volume) error {
	a.blocks = nil
	a.initialized = false

	head := block{address: format.AllocatableStart, size: format.HeaderSize, used: true}
	if err := writeHeader(vol, head.address, format.Header{Size: head.size, Next: format.NullAddress}); err != nil {
		return err
	}
	a.blocks = append(a.blocks, head)

	if remaining := format.AllocatableSize - head.size; remaining > 0 {
		a.blocks = append(a.blocks, block{
			address: head.address + head.size,
			size:    remaining,
			used:    false,
		})
	}

	a.initialized = true
	return nil
}

// Alloc reserves a region large enough for size+HeaderSize bytes using
// smallest-sufficient fit (ties broken by lowest address), writes its
// header, relinks the predecessor USED block, and returns the public
// (header-excluded) address of the new block.
func (a *Allocator) Alloc(vol *volio.Volume, size uint64) (uint64, error) {
	if !a.initialized {
		return 0, ErrNotInitialized
	}

	total, err := utils.SafeAdd(size, format.HeaderSize)
	if err != nil {
		return 0, ErrNotEnoughSpace
	}

	idx, ok := a.findFit(total)
	if !ok {
		return 0, ErrNotEnoughSpace
	}

	addr := a.blocks[idx].address
	a.blocks[idx].size -= total
	if a.blocks[idx].size == 0 {
		a.blocks = append(a.blocks[:idx], a.blocks[idx+1:]...)
	} else {
		a.blocks[idx].address += total
	}

	a.insertBlock(idx, block{address: addr, size: total, used: true})

	if err := a.markBlockBefore(vol, idx); err != nil {
		return 0, err
	}
	if err := a.markBlock(vol, idx); err != nil {
		return 0, err
	}

	return addr + format.HeaderSize, nil
}

// Dealloc marks the block at the given public address UNUSED,
// coalesces it with any adjacent UNUSED neighbors, and rewrites the
// predecessor USED block's header. Freeing the head block is rejected.
func (a *Allocator) Dealloc(vol *volio.Volume, publicAddr uint64) error {
	if !a.initialized {
		return ErrNotInitialized
	}
	if publicAddr < format.HeaderSize {
		return ErrBlockNotFound
	}

	rawAddr := publicAddr - format.HeaderSize
	if rawAddr == format.AllocatableStart {
		return ErrBlockNotFound
	}

	idx, ok := a.findUsed(rawAddr)
	if !ok {
		return ErrBlockNotFound
	}

	a.blocks[idx].used = false

	start := idx
	if idx > 0 && !a.blocks[idx-1].used {
		start = idx - 1
	}
	a.coalesce(start)

	return a.markBlockBefore(vol, start)
}

// Blocks returns the currently USED blocks, excluding the head,
// translated to public addresses/sizes. Returns nil if uninitialized.
func (a *Allocator) Blocks() []Block {
	if !a.initialized {
		return nil
	}
	return a.publicBlocks()
}

// Reset clears the in-memory list and returns the allocator to the
// uninitialized state.
func (a *Allocator) Reset() {
	a.blocks = nil
	a.initialized = false
}

func (a *Allocator) publicBlocks() []Block {
	out := make([]Block, 0, len(a.blocks))
	for _, b := range a.blocks {
		if !b.used || b.address == format.AllocatableStart {
			continue
		}
		out = append(out, Block{
			Address: b.address + format.HeaderSize,
			Size:    b.size - format.HeaderSize,
		})
	}
	return out
}

// findFit scans for the UNUSED entry with the smallest size that is
// still >= total, breaking ties by lowest address (the ascending scan
// only replaces the incumbent on a strictly smaller size).
func (a *Allocator) findFit(total uint64) (int, bool) {
	best := -1
	for i, b := range a.blocks {
		if b.used || b.size < total {
			continue
		}
		if best == -1 || b.size < a.blocks[best].size {
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// insertBlock inserts b at position idx, shifting later entries right.
func (a *Allocator) insertBlock(idx int, b block) {
	a.blocks = append(a.blocks, block{})
	copy(a.blocks[idx+1:], a.blocks[idx:])
	a.blocks[idx] = b
}

// findUsed binary-searches for the USED entry at the given address.
func (a *Allocator) findUsed(addr uint64) (int, bool) {
	i := sort.Search(len(a.blocks), func(i int) bool { return a.blocks[i].address >= addr })
	if i < len(a.blocks) && a.blocks[i].address == addr && a.blocks[i].used {
		return i, true
	}
	return 0, false
}

// coalesce absorbs every UNUSED entry immediately following start into
// blocks[start], then removes the absorbed entries from the list.
func (a *Allocator) coalesce(start int) {
	size := a.blocks[start].size
	end := start + 1
	for end < len(a.blocks) && !a.blocks[end].used {
		size += a.blocks[end].size
		end++
	}
	a.blocks[start].size = size
	a.blocks = append(a.blocks[:start+1], a.blocks[end:]...)
}

// markBlock writes blocks[idx]'s header, setting next to the address
// of the nearest following USED entry, or NullAddress if none follows.
func (a *Allocator) markBlock(vol *volio.Volume, idx int) error {
	b := a.blocks[idx]
	return writeHeader(vol, b.address, format.Header{Size: b.size, Next: a.nextUsedAddress(idx)})
}

// markBlockBefore rewrites the header of the nearest USED entry before
// idx, the standard way every insert/coalesce relinks its predecessor.
func (a *Allocator) markBlockBefore(vol *volio.Volume, idx int) error {
	for i := idx - 1; i >= 0; i-- {
		if a.blocks[i].used {
			return a.markBlock(vol, i)
		}
	}
	return nil
}

func (a *Allocator) nextUsedAddress(idx int) uint64 {
	for i := idx + 1; i < len(a.blocks); i++ {
		if a.blocks[i].used {
			return a.blocks[i].address
		}
	}
	return format.NullAddress
}

func readHeader(vol *volio.Volume, addr uint64) (format.Header, error) {
	buf := utils.GetBuffer(format.HeaderSize)
	defer utils.ReleaseBuffer(buf)

	if _, err := vol.ReadAt(addr, buf); err != nil {
		return format.Header{}, utils.WrapError(fmt.Sprintf("alloc: read header at %d", addr), err)
	}
	return format.Decode(buf), nil
}

func writeHeader(vol *volio.Volume, addr uint64, h format.Header) error {
	enc := format.Encode(h)
	if _, err := vol.WriteAt(addr, enc[:]); err != nil {
		return utils.WrapError(fmt.Sprintf("alloc: write header at %d", addr), err)
	}
	return nil
}
