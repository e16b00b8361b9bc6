// Package neondb implements a single-file block storage engine: a
// fixed-size volume holds variable-sized blocks that client code
// allocates, frees, reads, and writes by address.
package neondb

import (
	"fmt"
	"log/slog"

	"github.com/snaztoz/neondb/internal/alloc"
	"github.com/snaztoz/neondb/internal/ioblock"
	"github.com/snaztoz/neondb/internal/mount"
	"github.com/snaztoz/neondb/internal/volio"
)

// Block is a client-visible allocated region: Address and Size
// exclude the block's 16-byte on-disk header.
type Block = alloc.Block

// allocator is the capability Storage needs from a block allocator.
// Expressed as an interface so a future allocation strategy can be
// swapped in without touching the facade; *alloc.Allocator is the only
// implementation today.
type allocator interface {
	Init(vol *volio.Volume) ([]alloc.Block, error)
	InitNew(vol *volio.Volume) error
	Alloc(vol *volio.Volume, size uint64) (uint64, error)
	Dealloc(vol *volio.Volume, addr uint64) error
	Blocks() []alloc.Block
	Reset()
}

// Storage mounts a single .neondb volume file and serves Alloc,
// Dealloc, Read, and Write against it.
//
// Thread-safety: NOT thread-safe. Callers needing concurrent access
// must serialize their own calls to a Storage.
type Storage struct {
	opts *Options

	volume   *volio.Volume
	allocr   allocator
	mounted  bool
	readOnly bool

	blocksCache []alloc.Block
	cacheDirty  bool
}

// New constructs an unmounted Storage. Call Mount or MountNew before
// any other method.
func New(opts ...Option) *Storage {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Storage{opts: o, allocr: alloc.New(), cacheDirty: true}
}

// Mount opens and validates an existing volume at path, then
// reconstructs the allocator's block list by walking its on-disk
// chain.
func (s *Storage) Mount(path string) error {
	if err := mount.Validate(path); err != nil {
		return wrap("mount", err)
	}

	vol, err := s.openVolume(path)
	if err != nil {
		return wrap("mount", err)
	}

	if _, err := s.allocr.Init(vol); err != nil {
		_ = vol.Close()
		return wrap("mount", err)
	}

	s.volume = vol
	s.mounted = true
	s.readOnly = s.opts.readOnly
	s.cacheDirty = true
	s.logger().Info("volume mounted", "path", path, "read_only", s.readOnly)
	return nil
}

// MountNew creates a brand-new volume at path, writes its head block,
// and mounts it.
func (s *Storage) MountNew(path string) error {
	if err := mount.ValidateNew(path); err != nil {
		return wrap("mount_new", err)
	}

	vol, err := mount.CreateNew(path)
	if err != nil {
		return wrap("mount_new", err)
	}

	if err := s.allocr.InitNew(vol); err != nil {
		_ = vol.Close()
		return wrap("mount_new", err)
	}

	s.volume = vol
	s.mounted = true
	s.readOnly = false
	s.cacheDirty = true
	s.logger().Info("volume created", "path", path)
	return nil
}

// Unmount closes the underlying file and clears allocator state. Safe
// to call when nothing is mounted.
func (s *Storage) Unmount() error {
	if !s.mounted {
		return nil
	}

	err := s.volume.Close()
	s.volume = nil
	s.mounted = false
	s.allocr.Reset()
	s.cacheDirty = true

	s.logger().Info("volume unmounted")
	if err != nil {
		return wrap("unmount", err)
	}
	return nil
}

// Alloc reserves size bytes and returns the public address of the new
// block.
func (s *Storage) Alloc(size int) (uint64, error) {
	if err := s.requireWritable(); err != nil {
		return 0, err
	}
	if size < 0 {
		return 0, wrap("alloc", fmt.Errorf("neondb: negative size %d", size))
	}

	addr, err := s.allocr.Alloc(s.volume, uint64(size))
	if err != nil {
		return 0, wrap("alloc", err)
	}
	s.cacheDirty = true
	s.logger().Debug("block allocated", "address", addr, "size", size)
	return addr, nil
}

// Dealloc frees the block at addr, coalescing it with any adjacent
// free neighbors.
func (s *Storage) Dealloc(addr uint64) error {
	if err := s.requireWritable(); err != nil {
		return err
	}

	if err := s.allocr.Dealloc(s.volume, addr); err != nil {
		return wrap("dealloc", err)
	}
	s.cacheDirty = true
	s.logger().Debug("block freed", "address", addr)
	return nil
}

// Read copies into buf starting at addr, truncated to the containing
// block's remaining length.
func (s *Storage) Read(addr uint64, buf []byte) (int, error) {
	if err := s.requireMounted(); err != nil {
		return 0, err
	}

	n, err := ioblock.Read(s.volume, addr, buf, s.blocks())
	if err != nil {
		return 0, wrap("read", err)
	}
	return n, nil
}

// Write copies buf to addr, truncated to the containing block's
// remaining length.
func (s *Storage) Write(addr uint64, buf []byte) (int, error) {
	if err := s.requireWritable(); err != nil {
		return 0, err
	}

	n, err := ioblock.Write(s.volume, addr, buf, s.blocks())
	if err != nil {
		return 0, wrap("write", err)
	}
	return n, nil
}

// Blocks returns every currently allocated block, sorted by address.
func (s *Storage) Blocks() ([]Block, error) {
	if err := s.requireMounted(); err != nil {
		return nil, err
	}
	return s.blocks(), nil
}

// blocks returns the cached block list, refreshing it from the
// allocator whenever a mutating call has marked it dirty.
func (s *Storage) blocks() []alloc.Block {
	if s.cacheDirty {
		s.blocksCache = s.allocr.Blocks()
		s.cacheDirty = false
	}
	return s.blocksCache
}

func (s *Storage) openVolume(path string) (*volio.Volume, error) {
	if s.opts.readOnly {
		return volio.OpenReadOnly(path)
	}
	return volio.Open(path)
}

func (s *Storage) requireMounted() error {
	if !s.mounted {
		return wrap("storage", ErrAllocatorNotInitialized)
	}
	return nil
}

func (s *Storage) requireWritable() error {
	if err := s.requireMounted(); err != nil {
		return err
	}
	if s.readOnly {
		return wrap("storage", ErrVolumeReadOnly)
	}
	return nil
}

func (s *Storage) logger() *slog.Logger {
	if s.opts.logger == nil {
		return slog.Default()
	}
	return s.opts.logger
}
