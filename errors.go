package neondb

import (
	"errors"
	"fmt"

	"github.com/snaztoz/neondb/internal/alloc"
	"github.com/snaztoz/neondb/internal/mount"
)

// Sentinel errors. An error an exported method returns for one of these
// conditions wraps exactly one of them; test for them with errors.Is.
// Other failures (an I/O error from the volume file, a negative Alloc
// size) come back in an *OpError that wraps no sentinel.
var (
	ErrVolumeNotFound          = mount.ErrNotFound
	ErrVolumeAlreadyExists     = mount.ErrAlreadyExists
	ErrVolumeInvalidExt        = mount.ErrInvalidExt
	ErrVolumeInvalidSize       = mount.ErrInvalidSize
	ErrVolumeInaccessible      = mount.ErrInaccessible
	ErrVolumeCorrupted         = mount.ErrCorrupted
	ErrVolumeInitFailed        = mount.ErrInitFailed
	ErrVolumeNotEnoughSpace    = alloc.ErrNotEnoughSpace
	ErrBlockNotFound           = alloc.ErrBlockNotFound
	ErrAllocatorNotInitialized = alloc.ErrNotInitialized
	ErrVolumeReadOnly          = errors.New("volume is mounted read-only")
)

var knownSentinels = []error{
	ErrVolumeNotFound,
	ErrVolumeAlreadyExists,
	ErrVolumeInvalidExt,
	ErrVolumeInvalidSize,
	ErrVolumeInaccessible,
	ErrVolumeCorrupted,
	ErrVolumeInitFailed,
	ErrVolumeNotEnoughSpace,
	ErrBlockNotFound,
	ErrAllocatorNotInitialized,
	ErrVolumeReadOnly,
}

// OpError names the failing operation alongside the sentinel error it
// matches and the underlying cause that produced it. Both are visible
// to errors.Is/errors.As through Unwrap() []error.
type OpError struct {
	Op    string
	Err   error
	Cause error
}

func (e *OpError) Error() string {
	if e.Cause == nil || e.Cause == e.Err {
		return fmt.Sprintf("neondb: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("neondb: %s: %v", e.Op, e.Cause)
}

func (e *OpError) Unwrap() []error {
	if e.Cause == nil || e.Cause == e.Err {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// classify finds the known sentinel that err's chain matches, falling
// back to err itself when none of them do.
func classify(err error) error {
	for _, s := range knownSentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: classify(err), Cause: err}
}
