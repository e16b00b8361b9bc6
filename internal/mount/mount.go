// Package mount validates volume files before they are mounted, and
// creates brand-new ones. It owns none of the allocator state — it
// only answers "is this path a legal volume" and "make me a fresh one".
package mount

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/snaztoz/neondb/internal/format"
	"github.com/snaztoz/neondb/internal/volio"
)

// Sentinel errors returned by Validate, ValidateNew, and CreateNew.
// Callers distinguish them with errors.Is.
var (
	ErrNotFound      = errors.New("volume not found")
	ErrAlreadyExists = errors.New("volume already exists")
	ErrInvalidExt    = errors.New("invalid volume extension")
	ErrInvalidSize   = errors.New("invalid volume size")
	ErrInaccessible  = errors.New("volume inaccessible")
	ErrCorrupted     = errors.New("volume corrupted")
	ErrInitFailed    = errors.New("volume initialization failed")
)

// Validate checks that path refers to an existing, well-formed volume,
// short-circuiting in order: existence, extension, size, magic mark.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrInaccessible, err)
	}

	if err := checkExt(path); err != nil {
		return err
	}

	if info.Size() != format.VolSize {
		return ErrInvalidSize
	}

	return checkMark(path)
}

// ValidateNew checks that path is a legal location for a new volume:
// it must not already exist and must carry the right extension.
func ValidateNew(path string) error {
	if _, err := os.Stat(path); err == nil {
		return ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrInaccessible, err)
	}

	return checkExt(path)
}

// CreateNew creates the file at path, sizes it to format.VolSize, and
// stamps the magic mark at offset 0. The returned Volume is opened and
// positioned for the allocator's InitNew; on any failure the partially
// created file is removed and ErrInitFailed is returned.
func CreateNew(path string) (*volio.Volume, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create: %v", ErrInitFailed, err)
	}

	if err := f.Truncate(format.VolSize); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: resize: %v", ErrInitFailed, err)
	}

	if _, err := f.WriteAt([]byte(format.Mark), 0); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: write mark: %v", ErrInitFailed, err)
	}

	return volio.FromFile(f), nil
}

func checkExt(path string) error {
	want := "." + format.FileExt
	if strings.EqualFold(filepath.Ext(path), want) {
		return nil
	}
	return fmt.Errorf("%w: expected %s", ErrInvalidExt, want)
}

func checkMark(path string) error {
	v, err := volio.OpenReadOnly(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInaccessible, err)
	}
	defer v.Close()

	buf := make([]byte, format.MarkLen)
	if _, err := v.ReadAt(0, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	if string(buf) != format.Mark {
		return ErrCorrupted
	}
	return nil
}
