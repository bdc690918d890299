package hasher

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/byte4ever/hasher/digest"
)

var (
	// ErrNotFound is returned when the target path does not exist.
	ErrNotFound = errors.New("path not found")

	// ErrNotAFile is returned when a file operation targets a directory
	// or another non-regular entry.
	ErrNotAFile = errors.New("not a regular file")

	// ErrNotADirectory is returned when a folder operation targets
	// something that is not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIO is returned when reading fails mid-operation.
	ErrIO = errors.New("i/o error")

	// ErrUnsupportedAlgorithm aliases digest.ErrUnsupportedAlgorithm so
	// callers can match every failure of this package against hasher
	// sentinels.
	ErrUnsupportedAlgorithm = digest.ErrUnsupportedAlgorithm
)

// classify wraps err with ErrNotFound when it reports a missing path and
// with ErrIO otherwise.
func classify(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %w", ErrIO, err)
}
