package digest

import "errors"

var (
	// ErrUnsupportedAlgorithm is returned when an algorithm name is not
	// one of SupportedAlgorithms.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrFinalized is returned when a State is used after Finalize.
	ErrFinalized = errors.New("digest state already finalized")
)
