package hasher

import (
	"fmt"
	"os"
	"strings"

	"github.com/byte4ever/hasher/digest"
)

// Kind tells whether a digest was computed over a file or a folder.
type Kind int

const (
	// KindFile is the digest of the content of one regular file.
	KindFile Kind = iota + 1

	// KindFolder is the digest of a directory tree.
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// HashPath hashes path as a file or as a folder depending on what it is.
// Options only apply to folders.
func HashPath(
	path string,
	algorithm string,
	opts ...Option,
) (string, Kind, error) {
	const errCtx = "hashing path"

	if _, err := digest.Resolve(algorithm); err != nil {
		return "", 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", errCtx, classify(err))
	}

	if info.IsDir() {
		sum, err := HashFolder(path, algorithm, opts...)
		if err != nil {
			return "", 0, fmt.Errorf("%s: %w", errCtx, err)
		}

		return sum, KindFolder, nil
	}

	sum, err := HashFile(path, algorithm)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return sum, KindFile, nil
}

// Verify hashes path and reports whether the digest matches expected. A
// mismatch is not an error; the computed digest is always returned when
// hashing succeeds.
func Verify(
	path string,
	expected string,
	algorithm string,
	opts ...Option,
) (bool, string, error) {
	const errCtx = "verifying"

	actual, _, err := HashPath(path, algorithm, opts...)
	if err != nil {
		return false, "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return Match(actual, expected), actual, nil
}

// Match compares two hexadecimal digests ignoring case. Surrounding
// whitespace is significant; front ends trim user input themselves.
func Match(actual, expected string) bool {
	return strings.EqualFold(actual, expected)
}
