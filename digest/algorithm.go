package digest

import (
	"crypto/md5"  //nolint:gosec // checksum choice offered to users
	"crypto/sha1" //nolint:gosec // checksum choice offered to users
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	sha256 "github.com/minio/sha256-simd"
)

// Algorithm identifies one of the supported hash primitives. The zero
// value is not a valid algorithm.
type Algorithm int

// Supported algorithms.
const (
	MD5 Algorithm = iota + 1
	SHA1
	SHA256
	SHA512
)

// DefaultAlgorithm is used by the front ends when no algorithm is given.
const DefaultAlgorithm = SHA256

// SupportedAlgorithms returns the accepted algorithm names in
// presentation order. The returned slice is a fresh copy.
func SupportedAlgorithms() []string {
	return []string{
		MD5.String(),
		SHA1.String(),
		SHA256.String(),
		SHA512.String(),
	}
}

// Resolve maps a user supplied algorithm name to an Algorithm. Matching
// ignores case and surrounding whitespace.
func Resolve(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	}

	return 0, fmt.Errorf(
		"%w %q (choose from %s)",
		ErrUnsupportedAlgorithm,
		name,
		strings.Join(SupportedAlgorithms(), ", "),
	)
}

// String returns the canonical lower-case name.
func (a Algorithm) String() string {
	switch a {
	case MD5:
		return "md5"
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	}

	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	return a >= MD5 && a <= SHA512
}

// Size returns the digest size in bytes, or 0 for an invalid algorithm.
func (a Algorithm) Size() int {
	switch a {
	case MD5:
		return md5.Size
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	}

	return 0
}

// HexLen returns the length of the hexadecimal digest rendering.
func (a Algorithm) HexLen() int {
	return 2 * a.Size()
}

// newHash returns a fresh hash primitive for a.
func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil //nolint:gosec // checksum choice offered to users
	case SHA1:
		return sha1.New(), nil //nolint:gosec // checksum choice offered to users
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	}

	return nil, fmt.Errorf("%w %s", ErrUnsupportedAlgorithm, a)
}
