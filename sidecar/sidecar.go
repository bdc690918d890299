package sidecar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/byte4ever/hasher/digest"
	"github.com/byte4ever/hasher/hasher"
)

// ErrMissing is returned when verifying a target that has no sidecar.
var ErrMissing = errors.New("no stored digest")

// ErrMalformed is returned when a sidecar does not start with a digest of
// the expected length.
var ErrMalformed = errors.New("malformed sidecar")

// Path returns the sidecar path of target for alg.
func Path(target string, alg digest.Algorithm) string {
	return filepath.Clean(target) + "." + alg.String()
}

// Save hashes target and writes its sidecar. It returns the digest.
func Save(target, algorithm string) (string, error) {
	const errCtx = "saving digest"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	sum, _, err := hasher.HashPath(target, algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := Write(target, alg, sum); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return sum, nil
}

// Write stores sum as the digest of target.
func Write(target string, alg digest.Algorithm, sum string) error {
	const errCtx = "writing sidecar"

	line := sum + "  " + filepath.Base(filepath.Clean(target)) + "\n"

	if err := os.WriteFile(Path(target, alg), []byte(line), 0o600); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Read returns the digest stored for target. It returns an empty string
// and no error when there is no sidecar.
func Read(target, algorithm string) (string, error) {
	const errCtx = "reading stored digest"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	pa := Path(target, alg)

	raw, err := os.ReadFile(pa) //nolint:gosec // derived from a caller-provided path
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	fields := strings.Fields(string(raw))
	if len(fields) == 0 || len(fields[0]) != alg.HexLen() {
		return "", fmt.Errorf("%s: %w: %s", errCtx, ErrMalformed, pa)
	}

	return fields[0], nil
}

// Verify hashes target and compares it with its stored digest. It
// returns the stored and the actual digest.
func Verify(target, algorithm string) (ok bool, stored, actual string, err error) {
	const errCtx = "verifying stored digest"

	stored, err = Read(target, algorithm)
	if err != nil {
		return false, "", "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if stored == "" {
		return false, "", "", fmt.Errorf("%s: %w: %s", errCtx, ErrMissing, target)
	}

	ok, actual, err = hasher.Verify(target, stored, algorithm)
	if err != nil {
		return false, "", "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return ok, stored, actual, nil
}
