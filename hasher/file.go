package hasher

import (
	"fmt"
	"io"
	"os"

	"github.com/byte4ever/hasher/digest"
)

// HashFile returns the hexadecimal digest of the content of the regular
// file at path. The algorithm is resolved before the filesystem is
// touched.
func HashFile(path string, algorithm string) (string, error) {
	const errCtx = "hashing file"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, classify(err))
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w: %s", errCtx, ErrNotAFile, path)
	}

	st, err := digest.New(alg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	fi, err := os.Open(path) //nolint:gosec // caller-provided path
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, classify(err))
	}

	if err := stream(st, fi, nil); err != nil {
		return "", fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return st.Finalize()
}

// stream folds the content of rc into st and closes rc. Read and close
// failures are reported as ErrIO.
func stream(
	st *digest.State,
	rc io.ReadCloser,
	observe func(n int),
) (retErr error) {
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%w: %w", ErrIO, closeErr)
		}
	}()

	if _, err := st.Stream(rc, observe); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return nil
}
