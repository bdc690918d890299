package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirMode  = 0o750
	fileMode = 0o600
)

var (
	// ErrUnsafePath is returned for an entry that would land outside the
	// destination directory.
	ErrUnsafePath = errors.New("unsafe entry path")

	// ErrDuplicateEntry is returned when two entries map to the same file.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrTooLarge is returned when the expanded content exceeds the limit
	// given to ExtractReader.
	ErrTooLarge = errors.New("archive expands beyond limit")
)

// IsZip reports whether name carries a .zip extension.
func IsZip(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// Extract expands the archive at zipPath into dest, which must exist.
func Extract(zipPath, dest string) (retErr error) {
	const errCtx = "extracting archive"

	zr, err := zip.OpenReader(zipPath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := zr.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: closing: %w", errCtx, closeErr)
		}
	}()

	if err := extractFiles(zr.File, dest, 0); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, zipPath, err)
	}

	return nil
}

// ExtractReader expands the archive held by r, of the given size, into
// dest, which must exist. Extraction stops with ErrTooLarge once more than
// limit uncompressed bytes have been written; a limit <= 0 disables the
// check.
func ExtractReader(
	r io.ReaderAt,
	size int64,
	dest string,
	limit int64,
) error {
	const errCtx = "extracting archive"

	zr, err := zip.NewReader(r, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := extractFiles(zr.File, dest, limit); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Stage expands the archive at zipPath into a fresh temporary directory.
// The caller must call cleanup once done with dir.
func Stage(zipPath string) (dir string, cleanup func(), err error) {
	const errCtx = "staging archive"

	dir, err = os.MkdirTemp("", "hasher-zip-*")
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	cleanup = func() {
		_ = os.RemoveAll(dir)
	}

	if err := Extract(zipPath, dir); err != nil {
		cleanup()

		return "", nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return dir, cleanup, nil
}

// budget tracks the uncompressed bytes still allowed. A nil budget is
// unbounded.
type budget struct {
	remaining int64
}

func newBudget(limit int64) *budget {
	if limit <= 0 {
		return nil
	}

	return &budget{remaining: limit}
}

// copy writes src to dst, charging the budget. It reads one byte past
// the remaining allowance to tell an exact fit from an overflow.
func (b *budget) copy(dst io.Writer, src io.Reader) error {
	if b == nil {
		_, err := io.Copy(dst, src) //nolint:gosec // local archive named by the caller
		return err
	}

	n, err := io.CopyN(dst, src, b.remaining+1)
	if n > b.remaining {
		return ErrTooLarge
	}

	b.remaining -= n

	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func extractFiles(files []*zip.File, dest string, limit int64) error {
	seen := make(map[string]struct{}, len(files))
	bud := newBudget(limit)

	for _, zf := range files {
		rel, err := localName(zf.Name)
		if err != nil {
			return err
		}

		target := filepath.Join(dest, rel)
		mode := zf.Mode()

		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, dirMode); err != nil {
				return fmt.Errorf("%s: %w", zf.Name, err)
			}

			continue
		case !mode.IsRegular():
			// Links and devices are not reproduced.
			continue
		}

		if _, dup := seen[rel]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, zf.Name)
		}

		seen[rel] = struct{}{}

		if err := writeEntry(zf, target, bud); err != nil {
			return fmt.Errorf("%s: %w", zf.Name, err)
		}
	}

	return nil
}

// localName turns an archive entry name into a relative path that stays
// inside the destination.
func localName(name string) (string, error) {
	rel := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}

	return filepath.Clean(rel), nil
}

func writeEntry(zf *zip.File, target string, bud *budget) (retErr error) {
	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return err
	}

	src, err := zf.Open()
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := src.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()

	dst, err := os.OpenFile( //nolint:gosec // target checked by localName
		target,
		os.O_WRONLY|os.O_CREATE|os.O_EXCL,
		fileMode,
	)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := dst.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()

	return bud.copy(dst, src)
}
