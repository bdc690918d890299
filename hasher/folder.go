package hasher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/byte4ever/hasher/digest"
)

// Entry is a regular file of a tree, keyed by its slash-separated path
// relative to the tree root.
type Entry struct {
	Path string
	Size int64
}

// HashFolder returns the digest of the directory tree rooted at root.
//
// Entries are sorted by relative path using byte order and, for each one,
// the UTF-8 path bytes and then the file content are folded into a single
// state. Path and content are concatenated without a delimiter, so a path
// "ab" holding "c" feeds the same bytes as a path "a" holding "bc"; this
// is kept for compatibility with existing digests. A tree without regular
// files yields the digest of the empty input.
func HashFolder(
	root string,
	algorithm string,
	opts ...Option,
) (string, error) {
	const errCtx = "hashing folder"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	fsys, err := OpenFolder(root)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	sum, err := hashTree(fsys, alg, buildOptions(opts))
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", errCtx, root, err)
	}

	return sum, nil
}

// HashFS is HashFolder over an arbitrary file system whose root is ".".
func HashFS(
	fsys fs.FS,
	algorithm string,
	opts ...Option,
) (string, error) {
	const errCtx = "hashing file system"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	sum, err := hashTree(fsys, alg, buildOptions(opts))
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return sum, nil
}

// HashEntries folds the given entries of fsys in canonical order. The
// slice is not modified; a sorted copy is hashed. It lets callers that
// enumerate a tree themselves, such as object store listings, share the
// folder algorithm.
func HashEntries(
	fsys fs.FS,
	algorithm string,
	entries []Entry,
	opts ...Option,
) (string, error) {
	const errCtx = "hashing entries"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	sorted := slices.Clone(entries)
	sortEntries(sorted)

	sum, err := foldEntries(fsys, alg, sorted, buildOptions(opts))
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return sum, nil
}

// OpenFolder checks that root is an existing directory and returns it as
// a file system.
func OpenFolder(root string) (fs.FS, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, classify(err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	return os.DirFS(root), nil
}

// Enumerate lists every regular file of fsys, sorted by relative path.
// Directories are descended into but not listed. A symbolic link to a
// regular file is listed under its own name with the size of its target;
// links to directories are not followed and other special files are
// skipped. A dangling link fails with ErrIO.
func Enumerate(fsys fs.FS) ([]Entry, error) {
	var entries []Entry

	err := fs.WalkDir(
		fsys, ".",
		func(name string, de fs.DirEntry, err error) error {
			if err != nil {
				if name == "." && errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("%w: %w", ErrNotFound, err)
				}

				return fmt.Errorf("%w: %w", ErrIO, err)
			}

			if de.IsDir() {
				return nil
			}

			var info fs.FileInfo

			switch {
			case de.Type().IsRegular():
				info, err = de.Info()
			case de.Type()&fs.ModeSymlink != 0:
				info, err = fs.Stat(fsys, name)
			default:
				return nil
			}

			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrIO, name, err)
			}

			if !info.Mode().IsRegular() {
				return nil
			}

			entries = append(entries, Entry{
				Path: name,
				Size: info.Size(),
			})

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	sortEntries(entries)

	return entries, nil
}

func hashTree(fsys fs.FS, alg digest.Algorithm, o options) (string, error) {
	entries, err := Enumerate(fsys)
	if err != nil {
		return "", err
	}

	return foldEntries(fsys, alg, entries, o)
}

// foldEntries feeds path then content of every entry, in the given
// order, into one state.
func foldEntries(
	fsys fs.FS,
	alg digest.Algorithm,
	entries []Entry,
	o options,
) (string, error) {
	st, err := digest.New(alg)
	if err != nil {
		return "", err
	}

	status := Status{FilesTotal: len(entries)}
	for _, en := range entries {
		status.BytesTotal += en.Size
	}

	observe := func(n int) {
		status.BytesDone += int64(n)
		o.report(status)
	}

	for i, en := range entries {
		status.Path = en.Path

		if err := st.Update([]byte(en.Path)); err != nil {
			return "", err
		}

		fi, err := fsys.Open(en.Path)
		if err != nil {
			// The tree changed since enumeration.
			return "", fmt.Errorf("%w: %w", ErrIO, err)
		}

		if err := stream(st, fi, observe); err != nil {
			return "", fmt.Errorf("%s: %w", en.Path, err)
		}

		status.FilesDone = i + 1
		o.report(status)
	}

	return st.Finalize()
}

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Path, b.Path)
	})
}
