package manifest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/byte4ever/hasher/digest"
	"github.com/byte4ever/hasher/hasher"
)

// ErrAlgorithmMismatch is returned when comparing manifests built with
// different algorithms.
var ErrAlgorithmMismatch = errors.New("algorithm mismatch")

// Entry is one file of the manifest.
type Entry struct {
	Path   string `json:"path" yaml:"path"`
	Size   int64  `json:"size" yaml:"size"`
	Digest string `json:"digest" yaml:"digest"`
}

// Manifest describes a folder: its digest and the digest of every file,
// sorted by path.
type Manifest struct {
	Algorithm string  `json:"algorithm" yaml:"algorithm"`
	Digest    string  `json:"digest" yaml:"digest"`
	Entries   []Entry `json:"entries" yaml:"entries"`
}

// Build hashes every file under root with at most workers files in
// flight, and the folder as a whole.
func Build(
	ctx context.Context,
	root string,
	algorithm string,
	workers int,
) (*Manifest, error) {
	const errCtx = "building manifest"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	fsys, err := hasher.OpenFolder(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	listed, err := hasher.Enumerate(fsys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if workers < 1 {
		workers = 1
	}

	m := &Manifest{
		Algorithm: alg.String(),
		Entries:   make([]Entry, len(listed)),
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers + 1)

	grp.Go(func() error {
		sum, err := hasher.HashEntries(fsys, m.Algorithm, listed)
		if err != nil {
			return err
		}

		m.Digest = sum

		return nil
	})

	for i, en := range listed {
		if gctx.Err() != nil {
			break
		}

		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sum, err := hasher.HashFile(
				filepath.Join(root, filepath.FromSlash(en.Path)),
				m.Algorithm,
			)
			if err != nil {
				return err
			}

			m.Entries[i] = Entry{Path: en.Path, Size: en.Size, Digest: sum}

			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errCtx, root, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return m, nil
}

// Diff lists the differences between an expected and an actual manifest.
type Diff struct {
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed []string `json:"changed,omitempty" yaml:"changed,omitempty"`

	// Want and Got are the folder digests.
	Want string `json:"want" yaml:"want"`
	Got  string `json:"got" yaml:"got"`
}

// Empty reports whether both manifests describe the same tree.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0 &&
		hasher.Match(d.Got, d.Want)
}

// String lists the differences one per line, prefixed with +, - or ~.
func (d Diff) String() string {
	var sb strings.Builder

	for _, p := range d.Added {
		sb.WriteString("+ " + p + "\n")
	}

	for _, p := range d.Removed {
		sb.WriteString("- " + p + "\n")
	}

	for _, p := range d.Changed {
		sb.WriteString("~ " + p + "\n")
	}

	return sb.String()
}

// Compare reports how got differs from want. Both must use the same
// algorithm.
func Compare(want, got *Manifest) (Diff, error) {
	const errCtx = "comparing manifests"

	wantAlg, err := digest.Resolve(want.Algorithm)
	if err != nil {
		return Diff{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	gotAlg, err := digest.Resolve(got.Algorithm)
	if err != nil {
		return Diff{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if wantAlg != gotAlg {
		return Diff{}, fmt.Errorf(
			"%s: %w: %s != %s",
			errCtx, ErrAlgorithmMismatch, wantAlg, gotAlg,
		)
	}

	d := Diff{Want: want.Digest, Got: got.Digest}

	wanted := make(map[string]string, len(want.Entries))
	for _, en := range want.Entries {
		wanted[en.Path] = en.Digest
	}

	for _, en := range got.Entries {
		sum, ok := wanted[en.Path]
		if !ok {
			d.Added = append(d.Added, en.Path)

			continue
		}

		if !hasher.Match(en.Digest, sum) {
			d.Changed = append(d.Changed, en.Path)
		}

		delete(wanted, en.Path)
	}

	for p := range wanted {
		d.Removed = append(d.Removed, p)
	}

	slices.Sort(d.Added)
	slices.Sort(d.Removed)
	slices.Sort(d.Changed)

	return d, nil
}

// Check rebuilds the manifest of root with the algorithm of want and
// compares it with want.
func Check(
	ctx context.Context,
	root string,
	want *Manifest,
	workers int,
) (Diff, error) {
	const errCtx = "checking manifest"

	got, err := Build(ctx, root, want.Algorithm, workers)
	if err != nil {
		return Diff{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	d, err := Compare(want, got)
	if err != nil {
		return Diff{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return d, nil
}
