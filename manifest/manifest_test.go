package manifest_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/hasher/hasher"
	"github.com/byte4ever/hasher/manifest"
)

const (
	helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	worldSHA256 = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
	treeSHA256  = "f9a271ad0be15c1a947e9612586c58cd7811616848132f109d6a9f90f45ffa6c"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for name, content := range files {
		pa := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(pa), 0o750))
		require.NoError(t, os.WriteFile(pa, []byte(content), 0o600))
	}

	return root
}

func TestBuild_records_every_file(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.txt": "hello", "b/c.txt": "world"})

	got, err := manifest.Build(context.Background(), root, "SHA256", 2)

	require.NoError(t, err)
	assert.Equal(t, &manifest.Manifest{
		Algorithm: "sha256",
		Digest:    treeSHA256,
		Entries: []manifest.Entry{
			{Path: "a.txt", Size: 5, Digest: helloSHA256},
			{Path: "b/c.txt", Size: 5, Digest: worldSHA256},
		},
	}, got)
}

func TestBuild_digest_matches_folder(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	for i := range 50 {
		files[fmt.Sprintf("d/%02d/f%02d.txt", i%7, i)] = fmt.Sprint(i)
	}

	root := writeTree(t, files)

	want, err := hasher.HashFolder(root, "sha1")
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 3, 16} {
		got, err := manifest.Build(context.Background(), root, "sha1", workers)

		require.NoError(t, err)
		assert.Equal(t, want, got.Digest)
		assert.Len(t, got.Entries, 50)
	}
}

func TestBuild_errors(t *testing.T) {
	t.Parallel()

	_, err := manifest.Build(context.Background(), t.TempDir(), "crc32", 1)
	require.ErrorIs(t, err, hasher.ErrUnsupportedAlgorithm)

	_, err = manifest.Build(
		context.Background(),
		filepath.Join(t.TempDir(), "nope"),
		"md5",
		1,
	)
	require.ErrorIs(t, err, hasher.ErrNotFound)
}

func TestBuild_canceled_context(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.txt": "hello"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := manifest.Build(ctx, root, "md5", 1)

	require.ErrorIs(t, err, context.Canceled)
}

func TestCompare_reports_differences(t *testing.T) {
	t.Parallel()

	want := &manifest.Manifest{
		Algorithm: "sha256",
		Digest:    "aa",
		Entries: []manifest.Entry{
			{Path: "keep.txt", Digest: "01"},
			{Path: "gone.txt", Digest: "02"},
			{Path: "edit.txt", Digest: "03"},
		},
	}
	got := &manifest.Manifest{
		Algorithm: "SHA256",
		Digest:    "bb",
		Entries: []manifest.Entry{
			{Path: "edit.txt", Digest: "04"},
			{Path: "keep.txt", Digest: "01"},
			{Path: "new.txt", Digest: "05"},
		},
	}

	d, err := manifest.Compare(want, got)

	require.NoError(t, err)
	assert.False(t, d.Empty())
	assert.Equal(t, []string{"new.txt"}, d.Added)
	assert.Equal(t, []string{"gone.txt"}, d.Removed)
	assert.Equal(t, []string{"edit.txt"}, d.Changed)
	assert.Equal(t, "+ new.txt\n- gone.txt\n~ edit.txt\n", d.String())
}

func TestCompare_algorithm_mismatch(t *testing.T) {
	t.Parallel()

	_, err := manifest.Compare(
		&manifest.Manifest{Algorithm: "md5"},
		&manifest.Manifest{Algorithm: "sha1"},
	)

	require.ErrorIs(t, err, manifest.ErrAlgorithmMismatch)
}

func TestCheck_detects_changed_byte(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.txt": "hello", "b/c.txt": "world"})

	want, err := manifest.Build(context.Background(), root, "sha256", 2)
	require.NoError(t, err)

	d, err := manifest.Check(context.Background(), root, want, 2)
	require.NoError(t, err)
	assert.True(t, d.Empty())

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "b", "c.txt"), []byte("worle"), 0o600,
	))

	d, err = manifest.Check(context.Background(), root, want, 2)
	require.NoError(t, err)
	assert.False(t, d.Empty())
	assert.Equal(t, []string{"b/c.txt"}, d.Changed)
	assert.Equal(t, treeSHA256, d.Want)
	assert.NotEqual(t, d.Want, d.Got)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	m := &manifest.Manifest{
		Algorithm: "sha256",
		Digest:    treeSHA256,
		Entries: []manifest.Entry{
			{Path: "a.txt", Size: 5, Digest: helloSHA256},
			{Path: "b/c.txt", Size: 5, Digest: worldSHA256},
		},
	}

	for _, encoding := range []string{manifest.EncodingYAML, manifest.EncodingJSON} {
		t.Run(encoding, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			require.NoError(t, manifest.Encode(&buf, m, encoding))
			assert.Contains(t, buf.String(), "b/c.txt")

			got, err := manifest.Decode(&buf, encoding)

			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestEncode_unknown_encoding(t *testing.T) {
	t.Parallel()

	err := manifest.Encode(&bytes.Buffer{}, &manifest.Manifest{}, "toml")
	require.ErrorIs(t, err, manifest.ErrUnknownEncoding)

	_, err = manifest.Decode(&bytes.Buffer{}, "toml")
	require.ErrorIs(t, err, manifest.ErrUnknownEncoding)
}

func TestWriteFile_ReadFile(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.txt": "hello"})

	m, err := manifest.Build(context.Background(), root, "md5", 1)
	require.NoError(t, err)

	for _, name := range []string{"m.yaml", "m.json"} {
		pa := filepath.Join(t.TempDir(), name)

		require.NoError(t, manifest.WriteFile(pa, m))

		got, err := manifest.ReadFile(pa)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestEncodingFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, manifest.EncodingJSON, manifest.EncodingFor("x.JSON"))
	assert.Equal(t, manifest.EncodingYAML, manifest.EncodingFor("x.yml"))
	assert.Equal(t, manifest.EncodingYAML, manifest.EncodingFor("x"))
}
