package hasher_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/hasher/hasher"
)

func TestVerify_file_is_case_insensitive(t *testing.T) {
	t.Parallel()

	pa := filepath.Join(t.TempDir(), "hello.txt")
	writeFile(t, pa, []byte("hello"))

	want, err := hasher.HashFile(pa, "sha256")
	require.NoError(t, err)

	for _, expected := range []string{
		want,
		strings.ToUpper(want),
	} {
		ok, actual, err := hasher.Verify(pa, expected, "sha256")

		require.NoError(t, err)
		assert.True(t, ok, expected)
		assert.Equal(t, want, actual)
	}
}

func TestVerify_padded_expected_does_not_match(t *testing.T) {
	t.Parallel()

	pa := filepath.Join(t.TempDir(), "hello.txt")
	writeFile(t, pa, []byte("hello"))

	ok, actual, err := hasher.Verify(
		pa,
		" 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824 ",
		"sha256",
	)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(
		t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		actual,
	)
}

func TestVerify_mismatch_is_not_an_error(t *testing.T) {
	t.Parallel()

	pa := filepath.Join(t.TempDir(), "hello.txt")
	writeFile(t, pa, []byte("hello"))

	ok, actual, err := hasher.Verify(pa, "deadbeef", "md5")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", actual)
}

func TestVerify_folder(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.txt": "hello", "b/c.txt": "world"})

	ok, actual, err := hasher.Verify(
		root,
		"F9A271AD0BE15C1A947E9612586C58CD7811616848132F109D6A9F90F45FFA6C",
		"sha256",
	)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(
		t,
		"f9a271ad0be15c1a947e9612586c58cd7811616848132f109d6a9f90f45ffa6c",
		actual,
	)
}

func TestVerify_errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, _, err := hasher.Verify(filepath.Join(dir, "nope"), "x", "sha256")
	require.ErrorIs(t, err, hasher.ErrNotFound)

	_, _, err = hasher.Verify(filepath.Join(dir, "nope"), "x", "whirlpool")
	require.ErrorIs(t, err, hasher.ErrUnsupportedAlgorithm)
}

func TestHashPath_kind(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.txt": "hello"})

	_, kind, err := hasher.HashPath(root, "sha1")
	require.NoError(t, err)
	assert.Equal(t, hasher.KindFolder, kind)
	assert.Equal(t, "folder", kind.String())

	_, kind, err = hasher.HashPath(filepath.Join(root, "a.txt"), "sha1")
	require.NoError(t, err)
	assert.Equal(t, hasher.KindFile, kind)
	assert.Equal(t, "file", kind.String())

	assert.Equal(t, "Kind(0)", hasher.Kind(0).String())
}

func TestMatch(t *testing.T) {
	t.Parallel()

	assert.True(t, hasher.Match("abc", "ABC"))
	assert.False(t, hasher.Match("abc", " abc\t"))
	assert.False(t, hasher.Match("abc", "abd"))
	assert.False(t, hasher.Match("abc", ""))
}
