package bucket_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/hasher/bucket"
	"github.com/byte4ever/hasher/config"
	"github.com/byte4ever/hasher/hasher"
)

const treeSHA256 = "f9a271ad0be15c1a947e9612586c58cd7811616848132f109d6a9f90f45ffa6c"

func TestHashObject(t *testing.T) {
	t.Parallel()

	fake := newFakeS3("data", map[string]string{"dir/hello.txt": "hello"})
	src := bucket.New(fake)

	got, err := src.HashObject(context.Background(), "data", "dir/hello.txt", "sha256")

	require.NoError(t, err)
	assert.Equal(
		t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		got,
	)
	assert.Equal(t, 1, fake.closed)
}

func TestHashObject_errors(t *testing.T) {
	t.Parallel()

	src := bucket.New(newFakeS3("data", map[string]string{"k": "v"}))

	_, err := src.HashObject(context.Background(), "data", "missing", "sha256")
	require.ErrorIs(t, err, hasher.ErrNotFound)

	_, err = src.HashObject(context.Background(), "other", "k", "sha256")
	require.ErrorIs(t, err, hasher.ErrNotFound)

	_, err = src.HashObject(context.Background(), "data", "k", "tiger")
	require.ErrorIs(t, err, hasher.ErrUnsupportedAlgorithm)
}

func TestHashPrefix_matches_folder_digest(t *testing.T) {
	t.Parallel()

	fake := newFakeS3("data", map[string]string{
		"tree/b/c.txt": "world",
		"tree/a.txt":   "hello",
		"tree/b/":      "",
		"other/x.txt":  "ignored",
	})
	src := bucket.New(fake)

	for _, prefix := range []string{"tree", "tree/", "/tree"} {
		got, err := src.HashPrefix(context.Background(), "data", prefix, "sha256")

		require.NoError(t, err, prefix)
		assert.Equal(t, treeSHA256, got, prefix)
	}
}

func TestHashPrefix_equals_in_memory_tree(t *testing.T) {
	t.Parallel()

	objects := map[string]string{
		"p/a-b.txt":   "one",
		"p/a/x.txt":   "two",
		"p/z/y/w.bin": "three",
		"p/m.txt":     "",
		"p/k.txt":     "four",
	}
	tree := fstest.MapFS{}

	for k, v := range objects {
		tree[k[len("p/"):]] = &fstest.MapFile{Data: []byte(v)}
	}

	want, err := hasher.HashFS(tree, "sha1")
	require.NoError(t, err)

	got, err := bucket.New(newFakeS3("b", objects)).
		HashPrefix(context.Background(), "b", "p", "sha1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHashPrefix_progress(t *testing.T) {
	t.Parallel()

	fake := newFakeS3("data", map[string]string{
		"tree/a.txt":   "hello",
		"tree/b/c.txt": "world",
	})

	var last hasher.Status

	_, err := bucket.New(fake).HashPrefix(
		context.Background(), "data", "tree", "sha256",
		hasher.WithProgress(hasher.ProgressFunc(func(s hasher.Status) {
			last = s
		})),
	)

	require.NoError(t, err)
	assert.Equal(t, hasher.Status{
		Path:       "b/c.txt",
		FilesDone:  2,
		FilesTotal: 2,
		BytesDone:  10,
		BytesTotal: 10,
	}, last)
	assert.Equal(t, 2, fake.closed)
}

func TestHashPrefix_whole_bucket_and_empty(t *testing.T) {
	t.Parallel()

	src := bucket.New(newFakeS3("data", map[string]string{
		"a.txt":   "hello",
		"b/c.txt": "world",
	}))

	got, err := src.HashPrefix(context.Background(), "data", "", "sha256")
	require.NoError(t, err)
	assert.Equal(t, treeSHA256, got)

	got, err = src.HashPrefix(context.Background(), "data", "none", "sha256")
	require.NoError(t, err)
	assert.Equal(
		t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		got,
	)
}

func TestHashPrefix_errors(t *testing.T) {
	t.Parallel()

	src := bucket.New(newFakeS3("data", map[string]string{
		"p/a//b.txt": "bad",
	}))

	_, err := src.HashPrefix(context.Background(), "data", "p", "sha256")
	require.ErrorIs(t, err, bucket.ErrInvalidKey)

	_, err = src.HashPrefix(context.Background(), "nope", "p", "sha256")
	require.ErrorIs(t, err, hasher.ErrNotFound)

	_, err = src.HashPrefix(context.Background(), "nope", "p", "sha3-512")
	require.ErrorIs(t, err, hasher.ErrUnsupportedAlgorithm)
}

func TestParseURL(t *testing.T) {
	t.Parallel()

	b, k, err := bucket.ParseURL("s3://my-bucket/some/key.txt")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", b)
	assert.Equal(t, "some/key.txt", k)

	b, k, err = bucket.ParseURL("s3://my-bucket")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", b)
	assert.Empty(t, k)

	for _, raw := range []string{"http://x/y", "s3:///key", "relative/path"} {
		_, _, err := bucket.ParseURL(raw)
		require.ErrorIs(t, err, bucket.ErrInvalidURL, raw)
	}

	assert.True(t, bucket.IsURL("s3://b/k"))
	assert.False(t, bucket.IsURL("/tmp/s3://"))
}

func TestNewSession_applies_config(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	sess, err := bucket.NewSession(config.Bucket{
		Region:    "eu-west-3",
		Endpoint:  "http://127.0.0.1:9000",
		PathStyle: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "eu-west-3", *sess.Config.Region)
	assert.Equal(t, "http://127.0.0.1:9000", *sess.Config.Endpoint)
	assert.True(t, *sess.Config.S3ForcePathStyle)
}
