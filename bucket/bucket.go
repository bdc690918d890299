package bucket

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/byte4ever/hasher/config"
	"github.com/byte4ever/hasher/digest"
	"github.com/byte4ever/hasher/hasher"
)

var (
	// ErrInvalidURL is returned for a location that is not s3://bucket/key.
	ErrInvalidURL = errors.New("invalid s3 url")

	// ErrInvalidKey is returned for an object key that cannot be mapped to
	// a relative path, such as one holding an empty segment.
	ErrInvalidKey = errors.New("invalid object key")
)

// Source reads objects through an S3 client.
type Source struct {
	Client s3iface.S3API
}

// New returns a Source using client.
func New(client s3iface.S3API) *Source {
	return &Source{Client: client}
}

// NewSession builds an AWS session from cfg. Unset fields fall back to
// the SDK defaults: environment, shared config and instance roles.
func NewSession(cfg config.Bucket) (*session.Session, error) {
	const errCtx = "creating aws session"

	awsCfg := aws.Config{}

	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}

	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	if cfg.PathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsCfg,
		Profile:           cfg.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return sess, nil
}

// NewFromConfig returns a Source backed by a real S3 client.
func NewFromConfig(cfg config.Bucket) (*Source, error) {
	sess, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return New(s3.New(sess)), nil
}

// ParseURL splits s3://bucket/key into its bucket and key.
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// IsURL reports whether raw looks like an s3:// location.
func IsURL(raw string) bool {
	return strings.HasPrefix(raw, "s3://")
}

// HashObject returns the digest of the content of one object.
func (s *Source) HashObject(
	ctx aws.Context,
	bucket string,
	key string,
	algorithm string,
) (string, error) {
	const errCtx = "hashing object"

	alg, err := digest.Resolve(algorithm)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	st, err := digest.New(alg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	body, err := s.open(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("%s: s3://%s/%s: %w", errCtx, bucket, key, err)
	}

	if err := readInto(st, body); err != nil {
		return "", fmt.Errorf("%s: s3://%s/%s: %w", errCtx, bucket, key, err)
	}

	return st.Finalize()
}

// HashPrefix returns the folder digest of every object under prefix.
// Keys ending in "/" are directory markers and are skipped.
func (s *Source) HashPrefix(
	ctx aws.Context,
	bucket string,
	prefix string,
	algorithm string,
	opts ...hasher.Option,
) (string, error) {
	const errCtx = "hashing prefix"

	if _, err := digest.Resolve(algorithm); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	prefix = dirPrefix(prefix)

	entries, err := s.List(ctx, bucket, prefix)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	fsys := &objectFS{ctx: ctx, src: s, bucket: bucket, prefix: prefix}

	sum, err := hasher.HashEntries(fsys, algorithm, entries, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: s3://%s/%s: %w", errCtx, bucket, prefix, err)
	}

	return sum, nil
}

// List returns the objects under prefix as entries relative to it.
func (s *Source) List(
	ctx aws.Context,
	bucket string,
	prefix string,
) ([]hasher.Entry, error) {
	const errCtx = "listing objects"

	var (
		entries []hasher.Entry
		keyErr  error
	)

	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	err := s.Client.ListObjectsV2PagesWithContext(
		ctx,
		input,
		func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, obj := range page.Contents {
				key := aws.StringValue(obj.Key)
				if strings.HasSuffix(key, "/") {
					continue
				}

				rel := strings.TrimPrefix(key, prefix)
				if !fs.ValidPath(rel) || rel == "." {
					keyErr = fmt.Errorf("%w: %q", ErrInvalidKey, key)

					return false
				}

				entries = append(entries, hasher.Entry{
					Path: rel,
					Size: aws.Int64Value(obj.Size),
				})
			}

			return true
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: s3://%s/%s: %w", errCtx, bucket, prefix, classify(err))
	}

	if keyErr != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, keyErr)
	}

	return entries, nil
}

func (s *Source) open(
	ctx aws.Context,
	bucket string,
	key string,
) (*s3.GetObjectOutput, error) {
	out, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err)
	}

	return out, nil
}

func readInto(st *digest.State, out *s3.GetObjectOutput) (retErr error) {
	defer func() {
		if closeErr := out.Body.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%w: %w", hasher.ErrIO, closeErr)
		}
	}()

	if _, err := st.ReadFrom(out.Body); err != nil {
		return fmt.Errorf("%w: %w", hasher.ErrIO, err)
	}

	return nil
}

// classify maps missing bucket or key errors to hasher.ErrNotFound and
// everything else to hasher.ErrIO.
func classify(err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return fmt.Errorf("%w: %w", hasher.ErrNotFound, err)
		}
	}

	return fmt.Errorf("%w: %w", hasher.ErrIO, err)
}

func dirPrefix(prefix string) string {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}

	return prefix + "/"
}

// objectFS exposes the objects under a prefix as a read-only file system
// so that the folder algorithm can stream them.
type objectFS struct {
	ctx    aws.Context
	src    *Source
	bucket string
	prefix string
}

func (o *objectFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	out, err := o.src.open(o.ctx, o.bucket, o.prefix+name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	return &objectFile{name: name, out: out}, nil
}

type objectFile struct {
	name string
	out  *s3.GetObjectOutput
}

func (f *objectFile) Read(p []byte) (int, error) {
	return f.out.Body.Read(p)
}

func (f *objectFile) Close() error {
	return f.out.Body.Close()
}

func (f *objectFile) Stat() (fs.FileInfo, error) {
	return objectInfo{f: f}, nil
}

type objectInfo struct {
	f *objectFile
}

func (i objectInfo) Name() string {
	return i.f.name[strings.LastIndex(i.f.name, "/")+1:]
}

func (i objectInfo) Size() int64 {
	return aws.Int64Value(i.f.out.ContentLength)
}

func (i objectInfo) Mode() fs.FileMode {
	return 0o444
}

func (i objectInfo) ModTime() time.Time {
	return aws.TimeValue(i.f.out.LastModified)
}

func (i objectInfo) IsDir() bool {
	return false
}

func (i objectInfo) Sys() any {
	return i.f.out
}

var _ fs.File = (*objectFile)(nil)
