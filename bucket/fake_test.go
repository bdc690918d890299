package bucket_test

import (
	"bytes"
	"io"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3 serves objects of a single bucket from memory. Listings are
// returned in pages of pageSize objects.
type fakeS3 struct {
	s3iface.S3API

	bucket   string
	objects  map[string][]byte
	pageSize int

	mu     sync.Mutex
	gets   []string
	closed int
}

func newFakeS3(bucket string, objects map[string]string) *fakeS3 {
	f := &fakeS3{
		bucket:   bucket,
		objects:  make(map[string][]byte, len(objects)),
		pageSize: 2,
	}

	for k, v := range objects {
		f.objects[k] = []byte(v)
	}

	return f
}

func (f *fakeS3) noSuchBucket() error {
	return awserr.New(s3.ErrCodeNoSuchBucket, "no such bucket", nil)
}

func (f *fakeS3) GetObjectWithContext(
	_ aws.Context,
	in *s3.GetObjectInput,
	_ ...request.Option,
) (*s3.GetObjectOutput, error) {
	if aws.StringValue(in.Bucket) != f.bucket {
		return nil, f.noSuchBucket()
	}

	key := aws.StringValue(in.Key)

	data, ok := f.objects[key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}

	f.mu.Lock()
	f.gets = append(f.gets, key)
	f.mu.Unlock()

	return &s3.GetObjectOutput{
		Body:          &trackedBody{Reader: bytes.NewReader(data), f: f},
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(
	_ aws.Context,
	in *s3.ListObjectsV2Input,
	fn func(*s3.ListObjectsV2Output, bool) bool,
	_ ...request.Option,
) error {
	if aws.StringValue(in.Bucket) != f.bucket {
		return f.noSuchBucket()
	}

	prefix := aws.StringValue(in.Prefix)

	var keys []string

	for k := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}

	// S3 lists keys in ascending order.
	sort.Strings(keys)

	for start := 0; ; start += f.pageSize {
		end := min(start+f.pageSize, len(keys))

		page := &s3.ListObjectsV2Output{}
		for _, k := range keys[start:end] {
			page.Contents = append(page.Contents, &s3.Object{
				Key:  aws.String(k),
				Size: aws.Int64(int64(len(f.objects[k]))),
			})
		}

		last := end == len(keys)
		if !fn(page, last) || last {
			return nil
		}
	}
}

type trackedBody struct {
	io.Reader
	f *fakeS3
}

func (b *trackedBody) Close() error {
	b.f.mu.Lock()
	b.f.closed++
	b.f.mu.Unlock()

	return nil
}
