package cli

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/byte4ever/hasher/bucket"
	"github.com/byte4ever/hasher/config"
)

// ExecuteWithS3ForTest runs the command line with client standing in for
// the S3 service.
func ExecuteWithS3ForTest(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
	client s3iface.S3API,
) error {
	a := newApp(stdout, stderr)
	a.newSource = func(config.Bucket) (*bucket.Source, error) {
		return bucket.New(client), nil
	}

	return a.execute(ctx, args)
}
