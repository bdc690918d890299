package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/byte4ever/hasher/bucket"
	"github.com/byte4ever/hasher/hasher"
	"github.com/byte4ever/hasher/render"
)

func (a *app) s3Command() *cobra.Command {
	var (
		prefix   bool
		compare  string
		strict   bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "s3 s3://bucket/key",
		Short: "Hash an S3 object, or every object under a prefix as a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const errCtx = "hashing s3"

			bkt, key, err := bucket.ParseURL(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			src, err := a.newSource(a.cfg.Bucket)
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			res := render.Result{
				Algorithm: canonical(a.cfg.Algorithm),
				Path:      args[0],
			}

			if prefix {
				var opts []hasher.Option

				if progress {
					bar := newProgressBar(cmd.ErrOrStderr())
					defer bar.Finish()

					opts = append(opts, hasher.WithProgress(bar))
				}

				res.Kind = hasher.KindFolder.String()
				res.Digest, err = src.HashPrefix(cmd.Context(), bkt, key, a.cfg.Algorithm, opts...)
			} else {
				res.Kind = hasher.KindFile.String()
				res.Digest, err = src.HashObject(cmd.Context(), bkt, key, a.cfg.Algorithm)
			}

			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			return a.report(cmd, res, compare, strict)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&prefix, "prefix", false, "hash every object under the key as a folder")
	f.StringVarP(&compare, "compare", "c", "", "expected hash to compare against")
	f.BoolVar(&strict, "strict", false, "exit with code 2 on mismatch")
	f.BoolVar(&progress, "progress", false, "show a progress bar with --prefix")

	return cmd
}
