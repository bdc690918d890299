package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byte4ever/hasher/archive"
	"github.com/byte4ever/hasher/digest"
	"github.com/byte4ever/hasher/hasher"
	"github.com/byte4ever/hasher/render"
	"github.com/byte4ever/hasher/sidecar"
)

type hashFlags struct {
	compare      string
	strict       bool
	unzip        bool
	progress     bool
	saveSidecar  bool
	checkSidecar bool
}

func (a *app) runHash(cmd *cobra.Command, path string, flags hashFlags) error {
	const errCtx = "hashing"

	if flags.unzip && (flags.saveSidecar || flags.checkSidecar) {
		// The sidecar of an archive holds the digest of the archive file.
		return fmt.Errorf(
			"%s: %w: --unzip with --save-sidecar or --check-sidecar",
			errCtx, ErrFlagConflict,
		)
	}

	if flags.checkSidecar {
		if flags.compare != "" {
			return fmt.Errorf(
				"%s: %w: --compare with --check-sidecar",
				errCtx, ErrFlagConflict,
			)
		}

		stored, err := sidecar.Read(path, a.cfg.Algorithm)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		if stored == "" {
			return fmt.Errorf("%s: %w: %s", errCtx, sidecar.ErrMissing, path)
		}

		flags.compare = stored
	}

	target := path

	if flags.unzip {
		if !archive.IsZip(path) {
			return fmt.Errorf("%s: --unzip needs a .zip archive: %s", errCtx, path)
		}

		dir, cleanup, err := archive.Stage(path)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		defer cleanup()

		a.logger.Debug("archive staged", "archive", path, "dir", dir)
		target = dir
	}

	var opts []hasher.Option

	if flags.progress {
		bar := newProgressBar(cmd.ErrOrStderr())
		defer bar.Finish()

		opts = append(opts, hasher.WithProgress(bar))
	}

	sum, kind, err := hasher.HashPath(target, a.cfg.Algorithm, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	res := render.Result{
		Algorithm: canonical(a.cfg.Algorithm),
		Kind:      kind.String(),
		Path:      path,
		Digest:    sum,
	}

	a.logger.Debug("hashed", "path", path, "kind", res.Kind, "digest", sum)

	if flags.saveSidecar {
		alg, _ := digest.Resolve(a.cfg.Algorithm)

		if err := sidecar.Write(path, alg, sum); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		a.logger.Debug("sidecar written", "path", sidecar.Path(path, alg))
	}

	return a.report(cmd, res, flags.compare, flags.strict)
}

// report prints res, compared with expected when given. A mismatch fails
// only in strict mode.
func (a *app) report(
	cmd *cobra.Command,
	res render.Result,
	expected string,
	strict bool,
) error {
	expected = strings.TrimSpace(expected)
	if expected != "" {
		res = res.WithMatch(expected, hasher.Match(res.Digest, expected))
	}

	if err := render.Write(cmd.OutOrStdout(), a.cfg.Output, a.cfg.Format, res); err != nil {
		return err
	}

	if res.Compared() && !res.Matched() && (strict || a.cfg.Strict) {
		return &ExitError{Code: ExitMismatch, Err: ErrMismatch}
	}

	return nil
}

func canonical(name string) string {
	alg, err := digest.Resolve(name)
	if err != nil {
		return name
	}

	return alg.String()
}
