package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/byte4ever/hasher/manifest"
)

func (a *app) manifestCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Record or check the digest of every file of a folder",
	}

	cmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "files hashed concurrently (default from config)")

	workerCount := func(cmd *cobra.Command) int {
		if cmd.Flags().Changed("workers") {
			return workers
		}

		return a.cfg.Manifest.Workers
	}

	var outPath string

	create := &cobra.Command{
		Use:   "create <dir>",
		Short: "Write the manifest of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const errCtx = "creating manifest"

			m, err := manifest.Build(cmd.Context(), args[0], a.cfg.Algorithm, workerCount(cmd))
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			a.logger.Debug(
				"manifest built",
				"root", args[0],
				"files", len(m.Entries),
				"digest", m.Digest,
			)

			if outPath != "" {
				if err := manifest.WriteFile(outPath, m); err != nil {
					return fmt.Errorf("%s: %w", errCtx, err)
				}

				return nil
			}

			if err := manifest.Encode(cmd.OutOrStdout(), m, a.cfg.Manifest.Encoding); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			return nil
		},
	}

	create.Flags().StringVarP(&outPath, "out", "O", "", "write to a file; .json selects JSON, anything else YAML")

	check := &cobra.Command{
		Use:   "check <dir> <manifest>",
		Short: "Compare a folder with a stored manifest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			const errCtx = "checking manifest"

			want, err := manifest.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			d, err := manifest.Check(cmd.Context(), args[0], want, workerCount(cmd))
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			out := cmd.OutOrStdout()

			if d.Empty() {
				_, err := fmt.Fprintf(out, "OK %s\n", d.Got)

				return err
			}

			if _, err := fmt.Fprintf(out, "%sdigest %s, expected %s\n", d, d.Got, d.Want); err != nil {
				return err
			}

			return &ExitError{Code: ExitMismatch, Err: ErrMismatch}
		},
	}

	cmd.AddCommand(create, check)

	return cmd
}
