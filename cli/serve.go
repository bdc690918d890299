package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/byte4ever/hasher/server"
)

func (a *app) serveCommand() *cobra.Command {
	var (
		addr       string
		noLocal    bool
		maxUpload  int64
		maxExtract int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const errCtx = "serving"

			cfg := a.cfg.Server

			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			if cmd.Flags().Changed("max-upload") {
				cfg.MaxUploadBytes = maxUpload
			}

			if cmd.Flags().Changed("max-extract") {
				cfg.MaxExtractBytes = maxExtract
			}

			if noLocal {
				cfg.AllowLocalPaths = false
			}

			srv, err := server.New(cfg, a.logger)
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			if err := srv.ListenAndServe(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&noLocal, "no-local-paths", false, "refuse to hash paths on the server host")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", 0, "maximum request size in bytes")
	cmd.Flags().Int64Var(&maxExtract, "max-extract", 0, "maximum uncompressed size of an uploaded archive in bytes")

	return cmd
}
