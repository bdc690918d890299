package cli

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/byte4ever/hasher/config"
	"github.com/byte4ever/hasher/digest"
)

func (a *app) algosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "algos",
		Short: "List the supported hash algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := digest.SupportedAlgorithms()
			out := cmd.OutOrStdout()

			if a.cfg.Output == config.OutputJSON {
				buf, err := json.Marshal(names)
				if err != nil {
					return fmt.Errorf("listing algorithms: %w", err)
				}

				_, err = fmt.Fprintf(out, "%s\n", buf)

				return err
			}

			for _, name := range names {
				if _, err := fmt.Fprintln(out, name); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
