package cli

import (
	"encoding/json"

	"github.com/discussions-migrator/internal/service"
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var perPost bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the progress recorded in the checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(rootOpts, cmd)
			if err != nil {
				return err
			}

			store, err := openStore(cfg, log, false)
			if err != nil {
				return err
			}
			defer store.Close()

			status := service.NewServices(cfg, service.Deps{Store: store}, log).Status

			var out interface{}
			if perPost {
				out, err = status.Posts(cmd.Context())
			} else {
				out, err = status.Summary(cmd.Context())
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&perPost, "posts", false, "print the per-post breakdown")

	return cmd
}
