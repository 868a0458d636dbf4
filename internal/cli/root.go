// Package cli wires configuration, storage and the remote client into the
// migrator commands.
package cli

import (
	"github.com/discussions-migrator/internal/config"
	"github.com/discussions-migrator/internal/models"
	"github.com/discussions-migrator/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// NewRootCommand creates the root command for the migrator CLI.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrator",
		Short: "Migrate Disqus comments into GitHub Discussions",
		Long: `Migrate a Disqus XML export into GitHub Discussions.

Progress is checkpointed after every remote write, so an interrupted run
picks up where it stopped when started again with the same checkpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (json|pretty)")
	cmd.PersistentFlags().String("checkpoint", "", "checkpoint file, or SQLite database for the sqlite backend")
	cmd.PersistentFlags().String("backend", "", "checkpoint backend (file|sqlite|postgres)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// Execute runs the CLI and returns the process exit code
func Execute(args []string) int {
	opts := &RootOptions{}
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		log := logger.New(opts.LogLevel, opts.LogFormat)
		event := log.Error().Err(err)
		if code := models.DataErrorCodeOf(err); code != "" {
			event = event.Str("code", string(code))
		}
		event.Msg("Migrator failed")
		return 1
	}
	return 0
}

// setup loads the configuration with the command's flags bound and builds the logger
func setup(opts *RootOptions, cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	return cfg, log, nil
}
