package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/discussions-migrator/internal/config"
	"github.com/discussions-migrator/internal/github"
	"github.com/discussions-migrator/internal/reconcile"
	"github.com/discussions-migrator/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run or resume the migration",
		Long: `Parse the export, match it against the local articles and create the
missing discussions and comments. Stages already recorded in the checkpoint
are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(rootOpts, cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("source", "", "Disqus XML export")
	flags.String("token", "", "GitHub token of the migration operator")
	flags.String("bot-token", "", "GitHub token used for everyone else's comments (defaults to --token)")
	flags.String("owner", "", "owner of the target repository")
	flags.String("repo", "", "name of the target repository")
	flags.String("category", "", "discussion category")
	flags.String("articles", "", "directory of published articles with front matter")
	flags.String("site-url", "", "base URL articles are published under")
	flags.String("forum", "", "only migrate threads of this Disqus forum")
	flags.Duration("cooldown", 0, "pause after each comment")

	return cmd
}

func runMigration(opts *RootOptions, cmd *cobra.Command) error {
	cfg, log, err := setup(opts, cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, log, true)
	if err != nil {
		return err
	}
	defer store.Close()

	services := service.NewServices(cfg, service.Deps{
		Store:  store,
		Remote: remoteFactory(cfg, log),
	}, log)

	report, err := services.Migration.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// remoteFactory connects both identities and resolves the target category
func remoteFactory(cfg *config.Config, log zerolog.Logger) service.RemoteFactory {
	return func(ctx context.Context) (*service.Remote, error) {
		operator := github.NewClient(ctx, cfg.GitHub.Endpoint, cfg.GitHub.Token, log.With().Str("identity", "operator").Logger())
		bot := operator
		if cfg.GitHub.BotToken != cfg.GitHub.Token {
			bot = github.NewClient(ctx, cfg.GitHub.Endpoint, cfg.GitHub.BotToken, log.With().Str("identity", "bot").Logger())
		}

		repo, err := github.OpenRepository(ctx, operator, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Category)
		if err != nil {
			return nil, err
		}

		return &service.Remote{
			Discussions: repo,
			Identities:  reconcile.Identities{Operator: operator, Bot: bot},
			RateLimit:   bot,
		}, nil
	}
}
