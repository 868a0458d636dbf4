package service

import (
	"context"
	"fmt"
	"time"

	"github.com/discussions-migrator/internal/articles"
	"github.com/discussions-migrator/internal/checkpoint"
	"github.com/discussions-migrator/internal/config"
	"github.com/discussions-migrator/internal/disqus"
	"github.com/discussions-migrator/internal/extract"
	"github.com/discussions-migrator/internal/hierarchy"
	"github.com/discussions-migrator/internal/match"
	"github.com/discussions-migrator/internal/models"
	"github.com/discussions-migrator/internal/normalize"
	"github.com/discussions-migrator/internal/reconcile"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// migrationService is the concrete implementation of MigrationService
type migrationService struct {
	cfg  *config.Config
	deps Deps
	log  zerolog.Logger
}

// newMigrationService creates a new MigrationService
func newMigrationService(cfg *config.Config, deps Deps, log zerolog.Logger) *migrationService {
	if deps.ReadExport == nil {
		deps.ReadExport = disqus.Open
	}
	if deps.ReadArticles == nil {
		deps.ReadArticles = articles.Load
	}
	return &migrationService{
		cfg:  cfg,
		deps: deps,
		log:  log.With().Str("service", "migration").Logger(),
	}
}

// Run loads the checkpoint and executes every stage it has not passed yet.
// Each stage persists its result before the next one starts.
func (s *migrationService) Run(ctx context.Context) (*models.RunReport, error) {
	startTime := time.Now()
	report := &models.RunReport{RunID: uuid.New().String()}
	log := s.log.With().Str("run_id", report.RunID).Logger()

	machine, err := checkpoint.NewMachine(ctx, s.deps.Store, log)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("status", machine.Status().String()).
		Int("posts", len(machine.Forest())).
		Msg("Starting migration")

	if !machine.Reached(models.StatusParsingComplete) {
		forest, dropped, err := s.parse(log)
		if err != nil {
			return nil, err
		}
		if err := machine.CompleteParsing(ctx, forest); err != nil {
			return nil, err
		}
		report.Parsed = true
		report.Dropped = dropped
	} else {
		log.Info().Msg("Parsing already complete, reusing checkpointed forest")
	}

	forest := machine.Forest()
	report.Posts = len(forest)

	if !machine.Reached(models.StatusCommentsAssociated) {
		remote, err := s.deps.Remote(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to remote: %w", err)
		}
		s.logRateLimit(ctx, log, remote, "before")

		r := reconcile.New(remote.Discussions, remote.Identities, reconcile.Options{
			Cooldown:  s.cfg.Migration.Cooldown,
			UseSearch: s.cfg.Migration.SearchFallback,
			Sleep:     s.deps.Sleep,
		}, log)

		if !machine.Reached(models.StatusDiscussionsAssociated) {
			stats, err := r.AssociateDiscussions(ctx, forest, machine.Persist)
			report.DiscussionsMatched, report.DiscussionsCreated = stats.Matched, stats.Created
			if err != nil {
				return nil, err
			}
			if err := machine.Advance(ctx, models.StatusDiscussionsAssociated); err != nil {
				return nil, err
			}
		}

		stats, err := r.AssociateComments(ctx, forest, machine.Persist)
		report.CommentsCreated, report.CommentsSkipped = stats.Created, stats.Skipped
		if err != nil {
			return nil, err
		}
		if err := machine.Advance(ctx, models.StatusCommentsAssociated); err != nil {
			return nil, err
		}

		s.logRateLimit(ctx, log, remote, "after")
	} else {
		log.Info().Msg("Migration already complete")
	}

	report.Status = machine.Status()
	report.Duration = time.Since(startTime)

	var commentsPerSec float64
	if report.CommentsCreated > 0 && report.Duration.Seconds() > 0 {
		commentsPerSec = float64(report.CommentsCreated) / report.Duration.Seconds()
	}

	log.Info().
		Str("status", report.Status.String()).
		Int("posts", report.Posts).
		Int("discussions_matched", report.DiscussionsMatched).
		Int("discussions_created", report.DiscussionsCreated).
		Int("comments_created", report.CommentsCreated).
		Int("comments_skipped", report.CommentsSkipped).
		Int64("duration_ms", report.Duration.Milliseconds()).
		Float64("comments_per_sec", commentsPerSec).
		Msg("Migration completed")

	return report, nil
}

// parse builds the forest from the export and the article list
func (s *migrationService) parse(log zerolog.Logger) ([]*models.Post, map[models.Reason]int, error) {
	doc, err := s.deps.ReadExport(s.cfg.Source.ExportPath)
	if err != nil {
		return nil, nil, err
	}
	known, err := s.deps.ReadArticles(s.cfg.Source.ArticlesDir, s.cfg.Source.SiteURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load articles: %w", err)
	}
	log.Info().Int("articles", len(known)).Msg("Articles loaded")

	res, err := extract.New(extract.Rules{
		Overrides: s.cfg.Migration.Overrides,
		Operators: s.cfg.Migration.Operators,
		Handles:   s.cfg.Migration.Handles,
		Forum:     s.cfg.Source.Forum,
	}, log).Extract(doc)
	if err != nil {
		return nil, nil, err
	}

	normalize.New(res.Authors, log).Apply(res.Comments)

	if err := hierarchy.New(log).Build(res.Posts, res.Comments); err != nil {
		return nil, nil, err
	}

	retained, verdicts, err := match.New(known, log).Match(res.Posts)
	if err != nil {
		return nil, nil, err
	}

	dropped := res.Dropped
	for _, v := range verdicts {
		if !v.Included {
			dropped[v.Reason]++
		}
	}
	return retained, dropped, nil
}

// logRateLimit is best effort; a failure never stops the run
func (s *migrationService) logRateLimit(ctx context.Context, log zerolog.Logger, remote *Remote, phase string) {
	if remote.RateLimit == nil {
		return
	}
	rl, err := remote.RateLimit.RateLimit(ctx)
	if err != nil {
		log.Warn().Err(err).Str("phase", phase).Msg("Rate limit unavailable")
		return
	}
	log.Info().
		Str("phase", phase).
		Int("limit", rl.Limit).
		Int("remaining", rl.Remaining).
		Time("reset_at", rl.ResetAt).
		Msg("Rate limit")
}
