package service

import (
	"context"
	"time"

	"github.com/discussions-migrator/internal/checkpoint"
	"github.com/discussions-migrator/internal/config"
	"github.com/discussions-migrator/internal/disqus"
	"github.com/discussions-migrator/internal/github"
	"github.com/discussions-migrator/internal/models"
	"github.com/discussions-migrator/internal/reconcile"
	"github.com/rs/zerolog"
)

// MigrationService runs the pipeline to completion, resuming from the checkpoint
type MigrationService interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

// StatusService reports the progress recorded in the checkpoint
type StatusService interface {
	Summary(ctx context.Context) (*models.Progress, error)
	Posts(ctx context.Context) ([]models.PostProgress, error)
}

// RateLimiter reports the remaining API budget
type RateLimiter interface {
	RateLimit(ctx context.Context) (*github.RateLimit, error)
}

// Remote bundles the collaborators that talk to the target
type Remote struct {
	Discussions reconcile.DiscussionSource
	Identities  reconcile.Identities

	// RateLimit is optional; telemetry is skipped when nil.
	RateLimit RateLimiter
}

// RemoteFactory connects to the target. It is only called when a stage
// with remote side effects still has to run.
type RemoteFactory func(ctx context.Context) (*Remote, error)

// Deps are the collaborators of the migration
type Deps struct {
	Store  checkpoint.Store
	Remote RemoteFactory

	// Optional overrides, mostly for tests
	ReadExport   func(path string) (*disqus.Export, error)
	ReadArticles func(dir, siteURL string) ([]models.Article, error)
	Sleep        func(ctx context.Context, d time.Duration) error
}

// Services holds all service interfaces
type Services struct {
	Migration MigrationService
	Status    StatusService
}

// NewServices creates all services
func NewServices(cfg *config.Config, deps Deps, log zerolog.Logger) *Services {
	return &Services{
		Migration: newMigrationService(cfg, deps, log),
		Status:    newStatusService(deps.Store, log),
	}
}
