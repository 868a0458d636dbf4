// Package checkpoint persists migration progress so an interrupted run can
// resume where it stopped.
package checkpoint

import (
	"context"

	"github.com/discussions-migrator/internal/models"
)

// Store loads and saves the single MigrationState record of a run.
//
// Load returns a fresh Unparsed state when nothing has been saved yet or the
// saved record cannot be read; it only fails when the backend itself is
// unreachable. Save replaces the record wholesale.
type Store interface {
	Load(ctx context.Context) (*models.MigrationState, error)
	Save(ctx context.Context, state *models.MigrationState) error
	Close() error
}
