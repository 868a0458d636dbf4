package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/discussions-migrator/internal/database"
	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
)

const (
	selectStateQuery = `SELECT status, forest FROM migration_state WHERE id = 1`

	upsertStatePostgres = `
		INSERT INTO migration_state (id, status, forest, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, forest = EXCLUDED.forest, updated_at = EXCLUDED.updated_at`

	upsertStateSQLite = `
		INSERT INTO migration_state (id, status, forest, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET status = excluded.status, forest = excluded.forest, updated_at = excluded.updated_at`
)

// SQLStore keeps the state in the single-row migration_state table
type SQLStore struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSQLStore creates a store over an open database whose migrations have run
func NewSQLStore(db *database.DB, log zerolog.Logger) *SQLStore {
	return &SQLStore{
		db:  db,
		log: log.With().Str("component", "checkpoint").Str("driver", db.Driver()).Logger(),
	}
}

// Load reads the state row
func (s *SQLStore) Load(ctx context.Context) (*models.MigrationState, error) {
	var (
		status int
		forest []byte
	)
	err := s.db.QueryRowContext(ctx, selectStateQuery).Scan(&status, &forest)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Info().Msg("No checkpoint found, starting from scratch")
		return models.NewMigrationState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint: %w", err)
	}

	data, err := json.Marshal(struct {
		Status int             `json:"status"`
		Forest json.RawMessage `json:"forest"`
	}{status, forest})
	if err == nil {
		var state *models.MigrationState
		if state, err = decodeState(data); err == nil {
			s.log.Info().Str("status", state.Status.String()).Int("posts", len(state.Forest)).Msg("Checkpoint loaded")
			return state, nil
		}
	}

	s.log.Warn().Err(err).Msg("Checkpoint corrupt, starting from scratch")
	return models.NewMigrationState(), nil
}

// Save upserts the state row
func (s *SQLStore) Save(ctx context.Context, state *models.MigrationState) error {
	forest := state.Forest
	if forest == nil {
		forest = []*models.Post{}
	}
	data, err := json.Marshal(forest)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	query := upsertStateSQLite
	if s.db.Driver() == database.DriverPostgres {
		query = upsertStatePostgres
	}

	if _, err := s.db.ExecContext(ctx, query, int(state.Status), string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	s.log.Debug().Str("status", state.Status.String()).Int("bytes", len(data)).Msg("Checkpoint saved")
	return nil
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
