package cli

import (
	"fmt"

	"github.com/discussions-migrator/internal/checkpoint"
	"github.com/discussions-migrator/internal/config"
	"github.com/discussions-migrator/internal/database"
	"github.com/rs/zerolog"
)

// openStore opens the configured checkpoint backend, running migrations for
// SQL backends. Only run opens a file checkpoint for writing; status and serve
// read it while a run may be saving.
func openStore(cfg *config.Config, log zerolog.Logger, writable bool) (checkpoint.Store, error) {
	switch cfg.Checkpoint.Backend {
	case config.BackendFile:
		if !writable {
			return checkpoint.NewReadOnlyFileStore(cfg.Checkpoint.Path, log), nil
		}
		return checkpoint.NewFileStore(cfg.Checkpoint.Path, log)

	case config.BackendSQLite, config.BackendPostgres:
		var (
			db  *database.DB
			err error
		)
		if cfg.Checkpoint.Backend == config.BackendSQLite {
			db, err = database.OpenSQLite(cfg.Checkpoint.Path, log)
		} else {
			db, err = database.New(&cfg.Database, log)
		}
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		return checkpoint.NewSQLStore(db, log), nil

	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Checkpoint.Backend)
	}
}
