package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
)

// ErrReadOnly is returned by Save on a store opened for reading
var ErrReadOnly = errors.New("checkpoint store is read-only")

// FileStore keeps the state as a JSON document on disk
type FileStore struct {
	path     string
	readOnly bool
	log      zerolog.Logger
}

// NewReadOnlyFileStore opens path for reading only. It never touches the
// temporary file, so it is safe to use while a run is writing.
func NewReadOnlyFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{
		path:     path,
		readOnly: true,
		log:      log.With().Str("component", "checkpoint").Str("path", path).Logger(),
	}
}

// NewFileStore creates the writing store backed by path. A temporary file
// left by a write that was interrupted is removed, since only one writer
// may use a checkpoint file at a time.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{
		path: path,
		log:  log.With().Str("component", "checkpoint").Str("path", path).Logger(),
	}
	if err := os.Remove(s.tmpPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale checkpoint temp file: %w", err)
	}
	return s, nil
}

func (s *FileStore) tmpPath() string {
	return s.path + ".tmp"
}

// Load reads the checkpoint file
func (s *FileStore) Load(ctx context.Context) (*models.MigrationState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info().Msg("No checkpoint found, starting from scratch")
		return models.NewMigrationState(), nil
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Checkpoint unreadable, starting from scratch")
		return models.NewMigrationState(), nil
	}

	state, err := decodeState(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("Checkpoint corrupt, starting from scratch")
		return models.NewMigrationState(), nil
	}

	s.log.Info().Str("status", state.Status.String()).Int("posts", len(state.Forest)).Msg("Checkpoint loaded")
	return state, nil
}

// Save writes the state to a temporary file opened exclusively, syncs it,
// and renames it over the checkpoint.
func (s *FileStore) Save(ctx context.Context, state *models.MigrationState) error {
	if s.readOnly {
		return ErrReadOnly
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tmp := s.tmpPath()
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint for writing: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}

	s.log.Debug().Str("status", state.Status.String()).Int("bytes", len(data)).Msg("Checkpoint saved")
	return nil
}

// Close is a no-op; the file is only open during Save
func (s *FileStore) Close() error {
	return nil
}

func decodeState(data []byte) (*models.MigrationState, error) {
	var state models.MigrationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if !state.Status.Valid() {
		return nil, fmt.Errorf("unknown status %d", int(state.Status))
	}
	if state.Forest == nil {
		state.Forest = []*models.Post{}
	}
	return &state, nil
}
