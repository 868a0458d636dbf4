package checkpoint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/discussions-migrator/internal/database"
	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForest() []*models.Post {
	created := time.Date(2019, 9, 1, 12, 0, 0, 0, time.UTC)
	top := &models.Comment{
		ID:        "c1",
		PostID:    "t1",
		CreatedAt: created,
		Author:    models.Author{Name: "Alice", Username: "alice"},
		Body:      "<p>hi</p>",
		Remote:    &models.RemoteComment{ID: "DC_1", URL: "https://github.com/o/r/discussions/1#discussioncomment-1"},
	}
	top.Replies = []*models.Comment{{
		ID:        "c2",
		PostID:    "t1",
		ParentID:  "c1",
		CreatedAt: created.Add(time.Minute),
		Author:    models.Author{Name: "Bob", Anonymous: true},
		Body:      "<p>reply</p>",
	}}
	return []*models.Post{{
		ID:          "t1",
		Title:       "First",
		URL:         "https://blog.example.com/first/",
		CreatedAt:   created,
		Fingerprint: "abc",
		Comments:    []*models.Comment{top},
		Article:     &models.Article{Title: "First", URL: "https://blog.example.com/first/"},
		Discussion:  &models.RemoteDiscussion{ID: "D_1", Number: 1, Title: "first"},
	}}
}

func TestFileStore_MissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	require.NoError(t, err)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnparsed, state.Status)
	assert.Empty(t, state.Forest)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)

	in := &models.MigrationState{Status: models.StatusDiscussionsAssociated, Forest: sampleForest()}
	require.NoError(t, store.Save(ctx, in))
	require.NoError(t, store.Save(ctx, in))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a save")

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFileStore_CorruptFile(t *testing.T) {
	cases := map[string]string{
		"not json":       "{status: 1",
		"unknown status": `{"status": 7, "forest": []}`,
		"wrong type":     `{"status": "done"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			store, err := NewFileStore(path, zerolog.Nop())
			require.NoError(t, err)
			state, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, models.StatusUnparsed, state.Status)
			assert.Empty(t, state.Forest)
		})
	}
}

func TestFileStore_RemovesStaleTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path+".tmp", []byte("partial"), 0o600))

	store, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), models.NewMigrationState()))
}

func TestReadOnlyFileStore_LeavesWriterTempFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	writer, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, writer.Save(ctx, &models.MigrationState{Status: models.StatusParsingComplete, Forest: sampleForest()}))

	// A save in progress: the temp file is open and written, not yet renamed
	tmp, err := os.OpenFile(path+".tmp", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	require.NoError(t, err)
	_, err = tmp.WriteString(`{"status":2,"forest":[]}`)
	require.NoError(t, err)
	require.NoError(t, tmp.Sync())
	require.NoError(t, tmp.Close())

	reader := NewReadOnlyFileStore(path, zerolog.Nop())
	state, err := reader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusParsingComplete, state.Status)

	require.NoError(t, os.Rename(path+".tmp", path))

	state, err = reader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDiscussionsAssociated, state.Status)
}

func TestReadOnlyFileStore_RejectsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	reader := NewReadOnlyFileStore(path, zerolog.Nop())

	err := reader.Save(context.Background(), models.NewMigrationState())
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".tmp")
}

func TestSQLStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "state.db"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := NewSQLStore(db, zerolog.Nop())
	defer store.Close()

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnparsed, state.Status)

	in := &models.MigrationState{Status: models.StatusParsingComplete, Forest: sampleForest()}
	require.NoError(t, store.Save(ctx, in))
	in.Status = models.StatusDiscussionsAssociated
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

type failingStore struct {
	saves int
	fail  bool
}

func (s *failingStore) Load(ctx context.Context) (*models.MigrationState, error) {
	return models.NewMigrationState(), nil
}

func (s *failingStore) Save(ctx context.Context, state *models.MigrationState) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.saves++
	return nil
}

func (s *failingStore) Close() error { return nil }

func TestMachine_ForwardOnly(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	m, err := NewMachine(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	err = m.Advance(ctx, models.StatusDiscussionsAssociated)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, m.CompleteParsing(ctx, sampleForest()))
	assert.Equal(t, models.StatusParsingComplete, m.Status())
	assert.Len(t, m.Forest(), 1)

	assert.ErrorIs(t, m.CompleteParsing(ctx, nil), ErrInvalidTransition)
	assert.ErrorIs(t, m.Advance(ctx, models.StatusParsingComplete), ErrInvalidTransition)
	assert.ErrorIs(t, m.Advance(ctx, models.StatusCommentsAssociated), ErrInvalidTransition)

	require.NoError(t, m.Advance(ctx, models.StatusDiscussionsAssociated))
	require.NoError(t, m.Persist(ctx))
	require.NoError(t, m.Advance(ctx, models.StatusCommentsAssociated))
	assert.True(t, m.Reached(models.StatusCommentsAssociated))

	assert.ErrorIs(t, m.Advance(ctx, models.StatusCommentsAssociated+1), ErrInvalidTransition)
	assert.Equal(t, 4, store.saves)
}

func TestMachine_FailedSaveKeepsStatus(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{fail: true}
	m, err := NewMachine(ctx, store, zerolog.Nop())
	require.NoError(t, err)

	err = m.CompleteParsing(ctx, sampleForest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusUnparsed, m.Status())
	assert.Empty(t, m.Forest())
}
