package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
)

// ErrInvalidTransition is returned when a transition skips a status or goes backward
var ErrInvalidTransition = errors.New("invalid checkpoint transition")

// Machine owns the loaded MigrationState and persists it on every change
type Machine struct {
	store Store
	state *models.MigrationState
	log   zerolog.Logger
}

// NewMachine loads the last persisted state from store
func NewMachine(ctx context.Context, store Store, log zerolog.Logger) (*Machine, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return &Machine{
		store: store,
		state: state,
		log:   log.With().Str("component", "checkpoint").Logger(),
	}, nil
}

// Status returns the current status
func (m *Machine) Status() models.Status {
	return m.state.Status
}

// Forest returns the posts carried by the state. Callers mutate remote
// identities in place and call Persist.
func (m *Machine) Forest() []*models.Post {
	return m.state.Forest
}

// State returns the underlying record
func (m *Machine) State() *models.MigrationState {
	return m.state
}

// Reached reports whether the state is at or past s
func (m *Machine) Reached(s models.Status) bool {
	return m.state.Status >= s
}

// CompleteParsing stores the built forest and moves Unparsed to ParsingComplete
func (m *Machine) CompleteParsing(ctx context.Context, forest []*models.Post) error {
	if m.state.Status != models.StatusUnparsed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state.Status, models.StatusParsingComplete)
	}
	if forest == nil {
		forest = []*models.Post{}
	}
	previous := m.state.Forest
	m.state.Forest = forest
	if err := m.Advance(ctx, models.StatusParsingComplete); err != nil {
		m.state.Forest = previous
		return err
	}
	return nil
}

// Advance moves to the next status and persists the state. The in-memory
// status is left unchanged when the save fails.
func (m *Machine) Advance(ctx context.Context, to models.Status) error {
	from := m.state.Status
	if !to.Valid() || to != from+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	m.state.Status = to
	if err := m.store.Save(ctx, m.state); err != nil {
		m.state.Status = from
		return fmt.Errorf("failed to persist %s: %w", to, err)
	}

	m.log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Int("posts", len(m.state.Forest)).
		Msg("Checkpoint advanced")
	return nil
}

// Persist saves the state without changing its status
func (m *Machine) Persist(ctx context.Context) error {
	if err := m.store.Save(ctx, m.state); err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	return nil
}
