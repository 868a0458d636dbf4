package mocks

import (
	"context"
	"encoding/json"

	"github.com/discussions-migrator/internal/models"
)

// MockStore keeps the last saved state serialized, as a real backend would
type MockStore struct {
	Data      []byte
	LoadError error
	SaveError error
	SaveCalls int
	Statuses  []models.Status
	Closed    bool
}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Load(ctx context.Context) (*models.MigrationState, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.Data == nil {
		return models.NewMigrationState(), nil
	}
	var state models.MigrationState
	if err := json.Unmarshal(m.Data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *MockStore) Save(ctx context.Context, state *models.MigrationState) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.Data = data
	m.SaveCalls++
	m.Statuses = append(m.Statuses, state.Status)
	return nil
}

func (m *MockStore) Close() error {
	m.Closed = true
	return nil
}
