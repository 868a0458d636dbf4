package mocks

import (
	"context"

	"github.com/discussions-migrator/internal/models"
)

// MockStatusService returns canned progress
type MockStatusService struct {
	Progress     models.Progress
	PostProgress []models.PostProgress
	Error        error
}

func NewMockStatusService() *MockStatusService {
	return &MockStatusService{}
}

func (m *MockStatusService) Summary(ctx context.Context) (*models.Progress, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	p := m.Progress
	return &p, nil
}

func (m *MockStatusService) Posts(ctx context.Context) ([]models.PostProgress, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.PostProgress, nil
}
