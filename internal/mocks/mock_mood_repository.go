package mocks

import (
	"context"

	"github.com/you/moodsvc/domain"
)

// MockMoodRepository implements domain.MoodRepository interface for testing
type MockMoodRepository struct {
	CreateFunc     func(ctx context.Context, entry *domain.MoodEntry) error
	ListByUserFunc func(ctx context.Context, userID uint) ([]*domain.MoodEntry, error)
}

// NewMockMoodRepository creates a new MockMoodRepository with default behaviors
func NewMockMoodRepository() *MockMoodRepository {
	return &MockMoodRepository{}
}

// Create creates a mood entry
func (m *MockMoodRepository) Create(ctx context.Context, entry *domain.MoodEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	// Default behavior: success
	return nil
}

// ListByUser lists a user's mood entries
func (m *MockMoodRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.MoodEntry, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	// Default behavior: empty history
	return []*domain.MoodEntry{}, nil
}
