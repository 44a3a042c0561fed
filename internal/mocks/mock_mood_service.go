package mocks

import (
	"context"

	"github.com/you/moodsvc/domain"
)

// MockMoodService implements domain.MoodService interface for testing
type MockMoodService struct {
	LogFunc     func(ctx context.Context, userID uint, mood, note string) (*domain.MoodEntry, error)
	HistoryFunc func(ctx context.Context, userID uint) ([]*domain.MoodEntry, error)
}

// NewMockMoodService creates a new MockMoodService with default behaviors
func NewMockMoodService() *MockMoodService {
	return &MockMoodService{}
}

// Log logs a mood entry
func (m *MockMoodService) Log(ctx context.Context, userID uint, mood, note string) (*domain.MoodEntry, error) {
	if m.LogFunc != nil {
		return m.LogFunc(ctx, userID, mood, note)
	}
	// Default behavior: echo back a created entry
	return &domain.MoodEntry{ID: 1, UserID: userID, Mood: mood, Note: note}, nil
}

// History lists a user's mood entries
func (m *MockMoodService) History(ctx context.Context, userID uint) ([]*domain.MoodEntry, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID)
	}
	// Default behavior: empty history
	return []*domain.MoodEntry{}, nil
}
