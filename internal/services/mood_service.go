package services

import (
	"context"
	"fmt"
	"log"

	"github.com/you/moodsvc/domain"
)

// MoodServiceImpl implements domain.MoodService
type MoodServiceImpl struct {
	moodRepo  domain.MoodRepository
	publisher domain.Publisher
}

// NewMoodService creates a new mood service. The publisher may be nil when
// no realtime channel is attached (e.g. in tests).
func NewMoodService(moodRepo domain.MoodRepository, publisher domain.Publisher) domain.MoodService {
	return &MoodServiceImpl{
		moodRepo:  moodRepo,
		publisher: publisher,
	}
}

// Log implements domain.MoodService. The entry is always owned by the
// calling user; after a successful write the event is fanned out to every
// live connection in the user's room.
func (s *MoodServiceImpl) Log(ctx context.Context, userID uint, mood, note string) (*domain.MoodEntry, error) {
	entry := &domain.MoodEntry{
		UserID: userID,
		Mood:   mood,
		Note:   note,
	}

	if err := s.moodRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create mood entry: %w", err)
	}

	if s.publisher != nil {
		s.publisher.Broadcast(userID, "mood:logged", domain.MoodLoggedPayload{
			ID:        entry.ID,
			Mood:      entry.Mood,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}

	log.Printf("%s: user_id=%d entry_id=%d mood=%s", domain.MoodLoggedEvent, userID, entry.ID, entry.Mood)
	return entry, nil
}

// History implements domain.MoodService, newest first.
func (s *MoodServiceImpl) History(ctx context.Context, userID uint) ([]*domain.MoodEntry, error) {
	return s.moodRepo.ListByUser(ctx, userID)
}
