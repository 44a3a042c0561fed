package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/moodsvc/domain"
)

// MoodRepositoryImpl implements domain.MoodRepository using GORM
type MoodRepositoryImpl struct {
	db *gorm.DB
}

// DBMoodEntry represents the database model for MoodEntry
type DBMoodEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index"`
	Mood      string    `gorm:"size:64"`
	Note      string    `gorm:"size:1024"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBMoodEntry) TableName() string {
	return "mood_entries"
}

// NewMoodRepository creates a new mood repository
func NewMoodRepository(db *gorm.DB) domain.MoodRepository {
	return &MoodRepositoryImpl{db: db}
}

// Create implements domain.MoodRepository
func (r *MoodRepositoryImpl) Create(ctx context.Context, entry *domain.MoodEntry) error {
	dbEntry := &DBMoodEntry{
		UserID: entry.UserID,
		Mood:   entry.Mood,
		Note:   entry.Note,
	}
	if err := r.db.WithContext(ctx).Create(dbEntry).Error; err != nil {
		return err
	}
	entry.ID = dbEntry.ID
	entry.CreatedAt = dbEntry.CreatedAt
	return nil
}

// ListByUser implements domain.MoodRepository, newest entries first.
func (r *MoodRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*domain.MoodEntry, error) {
	var dbEntries []DBMoodEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&dbEntries).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.MoodEntry, 0, len(dbEntries))
	for i := range dbEntries {
		e := dbEntries[i]
		entries = append(entries, &domain.MoodEntry{
			ID:        e.ID,
			UserID:    e.UserID,
			Mood:      e.Mood,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		})
	}
	return entries, nil
}
