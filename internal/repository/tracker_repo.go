package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/db"
)

// TrackerRepository stores one DailyActivityTracker per (user, date).
// The model's BeforeSave hook keeps NetCalorieBalance current, so every write
// here goes through Create or Save.
type TrackerRepository struct {
	db *gorm.DB
}

func NewTrackerRepository(database *gorm.DB) *TrackerRepository {
	return &TrackerRepository{db: database}
}

// Get returns the tracker for the day or gorm.ErrRecordNotFound.
func (r *TrackerRepository) Get(ctx context.Context, userID uint64, date string) (*db.DailyActivityTracker, error) {
	var t db.DailyActivityTracker
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new tracker. A row for the same (user, date) surfaces as
// gorm.ErrDuplicatedKey.
func (r *TrackerRepository) Create(ctx context.Context, t *db.DailyActivityTracker) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// Save writes every column of an existing tracker.
func (r *TrackerRepository) Save(ctx context.Context, t *db.DailyActivityTracker) error {
	return r.db.WithContext(ctx).Save(t).Error
}
