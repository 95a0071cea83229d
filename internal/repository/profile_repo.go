package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fittrack/internal/db"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Get returns the user's profile or gorm.ErrRecordNotFound.
func (r *ProfileRepository) Get(ctx context.Context, userID uint64) (*db.UserProfile, error) {
	var p db.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert inserts the profile or overwrites every column of the existing row
// for the same user.
func (r *ProfileRepository) Upsert(ctx context.Context, p *db.UserProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gender", "food_preference", "meal_frequency", "snack_preference",
				"cooking_skill", "max_prep_minutes", "age_years", "height_cm",
				"allergies", "dietary_restrictions", "disliked_foods", "preferred_cuisines",
				"updated_at",
			}),
		}).
		Create(p).Error
}
