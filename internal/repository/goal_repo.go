package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/db"
)

// GoalRepository owns fitness goals. Goals are never deleted, only
// deactivated.
type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(database *gorm.DB) *GoalRepository {
	return &GoalRepository{db: database}
}

// Active returns the user's active goal or gorm.ErrRecordNotFound.
func (r *GoalRepository) Active(ctx context.Context, userID uint64) (*db.FitnessGoal, error) {
	var g db.FitnessGoal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id DESC").
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ReplaceActive deactivates any active goal for goal.UserID and inserts goal
// as the new active one. Both writes commit together.
func (r *GoalRepository) ReplaceActive(ctx context.Context, goal *db.FitnessGoal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.FitnessGoal{}).
			Where("user_id = ? AND is_active = ?", goal.UserID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		goal.IsActive = true
		return tx.Create(goal).Error
	})
}

// Save writes every column of an existing goal.
func (r *GoalRepository) Save(ctx context.Context, goal *db.FitnessGoal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}

// History lists all goals for a user, newest first.
func (r *GoalRepository) History(ctx context.Context, userID uint64) ([]db.FitnessGoal, error) {
	var goals []db.FitnessGoal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&goals).Error
	return goals, err
}
