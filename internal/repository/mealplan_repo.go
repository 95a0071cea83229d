package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/utils/pagination"
)

// MealPlanRepository stores meal plans and their meals. Plans and meals are
// always written together so the plan totals match the meal rows.
type MealPlanRepository struct {
	db *gorm.DB
}

func NewMealPlanRepository(database *gorm.DB) *MealPlanRepository {
	return &MealPlanRepository{db: database}
}

// Get returns the plan for (user, date) with meals in insertion order, or
// gorm.ErrRecordNotFound.
func (r *MealPlanRepository) Get(ctx context.Context, userID uint64, date string) (*db.MealPlan, error) {
	var p db.MealPlan
	err := r.db.WithContext(ctx).
		Preload("Meals", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("user_id = ? AND date = ?", userID, date).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Replace writes plan and meals as one unit of work.
//
// Behavior:
//   - plan.ID == 0 → the plan row is inserted; a concurrent insert for the
//     same (user, date) fails with gorm.ErrDuplicatedKey.
//   - plan.ID != 0 → every existing meal of the plan is deleted and the plan
//     row is overwritten.
//   - Totals are recomputed from meals before the plan row is written.
//   - Any failure rolls back all writes.
func (r *MealPlanRepository) Replace(ctx context.Context, plan *db.MealPlan, meals []db.Meal) error {
	plan.ApplyTotals(meals)
	plan.Meals = nil
	isNew := plan.ID == 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isNew {
			if err := tx.Create(plan).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("meal_plan_id = ?", plan.ID).Delete(&db.Meal{}).Error; err != nil {
				return err
			}
			if err := tx.Save(plan).Error; err != nil {
				return err
			}
		}

		for i := range meals {
			meals[i].ID = 0
			meals[i].MealPlanID = plan.ID
		}
		if len(meals) > 0 {
			if err := tx.Create(&meals).Error; err != nil {
				return err
			}
		}
		plan.Meals = meals
		return nil
	})
	if err != nil && isNew {
		plan.ID = 0 // the insert was rolled back
	}
	return err
}

// Delete removes the plan for (user, date) and its meals. Returns
// gorm.ErrRecordNotFound when there is no plan.
func (r *MealPlanRepository) Delete(ctx context.Context, userID uint64, date string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p db.MealPlan
		if err := tx.Where("user_id = ? AND date = ?", userID, date).First(&p).Error; err != nil {
			return err
		}
		if err := tx.Where("meal_plan_id = ?", p.ID).Delete(&db.Meal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
}

// SetFeedback stores plan-level feedback text.
func (r *MealPlanRepository) SetFeedback(ctx context.Context, userID uint64, date, feedback string) error {
	res := r.db.WithContext(ctx).
		Model(&db.MealPlan{}).
		Where("user_id = ? AND date = ?", userID, date).
		Update("user_feedback", feedback)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetMeal returns a meal only if it belongs to one of the user's plans.
func (r *MealPlanRepository) GetMeal(ctx context.Context, userID, mealID uint64) (*db.Meal, error) {
	var m db.Meal
	err := r.db.WithContext(ctx).
		Table("meals m").
		Select("m.*").
		Joins("JOIN meal_plans p ON p.id = m.meal_plan_id").
		Where("m.id = ? AND p.user_id = ?", mealID, userID).
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMealFeedback stores a rating, notes and favorite flag for a meal.
func (r *MealPlanRepository) UpdateMealFeedback(ctx context.Context, mealID uint64, rating *int, notes string, favorite bool) error {
	return r.db.WithContext(ctx).
		Model(&db.Meal{ID: mealID}).
		Updates(map[string]any{
			"user_rating": rating,
			"user_notes":  notes,
			"is_favorite": favorite,
		}).Error
}

// List returns the user's plans newest first without meals.
// Supports cursor-based pagination via paginationToken.
func (r *MealPlanRepository) List(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.MealPlan, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Limit(limit + 1)

	if !cursor.Empty() {
		query = query.Where("(date < ? OR (date = ? AND id < ?))", cursor.Date, cursor.Date, cursor.ID)
	}

	var plans []db.MealPlan
	if err := query.Find(&plans).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(plans) > limit {
		last := plans[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{Date: last.Date, ID: last.ID})
		nextToken = &token
		plans = plans[:limit]
	}
	return plans, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
