package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/nutrition"
)

// DateLayout is the calendar-day format used by every date column.
const DateLayout = "2006-01-02"

// Models lists every table AutoMigrate manages, in dependency order.
var Models = []any{
	&User{}, &UserProfile{}, &FitnessGoal{},
	&Workout{}, &Exercise{}, &ExerciseSet{},
	&DailyActivityTracker{},
	&MealPlan{}, &Meal{},
}

// User is created on first successful OTP verification.
type User struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	Name            string `gorm:"size:128"`
	PhoneNumber     string `gorm:"uniqueIndex;size:32;not null"`
	IsPhoneVerified bool
	Active          bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// UserProfile is one-to-one with User.
//
// The four list columns are JSON arrays; see EncodeList/DecodeList.
type UserProfile struct {
	ID                  uint64                   `gorm:"primaryKey;autoIncrement"`
	UserID              uint64                   `gorm:"uniqueIndex;not null"`
	Gender              nutrition.Gender         `gorm:"size:32;not null"`
	FoodPreference      nutrition.FoodPreference `gorm:"size:32;not null"`
	MealFrequency       int
	SnackPreference     bool
	CookingSkill        int // 1-5
	MaxPrepMinutes      int
	AgeYears            int
	HeightCm            float64
	Allergies           datatypes.JSON
	DietaryRestrictions datatypes.JSON
	DislikedFoods       datatypes.JSON
	PreferredCuisines   datatypes.JSON
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// FitnessGoal is never hard-deleted. At most one row per user has
// IsActive = true; the goal repository swaps it inside a transaction.
//
// Indexes:
//   - idx_goal_user_active(user_id, is_active) serves the active-goal lookup.
type FitnessGoal struct {
	ID                      uint64                  `gorm:"primaryKey;autoIncrement"`
	UserID                  uint64                  `gorm:"not null;index:idx_goal_user_active,priority:1"`
	ActivityLevel           nutrition.ActivityLevel `gorm:"size:32;not null"`
	Speed                   nutrition.Speed         `gorm:"size:16;not null"`
	CurrentWeightKg         float64
	TargetWeightKg          float64
	CurrentDailyCalories    float64
	CalculatedDailyCalories *float64
	IsActive                bool `gorm:"index:idx_goal_user_active,priority:2"`
	Achieved                bool
	AchievedDate            *time.Time
	CreatedAt               time.Time `gorm:"autoCreateTime"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime"`
}

// Workout is a named template. System templates have IsDefault = true and
// UserID = 0.
type Workout struct {
	ID          uint64                `gorm:"primaryKey;autoIncrement"`
	UserID      uint64                `gorm:"index"`
	Name        string                `gorm:"size:128;not null"`
	WorkoutType nutrition.WorkoutType `gorm:"size:16;not null;index"`
	IsDefault   bool                  `gorm:"index"`
	Exercises   []Exercise            `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time             `gorm:"autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"autoUpdateTime"`
}

type Exercise struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	WorkoutID uint64    `gorm:"not null;index"`
	UserID    uint64    `gorm:"index"`
	Name      string    `gorm:"size:128;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ExerciseSet is one performed set. UserID and PerformedOn are explicit so
// day aggregation never has to infer them from CreatedAt.
//
// Indexes:
//   - idx_set_user_day(user_id, performed_on) serves daily aggregation.
type ExerciseSet struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	ExerciseID  uint64    `gorm:"not null;index"`
	UserID      uint64    `gorm:"not null;index:idx_set_user_day,priority:1"`
	PerformedOn string    `gorm:"size:10;not null;index:idx_set_user_day,priority:2"`
	Weight      float64   // kg
	Reps        int
	Time        float64   `gorm:"column:time_minutes"` // minutes
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// DailyActivityTracker is one row per (user, date).
//
// NetCalorieBalance is derived and recomputed by BeforeSave on every write.
type DailyActivityTracker struct {
	ID                         uint64 `gorm:"primaryKey;autoIncrement"`
	UserID                     uint64 `gorm:"not null;uniqueIndex:idx_tracker_user_date,priority:1"`
	Date                       string `gorm:"size:10;not null;uniqueIndex:idx_tracker_user_date,priority:2"`
	TotalExercisesDone         int
	TotalSetsCompleted         int
	TotalRepsCompleted         int
	TotalWeightLifted          float64
	TotalWorkoutTime           float64
	CaloriesBurnedFromActivity float64
	CaloriesConsumed           float64
	ProteinConsumedG           float64
	CarbsConsumedG             float64
	FatConsumedG               float64
	FiberConsumedG             float64
	NetCalorieBalance          float64
	WorkoutTypesDone           datatypes.JSON
	Notes                      string    `gorm:"type:text"`
	CreatedAt                  time.Time `gorm:"autoCreateTime"`
	UpdatedAt                  time.Time `gorm:"autoUpdateTime"`
}

// BeforeSave keeps the derived balance in step with its inputs.
func (t *DailyActivityTracker) BeforeSave(*gorm.DB) error {
	t.NetCalorieBalance = t.CaloriesConsumed - t.CaloriesBurnedFromActivity
	return nil
}

// MealPlan is one per (user, date). The Total* columns always equal the sum
// of the plan's meals; they are rewritten together with the meal rows.
type MealPlan struct {
	ID                    uint64  `gorm:"primaryKey;autoIncrement"`
	UserID                uint64  `gorm:"not null;uniqueIndex:idx_mealplan_user_date,priority:1"`
	Date                  string  `gorm:"size:10;not null;uniqueIndex:idx_mealplan_user_date,priority:2"`
	TargetCalories        float64 `gorm:"not null"`
	TargetProteinG        float64
	TargetCarbsG          float64
	TargetFatG            float64
	TargetFiberG          float64
	TotalCalories         float64
	TotalProteinG         float64
	TotalCarbsG           float64
	TotalFatG             float64
	TotalFiberG           float64
	GenerationPrompt      string `gorm:"type:text"`
	LLMModelUsed          string `gorm:"column:llm_model_used;size:100"`
	GenerationTimeSeconds float64
	IsActive              bool
	UserFeedback          string    `gorm:"type:text"`
	Meals                 []Meal    `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

// ApplyTotals overwrites the plan totals with the sums over meals.
func (p *MealPlan) ApplyTotals(meals []Meal) {
	p.TotalCalories, p.TotalProteinG, p.TotalCarbsG, p.TotalFatG, p.TotalFiberG = 0, 0, 0, 0, 0
	for _, m := range meals {
		p.TotalCalories += m.Calories
		p.TotalProteinG += m.ProteinG
		p.TotalCarbsG += m.CarbsG
		p.TotalFatG += m.FatG
		p.TotalFiberG += m.FiberG
	}
}

type Meal struct {
	ID                 uint64  `gorm:"primaryKey;autoIncrement"`
	MealPlanID         uint64  `gorm:"not null;index"`
	MealType           string  `gorm:"size:16;not null"`
	MealName           string  `gorm:"size:200;not null"`
	Description        string  `gorm:"type:text"`
	Calories           float64 `gorm:"not null"`
	ProteinG           float64
	CarbsG             float64
	FatG               float64
	FiberG             float64
	SodiumMg           float64
	SugarG             float64
	PrepTimeMinutes    int
	CookingTimeMinutes int
	DifficultyLevel    int
	CuisineType        string `gorm:"size:50"`
	Ingredients        datatypes.JSON
	Instructions       datatypes.JSON
	IsVegetarian       bool
	IsVegan            bool
	IsGlutenFree       bool
	IsDairyFree        bool
	UserRating         *int
	UserNotes          string    `gorm:"type:text"`
	IsFavorite         bool
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// ParseDay validates a YYYY-MM-DD day. An empty string means the day of now.
func ParseDay(s string, now time.Time) (string, error) {
	if s == "" {
		return now.Format(DateLayout), nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", svcErr.Invalidf("date %q must be YYYY-MM-DD", s)
	}
	return d.Format(DateLayout), nil
}
