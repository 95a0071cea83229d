package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/nutrition"
)

// WorkoutRepository covers workout templates, their exercises and the sets
// a user logs against them.
type WorkoutRepository struct {
	db *gorm.DB
}

func NewWorkoutRepository(database *gorm.DB) *WorkoutRepository {
	return &WorkoutRepository{db: database}
}

// ListVisible returns the default templates plus the user's own workouts.
func (r *WorkoutRepository) ListVisible(ctx context.Context, userID uint64) ([]db.Workout, error) {
	var workouts []db.Workout
	err := r.db.WithContext(ctx).
		Where("is_default = ? OR user_id = ?", true, userID).
		Order("is_default DESC, id ASC").
		Find(&workouts).Error
	return workouts, err
}

// GetVisible returns a workout the user may log against, or
// gorm.ErrRecordNotFound.
func (r *WorkoutRepository) GetVisible(ctx context.Context, userID, workoutID uint64) (*db.Workout, error) {
	var w db.Workout
	err := r.db.WithContext(ctx).
		Where("id = ? AND (is_default = ? OR user_id = ?)", workoutID, true, userID).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkoutRepository) CreateWorkout(ctx context.Context, w *db.Workout) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WorkoutRepository) ListExercises(ctx context.Context, workoutID uint64) ([]db.Exercise, error) {
	var exercises []db.Exercise
	err := r.db.WithContext(ctx).
		Where("workout_id = ?", workoutID).
		Order("id ASC").
		Find(&exercises).Error
	return exercises, err
}

func (r *WorkoutRepository) CreateExercise(ctx context.Context, e *db.Exercise) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// GetVisibleExercise resolves an exercise through its workout's visibility.
func (r *WorkoutRepository) GetVisibleExercise(ctx context.Context, userID, exerciseID uint64) (*db.Exercise, error) {
	var e db.Exercise
	err := r.db.WithContext(ctx).
		Table("exercises e").
		Select("e.*").
		Joins("JOIN workouts w ON w.id = e.workout_id").
		Where("e.id = ? AND (w.is_default = ? OR w.user_id = ?)", exerciseID, true, userID).
		Take(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *WorkoutRepository) CreateSet(ctx context.Context, s *db.ExerciseSet) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// DaySet is one logged set joined with its exercise and workout.
type DaySet struct {
	SetID        uint64
	ExerciseID   uint64
	ExerciseName string
	WorkoutID    uint64
	WorkoutName  string
	WorkoutType  nutrition.WorkoutType
	Weight       float64
	Reps         int
	Time         float64
}

// DaySets returns every set the user performed on day (YYYY-MM-DD), ordered
// by workout, exercise and insertion.
func (r *WorkoutRepository) DaySets(ctx context.Context, userID uint64, day string) ([]DaySet, error) {
	var rows []DaySet
	err := r.db.WithContext(ctx).
		Table("exercise_sets s").
		Select(`s.id AS set_id, s.exercise_id, e.name AS exercise_name,
			w.id AS workout_id, w.name AS workout_name, w.workout_type,
			s.weight, s.reps, s.time_minutes AS time`).
		Joins("JOIN exercises e ON e.id = s.exercise_id").
		Joins("JOIN workouts w ON w.id = e.workout_id").
		Where("s.user_id = ? AND s.performed_on = ?", userID, day).
		Order("w.id ASC, e.id ASC, s.id ASC").
		Scan(&rows).Error
	return rows, err
}
