package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fittrack/internal/nutrition"
)

// DefaultExercises is the system workout catalog: ten exercises per type.
var DefaultExercises = map[nutrition.WorkoutType][]string{
	nutrition.Chest: {
		"Bench Press", "Incline Bench Press", "Decline Bench Press",
		"Dumbbell Flyes", "Push-ups", "Chest Dips", "Cable Crossover",
		"Incline Dumbbell Press", "Pec Deck Machine", "Diamond Push-ups",
	},
	nutrition.Back: {
		"Pull-ups", "Lat Pulldown", "Barbell Rows", "Dumbbell Rows",
		"Deadlifts", "T-Bar Rows", "Cable Rows", "Face Pulls",
		"Reverse Flyes", "Hyperextensions",
	},
	nutrition.Legs: {
		"Squats", "Leg Press", "Lunges", "Leg Curls", "Leg Extensions",
		"Calf Raises", "Romanian Deadlifts", "Bulgarian Split Squats",
		"Hip Thrusts", "Walking Lunges",
	},
	nutrition.Shoulders: {
		"Overhead Press", "Lateral Raises", "Front Raises", "Rear Delt Flyes",
		"Arnold Press", "Upright Rows", "Shrugs", "Pike Push-ups",
		"Cable Lateral Raises", "Reverse Pec Deck",
	},
	nutrition.Biceps: {
		"Barbell Curls", "Dumbbell Curls", "Hammer Curls", "Preacher Curls",
		"Cable Curls", "Concentration Curls", "21s", "Chin-ups",
		"Incline Dumbbell Curls", "Cable Hammer Curls",
	},
	nutrition.Triceps: {
		"Close-Grip Bench Press", "Tricep Dips", "Overhead Tricep Extension",
		"Tricep Pushdowns", "Diamond Push-ups", "Skull Crushers",
		"Kickbacks", "Rope Pushdowns", "Bench Dips", "JM Press",
	},
	nutrition.Abs: {
		"Crunches", "Plank", "Russian Twists", "Leg Raises", "Bicycle Crunches",
		"Mountain Climbers", "Dead Bug", "Hanging Knee Raises", "Ab Wheel",
		"V-ups",
	},
	nutrition.Cardio: {
		"Treadmill Running", "Cycling", "Elliptical", "Rowing Machine",
		"Jump Rope", "Burpees", "High Knees", "Jumping Jacks",
		"Stair Climbing", "Swimming",
	},
}

// SeedDefaultWorkouts creates one default workout per type with its
// exercises. It is a no-op returning 0 when defaults already exist.
func SeedDefaultWorkouts(db *gorm.DB) (int, error) {
	var existing int64
	if err := db.Model(&Workout{}).Where("is_default = ?", true).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, wt := range nutrition.WorkoutTypes {
			w := Workout{
				Name:        strings.ToUpper(string(wt[:1])) + string(wt[1:]) + " Workout",
				WorkoutType: wt,
				IsDefault:   true,
			}
			for _, name := range DefaultExercises[wt] {
				w.Exercises = append(w.Exercises, Exercise{Name: name})
			}
			if err := tx.Create(&w).Error; err != nil {
				return fmt.Errorf("failed to seed %s workout: %w", wt, err)
			}
			created++
		}
		return nil
	})
	return created, err
}

type demoSet struct {
	weight float64
	reps   int
	time   float64
}

type demoExercise struct {
	workout  nutrition.WorkoutType
	exercise string
	sets     []demoSet
}

// pplRotation is a push/pull/legs week template, each day closing with cardio.
var pplRotation = [][]demoExercise{
	{ // push
		{nutrition.Chest, "Bench Press", []demoSet{{60, 12, 0}, {70, 10, 0}, {80, 8, 0}, {85, 6, 0}}},
		{nutrition.Chest, "Incline Dumbbell Press", []demoSet{{25, 12, 0}, {30, 10, 0}, {35, 8, 0}}},
		{nutrition.Shoulders, "Overhead Press", []demoSet{{40, 12, 0}, {45, 10, 0}, {50, 8, 0}, {55, 6, 0}}},
		{nutrition.Shoulders, "Lateral Raises", []demoSet{{12, 15, 0}, {15, 12, 0}, {15, 10, 0}}},
		{nutrition.Triceps, "Tricep Pushdowns", []demoSet{{30, 15, 0}, {35, 12, 0}, {40, 10, 0}}},
		{nutrition.Cardio, "Treadmill Running", []demoSet{{0, 0, 20}}},
	},
	{ // pull
		{nutrition.Back, "Pull-ups", []demoSet{{0, 8, 0}, {0, 6, 0}, {0, 5, 0}, {0, 4, 0}}},
		{nutrition.Back, "Barbell Rows", []demoSet{{60, 12, 0}, {70, 10, 0}, {80, 8, 0}, {85, 6, 0}}},
		{nutrition.Back, "Lat Pulldown", []demoSet{{50, 12, 0}, {55, 10, 0}, {60, 8, 0}}},
		{nutrition.Biceps, "Barbell Curls", []demoSet{{25, 12, 0}, {30, 10, 0}, {32.5, 8, 0}}},
		{nutrition.Biceps, "Hammer Curls", []demoSet{{12, 12, 0}, {14, 10, 0}, {16, 8, 0}}},
		{nutrition.Cardio, "Rowing Machine", []demoSet{{0, 0, 15}}},
	},
	{ // legs
		{nutrition.Legs, "Squats", []demoSet{{80, 12, 0}, {90, 10, 0}, {100, 8, 0}, {110, 6, 0}}},
		{nutrition.Legs, "Romanian Deadlifts", []demoSet{{60, 12, 0}, {70, 10, 0}, {80, 8, 0}}},
		{nutrition.Legs, "Leg Press", []demoSet{{120, 12, 0}, {140, 10, 0}, {160, 8, 0}}},
		{nutrition.Legs, "Calf Raises", []demoSet{{40, 15, 0}, {50, 12, 0}, {60, 10, 0}}},
		{nutrition.Abs, "Plank", []demoSet{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}},
		{nutrition.Cardio, "Cycling", []demoSet{{0, 0, 25}}},
	},
}

// SeedDemoSets logs a push/pull/legs rotation of sets for userID over the
// `days` days ending at today, skipping every fourth day as rest. Default
// workouts must already exist. Returns the number of sets created.
func SeedDemoSets(db *gorm.DB, userID uint64, days int, today time.Time) (int, error) {
	exercises, err := defaultExerciseIndex(db)
	if err != nil {
		return 0, err
	}

	created := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		rotation := 0
		for i := days - 1; i >= 0; i-- {
			day := today.AddDate(0, 0, -i)
			if i%4 == 3 {
				continue // rest day
			}
			dayStr := day.Format(DateLayout)
			for _, de := range pplRotation[rotation%len(pplRotation)] {
				exID, ok := exercises[exerciseKey(de.workout, de.exercise)]
				if !ok {
					return fmt.Errorf("default exercise %q missing; seed workouts first", de.exercise)
				}
				for _, s := range de.sets {
					set := ExerciseSet{
						ExerciseID:  exID,
						UserID:      userID,
						PerformedOn: dayStr,
						Weight:      s.weight,
						Reps:        s.reps,
						Time:        s.time,
					}
					if err := tx.Create(&set).Error; err != nil {
						return fmt.Errorf("failed to seed set: %w", err)
					}
					created++
				}
			}
			rotation++
		}
		return nil
	})
	return created, err
}

// SeedDemoUser upserts a verified demo user by phone number.
func SeedDemoUser(db *gorm.DB, phone string) (*User, error) {
	u := User{PhoneNumber: phone, Name: "Demo User", IsPhoneVerified: true, Active: true}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_phone_verified", "active", "updated_at"}),
	}).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to seed user: %w", err)
	}
	if err := db.Where("phone_number = ?", phone).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func defaultExerciseIndex(db *gorm.DB) (map[string]uint64, error) {
	var workouts []Workout
	if err := db.Preload("Exercises").Where("is_default = ?", true).Find(&workouts).Error; err != nil {
		return nil, err
	}
	out := make(map[string]uint64)
	for _, w := range workouts {
		for _, e := range w.Exercises {
			out[exerciseKey(w.WorkoutType, e.Name)] = e.ID
		}
	}
	return out, nil
}

func exerciseKey(wt nutrition.WorkoutType, name string) string {
	return string(wt) + "/" + name
}
