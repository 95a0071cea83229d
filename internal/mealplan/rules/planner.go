// Package rules is the deterministic meal planner. It picks meals from a
// small fixed catalog and never calls out to a generation provider.
package rules

import (
	"math"

	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/nutrition"
)

// snackGap is how far below target the main meals must land before a snack
// is added.
const snackGap = 150

// Subject is the person being planned for.
type Subject struct {
	Gender          nutrition.Gender
	AgeYears        int
	HeightCm        float64
	CurrentWeightKg float64
	TargetWeightKg  float64
}

// WorkoutKind is the coarse type of a day's training.
type WorkoutKind string

const (
	NoWorkout WorkoutKind = ""
	Strength  WorkoutKind = "strength"
	Cardio    WorkoutKind = "cardio"
)

// KindOf maps a workout type onto strength or cardio.
func KindOf(t nutrition.WorkoutType) WorkoutKind {
	if t == nutrition.Cardio {
		return Cardio
	}
	return Strength
}

// DaySignal is one day of activity.
type DaySignal struct {
	Steps         int
	ActiveMinutes int
	Kind          WorkoutKind
}

// Direction is which way the subject's weight should move.
type Direction string

const (
	Lose     Direction = "lose"
	Gain     Direction = "gain"
	Maintain Direction = "maintain"
)

type Targets struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

type Totals struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

type Plan struct {
	ActivityLevel   nutrition.ActivityLevel `json:"activity_level"`
	Direction       Direction               `json:"direction"`
	Intensity       Intensity               `json:"intensity"`
	BMR             float64                 `json:"bmr"`
	TDEE            float64                 `json:"tdee"`
	Targets         Targets                 `json:"targets"`
	Meals           []Meal                  `json:"meals"`
	Totals          Totals                  `json:"totals"`
	Recommendations []string                `json:"recommendations"`
}

var proteinPerKg = map[nutrition.ActivityLevel]float64{
	nutrition.LightlyActive:    0.8,
	nutrition.ModeratelyActive: 1.2,
	nutrition.ExtremelyActive:  1.6,
}

// Planner is stateless; the zero value is ready to use.
type Planner struct{}

func New() *Planner { return &Planner{} }

// Plan computes targets for s on the day described by d and picks meals.
func (p *Planner) Plan(s Subject, d DaySignal) (Plan, error) {
	if s.CurrentWeightKg <= 0 || s.TargetWeightKg <= 0 || s.HeightCm <= 0 || s.AgeYears <= 0 {
		return Plan{}, svcErr.Invalidf("weight, height and age must be positive")
	}
	if d.Steps < 0 || d.ActiveMinutes < 0 {
		return Plan{}, svcErr.Invalidf("steps and active minutes must not be negative")
	}

	level := nutrition.ClassifyActivityLevel(d.Steps, d.ActiveMinutes)
	multiplier, err := nutrition.ActivityMultiplier(level)
	if err != nil {
		return Plan{}, err
	}

	bmr := nutrition.CalculateBMR(s.CurrentWeightKg, s.HeightCm, s.AgeYears, s.Gender)
	tdee := bmr * multiplier
	dir := direction(s)

	plan := Plan{
		ActivityLevel: level,
		Direction:     dir,
		Intensity:     intensity(level, dir),
		BMR:           bmr,
		TDEE:          tdee,
		Targets:       targets(s, level, tdee+adjustment(dir, level)),
	}
	plan.Meals = selectMeals(plan.Targets.Calories, plan.Intensity)
	plan.Totals = total(plan.Meals)
	plan.Recommendations = recommendations(level, dir, d.Kind)
	return plan, nil
}

func direction(s Subject) Direction {
	switch {
	case s.TargetWeightKg < s.CurrentWeightKg:
		return Lose
	case s.TargetWeightKg > s.CurrentWeightKg:
		return Gain
	default:
		return Maintain
	}
}

// adjustment is the goal-driven calorie delta. The larger surplus and
// deficit apply only on the top activity tier.
func adjustment(dir Direction, level nutrition.ActivityLevel) float64 {
	switch dir {
	case Lose:
		if level == nutrition.ExtremelyActive {
			return -400
		}
		return -300
	case Gain:
		if level == nutrition.ExtremelyActive {
			return 400
		}
		return 300
	default:
		return 0
	}
}

// targets puts 25% of calories in fat, protein by body weight, and the
// remainder in carbs.
func targets(s Subject, level nutrition.ActivityLevel, calories float64) Targets {
	protein := int(s.CurrentWeightKg * proteinPerKg[level])
	fat := int(calories * 0.25 / nutrition.KcalPerGramFat)
	carbs := int((calories - float64(protein)*nutrition.KcalPerGramProtein - float64(fat)*nutrition.KcalPerGramFat) / nutrition.KcalPerGramCarbs)
	if carbs < 0 {
		carbs = 0
	}
	return Targets{
		Calories: int(math.Max(calories, 0)),
		ProteinG: protein,
		CarbsG:   carbs,
		FatG:     fat,
	}
}

func intensity(level nutrition.ActivityLevel, dir Direction) Intensity {
	switch {
	case level == nutrition.ExtremelyActive:
		return HighProtein
	case dir == Lose:
		return Light
	default:
		return Moderate
	}
}

func selectMeals(targetCalories int, in Intensity) []Meal {
	meals := make([]Meal, 0, 4)
	sum := 0
	for _, slot := range []Slot{Breakfast, Lunch, Dinner} {
		m, _ := Lookup(in, slot)
		meals = append(meals, m)
		sum += m.Calories
	}
	if sum < targetCalories-snackGap {
		if in == HighProtein {
			meals = append(meals, proteinSnack)
		} else {
			meals = append(meals, healthySnack)
		}
	}
	return meals
}

func total(meals []Meal) Totals {
	var t Totals
	for _, m := range meals {
		t.Calories += m.Calories
		t.ProteinG += m.ProteinG
		t.CarbsG += m.CarbsG
		t.FatG += m.FatG
	}
	return t
}

func recommendations(level nutrition.ActivityLevel, dir Direction, kind WorkoutKind) []string {
	out := []string{}

	switch level {
	case nutrition.ExtremelyActive:
		out = append(out,
			"Great workout! Added extra protein to support muscle recovery.",
			"Consider having a post-workout snack within 30 minutes of exercising.")
	case nutrition.LightlyActive:
		out = append(out, "Try to increase your daily steps today. Even a 10-minute walk helps!")
	}

	switch dir {
	case Lose:
		out = append(out,
			"Focus on protein-rich foods to maintain muscle while losing weight.",
			"Drink water before meals to help with portion control.")
	case Gain:
		out = append(out,
			"Add healthy fats like nuts, avocado, and olive oil to increase calories.",
			"Consider eating more frequent, smaller meals throughout the day.")
	}

	switch kind {
	case Strength:
		out = append(out, "After strength training, prioritize protein within 2 hours for muscle building.")
	case Cardio:
		out = append(out, "Replenish carbohydrates after cardio to restore energy levels.")
	}
	return out
}
