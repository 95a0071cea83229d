package nutrition

import (
	"strings"

	svcErr "github.com/oggyb/fittrack/internal/errors"
)

// ActivityLevel is the closed set of daily activity tiers.
type ActivityLevel string

const (
	Sedentary        ActivityLevel = "sedentary"
	LightlyActive    ActivityLevel = "lightly_active"
	ModeratelyActive ActivityLevel = "moderately_active"
	VeryActive       ActivityLevel = "very_active"
	ExtremelyActive  ActivityLevel = "extremely_active"
)

var activityLevels = []ActivityLevel{Sedentary, LightlyActive, ModeratelyActive, VeryActive, ExtremelyActive}

// ParseActivityLevel rejects anything outside the five known tiers.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	v := ActivityLevel(normalize(s))
	for _, l := range activityLevels {
		if v == l {
			return l, nil
		}
	}
	return "", svcErr.Invalidf("unknown activity level %q", s)
}

// Speed is how aggressively a goal should be reached.
type Speed string

const (
	Slow    Speed = "slow"
	Average Speed = "average"
	Fast    Speed = "fast"
)

func ParseSpeed(s string) (Speed, error) {
	switch v := Speed(normalize(s)); v {
	case Slow, Average, Fast:
		return v, nil
	}
	return "", svcErr.Invalidf("unknown goal timeframe %q", s)
}

type Gender string

const (
	Male           Gender = "male"
	Female         Gender = "female"
	Other          Gender = "other"
	PreferNotToSay Gender = "prefer_not_to_say"
)

func ParseGender(s string) (Gender, error) {
	switch v := Gender(normalize(s)); v {
	case Male, Female, Other, PreferNotToSay:
		return v, nil
	}
	return "", svcErr.Invalidf("unknown gender %q", s)
}

type GoalType string

const (
	WeightLoss  GoalType = "weight_loss"
	WeightGain  GoalType = "weight_gain"
	Maintenance GoalType = "maintenance"
)

// FoodPreference is the user's dietary pattern.
type FoodPreference string

const (
	Omnivore           FoodPreference = "omnivore"
	Vegetarian         FoodPreference = "vegetarian"
	Vegan              FoodPreference = "vegan"
	Pescatarian        FoodPreference = "pescatarian"
	Flexitarian        FoodPreference = "flexitarian"
	LactoVegetarian    FoodPreference = "lacto_vegetarian"
	OvoVegetarian      FoodPreference = "ovo_vegetarian"
	LactoOvoVegetarian FoodPreference = "lacto_ovo_vegetarian"
	Paleo              FoodPreference = "paleo"
	Keto               FoodPreference = "keto"
	RawFood            FoodPreference = "raw_food"
	Mediterranean      FoodPreference = "mediterranean"
)

var foodPreferences = []FoodPreference{
	Omnivore, Vegetarian, Vegan, Pescatarian, Flexitarian, LactoVegetarian,
	OvoVegetarian, LactoOvoVegetarian, Paleo, Keto, RawFood, Mediterranean,
}

func ParseFoodPreference(s string) (FoodPreference, error) {
	v := FoodPreference(normalize(s))
	for _, p := range foodPreferences {
		if v == p {
			return p, nil
		}
	}
	return "", svcErr.Invalidf("unknown food preference %q", s)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// WorkoutType tags a workout template by muscle group.
type WorkoutType string

const (
	Chest     WorkoutType = "chest"
	Back      WorkoutType = "back"
	Legs      WorkoutType = "legs"
	Shoulders WorkoutType = "shoulders"
	Biceps    WorkoutType = "biceps"
	Triceps   WorkoutType = "triceps"
	Abs       WorkoutType = "abs"
	Cardio    WorkoutType = "cardio"
)

// WorkoutTypes lists every WorkoutType in catalog order.
var WorkoutTypes = []WorkoutType{Chest, Back, Legs, Shoulders, Biceps, Triceps, Abs, Cardio}

func ParseWorkoutType(s string) (WorkoutType, error) {
	v := WorkoutType(normalize(s))
	for _, w := range WorkoutTypes {
		if v == w {
			return w, nil
		}
	}
	return "", svcErr.Invalidf("unknown workout type %q", s)
}
