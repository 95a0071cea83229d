package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/mealplan/rules"
	"github.com/oggyb/fittrack/internal/nutrition"
)

func subject(target float64) rules.Subject {
	return rules.Subject{
		Gender:          nutrition.Male,
		AgeYears:        30,
		HeightCm:        175,
		CurrentWeightKg: 70,
		TargetWeightKg:  target,
	}
}

func names(meals []rules.Meal) []string {
	out := make([]string, len(meals))
	for i, m := range meals {
		out[i] = m.Name
	}
	return out
}

func TestPlanLoseLightDay(t *testing.T) {
	plan, err := rules.New().Plan(subject(65), rules.DaySignal{Steps: 3000, Kind: rules.Strength})
	require.NoError(t, err)

	assert.Equal(t, nutrition.LightlyActive, plan.ActivityLevel)
	assert.Equal(t, rules.Lose, plan.Direction)
	assert.Equal(t, rules.Light, plan.Intensity)
	assert.InDelta(t, 1648.75, plan.BMR, 1e-9)
	assert.InDelta(t, 1978.5, plan.TDEE, 1e-9)
	assert.Equal(t, rules.Targets{Calories: 1678, ProteinG: 56, CarbsG: 260, FatG: 46}, plan.Targets)

	assert.Equal(t, []string{
		"Toast with Avocado",
		"Vegetable Soup with Bread",
		"Vegetable Stir Fry",
		"Apple with Almond Butter",
	}, names(plan.Meals))
	assert.Equal(t, rules.Totals{Calories: 1030, ProteinG: 34, CarbsG: 135, FatG: 45}, plan.Totals)

	assert.Len(t, plan.Recommendations, 4)
	assert.Contains(t, plan.Recommendations, "Drink water before meals to help with portion control.")
	assert.Contains(t, plan.Recommendations, "After strength training, prioritize protein within 2 hours for muscle building.")
}

func TestPlanGainExtremeDay(t *testing.T) {
	plan, err := rules.New().Plan(subject(80), rules.DaySignal{Steps: 12000, Kind: rules.Cardio})
	require.NoError(t, err)

	assert.Equal(t, nutrition.ExtremelyActive, plan.ActivityLevel)
	assert.Equal(t, rules.HighProtein, plan.Intensity)
	assert.Equal(t, 2955, plan.Targets.Calories)
	assert.Equal(t, 112, plan.Targets.ProteinG)

	assert.Equal(t, "Greek Yogurt with Berries", plan.Meals[0].Name)
	assert.Equal(t, "Protein Smoothie", plan.Meals[3].Name)
	assert.Equal(t, 1350, plan.Totals.Calories)
	assert.Equal(t, 120, plan.Totals.ProteinG)

	assert.Len(t, plan.Recommendations, 5)
	assert.Equal(t, "Replenish carbohydrates after cardio to restore energy levels.", plan.Recommendations[4])
}

func TestPlanMaintainModerateDay(t *testing.T) {
	plan, err := rules.New().Plan(subject(70), rules.DaySignal{ActiveMinutes: 45})
	require.NoError(t, err)

	assert.Equal(t, nutrition.ModeratelyActive, plan.ActivityLevel)
	assert.Equal(t, rules.Maintain, plan.Direction)
	assert.Equal(t, rules.Moderate, plan.Intensity)
	assert.Equal(t, []string{
		"Oatmeal with Banana",
		"Quinoa Bowl with Vegetables",
		"Pasta with Marinara",
		"Apple with Almond Butter",
	}, names(plan.Meals))
	assert.Empty(t, plan.Recommendations)
}

func TestPlanSkipsSnackNearTarget(t *testing.T) {
	s := rules.Subject{Gender: nutrition.Female, AgeYears: 60, HeightCm: 150, CurrentWeightKg: 40, TargetWeightKg: 35}
	plan, err := rules.New().Plan(s, rules.DaySignal{})
	require.NoError(t, err)

	assert.Equal(t, rules.Targets{Calories: 751, ProteinG: 32, CarbsG: 110, FatG: 20}, plan.Targets)
	assert.Len(t, plan.Meals, 3)
	assert.Equal(t, 850, plan.Totals.Calories)
}

func TestPlanRejectsInvalidSubject(t *testing.T) {
	for name, s := range map[string]rules.Subject{
		"zero weight": {AgeYears: 30, HeightCm: 175, TargetWeightKg: 70},
		"zero height": {AgeYears: 30, CurrentWeightKg: 70, TargetWeightKg: 70},
		"zero age":    {HeightCm: 175, CurrentWeightKg: 70, TargetWeightKg: 70},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := rules.New().Plan(s, rules.DaySignal{})
			assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
		})
	}

	_, err := rules.New().Plan(subject(70), rules.DaySignal{Steps: -1})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestLookupFallsBackToModerate(t *testing.T) {
	m, ok := rules.Lookup("keto", rules.Lunch)
	require.True(t, ok)
	assert.Equal(t, "Quinoa Bowl with Vegetables", m.Name)

	_, ok = rules.Lookup(rules.Light, rules.Snack)
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, rules.Cardio, rules.KindOf(nutrition.Cardio))
	assert.Equal(t, rules.Strength, rules.KindOf(nutrition.Legs))
}
