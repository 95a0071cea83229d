package nutrition

import (
	"math"

	svcErr "github.com/oggyb/fittrack/internal/errors"
)

const kcalPerKg = 7700.0

// goalTier is one row of the five-tier goal planning table.
type goalTier struct {
	multiplier   float64 // TDEE multiplier
	adjustment   float64 // scales the daily deficit/surplus
	minCalories  float64 // floor for weight-loss targets
	proteinPerKg float64
}

var goalTiers = map[ActivityLevel]goalTier{
	Sedentary:        {multiplier: 1.2, adjustment: 0.8, minCalories: 1200, proteinPerKg: 0.8},
	LightlyActive:    {multiplier: 1.375, adjustment: 0.9, minCalories: 1300, proteinPerKg: 1.0},
	ModeratelyActive: {multiplier: 1.55, adjustment: 1.0, minCalories: 1400, proteinPerKg: 1.2},
	VeryActive:       {multiplier: 1.725, adjustment: 1.1, minCalories: 1500, proteinPerKg: 1.6},
	ExtremelyActive:  {multiplier: 1.9, adjustment: 1.2, minCalories: 1600, proteinPerKg: 2.0},
}

var weeklyChangeKg = map[Speed]float64{
	Slow:    0.25,
	Average: 0.5,
	Fast:    1.0,
}

// GoalActivityMultiplier is the five-tier TDEE multiplier used for goals.
func GoalActivityMultiplier(level ActivityLevel) (float64, error) {
	t, ok := goalTiers[level]
	if !ok {
		return 0, svcErr.Invalidf("unknown activity level %q", level)
	}
	return t.multiplier, nil
}

// GoalInput is what a fitness goal carries into planning.
// CurrentDailyCalories is treated as the BMR.
type GoalInput struct {
	CurrentWeightKg      float64
	TargetWeightKg       float64
	CurrentDailyCalories float64
	Speed                Speed
	ActivityLevel        ActivityLevel
}

// GoalPlan is the derived nutrition target for a goal.
type GoalPlan struct {
	Weeks                   float64       `json:"weeks"`
	CalculatedDailyCalories float64       `json:"calculated_daily_calories"`
	GoalType                GoalType      `json:"goal_type"`
	TDEE                    float64       `json:"tdee_calories"`
	BMR                     float64       `json:"bmr_calories"`
	ActivityLevel           ActivityLevel `json:"activity_level"`
	ActivityMultiplier      float64       `json:"activity_multiplier"`
	CalorieAdjustment       float64       `json:"calorie_adjustment"`
	RecommendedProteinG     float64       `json:"recommended_protein_g"`
	WeeklyChangeRateKg      float64       `json:"weight_change_per_week_kg"`
	TotalWeightChangeKg     float64       `json:"total_weight_change_kg"`
}

// PlanGoal derives daily calories for reaching TargetWeightKg.
//
// A maintenance goal short-circuits: weeks, adjustment and protein stay zero.
// A weight-loss target never drops below the tier's safe floor.
func PlanGoal(in GoalInput) (GoalPlan, error) {
	tier, ok := goalTiers[in.ActivityLevel]
	if !ok {
		return GoalPlan{}, svcErr.Invalidf("unknown activity level %q", in.ActivityLevel)
	}
	weekly, ok := weeklyChangeKg[in.Speed]
	if !ok {
		return GoalPlan{}, svcErr.Invalidf("unknown goal timeframe %q", in.Speed)
	}

	tdee := in.CurrentDailyCalories * tier.multiplier
	plan := GoalPlan{
		TDEE:               math.Round(tdee),
		BMR:                math.Round(in.CurrentDailyCalories),
		ActivityLevel:      in.ActivityLevel,
		ActivityMultiplier: tier.multiplier,
	}

	if in.CurrentWeightKg == in.TargetWeightKg {
		plan.GoalType = Maintenance
		plan.CalculatedDailyCalories = math.Round(tdee)
		return plan, nil
	}

	delta := weekly * kcalPerKg / 7 * tier.adjustment
	totalKg := math.Abs(in.TargetWeightKg - in.CurrentWeightKg)

	var target float64
	if in.CurrentWeightKg < in.TargetWeightKg {
		plan.GoalType = WeightGain
		target = tdee + delta
	} else {
		plan.GoalType = WeightLoss
		target = math.Max(tdee-delta, tier.minCalories)
	}

	plan.Weeks = round1(totalKg / weekly)
	plan.CalculatedDailyCalories = math.Round(target)
	plan.CalorieAdjustment = math.Round(delta)
	plan.RecommendedProteinG = math.Round(in.CurrentWeightKg * tier.proteinPerKg)
	plan.WeeklyChangeRateKg = weekly
	plan.TotalWeightChangeKg = round1(totalKg)
	return plan, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
