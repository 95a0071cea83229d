// Package nutrition holds the pure calorie and macro arithmetic: BMR, activity
// tiers, goal planning and daily macro targets. Nothing here touches storage.
package nutrition

import (
	svcErr "github.com/oggyb/fittrack/internal/errors"
)

// CalculateBMR uses Mifflin-St Jeor. Only Male takes the +5 variant; every
// other gender takes -161.
func CalculateBMR(weightKg, heightCm float64, age int, gender Gender) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == Male {
		return bmr + 5
	}
	return bmr - 161
}

// ClassifyActivityLevel maps a day's steps and active minutes onto the
// three-tier daily scale. Either metric crossing a threshold is enough.
func ClassifyActivityLevel(steps, activeMinutes int) ActivityLevel {
	switch {
	case steps > 10000 || activeMinutes > 60:
		return ExtremelyActive
	case steps > 5000 || activeMinutes > 30:
		return ModeratelyActive
	default:
		return LightlyActive
	}
}

var dailyMultipliers = map[ActivityLevel]float64{
	LightlyActive:    1.2,
	ModeratelyActive: 1.375,
	ExtremelyActive:  1.55,
}

// ActivityMultiplier is the daily TDEE multiplier for a level produced by
// ClassifyActivityLevel. Levels outside that three-tier scale are an error.
func ActivityMultiplier(level ActivityLevel) (float64, error) {
	m, ok := dailyMultipliers[level]
	if !ok {
		return 0, svcErr.Invalidf("no daily multiplier for activity level %q", level)
	}
	return m, nil
}
