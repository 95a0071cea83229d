package nutrition

import "math"

// Macro split of a day's calories and the energy per gram of each macro.
const (
	ProteinShare = 0.25
	CarbsShare   = 0.45
	FatShare     = 0.30

	KcalPerGramProtein = 4.0
	KcalPerGramCarbs   = 4.0
	KcalPerGramFat     = 9.0

	FiberPer1000Kcal = 14.0
)

// Targets are the numeric goals a meal plan is generated against.
type Targets struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
}

// DailyTargets splits calories 25/45/30 across protein, carbs and fat and
// adds 14 g of fiber per 1000 kcal.
func DailyTargets(calories float64) Targets {
	return Targets{
		Calories: math.Round(calories),
		ProteinG: round1(calories * ProteinShare / KcalPerGramProtein),
		CarbsG:   round1(calories * CarbsShare / KcalPerGramCarbs),
		FatG:     round1(calories * FatShare / KcalPerGramFat),
		FiberG:   round1(calories / 1000 * FiberPer1000Kcal),
	}
}

// MacroPercentages reports the share of calories coming from each macro.
// Zero calories is treated as one to keep the result finite.
func MacroPercentages(calories, proteinG, carbsG, fatG float64) (protein, carbs, fat float64) {
	if calories == 0 {
		calories = 1
	}
	protein = round1(proteinG * KcalPerGramProtein / calories * 100)
	carbs = round1(carbsG * KcalPerGramCarbs / calories * 100)
	fat = round1(fatG * KcalPerGramFat / calories * 100)
	return protein, carbs, fat
}
