package llm

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/oggyb/fittrack/internal/nutrition"
)

// PromptProfile is the part of the user profile the prompt describes.
type PromptProfile struct {
	Gender              string
	FoodPreference      string
	CookingSkill        int
	MaxPrepMinutes      int
	MealFrequency       int
	SnackPreference     bool
	Allergies           []string
	DietaryRestrictions []string
	DislikedFoods       []string
	PreferredCuisines   []string
}

// PromptActivity summarises the day's tracked activity. A nil activity
// renders as "no workout data".
type PromptActivity struct {
	Summary        string
	CaloriesBurned float64
}

type PromptInput struct {
	Profile  PromptProfile
	Targets  nutrition.Targets
	Activity *PromptActivity
}

type promptView struct {
	PromptProfile
	Targets    nutrition.Targets
	ProteinPct float64
	CarbsPct   float64
	FatPct     float64
	Activity   *PromptActivity
}

var promptTmpl = template.Must(template.New("mealplan").Funcs(template.FuncMap{
	"list": func(items []string) string { return "[" + strings.Join(items, ", ") + "]" },
	"num":  func(f float64) string { return fmt.Sprintf("%.0f", f) },
	"pct":  func(f float64) string { return fmt.Sprintf("%.1f", f) },
}).Parse(`Generate a complete daily meal plan in JSON format for a user with the following profile:

USER PROFILE:
- Gender: {{.Gender}}
- Food Preference: {{.FoodPreference}}
- Cooking Skill Level: {{.CookingSkill}}/5
- Max Prep Time: {{.MaxPrepMinutes}} minutes
- Preferred Meal Frequency: {{.MealFrequency}} meals
- Snack Preference: {{.SnackPreference}}

DIETARY RESTRICTIONS:
- Allergies: {{list .Allergies}}
- Dietary Restrictions: {{list .DietaryRestrictions}}
- Disliked Foods: {{list .DislikedFoods}}
- Preferred Cuisines: {{list .PreferredCuisines}}

NUTRITION TARGETS:
- Target Calories: {{num .Targets.Calories}} kcal
- Protein: {{num .Targets.ProteinG}}g ({{pct .ProteinPct}}%)
- Carbohydrates: {{num .Targets.CarbsG}}g ({{pct .CarbsPct}}%)
- Fat: {{num .Targets.FatG}}g ({{pct .FatPct}}%)
- Fiber: {{num .Targets.FiberG}}g

ACTIVITY LEVEL:
{{- if .Activity}}
- Today's Activity: {{.Activity.Summary}}
- Calories Burned: {{num .Activity.CaloriesBurned}} kcal
{{- else}}
- No specific workout data for today
{{- end}}

REQUIREMENTS:
1. Create exactly 5 meals: breakfast, lunch, dinner, snack_1 (mid-morning), snack_2 (evening)
2. Each meal must include complete nutritional breakdown
3. Provide detailed ingredients list and cooking instructions
4. Consider prep time constraints and cooking skill level
5. Respect all dietary restrictions and preferences
6. Ensure total daily nutrition meets targets (+/-50 calories acceptable)
7. Include variety in cuisines and cooking methods
8. Make snacks healthy and satisfying

RESPONSE FORMAT (JSON):
{
  "breakfast": {
    "meal_name": "Meal name",
    "description": "Brief description",
    "calories": 400,
    "protein_g": 25,
    "carbs_g": 45,
    "fat_g": 12,
    "fiber_g": 8,
    "sodium_mg": 300,
    "sugar_g": 5,
    "prep_time_minutes": 15,
    "cooking_time_minutes": 10,
    "difficulty_level": 2,
    "cuisine_type": "American",
    "ingredients": ["ingredient 1", "ingredient 2"],
    "instructions": ["step 1", "step 2"],
    "is_vegetarian": false,
    "is_vegan": false,
    "is_gluten_free": false,
    "is_dairy_free": false
  },
  "lunch": { ... },
  "dinner": { ... },
  "snack_1": { ... },
  "snack_2": { ... },
  "daily_summary": {
    "total_calories": 2000,
    "total_protein_g": 150,
    "total_carbs_g": 200,
    "total_fat_g": 67,
    "total_fiber_g": 35,
    "meets_targets": true,
    "variety_score": 8,
    "prep_time_total": 90
  }
}

Generate a nutritious, delicious, and practical meal plan that perfectly matches the user's profile and goals.`))

// BuildPrompt renders the meal plan request for in.
func BuildPrompt(in PromptInput) (string, error) {
	p, c, f := nutrition.MacroPercentages(in.Targets.Calories, in.Targets.ProteinG, in.Targets.CarbsG, in.Targets.FatG)
	view := promptView{
		PromptProfile: in.Profile,
		Targets:       in.Targets,
		ProteinPct:    p,
		CarbsPct:      c,
		FatPct:        f,
		Activity:      in.Activity,
	}
	if view.Gender == "" {
		view.Gender = "Not specified"
	}
	if view.FoodPreference == "" {
		view.FoodPreference = string(nutrition.Omnivore)
	}

	var b strings.Builder
	if err := promptTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
