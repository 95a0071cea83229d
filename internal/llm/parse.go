package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Slots are the meal slots a generated plan may fill, in display order.
var Slots = []string{"breakfast", "lunch", "dinner", "snack_1", "snack_2"}

// PlanResponse is a parsed provider answer. Meals holds one entry per slot
// present in the output, in Slots order.
type PlanResponse struct {
	Meals   []MealSuggestion
	Summary *DailySummary
}

type MealSuggestion struct {
	Slot               string   `json:"-"`
	MealName           string   `json:"meal_name"`
	Description        string   `json:"description"`
	Calories           Number   `json:"calories"`
	ProteinG           Number   `json:"protein_g"`
	CarbsG             Number   `json:"carbs_g"`
	FatG               Number   `json:"fat_g"`
	FiberG             Number   `json:"fiber_g"`
	SodiumMg           Number   `json:"sodium_mg"`
	SugarG             Number   `json:"sugar_g"`
	PrepTimeMinutes    Number   `json:"prep_time_minutes"`
	CookingTimeMinutes Number   `json:"cooking_time_minutes"`
	DifficultyLevel    Number   `json:"difficulty_level"`
	CuisineType        string   `json:"cuisine_type"`
	Ingredients        TextList `json:"ingredients"`
	Instructions       TextList `json:"instructions"`
	IsVegetarian       bool     `json:"is_vegetarian"`
	IsVegan            bool     `json:"is_vegan"`
	IsGlutenFree       bool     `json:"is_gluten_free"`
	IsDairyFree        bool     `json:"is_dairy_free"`
}

// DailySummary is the model's own accounting of the plan. It is informational
// only; stored totals are recomputed from the meals.
type DailySummary struct {
	TotalCalories Number `json:"total_calories"`
	TotalProteinG Number `json:"total_protein_g"`
	TotalCarbsG   Number `json:"total_carbs_g"`
	TotalFatG     Number `json:"total_fat_g"`
	TotalFiberG   Number `json:"total_fiber_g"`
	MeetsTargets  bool   `json:"meets_targets"`
	VarietyScore  Number `json:"variety_score"`
	PrepTimeTotal Number `json:"prep_time_total"`
}

// ParsePlan extracts the JSON object from text and decodes the known slots.
// Text around the outermost braces is ignored. Output with no recognised
// meal is rejected with ErrInvalidOutput.
func ParsePlan(text string) (*PlanResponse, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no json object found", ErrInvalidOutput)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	out := &PlanResponse{}
	for _, slot := range Slots {
		body, ok := raw[slot]
		if !ok || isNull(body) {
			continue
		}
		m := MealSuggestion{DifficultyLevel: 1}
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidOutput, slot, err)
		}
		m.Slot = slot
		out.Meals = append(out.Meals, m)
	}
	if len(out.Meals) == 0 {
		return nil, fmt.Errorf("%w: no meals in response", ErrInvalidOutput)
	}

	if body, ok := raw["daily_summary"]; ok && !isNull(body) {
		var s DailySummary
		if err := json.Unmarshal(body, &s); err == nil {
			out.Summary = &s
		}
	}
	return out, nil
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// Number accepts JSON numbers and numeric strings such as "25" or "25g".
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] != '"' {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*n = Number(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] == '.' || s[i] == '-' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }
func (n Number) Int() int       { return int(float64(n) + 0.5) }

// TextList accepts a list whose items are strings or small objects, e.g.
// {"item": "oats", "amount": "50g"}, and flattens objects to one line.
type TextList []string

func (l *TextList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		// a single string is treated as a one-item list
		var s string
		if err2 := json.Unmarshal(b, &s); err2 != nil {
			return err
		}
		*l = TextList{s}
		return nil
	}

	out := make(TextList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			out = append(out, string(item))
			continue
		}
		out = append(out, flatten(obj))
	}
	*l = out
	return nil
}

func flatten(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprint(obj[k]))
	}
	return strings.Join(parts, " ")
}
