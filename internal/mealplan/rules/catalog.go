package rules

// Intensity is the coarse tier that drives meal selection.
type Intensity string

const (
	HighProtein Intensity = "high_protein"
	Moderate    Intensity = "moderate"
	Light       Intensity = "light"
)

// Slot is a meal position in the day.
type Slot string

const (
	Breakfast Slot = "breakfast"
	Lunch     Slot = "lunch"
	Dinner    Slot = "dinner"
	Snack     Slot = "snack"
)

// Meal is a fixed catalog entry. Values are whole kcal and grams.
type Meal struct {
	Name     string `json:"name"`
	Slot     Slot   `json:"meal_type"`
	Calories int    `json:"calories"`
	ProteinG int    `json:"protein_g"`
	CarbsG   int    `json:"carbs_g"`
	FatG     int    `json:"fat_g"`
}

type catalogKey struct {
	intensity Intensity
	slot      Slot
}

// catalog is read-only after init.
var catalog = map[catalogKey]Meal{
	{HighProtein, Breakfast}: {Name: "Greek Yogurt with Berries", Slot: Breakfast, Calories: 250, ProteinG: 20, CarbsG: 25, FatG: 8},
	{Moderate, Breakfast}:    {Name: "Oatmeal with Banana", Slot: Breakfast, Calories: 300, ProteinG: 10, CarbsG: 55, FatG: 6},
	{Light, Breakfast}:       {Name: "Toast with Avocado", Slot: Breakfast, Calories: 200, ProteinG: 6, CarbsG: 20, FatG: 12},

	{HighProtein, Lunch}: {Name: "Grilled Chicken Salad", Slot: Lunch, Calories: 400, ProteinG: 35, CarbsG: 15, FatG: 22},
	{Moderate, Lunch}:    {Name: "Quinoa Bowl with Vegetables", Slot: Lunch, Calories: 450, ProteinG: 15, CarbsG: 60, FatG: 18},
	{Light, Lunch}:       {Name: "Vegetable Soup with Bread", Slot: Lunch, Calories: 300, ProteinG: 10, CarbsG: 45, FatG: 8},

	{HighProtein, Dinner}: {Name: "Salmon with Sweet Potato", Slot: Dinner, Calories: 500, ProteinG: 40, CarbsG: 35, FatG: 25},
	{Moderate, Dinner}:    {Name: "Pasta with Marinara", Slot: Dinner, Calories: 450, ProteinG: 18, CarbsG: 70, FatG: 12},
	{Light, Dinner}:       {Name: "Vegetable Stir Fry", Slot: Dinner, Calories: 350, ProteinG: 12, CarbsG: 50, FatG: 15},
}

var (
	proteinSnack = Meal{Name: "Protein Smoothie", Slot: Snack, Calories: 200, ProteinG: 25, CarbsG: 15, FatG: 5}
	healthySnack = Meal{Name: "Apple with Almond Butter", Slot: Snack, Calories: 180, ProteinG: 6, CarbsG: 20, FatG: 10}
)

// Lookup returns the catalog meal for (intensity, slot), falling back to the
// moderate entry for that slot. Snacks are not looked up here.
func Lookup(intensity Intensity, slot Slot) (Meal, bool) {
	if m, ok := catalog[catalogKey{intensity, slot}]; ok {
		return m, true
	}
	m, ok := catalog[catalogKey{Moderate, slot}]
	return m, ok
}
