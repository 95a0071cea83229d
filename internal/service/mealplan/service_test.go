package mealplan_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/app/apptest"
	"github.com/oggyb/fittrack/internal/db"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/llm"
	"github.com/oggyb/fittrack/internal/mealplan/rules"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/service/mealplan"
)

const day = "2025-03-10"

// stubProvider returns canned text and remembers the prompts it saw.
type stubProvider struct {
	tag llm.Tag

	mu      sync.Mutex
	text    string
	err     error
	prompts []string
	params  []llm.Params
}

func (p *stubProvider) Tag() llm.Tag { return p.tag }

func (p *stubProvider) Generate(_ context.Context, prompt string, params llm.Params) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	p.params = append(p.params, params)
	return p.text, p.err
}

func (p *stubProvider) set(text string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text, p.err = text, err
}

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func (p *stubProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts[len(p.prompts)-1]
}

var mealFixtures = map[string]string{
	"breakfast": `{"meal_name": "Oats", "calories": 450, "protein_g": "30g", "carbs_g": 50, "fat_g": 12, "fiber_g": 8,
		"ingredients": ["oats", "milk", "berries"], "instructions": ["Cook oats", "Top with berries"], "is_vegetarian": true}`,
	"lunch": `{"meal_name": "Chicken Bowl", "calories": 600, "protein_g": 40, "carbs_g": 60, "fat_g": 20, "fiber_g": 10,
		"ingredients": [{"item": "chicken", "amount": "150g"}, {"item": "rice", "amount": "1 cup"}], "difficulty_level": 2}`,
	"dinner":  `{"meal_name": "Salmon", "calories": 700, "protein_g": 45, "carbs_g": 70, "fat_g": 25, "fiber_g": 12, "cuisine_type": "nordic"}`,
	"snack_1": `{"meal_name": "Yogurt", "calories": 200, "protein_g": 10, "carbs_g": 20, "fat_g": 8, "fiber_g": 4}`,
	"snack_2": `{"meal_name": "Almonds", "calories": 150, "protein_g": 5, "carbs_g": 18, "fat_g": 6, "fiber_g": 3}`,
}

func planJSON(slots ...string) string {
	parts := make([]string, 0, len(slots)+1)
	for _, s := range slots {
		parts = append(parts, fmt.Sprintf("%q: %s", s, mealFixtures[s]))
	}
	parts = append(parts, `"daily_summary": {"total_calories": 9999}`)
	return "Here is your plan:\n{" + strings.Join(parts, ",\n") + "}"
}

var allSlots = []string{"breakfast", "lunch", "dinner", "snack_1", "snack_2"}

func setup(t *testing.T) (*app.AppContext, *stubProvider, *stubProvider) {
	t.Helper()
	openai := &stubProvider{tag: llm.OpenAI, text: planJSON(allSlots...)}
	ollama := &stubProvider{tag: llm.Ollama, text: planJSON("breakfast", "dinner")}
	reg := llm.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.Register(openai, 0)
	reg.Register(ollama, 0)
	return apptest.New(t, reg), openai, ollama
}

func TestStateMachine(t *testing.T) {
	assert.True(t, mealplan.NotRequested.CanMoveTo(mealplan.CheckExisting))
	assert.False(t, mealplan.NotRequested.CanMoveTo(mealplan.Generating))
	assert.True(t, mealplan.CheckExisting.CanMoveTo(mealplan.AlreadyExists))
	assert.False(t, mealplan.CheckExisting.CanMoveTo(mealplan.Persisted))
	for _, s := range []mealplan.State{mealplan.AlreadyExists, mealplan.Persisted, mealplan.GenerationFailed, mealplan.PersistFailed} {
		assert.True(t, s.Terminal(), s)
		assert.True(t, mealplan.Generating.CanMoveTo(s), s)
	}
	assert.False(t, mealplan.Generating.Terminal())
}

func TestGeneratePersistsPlan(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, mealplan.Persisted, res.State)
	assert.Equal(t, outcome.Success, res.Status)
	assert.Equal(t, 5, res.MealsCreated)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "gpt-4", res.Model)
	require.NotNil(t, res.Plan)

	// default target, no activity
	assert.Equal(t, nutrition.DailyTargets(2000), res.Plan.Targets)
	// totals come from the meals, not the provider's summary
	assert.InDelta(t, 2100, res.Plan.Totals.Calories, 1e-9)
	assert.InDelta(t, 130, res.Plan.Totals.ProteinG, 1e-9)
	assert.InDelta(t, 218, res.Plan.Totals.CarbsG, 1e-9)
	assert.InDelta(t, 71, res.Plan.Totals.FatG, 1e-9)
	assert.InDelta(t, 37, res.Plan.Totals.FiberG, 1e-9)
	assert.Equal(t, "openai-gpt-4", res.Plan.LLMModelUsed)

	got, err := svc.Get(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	require.Len(t, got.Plan.Meals, 5)
	assert.Equal(t, "breakfast", got.Plan.Meals[0].MealType)
	assert.Equal(t, []string{"oats", "milk", "berries"}, got.Plan.Meals[0].Ingredients)
	assert.Equal(t, []string{"150g chicken", "1 cup rice"}, got.Plan.Meals[1].Ingredients)
	assert.Equal(t, 2, got.Plan.Meals[1].DifficultyLevel)
	assert.Equal(t, 1, got.Plan.Meals[2].DifficultyLevel)

	prompt := openai.lastPrompt()
	assert.Contains(t, prompt, "No specific workout data for today")
	assert.Equal(t, llm.Params{Model: "gpt-4", Temperature: 0.7, MaxTokens: 4000}, openai.params[0])
}

func TestGenerateIsIdempotentWithoutRegenerate(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	first, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	require.Equal(t, mealplan.Persisted, first.State)

	openai.set(planJSON("lunch"), nil)
	for i := 0; i < 2; i++ {
		again, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
		require.NoError(t, err)
		assert.Equal(t, mealplan.AlreadyExists, again.State)
		assert.Equal(t, outcome.Info, again.Status)
		assert.Equal(t, first.MealPlanID, again.MealPlanID)
	}
	assert.Equal(t, 1, openai.calls())

	got, err := svc.Get(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Len(t, got.Plan.Meals, 5)
}

func TestRegenerateReplacesMeals(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	first, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)

	openai.set(planJSON("breakfast", "snack_2"), nil)
	res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day, Regenerate: true})
	require.NoError(t, err)
	assert.Equal(t, mealplan.Persisted, res.State)
	assert.Equal(t, first.MealPlanID, res.MealPlanID)

	got, err := svc.Get(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	require.Len(t, got.Plan.Meals, 2)
	assert.InDelta(t, 600, got.Plan.Totals.Calories, 1e-9)
	assert.InDelta(t, 35, got.Plan.Totals.ProteinG, 1e-9)

	var meals int64
	require.NoError(t, appCtx.DB.Model(&db.Meal{}).Count(&meals).Error)
	assert.EqualValues(t, 2, meals)
}

func TestGenerationFailureWritesNothing(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	openai.set("", errors.New("connection refused"))
	res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, mealplan.GenerationFailed, res.State)
	assert.Equal(t, outcome.Error, res.Status)
	assert.Contains(t, res.Error, "connection refused")

	openai.set(`{"notes": "no meals today"}`, nil)
	res, err = svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, mealplan.GenerationFailed, res.State)

	got, err := svc.Get(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, got.Status)
}

func TestGenerateWithoutProvider(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, mealplan.GenerationFailed, res.State)
}

func TestPersistFailureRollsBack(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	first, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	require.Equal(t, mealplan.Persisted, first.State)

	require.NoError(t, appCtx.DB.Callback().Create().Before("gorm:create").Register("test:fail_meals", func(tx *gorm.DB) {
		if tx.Statement.Table == "meals" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	openai.set(planJSON("lunch"), nil)
	res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day, Regenerate: true})
	require.NoError(t, err)
	assert.Equal(t, mealplan.PersistFailed, res.State)
	assert.Equal(t, outcome.Error, res.Status)
	assert.Contains(t, res.Error, "disk full")

	got, err := svc.Get(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Len(t, got.Plan.Meals, 5)
	assert.InDelta(t, 2100, got.Plan.Totals.Calories, 1e-9)

	// a brand-new plan leaves no header row behind either
	res, err = svc.Generate(ctx, &mealplan.GenerateRequest{Date: "2025-03-11"})
	require.NoError(t, err)
	assert.Equal(t, mealplan.PersistFailed, res.State)
	missing, err := svc.Get(ctx, &mealplan.DayRequest{Date: "2025-03-11"})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, missing.Status)
}

func TestGenerateTargets(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, u := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	kcal := 2500.0
	require.NoError(t, appCtx.DB.Create(&db.FitnessGoal{
		UserID: u.ID, ActivityLevel: nutrition.ModeratelyActive, Speed: nutrition.Average,
		CurrentWeightKg: 80, TargetWeightKg: 75, CurrentDailyCalories: 2200,
		CalculatedDailyCalories: &kcal, IsActive: true,
	}).Error)
	require.NoError(t, appCtx.DB.Create(&db.DailyActivityTracker{
		UserID: u.ID, Date: day, TotalExercisesDone: 3, TotalSetsCompleted: 9,
		CaloriesBurnedFromActivity: 300, WorkoutTypesDone: db.EncodeList([]string{"legs"}),
	}).Error)

	res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	require.Equal(t, mealplan.Persisted, res.State)
	assert.InDelta(t, 2680, res.Plan.Targets.Calories, 1e-9)
	assert.Contains(t, openai.lastPrompt(), "Completed 3 exercises, 9 sets")

	custom := 1800.0
	res, err = svc.Generate(ctx, &mealplan.GenerateRequest{Date: day, Regenerate: true, CustomCalorieTarget: &custom})
	require.NoError(t, err)
	require.Equal(t, mealplan.Persisted, res.State)
	assert.InDelta(t, 1980, res.Plan.Targets.Calories, 1e-9)
}

func TestGenerateUsesProfile(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, u := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	require.NoError(t, appCtx.DB.Create(&db.UserProfile{
		UserID: u.ID, Gender: nutrition.Female, FoodPreference: nutrition.Vegan,
		CookingSkill: 2, MaxPrepMinutes: 20, MealFrequency: 4, SnackPreference: true,
		Allergies: db.EncodeList([]string{"peanuts"}), DietaryRestrictions: db.EncodeList(nil),
		DislikedFoods: db.EncodeList([]string{"okra"}), PreferredCuisines: db.EncodeList([]string{"thai"}),
	}).Error)

	_, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)
	prompt := openai.lastPrompt()
	assert.Contains(t, prompt, "vegan")
	assert.Contains(t, prompt, "peanuts")
	assert.Contains(t, prompt, "okra")
	assert.Contains(t, prompt, "thai")
}

func TestGenerateProviderOverride(t *testing.T) {
	appCtx, openai, ollama := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	provider := "ollama"
	temp := 0.2
	res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day, Provider: &provider, Temperature: &temp})
	require.NoError(t, err)
	require.Equal(t, mealplan.Persisted, res.State)
	assert.Equal(t, 0, openai.calls())
	assert.Equal(t, 1, ollama.calls())
	assert.Equal(t, llm.Params{Model: "llama3.1:70b", Temperature: 0.2, MaxTokens: 4000}, ollama.params[0])
	assert.Equal(t, "ollama-llama3.1:70b", res.Plan.LLMModelUsed)
	assert.Equal(t, 2, res.MealsCreated)

	unknown := "gemini"
	_, err = svc.Generate(ctx, &mealplan.GenerateRequest{Date: day, Provider: &unknown})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	hot := 3.5
	_, err = svc.Generate(ctx, &mealplan.GenerateRequest{Date: day, Temperature: &hot})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestConcurrentGenerateStoresOnePlan(t *testing.T) {
	appCtx, _, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	results := make([]*mealplan.GenerateResult, 3)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	persisted := 0
	for _, r := range results {
		require.NotNil(t, r)
		if r.State == mealplan.Persisted {
			persisted++
		} else {
			assert.Equal(t, mealplan.AlreadyExists, r.State)
		}
	}
	assert.Equal(t, 1, persisted)

	var plans int64
	require.NoError(t, appCtx.DB.Model(&db.MealPlan{}).Count(&plans).Error)
	assert.EqualValues(t, 1, plans)
}

func TestSummaryFeedbackAndDelete(t *testing.T) {
	appCtx, _, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	otherCtx, _ := apptest.User(t, appCtx, "+15550000002")
	svc := mealplan.NewMealPlanService(appCtx)

	sum, err := svc.Summary(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, sum.Status)

	gen, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: day})
	require.NoError(t, err)

	sum, err = svc.Summary(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, gen.MealPlanID, sum.MealPlanID)
	assert.InDelta(t, 100, sum.CalorieDifference, 1e-9)
	assert.InDelta(t, 24.8, sum.ProteinPercentage, 1e-9)
	assert.InDelta(t, 41.5, sum.CarbsPercentage, 1e-9)
	assert.InDelta(t, 30.4, sum.FatPercentage, 1e-9)
	assert.Equal(t, 5, sum.MealsCount)

	mealID := gen.Plan.Meals[0].ID
	rating := 4
	rated, err := svc.RateMeal(ctx, &mealplan.RateMealRequest{MealID: mealID, Rating: &rating, Notes: "tasty", IsFavorite: true})
	require.NoError(t, err)
	assert.Equal(t, outcome.Success, rated.Status)

	bad := 6
	_, err = svc.RateMeal(ctx, &mealplan.RateMealRequest{MealID: mealID, Rating: &bad})
	assert.Error(t, err)

	stolen, err := svc.RateMeal(otherCtx, &mealplan.RateMealRequest{MealID: mealID, Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, stolen.Status)

	fb, err := svc.Feedback(ctx, &mealplan.FeedbackRequest{Date: day, Feedback: "too much rice"})
	require.NoError(t, err)
	assert.Equal(t, outcome.Success, fb.Status)

	got, err := svc.Get(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, "too much rice", got.Plan.UserFeedback)
	require.NotNil(t, got.Plan.Meals[0].UserRating)
	assert.Equal(t, 4, *got.Plan.Meals[0].UserRating)
	assert.True(t, got.Plan.Meals[0].IsFavorite)

	del, err := svc.Delete(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, outcome.Success, del.Status)

	var meals int64
	require.NoError(t, appCtx.DB.Model(&db.Meal{}).Count(&meals).Error)
	assert.Zero(t, meals)

	del, err = svc.Delete(ctx, &mealplan.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, del.Status)

	fb, err = svc.Feedback(ctx, &mealplan.FeedbackRequest{Date: day, Feedback: "gone"})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, fb.Status)
}

func TestListPlans(t *testing.T) {
	appCtx, _, _ := setup(t)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	for _, d := range []string{"2025-03-01", "2025-03-02", "2025-03-03"} {
		res, err := svc.Generate(ctx, &mealplan.GenerateRequest{Date: d})
		require.NoError(t, err)
		require.Equal(t, mealplan.Persisted, res.State)
	}

	page, err := svc.List(ctx, &mealplan.ListRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Plans, 2)
	assert.Equal(t, "2025-03-03", page.Plans[0].Date)
	assert.Empty(t, page.Plans[0].Meals)
	require.NotNil(t, page.NextPageToken)

	page, err = svc.List(ctx, &mealplan.ListRequest{Limit: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page.Plans, 1)
	assert.Equal(t, "2025-03-01", page.Plans[0].Date)
	assert.Nil(t, page.NextPageToken)

	bogus := "not-a-token!"
	_, err = svc.List(ctx, &mealplan.ListRequest{PageToken: &bogus})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestRuleBased(t *testing.T) {
	appCtx, openai, _ := setup(t)
	ctx, u := apptest.User(t, appCtx, "+15550000001")
	svc := mealplan.NewMealPlanService(appCtx)

	res, err := svc.RuleBased(ctx, &mealplan.RuleBasedRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, res.Status)

	require.NoError(t, appCtx.DB.Create(&db.UserProfile{
		UserID: u.ID, Gender: nutrition.Male, FoodPreference: nutrition.Omnivore,
		AgeYears: 30, HeightCm: 180,
	}).Error)
	res, err = svc.RuleBased(ctx, &mealplan.RuleBasedRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, res.Status, "an active goal is still missing")

	require.NoError(t, appCtx.DB.Create(&db.FitnessGoal{
		UserID: u.ID, ActivityLevel: nutrition.LightlyActive, Speed: nutrition.Slow,
		CurrentWeightKg: 80, TargetWeightKg: 75, CurrentDailyCalories: 2200, IsActive: true,
	}).Error)

	res, err = svc.RuleBased(ctx, &mealplan.RuleBasedRequest{Date: day, Steps: 2000})
	require.NoError(t, err)
	require.Equal(t, outcome.Success, res.Status)
	assert.Equal(t, rules.Lose, res.Plan.Direction)
	assert.Equal(t, rules.Light, res.Plan.Intensity)
	assert.GreaterOrEqual(t, len(res.Plan.Meals), 3)

	require.NoError(t, appCtx.DB.Create(&db.DailyActivityTracker{
		UserID: u.ID, Date: day, TotalWorkoutTime: 30,
		WorkoutTypesDone: db.EncodeList([]string{"cardio"}),
	}).Error)
	res, err = svc.RuleBased(ctx, &mealplan.RuleBasedRequest{Date: day, Steps: 2000})
	require.NoError(t, err)
	assert.Contains(t, res.Plan.Recommendations, "Replenish carbohydrates after cardio to restore energy levels.")

	res, err = svc.RuleBased(ctx, &mealplan.RuleBasedRequest{Date: day, Steps: 2000, WorkoutType: "Strength"})
	require.NoError(t, err)
	assert.Contains(t, res.Plan.Recommendations, "After strength training, prioritize protein within 2 hours for muscle building.")

	_, err = svc.RuleBased(ctx, &mealplan.RuleBasedRequest{Date: day, WorkoutType: "pilates"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	assert.Zero(t, openai.calls(), "the rule-based planner never calls a provider")
	var plans int64
	require.NoError(t, appCtx.DB.Model(&db.MealPlan{}).Count(&plans).Error)
	assert.Zero(t, plans)
}
