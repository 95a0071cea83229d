package mealplan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/config"
	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/llm"
	"github.com/oggyb/fittrack/internal/logger"
	"github.com/oggyb/fittrack/internal/metrics"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/validation"
)

// State is a step of one generation request.
type State string

const (
	NotRequested     State = "NOT_REQUESTED"
	CheckExisting    State = "CHECK_EXISTING"
	AlreadyExists    State = "ALREADY_EXISTS"
	Generating       State = "GENERATING"
	Persisted        State = "PERSISTED"
	GenerationFailed State = "GENERATION_FAILED"
	PersistFailed    State = "PERSIST_FAILED"
)

var transitions = map[State][]State{
	NotRequested:  {CheckExisting},
	CheckExisting: {AlreadyExists, Generating},
	// a concurrent insert for the same day ends in AlreadyExists
	Generating: {Persisted, GenerationFailed, PersistFailed, AlreadyExists},
}

// CanMoveTo reports whether t may follow s.
func (s State) CanMoveTo(t State) bool {
	for _, n := range transitions[s] {
		if n == t {
			return true
		}
	}
	return false
}

// Terminal reports whether no state follows s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s State) status() outcome.Status {
	switch s {
	case Persisted:
		return outcome.Success
	case AlreadyExists:
		return outcome.Info
	default:
		return outcome.Error
	}
}

// GenerateRequest asks for the plan of one day. Nil generation fields fall
// back to the server configuration.
type GenerateRequest struct {
	Date                string   `json:"date"`
	Regenerate          bool     `json:"regenerate_if_exists"`
	CustomCalorieTarget *float64 `json:"custom_calorie_target,omitempty" validate:"omitempty,gt=0,lte=10000"`
	Provider            *string  `json:"llm_provider,omitempty"`
	Model               *string  `json:"model_name,omitempty" validate:"omitempty,max=100"`
	Temperature         *float64 `json:"temperature,omitempty"`
	MaxTokens           *int     `json:"max_tokens,omitempty"`
}

// GenerateResult always carries the terminal state. Error holds the cause
// for GENERATION_FAILED and PERSIST_FAILED.
type GenerateResult struct {
	outcome.Result
	State          State     `json:"state"`
	Date           string    `json:"date"`
	MealPlanID     uint64    `json:"meal_plan_id,omitempty"`
	Plan           *PlanView `json:"plan,omitempty"`
	MealsCreated   int       `json:"meals_created,omitempty"`
	Provider       string    `json:"llm_provider,omitempty"`
	Model          string    `json:"llm_model,omitempty"`
	GenerationTime float64   `json:"generation_time,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// run tracks one request through the state machine.
type run struct {
	state  State
	result *GenerateResult
}

func (r *run) move(to State) {
	if !r.state.CanMoveTo(to) {
		panic(fmt.Sprintf("meal plan generation: illegal transition %s -> %s", r.state, to))
	}
	r.state = to
	r.result.State = to
	if to.Terminal() {
		metrics.MealPlanGenerationTotal.WithLabelValues(string(to)).Inc()
	}
}

func (r *run) finish(to State, message string, cause error) *GenerateResult {
	r.move(to)
	r.result.Result = outcome.Result{Status: to.status(), Message: message}
	if cause != nil {
		r.result.Error = cause.Error()
	}
	return r.result
}

// LLMConfig is the server's generation configuration: the package defaults
// with the configured provider, model, temperature and token limit applied.
func LLMConfig(cfg *config.Config) (llm.Config, error) {
	var o llm.Overrides
	if cfg.LLM.Provider != "" {
		tag, err := llm.ParseTag(cfg.LLM.Provider)
		if err != nil {
			return llm.Config{}, fmt.Errorf("LLM_PROVIDER: %w", err)
		}
		o.Provider = &tag
	}
	if cfg.LLM.Model != "" {
		o.Model = &cfg.LLM.Model
	}
	if cfg.LLM.Temperature > 0 {
		o.Temperature = &cfg.LLM.Temperature
	}
	if cfg.LLM.MaxTokens > 0 {
		o.MaxTokens = &cfg.LLM.MaxTokens
	}
	return llm.DefaultConfig().Merge(o), nil
}

func (req *GenerateRequest) overrides() (llm.Overrides, error) {
	o := llm.Overrides{Model: req.Model, Temperature: req.Temperature, MaxTokens: req.MaxTokens}
	if req.Provider != nil && *req.Provider != "" {
		tag, err := llm.ParseTag(*req.Provider)
		if err != nil {
			return llm.Overrides{}, err
		}
		o.Provider = &tag
	}
	return o, nil
}

// Generate produces and stores the meal plan for one day.
//
// Flow:
//   - CHECK_EXISTING: an existing plan ends the request as ALREADY_EXISTS
//     unless Regenerate is set. Nothing is written.
//   - GENERATING: targets come from the active goal (or the configured
//     default), replaced by CustomCalorieTarget when given, plus a share of
//     the day's tracked activity calories. The provider call is bounded by
//     the provider's timeout.
//   - The plan and its meals are written in one transaction. Regeneration
//     replaces every previous meal.
//
// Provider and storage failures come back as GENERATION_FAILED or
// PERSIST_FAILED results, not errors. Errors are reserved for bad input.
func (s *Service) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	day, err := db.ParseDay(req.Date, s.now())
	if err != nil {
		return nil, err
	}
	base, err := LLMConfig(s.appCtx.Config)
	if err != nil {
		return nil, err
	}
	o, err := req.overrides()
	if err != nil {
		return nil, err
	}
	llmCfg := base.Merge(o)
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, s.appCtx.Logger).With("date", day)
	log.Debug("Generate called", "regenerate", req.Regenerate, "provider", llmCfg.Provider)

	r := &run{state: NotRequested, result: &GenerateResult{Date: day}}

	r.move(CheckExisting)
	existing, err := s.planRepo.Get(ctx, userID, day)
	switch {
	case err == nil && !req.Regenerate:
		r.result.MealPlanID = existing.ID
		return r.finish(AlreadyExists, "meal plan already exists for "+day, nil), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = nil
	case err != nil:
		log.Error("load existing meal plan failed", "err", err)
		return nil, err
	}

	r.move(Generating)
	r.result.Provider = string(llmCfg.Provider)
	r.result.Model = llmCfg.Model

	targets, tracker, err := s.targets(ctx, userID, day, req.CustomCalorieTarget)
	if err != nil {
		return r.finish(GenerationFailed, "failed to compute nutrition targets", err), nil
	}
	input, err := s.promptInput(ctx, userID, targets, tracker)
	if err != nil {
		return r.finish(GenerationFailed, "failed to load profile", err), nil
	}
	prompt, err := llm.BuildPrompt(input)
	if err != nil {
		return r.finish(GenerationFailed, "failed to build prompt", err), nil
	}

	if s.appCtx.Generator == nil {
		return r.finish(GenerationFailed, "failed to generate meal plan", errors.New("no generation provider configured")), nil
	}
	start := time.Now()
	resp, err := s.appCtx.Generator.Generate(ctx, llmCfg, prompt)
	elapsed := math.Round(time.Since(start).Seconds()*100) / 100
	r.result.GenerationTime = elapsed
	if err != nil {
		log.Warn("meal plan generation failed", "err", err)
		return r.finish(GenerationFailed, "failed to generate meal plan", err), nil
	}

	plan := existing
	if plan == nil {
		plan = &db.MealPlan{UserID: userID, Date: day}
	}
	plan.TargetCalories = targets.Calories
	plan.TargetProteinG = targets.ProteinG
	plan.TargetCarbsG = targets.CarbsG
	plan.TargetFatG = targets.FatG
	plan.TargetFiberG = targets.FiberG
	plan.GenerationPrompt = prompt
	plan.LLMModelUsed = llmCfg.ModelID()
	plan.GenerationTimeSeconds = elapsed
	plan.IsActive = true

	meals := toMeals(resp.Meals)
	if err := s.planRepo.Replace(ctx, plan, meals); err != nil {
		if existing == nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			if winner, getErr := s.planRepo.Get(ctx, userID, day); getErr == nil {
				r.result.MealPlanID = winner.ID
			}
			return r.finish(AlreadyExists, "meal plan already exists for "+day, nil), nil
		}
		log.Error("persist meal plan failed", "err", err)
		return r.finish(PersistFailed, "failed to save meal plan", err), nil
	}

	log.Info("meal plan generated", "meal_plan_id", plan.ID, "meals", len(meals), "model", plan.LLMModelUsed)
	r.result.MealPlanID = plan.ID
	r.result.MealsCreated = len(meals)
	r.result.Plan = toPlanView(plan)
	return r.finish(Persisted, "meal plan generated successfully", nil), nil
}

// targets computes the day's nutrition targets. The day's tracker, when
// present, is returned for the prompt.
func (s *Service) targets(ctx context.Context, userID uint64, day string, custom *float64) (nutrition.Targets, *db.DailyActivityTracker, error) {
	calories := s.appCtx.Config.Nutrition.DefaultDailyCalories
	goal, err := s.goalRepo.Active(ctx, userID)
	switch {
	case err == nil:
		if goal.CalculatedDailyCalories != nil && *goal.CalculatedDailyCalories > 0 {
			calories = *goal.CalculatedDailyCalories
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nutrition.Targets{}, nil, err
	}
	if custom != nil {
		calories = *custom
	}

	tracker, err := s.trackerRepo.Get(ctx, userID, day)
	switch {
	case err == nil:
		calories += tracker.CaloriesBurnedFromActivity * s.appCtx.Config.Nutrition.ReplenishRatio
	case errors.Is(err, gorm.ErrRecordNotFound):
		tracker = nil
	default:
		return nutrition.Targets{}, nil, err
	}
	return nutrition.DailyTargets(calories), tracker, nil
}

func (s *Service) promptInput(ctx context.Context, userID uint64, targets nutrition.Targets, tracker *db.DailyActivityTracker) (llm.PromptInput, error) {
	in := llm.PromptInput{
		Profile: llm.PromptProfile{
			CookingSkill:    3,
			MaxPrepMinutes:  45,
			MealFrequency:   3,
			SnackPreference: true,
		},
		Targets: targets,
	}

	p, err := s.profileRepo.Get(ctx, userID)
	switch {
	case err == nil:
		in.Profile = llm.PromptProfile{
			Gender:              string(p.Gender),
			FoodPreference:      string(p.FoodPreference),
			CookingSkill:        p.CookingSkill,
			MaxPrepMinutes:      p.MaxPrepMinutes,
			MealFrequency:       p.MealFrequency,
			SnackPreference:     p.SnackPreference,
			Allergies:           db.DecodeList(p.Allergies),
			DietaryRestrictions: db.DecodeList(p.DietaryRestrictions),
			DislikedFoods:       db.DecodeList(p.DislikedFoods),
			PreferredCuisines:   db.DecodeList(p.PreferredCuisines),
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return llm.PromptInput{}, err
	}

	if tracker != nil {
		in.Activity = &llm.PromptActivity{
			Summary:        fmt.Sprintf("Completed %d exercises, %d sets", tracker.TotalExercisesDone, tracker.TotalSetsCompleted),
			CaloriesBurned: tracker.CaloriesBurnedFromActivity,
		}
	}
	return in, nil
}

func toMeals(suggestions []llm.MealSuggestion) []db.Meal {
	meals := make([]db.Meal, 0, len(suggestions))
	for _, m := range suggestions {
		meals = append(meals, db.Meal{
			MealType:           m.Slot,
			MealName:           m.MealName,
			Description:        m.Description,
			Calories:           m.Calories.Float(),
			ProteinG:           m.ProteinG.Float(),
			CarbsG:             m.CarbsG.Float(),
			FatG:               m.FatG.Float(),
			FiberG:             m.FiberG.Float(),
			SodiumMg:           m.SodiumMg.Float(),
			SugarG:             m.SugarG.Float(),
			PrepTimeMinutes:    m.PrepTimeMinutes.Int(),
			CookingTimeMinutes: m.CookingTimeMinutes.Int(),
			DifficultyLevel:    m.DifficultyLevel.Int(),
			CuisineType:        m.CuisineType,
			Ingredients:        db.EncodeList(m.Ingredients),
			Instructions:       db.EncodeList(m.Instructions),
			IsVegetarian:       m.IsVegetarian,
			IsVegan:            m.IsVegan,
			IsGlutenFree:       m.IsGlutenFree,
			IsDairyFree:        m.IsDairyFree,
		})
	}
	return meals
}
