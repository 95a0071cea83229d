// Package mealplan serves daily meal plans: generation through a text
// generation provider, the rule-based fallback, and reads and feedback on
// stored plans.
package mealplan

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/logger"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/repository"
	"github.com/oggyb/fittrack/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	appCtx      *app.AppContext
	planRepo    *repository.MealPlanRepository
	profileRepo *repository.ProfileRepository
	goalRepo    *repository.GoalRepository
	trackerRepo *repository.TrackerRepository
	workoutRepo *repository.WorkoutRepository
	now         func() time.Time
}

func NewMealPlanService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		planRepo:    repository.NewMealPlanRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		goalRepo:    repository.NewGoalRepository(appCtx.DB),
		trackerRepo: repository.NewTrackerRepository(appCtx.DB),
		workoutRepo: repository.NewWorkoutRepository(appCtx.DB),
		now:         time.Now,
	}
}

type DayRequest struct {
	Date string `json:"date"`
}

type RateMealRequest struct {
	MealID     uint64 `json:"meal_id" validate:"required"`
	Rating     *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Notes      string `json:"notes" validate:"max=2000"`
	IsFavorite bool   `json:"is_favorite"`
}

type FeedbackRequest struct {
	Date     string `json:"date"`
	Feedback string `json:"feedback" validate:"required,max=5000"`
}

type ListRequest struct {
	PageToken *string `json:"page_token,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=100"`
}

type MealView struct {
	ID                 uint64   `json:"id"`
	MealType           string   `json:"meal_type"`
	MealName           string   `json:"meal_name"`
	Description        string   `json:"description,omitempty"`
	Calories           float64  `json:"calories"`
	ProteinG           float64  `json:"protein_g"`
	CarbsG             float64  `json:"carbs_g"`
	FatG               float64  `json:"fat_g"`
	FiberG             float64  `json:"fiber_g"`
	SodiumMg           float64  `json:"sodium_mg"`
	SugarG             float64  `json:"sugar_g"`
	PrepTimeMinutes    int      `json:"prep_time_minutes"`
	CookingTimeMinutes int      `json:"cooking_time_minutes"`
	DifficultyLevel    int      `json:"difficulty_level"`
	CuisineType        string   `json:"cuisine_type,omitempty"`
	Ingredients        []string `json:"ingredients"`
	Instructions       []string `json:"instructions"`
	IsVegetarian       bool     `json:"is_vegetarian"`
	IsVegan            bool     `json:"is_vegan"`
	IsGlutenFree       bool     `json:"is_gluten_free"`
	IsDairyFree        bool     `json:"is_dairy_free"`
	UserRating         *int     `json:"user_rating,omitempty"`
	UserNotes          string   `json:"user_notes,omitempty"`
	IsFavorite         bool     `json:"is_favorite"`
}

type PlanView struct {
	ID                    uint64            `json:"id"`
	Date                  string            `json:"date"`
	Targets               nutrition.Targets `json:"targets"`
	Totals                nutrition.Targets `json:"totals"`
	LLMModelUsed          string            `json:"llm_model_used,omitempty"`
	GenerationTimeSeconds float64           `json:"generation_time_seconds"`
	UserFeedback          string            `json:"user_feedback,omitempty"`
	Meals                 []MealView        `json:"meals,omitempty"`
}

type PlanResponse struct {
	outcome.Result
	Plan *PlanView `json:"plan,omitempty"`
}

type MealResponse struct {
	outcome.Result
	Meal *MealView `json:"meal,omitempty"`
}

type ResultResponse struct {
	outcome.Result
}

type SummaryResponse struct {
	outcome.Result
	MealPlanID        uint64  `json:"meal_plan_id,omitempty"`
	Date              string  `json:"date"`
	TargetCalories    float64 `json:"target_calories"`
	TotalCalories     float64 `json:"total_calories"`
	CalorieDifference float64 `json:"calorie_difference"`
	ProteinPercentage float64 `json:"protein_percentage"`
	CarbsPercentage   float64 `json:"carbs_percentage"`
	FatPercentage     float64 `json:"fat_percentage"`
	MealsCount        int     `json:"meals_count"`
	GenerationTime    float64 `json:"generation_time"`
	LLMModel          string  `json:"llm_model,omitempty"`
}

type ListResponse struct {
	outcome.Result
	Plans         []PlanView `json:"plans"`
	NextPageToken *string    `json:"next_page_token,omitempty"`
}

func toMealView(m *db.Meal) MealView {
	return MealView{
		ID:                 m.ID,
		MealType:           m.MealType,
		MealName:           m.MealName,
		Description:        m.Description,
		Calories:           m.Calories,
		ProteinG:           m.ProteinG,
		CarbsG:             m.CarbsG,
		FatG:               m.FatG,
		FiberG:             m.FiberG,
		SodiumMg:           m.SodiumMg,
		SugarG:             m.SugarG,
		PrepTimeMinutes:    m.PrepTimeMinutes,
		CookingTimeMinutes: m.CookingTimeMinutes,
		DifficultyLevel:    m.DifficultyLevel,
		CuisineType:        m.CuisineType,
		Ingredients:        db.DecodeList(m.Ingredients),
		Instructions:       db.DecodeList(m.Instructions),
		IsVegetarian:       m.IsVegetarian,
		IsVegan:            m.IsVegan,
		IsGlutenFree:       m.IsGlutenFree,
		IsDairyFree:        m.IsDairyFree,
		UserRating:         m.UserRating,
		UserNotes:          m.UserNotes,
		IsFavorite:         m.IsFavorite,
	}
}

func toPlanView(p *db.MealPlan) *PlanView {
	v := &PlanView{
		ID:   p.ID,
		Date: p.Date,
		Targets: nutrition.Targets{
			Calories: p.TargetCalories,
			ProteinG: p.TargetProteinG,
			CarbsG:   p.TargetCarbsG,
			FatG:     p.TargetFatG,
			FiberG:   p.TargetFiberG,
		},
		Totals: nutrition.Targets{
			Calories: p.TotalCalories,
			ProteinG: p.TotalProteinG,
			CarbsG:   p.TotalCarbsG,
			FatG:     p.TotalFatG,
			FiberG:   p.TotalFiberG,
		},
		LLMModelUsed:          p.LLMModelUsed,
		GenerationTimeSeconds: p.GenerationTimeSeconds,
		UserFeedback:          p.UserFeedback,
	}
	for i := range p.Meals {
		v.Meals = append(v.Meals, toMealView(&p.Meals[i]))
	}
	return v
}

func (s *Service) day(ctx context.Context, date string) (uint64, string, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return 0, "", err
	}
	day, err := db.ParseDay(date, s.now())
	if err != nil {
		return 0, "", err
	}
	return userID, day, nil
}

func (s *Service) Get(ctx context.Context, req *DayRequest) (*PlanResponse, error) {
	userID, day, err := s.day(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	p, err := s.planRepo.Get(ctx, userID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PlanResponse{Result: outcome.NotFoundf("no meal plan for %s", day)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &PlanResponse{Result: outcome.OK(""), Plan: toPlanView(p)}, nil
}

// Summary compares a plan's totals with its targets.
func (s *Service) Summary(ctx context.Context, req *DayRequest) (*SummaryResponse, error) {
	userID, day, err := s.day(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	p, err := s.planRepo.Get(ctx, userID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &SummaryResponse{Result: outcome.NotFoundf("no meal plan for %s", day), Date: day}, nil
	}
	if err != nil {
		return nil, err
	}

	protein, carbs, fat := nutrition.MacroPercentages(p.TotalCalories, p.TotalProteinG, p.TotalCarbsG, p.TotalFatG)
	return &SummaryResponse{
		Result:            outcome.OK(""),
		MealPlanID:        p.ID,
		Date:              p.Date,
		TargetCalories:    p.TargetCalories,
		TotalCalories:     p.TotalCalories,
		CalorieDifference: math.Round((p.TotalCalories-p.TargetCalories)*10) / 10,
		ProteinPercentage: protein,
		CarbsPercentage:   carbs,
		FatPercentage:     fat,
		MealsCount:        len(p.Meals),
		GenerationTime:    p.GenerationTimeSeconds,
		LLMModel:          p.LLMModelUsed,
	}, nil
}

// Delete removes the plan and its meals together.
func (s *Service) Delete(ctx context.Context, req *DayRequest) (*ResultResponse, error) {
	userID, day, err := s.day(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	err = s.planRepo.Delete(ctx, userID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ResultResponse{Result: outcome.NotFoundf("no meal plan for %s", day)}, nil
	}
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("delete meal plan failed", "date", day, "err", err)
		return nil, err
	}
	return &ResultResponse{Result: outcome.OK("meal plan deleted")}, nil
}

func (s *Service) RateMeal(ctx context.Context, req *RateMealRequest) (*MealResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	m, err := s.planRepo.GetMeal(ctx, userID, req.MealID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &MealResponse{Result: outcome.NotFoundf("meal %d not found", req.MealID)}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.planRepo.UpdateMealFeedback(ctx, m.ID, req.Rating, req.Notes, req.IsFavorite); err != nil {
		return nil, err
	}

	m.UserRating, m.UserNotes, m.IsFavorite = req.Rating, req.Notes, req.IsFavorite
	v := toMealView(m)
	return &MealResponse{Result: outcome.OK("feedback saved"), Meal: &v}, nil
}

func (s *Service) Feedback(ctx context.Context, req *FeedbackRequest) (*ResultResponse, error) {
	userID, day, err := s.day(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	err = s.planRepo.SetFeedback(ctx, userID, day, req.Feedback)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ResultResponse{Result: outcome.NotFoundf("no meal plan for %s", day)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ResultResponse{Result: outcome.OK("feedback saved")}, nil
}

// List returns plan headers newest first, without meals.
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	plans, next, err := s.planRepo.List(ctx, userID, req.PageToken, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PlanView, 0, len(plans))
	for i := range plans {
		out = append(out, *toPlanView(&plans[i]))
	}
	return &ListResponse{Result: outcome.OK(""), Plans: out, NextPageToken: next}, nil
}
