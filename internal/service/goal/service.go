package goal

import (
	"context"
	"errors"
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

// Service manages fitness goals. A user has at most one active goal; setting
// a new one retires the previous one.
type Service struct {
	appCtx   *app.AppContext
	goalRepo *repository.GoalRepository
	now      func() time.Time
}

func NewGoalService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		goalRepo: repository.NewGoalRepository(appCtx.DB),
		now:      time.Now,
	}
}

type GoalRequest struct {
	ActivityLevel        string  `json:"activity_level" validate:"required"`
	Speed                string  `json:"speed" validate:"required"`
	CurrentWeightKg      float64 `json:"current_weight_kg" validate:"gt=0,lte=500"`
	TargetWeightKg       float64 `json:"target_weight_kg" validate:"gt=0,lte=500"`
	CurrentDailyCalories float64 `json:"current_daily_calories" validate:"gt=0,lte=10000"`
}

// UpdateGoalRequest changes the active goal. Nil fields keep their value.
type UpdateGoalRequest struct {
	ActivityLevel        *string  `json:"activity_level,omitempty"`
	Speed                *string  `json:"speed,omitempty"`
	CurrentWeightKg      *float64 `json:"current_weight_kg,omitempty" validate:"omitempty,gt=0,lte=500"`
	TargetWeightKg       *float64 `json:"target_weight_kg,omitempty" validate:"omitempty,gt=0,lte=500"`
	CurrentDailyCalories *float64 `json:"current_daily_calories,omitempty" validate:"omitempty,gt=0,lte=10000"`
}

type Empty struct{}

type GoalView struct {
	ID                      uint64                  `json:"id"`
	ActivityLevel           nutrition.ActivityLevel `json:"activity_level"`
	Speed                   nutrition.Speed         `json:"speed"`
	CurrentWeightKg         float64                 `json:"current_weight_kg"`
	TargetWeightKg          float64                 `json:"target_weight_kg"`
	CurrentDailyCalories    float64                 `json:"current_daily_calories"`
	CalculatedDailyCalories *float64                `json:"calculated_daily_calories,omitempty"`
	IsActive                bool                    `json:"is_active"`
	Achieved                bool                    `json:"achieved"`
	AchievedDate            string                  `json:"achieved_date,omitempty"`
	CreatedAt               time.Time               `json:"created_at"`
}

type GoalResponse struct {
	outcome.Result
	Goal *GoalView           `json:"goal,omitempty"`
	Plan *nutrition.GoalPlan `json:"plan,omitempty"`
}

type ListGoalsResponse struct {
	outcome.Result
	Goals []GoalView `json:"goals"`
}

func toView(g *db.FitnessGoal) *GoalView {
	v := &GoalView{
		ID:                      g.ID,
		ActivityLevel:           g.ActivityLevel,
		Speed:                   g.Speed,
		CurrentWeightKg:         g.CurrentWeightKg,
		TargetWeightKg:          g.TargetWeightKg,
		CurrentDailyCalories:    g.CurrentDailyCalories,
		CalculatedDailyCalories: g.CalculatedDailyCalories,
		IsActive:                g.IsActive,
		Achieved:                g.Achieved,
		CreatedAt:               g.CreatedAt,
	}
	if g.AchievedDate != nil {
		v.AchievedDate = g.AchievedDate.Format(db.DateLayout)
	}
	return v
}

func (r *GoalRequest) input() (nutrition.GoalInput, error) {
	level, err := nutrition.ParseActivityLevel(r.ActivityLevel)
	if err != nil {
		return nutrition.GoalInput{}, err
	}
	speed, err := nutrition.ParseSpeed(r.Speed)
	if err != nil {
		return nutrition.GoalInput{}, err
	}
	return nutrition.GoalInput{
		CurrentWeightKg:      r.CurrentWeightKg,
		TargetWeightKg:       r.TargetWeightKg,
		CurrentDailyCalories: r.CurrentDailyCalories,
		Speed:                speed,
		ActivityLevel:        level,
	}, nil
}

// SetGoal plans and stores a new active goal.
func (s *Service) SetGoal(ctx context.Context, req *GoalRequest) (*GoalResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	in, err := req.input()
	if err != nil {
		return nil, err
	}
	plan, err := nutrition.PlanGoal(in)
	if err != nil {
		return nil, err
	}

	calories := plan.CalculatedDailyCalories
	g := &db.FitnessGoal{
		UserID:                  userID,
		ActivityLevel:           in.ActivityLevel,
		Speed:                   in.Speed,
		CurrentWeightKg:         in.CurrentWeightKg,
		TargetWeightKg:          in.TargetWeightKg,
		CurrentDailyCalories:    in.CurrentDailyCalories,
		CalculatedDailyCalories: &calories,
	}
	if err := s.goalRepo.ReplaceActive(ctx, g); err != nil {
		log.Error("ReplaceActive failed", "err", err)
		return nil, err
	}

	log.Info("goal set", "goal_id", g.ID, "goal_type", plan.GoalType, "calories", calories)
	return &GoalResponse{Result: outcome.OK("goal set"), Goal: toView(g), Plan: &plan}, nil
}

// UpdateGoal applies req to the active goal and recalculates its calories.
func (s *Service) UpdateGoal(ctx context.Context, req *UpdateGoalRequest) (*GoalResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	g, err := s.goalRepo.Active(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &GoalResponse{Result: outcome.NotFoundf("no active goal")}, nil
	}
	if err != nil {
		return nil, err
	}

	merged := GoalRequest{
		ActivityLevel:        string(g.ActivityLevel),
		Speed:                string(g.Speed),
		CurrentWeightKg:      g.CurrentWeightKg,
		TargetWeightKg:       g.TargetWeightKg,
		CurrentDailyCalories: g.CurrentDailyCalories,
	}
	if req.ActivityLevel != nil {
		merged.ActivityLevel = *req.ActivityLevel
	}
	if req.Speed != nil {
		merged.Speed = *req.Speed
	}
	if req.CurrentWeightKg != nil {
		merged.CurrentWeightKg = *req.CurrentWeightKg
	}
	if req.TargetWeightKg != nil {
		merged.TargetWeightKg = *req.TargetWeightKg
	}
	if req.CurrentDailyCalories != nil {
		merged.CurrentDailyCalories = *req.CurrentDailyCalories
	}

	in, err := merged.input()
	if err != nil {
		return nil, err
	}
	plan, err := nutrition.PlanGoal(in)
	if err != nil {
		return nil, err
	}

	calories := plan.CalculatedDailyCalories
	g.ActivityLevel = in.ActivityLevel
	g.Speed = in.Speed
	g.CurrentWeightKg = in.CurrentWeightKg
	g.TargetWeightKg = in.TargetWeightKg
	g.CurrentDailyCalories = in.CurrentDailyCalories
	g.CalculatedDailyCalories = &calories
	if err := s.goalRepo.Save(ctx, g); err != nil {
		return nil, err
	}
	return &GoalResponse{Result: outcome.OK("goal updated"), Goal: toView(g), Plan: &plan}, nil
}

func (s *Service) ActiveGoal(ctx context.Context, _ *Empty) (*GoalResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.goalRepo.Active(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &GoalResponse{Result: outcome.NotFoundf("no active goal")}, nil
	}
	if err != nil {
		return nil, err
	}
	return &GoalResponse{Result: outcome.OK(""), Goal: toView(g)}, nil
}

// MarkAchieved closes the active goal as achieved today.
func (s *Service) MarkAchieved(ctx context.Context, _ *Empty) (*GoalResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.goalRepo.Active(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &GoalResponse{Result: outcome.NotFoundf("no active goal")}, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	g.Achieved = true
	g.AchievedDate = &now
	g.IsActive = false
	if err := s.goalRepo.Save(ctx, g); err != nil {
		return nil, err
	}
	return &GoalResponse{Result: outcome.OK("goal achieved"), Goal: toView(g)}, nil
}

// Preview runs the planner without storing anything.
func (s *Service) Preview(ctx context.Context, req *GoalRequest) (*GoalResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	in, err := req.input()
	if err != nil {
		return nil, err
	}
	plan, err := nutrition.PlanGoal(in)
	if err != nil {
		return nil, err
	}
	return &GoalResponse{Result: outcome.OK(""), Plan: &plan}, nil
}

// ListGoals returns every goal the user has set, newest first.
func (s *Service) ListGoals(ctx context.Context, _ *Empty) (*ListGoalsResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := s.goalRepo.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &ListGoalsResponse{Result: outcome.OK(""), Goals: make([]GoalView, 0, len(goals))}
	for i := range goals {
		resp.Goals = append(resp.Goals, *toView(&goals[i]))
	}
	return resp, nil
}
