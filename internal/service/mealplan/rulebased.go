package mealplan

import (
	"context"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/mealplan/rules"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/validation"
)

// RuleBasedRequest plans a day without a generation provider. Steps is not
// tracked server-side. ActiveMinutes and WorkoutType default to the day's
// tracker.
type RuleBasedRequest struct {
	Date          string `json:"date"`
	Steps         int    `json:"steps" validate:"gte=0,lte=200000"`
	ActiveMinutes *int   `json:"active_minutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
	WorkoutType   string `json:"workout_type"`
}

type RuleBasedResponse struct {
	outcome.Result
	Date string      `json:"date"`
	Plan *rules.Plan `json:"plan,omitempty"`
}

// RuleBased runs the deterministic planner for the user. It needs a profile
// with age and height and an active goal; it never stores anything.
func (s *Service) RuleBased(ctx context.Context, req *RuleBasedRequest) (*RuleBasedResponse, error) {
	userID, day, err := s.day(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	kind, err := parseKind(req.WorkoutType)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && (profile.AgeYears <= 0 || profile.HeightCm <= 0)) {
		return &RuleBasedResponse{Result: outcome.NotFoundf("profile with age and height is required"), Date: day}, nil
	}
	if err != nil {
		return nil, err
	}
	goal, err := s.goalRepo.Active(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &RuleBasedResponse{Result: outcome.NotFoundf("an active fitness goal is required"), Date: day}, nil
	}
	if err != nil {
		return nil, err
	}

	signal := rules.DaySignal{Steps: req.Steps, Kind: kind}
	tracker, err := s.trackerRepo.Get(ctx, userID, day)
	switch {
	case err == nil:
		signal.ActiveMinutes = int(math.Round(tracker.TotalWorkoutTime))
		if kind == rules.NoWorkout {
			signal.Kind = kindOfDay(db.DecodeList(tracker.WorkoutTypesDone))
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	if req.ActiveMinutes != nil {
		signal.ActiveMinutes = *req.ActiveMinutes
	}

	plan, err := rules.New().Plan(rules.Subject{
		Gender:          profile.Gender,
		AgeYears:        profile.AgeYears,
		HeightCm:        profile.HeightCm,
		CurrentWeightKg: goal.CurrentWeightKg,
		TargetWeightKg:  goal.TargetWeightKg,
	}, signal)
	if err != nil {
		return nil, err
	}
	return &RuleBasedResponse{Result: outcome.OK(""), Date: day, Plan: &plan}, nil
}

func parseKind(s string) (rules.WorkoutKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return rules.NoWorkout, nil
	case string(rules.Strength):
		return rules.Strength, nil
	}
	wt, err := nutrition.ParseWorkoutType(s)
	if err != nil {
		return rules.NoWorkout, err
	}
	return rules.KindOf(wt), nil
}

// kindOfDay is strength if any strength type was trained, else cardio if
// cardio was, else no workout.
func kindOfDay(types []string) rules.WorkoutKind {
	kind := rules.NoWorkout
	for _, t := range types {
		switch rules.KindOf(nutrition.WorkoutType(t)) {
		case rules.Strength:
			return rules.Strength
		case rules.Cardio:
			kind = rules.Cardio
		}
	}
	return kind
}
