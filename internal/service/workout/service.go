package workout

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

// Service exposes workout templates and set logging. Default templates are
// visible to everyone; user templates only to their owner.
type Service struct {
	appCtx      *app.AppContext
	workoutRepo *repository.WorkoutRepository
	now         func() time.Time
}

func NewWorkoutService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		workoutRepo: repository.NewWorkoutRepository(appCtx.DB),
		now:         time.Now,
	}
}

type Empty struct{}

type CreateWorkoutRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	WorkoutType string `json:"workout_type" validate:"required"`
}

type WorkoutRequest struct {
	WorkoutID uint64 `json:"workout_id" validate:"required"`
}

type AddExerciseRequest struct {
	WorkoutID uint64 `json:"workout_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=128"`
}

// LogSetRequest records one set. Time is in minutes.
type LogSetRequest struct {
	ExerciseID uint64  `json:"exercise_id" validate:"required"`
	Date       string  `json:"date"`
	Weight     float64 `json:"weight" validate:"gte=0,lte=1000"`
	Reps       int     `json:"reps" validate:"gte=0,lte=1000"`
	Time       float64 `json:"time" validate:"gte=0,lte=1440"`
}

type DayRequest struct {
	Date string `json:"date"`
}

type WorkoutView struct {
	ID          uint64                `json:"id"`
	Name        string                `json:"name"`
	WorkoutType nutrition.WorkoutType `json:"workout_type"`
	IsDefault   bool                  `json:"is_default"`
}

type ExerciseView struct {
	ID        uint64 `json:"id"`
	WorkoutID uint64 `json:"workout_id"`
	Name      string `json:"name"`
}

type SetView struct {
	ID     uint64  `json:"id"`
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Time   float64 `json:"time"`
}

type WorkoutResponse struct {
	outcome.Result
	Workout *WorkoutView `json:"workout,omitempty"`
}

type ListWorkoutsResponse struct {
	outcome.Result
	Workouts []WorkoutView `json:"workouts"`
}

type ExerciseResponse struct {
	outcome.Result
	Exercise *ExerciseView `json:"exercise,omitempty"`
}

type ListExercisesResponse struct {
	outcome.Result
	Exercises []ExerciseView `json:"exercises"`
}

type SetResponse struct {
	outcome.Result
	Date string   `json:"date,omitempty"`
	Set  *SetView `json:"set,omitempty"`
}

type DayExercise struct {
	ExerciseID uint64    `json:"exercise_id"`
	Name       string    `json:"name"`
	Sets       []SetView `json:"sets"`
}

type DayWorkout struct {
	WorkoutID   uint64                `json:"workout_id"`
	Name        string                `json:"name"`
	WorkoutType nutrition.WorkoutType `json:"workout_type"`
	Exercises   []DayExercise         `json:"exercises"`
}

type DailyWorkoutResponse struct {
	outcome.Result
	Date     string       `json:"date"`
	Workouts []DayWorkout `json:"workouts"`
}

func toWorkoutView(w *db.Workout) WorkoutView {
	return WorkoutView{ID: w.ID, Name: w.Name, WorkoutType: w.WorkoutType, IsDefault: w.IsDefault}
}

func toExerciseView(e *db.Exercise) ExerciseView {
	return ExerciseView{ID: e.ID, WorkoutID: e.WorkoutID, Name: e.Name}
}

func (s *Service) ListWorkouts(ctx context.Context, _ *Empty) (*ListWorkoutsResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	workouts, err := s.workoutRepo.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]WorkoutView, 0, len(workouts))
	for i := range workouts {
		out = append(out, toWorkoutView(&workouts[i]))
	}
	return &ListWorkoutsResponse{Result: outcome.OK(""), Workouts: out}, nil
}

func (s *Service) CreateWorkout(ctx context.Context, req *CreateWorkoutRequest) (*WorkoutResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	wt, err := nutrition.ParseWorkoutType(req.WorkoutType)
	if err != nil {
		return nil, err
	}

	w := &db.Workout{UserID: userID, Name: req.Name, WorkoutType: wt}
	if err := s.workoutRepo.CreateWorkout(ctx, w); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("create workout failed", "err", err)
		return nil, err
	}
	v := toWorkoutView(w)
	return &WorkoutResponse{Result: outcome.OK("workout created"), Workout: &v}, nil
}

func (s *Service) ListExercises(ctx context.Context, req *WorkoutRequest) (*ListExercisesResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.workoutRepo.GetVisible(ctx, userID, req.WorkoutID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ListExercisesResponse{Result: outcome.NotFoundf("workout %d not found", req.WorkoutID), Exercises: []ExerciseView{}}, nil
		}
		return nil, err
	}

	exercises, err := s.workoutRepo.ListExercises(ctx, req.WorkoutID)
	if err != nil {
		return nil, err
	}
	out := make([]ExerciseView, 0, len(exercises))
	for i := range exercises {
		out = append(out, toExerciseView(&exercises[i]))
	}
	return &ListExercisesResponse{Result: outcome.OK(""), Exercises: out}, nil
}

// AddExercise adds an exercise to one of the user's own workouts. Default
// templates are read-only.
func (s *Service) AddExercise(ctx context.Context, req *AddExerciseRequest) (*ExerciseResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	w, err := s.workoutRepo.GetVisible(ctx, userID, req.WorkoutID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && w.IsDefault) {
		return &ExerciseResponse{Result: outcome.NotFoundf("workout %d not found", req.WorkoutID)}, nil
	}
	if err != nil {
		return nil, err
	}

	e := &db.Exercise{WorkoutID: w.ID, UserID: userID, Name: req.Name}
	if err := s.workoutRepo.CreateExercise(ctx, e); err != nil {
		return nil, err
	}
	v := toExerciseView(e)
	return &ExerciseResponse{Result: outcome.OK("exercise added"), Exercise: &v}, nil
}

func (s *Service) LogSet(ctx context.Context, req *LogSetRequest) (*SetResponse, error) {
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

	if _, err := s.workoutRepo.GetVisibleExercise(ctx, userID, req.ExerciseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SetResponse{Result: outcome.NotFoundf("exercise %d not found", req.ExerciseID)}, nil
		}
		return nil, err
	}

	set := &db.ExerciseSet{
		ExerciseID:  req.ExerciseID,
		UserID:      userID,
		PerformedOn: day,
		Weight:      req.Weight,
		Reps:        req.Reps,
		Time:        req.Time,
	}
	if err := s.workoutRepo.CreateSet(ctx, set); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("log set failed", "err", err)
		return nil, err
	}
	return &SetResponse{
		Result: outcome.OK("set logged"),
		Date:   day,
		Set:    &SetView{ID: set.ID, Weight: set.Weight, Reps: set.Reps, Time: set.Time},
	}, nil
}

// DailyWorkout groups a day's sets by workout and exercise.
func (s *Service) DailyWorkout(ctx context.Context, req *DayRequest) (*DailyWorkoutResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	day, err := db.ParseDay(req.Date, s.now())
	if err != nil {
		return nil, err
	}

	sets, err := s.workoutRepo.DaySets(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	resp := &DailyWorkoutResponse{Date: day, Workouts: Group(sets)}
	if len(sets) == 0 {
		resp.Result = outcome.Result{Status: outcome.NoData, Message: "no sets logged on " + day}
	} else {
		resp.Result = outcome.OK("")
	}
	return resp, nil
}

// Group nests sets under their exercise and workout. Input order is kept,
// which DaySets already sorts by workout, exercise and set.
func Group(sets []repository.DaySet) []DayWorkout {
	out := []DayWorkout{}
	for _, s := range sets {
		if n := len(out); n == 0 || out[n-1].WorkoutID != s.WorkoutID {
			out = append(out, DayWorkout{
				WorkoutID:   s.WorkoutID,
				Name:        s.WorkoutName,
				WorkoutType: s.WorkoutType,
				Exercises:   []DayExercise{},
			})
		}
		w := &out[len(out)-1]
		if n := len(w.Exercises); n == 0 || w.Exercises[n-1].ExerciseID != s.ExerciseID {
			w.Exercises = append(w.Exercises, DayExercise{ExerciseID: s.ExerciseID, Name: s.ExerciseName, Sets: []SetView{}})
		}
		e := &w.Exercises[len(w.Exercises)-1]
		e.Sets = append(e.Sets, SetView{ID: s.SetID, Weight: s.Weight, Reps: s.Reps, Time: s.Time})
	}
	return out
}
