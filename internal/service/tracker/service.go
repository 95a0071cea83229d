package tracker

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/db"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/logger"
	"github.com/oggyb/fittrack/internal/metrics"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/repository"
	"github.com/oggyb/fittrack/internal/validation"
)

// Calorie estimate coefficients. The estimate is a coarse linear heuristic
// over lifted volume and logged minutes, not a physiological measurement.
const (
	KcalPerKgLifted = 0.05
	KcalPerMinute   = 5.0
)

// EstimateCaloriesBurned applies the activity heuristic.
func EstimateCaloriesBurned(totalWeight, totalMinutes float64) float64 {
	return totalWeight*KcalPerKgLifted + totalMinutes*KcalPerMinute
}

// Service owns the per-day activity tracker.
type Service struct {
	appCtx      *app.AppContext
	trackerRepo *repository.TrackerRepository
	workoutRepo *repository.WorkoutRepository
	now         func() time.Time
}

func NewTrackerService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		trackerRepo: repository.NewTrackerRepository(appCtx.DB),
		workoutRepo: repository.NewWorkoutRepository(appCtx.DB),
		now:         time.Now,
	}
}

type CreateTrackerRequest struct {
	Date             string  `json:"date"`
	CaloriesConsumed float64 `json:"calories_consumed" validate:"gte=0,lte=20000"`
	ProteinConsumedG float64 `json:"protein_consumed_g" validate:"gte=0"`
	CarbsConsumedG   float64 `json:"carbs_consumed_g" validate:"gte=0"`
	FatConsumedG     float64 `json:"fat_consumed_g" validate:"gte=0"`
	FiberConsumedG   float64 `json:"fiber_consumed_g" validate:"gte=0"`
	Notes            string  `json:"notes" validate:"max=2000"`
}

// UpdateTrackerRequest changes only the non-nil fields.
type UpdateTrackerRequest struct {
	Date             string   `json:"date"`
	CaloriesConsumed *float64 `json:"calories_consumed,omitempty" validate:"omitempty,gte=0,lte=20000"`
	ProteinConsumedG *float64 `json:"protein_consumed_g,omitempty" validate:"omitempty,gte=0"`
	CarbsConsumedG   *float64 `json:"carbs_consumed_g,omitempty" validate:"omitempty,gte=0"`
	FatConsumedG     *float64 `json:"fat_consumed_g,omitempty" validate:"omitempty,gte=0"`
	FiberConsumedG   *float64 `json:"fiber_consumed_g,omitempty" validate:"omitempty,gte=0"`
	Notes            *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type DayRequest struct {
	Date string `json:"date"`
}

type TrackerView struct {
	ID                         uint64                  `json:"id"`
	Date                       string                  `json:"date"`
	TotalExercisesDone         int                     `json:"total_exercises_done"`
	TotalSetsCompleted         int                     `json:"total_sets_completed"`
	TotalRepsCompleted         int                     `json:"total_reps_completed"`
	TotalWeightLifted          float64                 `json:"total_weight_lifted"`
	TotalWorkoutTime           float64                 `json:"total_workout_time"`
	CaloriesBurnedFromActivity float64                 `json:"calories_burned_from_activity"`
	CaloriesConsumed           float64                 `json:"calories_consumed"`
	ProteinConsumedG           float64                 `json:"protein_consumed_g"`
	CarbsConsumedG             float64                 `json:"carbs_consumed_g"`
	FatConsumedG               float64                 `json:"fat_consumed_g"`
	FiberConsumedG             float64                 `json:"fiber_consumed_g"`
	NetCalorieBalance          float64                 `json:"net_calorie_balance"`
	WorkoutTypesDone           []nutrition.WorkoutType `json:"workout_types_done"`
	Notes                      string                  `json:"notes,omitempty"`
}

type TrackerResponse struct {
	outcome.Result
	Tracker *TrackerView `json:"tracker,omitempty"`
}

// DayTotals is what one day of logged sets adds up to.
type DayTotals struct {
	Sets           int                     `json:"total_sets"`
	Reps           int                     `json:"total_reps"`
	WeightLifted   float64                 `json:"total_weight"`
	Minutes        float64                 `json:"total_time"`
	Exercises      int                     `json:"total_exercises"`
	WorkoutTypes   []nutrition.WorkoutType `json:"workout_types"`
	CaloriesBurned float64                 `json:"calories_burned"`
}

// AggregateResult reports a day's aggregation. Status is no_data when no
// sets were logged for the day; the tracker is left untouched in that case.
type AggregateResult struct {
	outcome.Result
	Date    string       `json:"date"`
	Totals  *DayTotals   `json:"totals,omitempty"`
	Tracker *TrackerView `json:"tracker,omitempty"`
}

func toView(t *db.DailyActivityTracker) *TrackerView {
	types := []nutrition.WorkoutType{}
	for _, s := range db.DecodeList(t.WorkoutTypesDone) {
		types = append(types, nutrition.WorkoutType(s))
	}
	return &TrackerView{
		ID:                         t.ID,
		Date:                       t.Date,
		TotalExercisesDone:         t.TotalExercisesDone,
		TotalSetsCompleted:         t.TotalSetsCompleted,
		TotalRepsCompleted:         t.TotalRepsCompleted,
		TotalWeightLifted:          t.TotalWeightLifted,
		TotalWorkoutTime:           t.TotalWorkoutTime,
		CaloriesBurnedFromActivity: t.CaloriesBurnedFromActivity,
		CaloriesConsumed:           t.CaloriesConsumed,
		ProteinConsumedG:           t.ProteinConsumedG,
		CarbsConsumedG:             t.CarbsConsumedG,
		FatConsumedG:               t.FatConsumedG,
		FiberConsumedG:             t.FiberConsumedG,
		NetCalorieBalance:          t.NetCalorieBalance,
		WorkoutTypesDone:           types,
		Notes:                      t.Notes,
	}
}

func (s *Service) CreateTracker(ctx context.Context, req *CreateTrackerRequest) (*TrackerResponse, error) {
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

	existing, err := s.trackerRepo.Get(ctx, userID, day)
	if err == nil {
		return &TrackerResponse{
			Result:  outcome.Infof("tracker for %s already exists", day),
			Tracker: toView(existing),
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	t := &db.DailyActivityTracker{
		UserID:           userID,
		Date:             day,
		CaloriesConsumed: req.CaloriesConsumed,
		ProteinConsumedG: req.ProteinConsumedG,
		CarbsConsumedG:   req.CarbsConsumedG,
		FatConsumedG:     req.FatConsumedG,
		FiberConsumedG:   req.FiberConsumedG,
		Notes:            req.Notes,
		WorkoutTypesDone: db.EncodeList(nil),
	}
	if err := s.trackerRepo.Create(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent create for the same day
			return nil, svcErr.AlreadyExists("tracker for " + day + " already exists")
		}
		logger.FromContext(ctx, s.appCtx.Logger).Error("create tracker failed", "err", err)
		return nil, err
	}
	return &TrackerResponse{Result: outcome.OK("tracker created"), Tracker: toView(t)}, nil
}

func (s *Service) UpdateTracker(ctx context.Context, req *UpdateTrackerRequest) (*TrackerResponse, error) {
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

	t, err := s.trackerRepo.Get(ctx, userID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &TrackerResponse{Result: outcome.NotFoundf("no tracker for %s", day)}, nil
	}
	if err != nil {
		return nil, err
	}

	if req.CaloriesConsumed != nil {
		t.CaloriesConsumed = *req.CaloriesConsumed
	}
	if req.ProteinConsumedG != nil {
		t.ProteinConsumedG = *req.ProteinConsumedG
	}
	if req.CarbsConsumedG != nil {
		t.CarbsConsumedG = *req.CarbsConsumedG
	}
	if req.FatConsumedG != nil {
		t.FatConsumedG = *req.FatConsumedG
	}
	if req.FiberConsumedG != nil {
		t.FiberConsumedG = *req.FiberConsumedG
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}
	if err := s.trackerRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	return &TrackerResponse{Result: outcome.OK("tracker updated"), Tracker: toView(t)}, nil
}

func (s *Service) GetTracker(ctx context.Context, req *DayRequest) (*TrackerResponse, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	day, err := db.ParseDay(req.Date, s.now())
	if err != nil {
		return nil, err
	}
	t, err := s.trackerRepo.Get(ctx, userID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &TrackerResponse{Result: outcome.NotFoundf("no tracker for %s", day)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &TrackerResponse{Result: outcome.OK(""), Tracker: toView(t)}, nil
}

// AggregateDay is the transport entry point for Aggregate.
func (s *Service) AggregateDay(ctx context.Context, req *DayRequest) (*AggregateResult, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	day, err := db.ParseDay(req.Date, s.now())
	if err != nil {
		return nil, err
	}
	return s.Aggregate(ctx, userID, day)
}

// Aggregate folds the sets logged on day into the day's tracker. Workout
// fields are overwritten; consumption fields are kept.
func (s *Service) Aggregate(ctx context.Context, userID uint64, day string) (*AggregateResult, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("Aggregate called", "user_id", userID, "date", day)

	sets, err := s.workoutRepo.DaySets(ctx, userID, day)
	if err != nil {
		log.Error("load day sets failed", "err", err)
		return nil, err
	}
	if len(sets) == 0 {
		metrics.ActivityAggregationTotal.WithLabelValues(metrics.ResultNoData).Inc()
		return &AggregateResult{
			Result: outcome.Result{Status: outcome.NoData, Message: "no sets logged on " + day},
			Date:   day,
		}, nil
	}

	totals := SumSets(sets)

	t, err := s.trackerRepo.Get(ctx, userID, day)
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		t = &db.DailyActivityTracker{UserID: userID, Date: day}
		created = true
	case err != nil:
		return nil, err
	}

	t.TotalSetsCompleted = totals.Sets
	t.TotalRepsCompleted = totals.Reps
	t.TotalWeightLifted = totals.WeightLifted
	t.TotalWorkoutTime = totals.Minutes
	t.TotalExercisesDone = totals.Exercises
	t.CaloriesBurnedFromActivity = totals.CaloriesBurned
	types := make([]string, len(totals.WorkoutTypes))
	for i, wt := range totals.WorkoutTypes {
		types[i] = string(wt)
	}
	t.WorkoutTypesDone = db.EncodeList(types)

	result := metrics.ResultUpdated
	if created {
		result = metrics.ResultCreated
		err = s.trackerRepo.Create(ctx, t)
	} else {
		err = s.trackerRepo.Save(ctx, t)
	}
	if err != nil {
		log.Error("write tracker failed", "err", err)
		return nil, err
	}
	metrics.ActivityAggregationTotal.WithLabelValues(result).Inc()

	return &AggregateResult{
		Result:  outcome.OK("activity aggregated"),
		Date:    day,
		Totals:  &totals,
		Tracker: toView(t),
	}, nil
}

// SumSets totals a day of sets. Workout types come back sorted.
func SumSets(sets []repository.DaySet) DayTotals {
	var t DayTotals
	exercises := make(map[uint64]struct{})
	types := make(map[nutrition.WorkoutType]struct{})

	for _, s := range sets {
		t.Sets++
		t.Reps += s.Reps
		t.WeightLifted += s.Weight * float64(s.Reps)
		t.Minutes += s.Time
		exercises[s.ExerciseID] = struct{}{}
		types[s.WorkoutType] = struct{}{}
	}
	t.Exercises = len(exercises)
	t.WorkoutTypes = make([]nutrition.WorkoutType, 0, len(types))
	for wt := range types {
		t.WorkoutTypes = append(t.WorkoutTypes, wt)
	}
	sort.Slice(t.WorkoutTypes, func(i, j int) bool { return t.WorkoutTypes[i] < t.WorkoutTypes[j] })
	t.CaloriesBurned = math.Round(EstimateCaloriesBurned(t.WeightLifted, t.Minutes)*100) / 100
	return t
}
