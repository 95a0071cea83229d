package tracker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/app/apptest"
	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/repository"
	"github.com/oggyb/fittrack/internal/service/tracker"
)

const day = "2025-03-10"

func logSet(t *testing.T, appCtx *app.AppContext, userID uint64, wt nutrition.WorkoutType, exercise string, weight float64, reps int, minutes float64, on string) {
	t.Helper()
	var w db.Workout
	require.NoError(t, appCtx.DB.
		Where(db.Workout{Name: string(wt), WorkoutType: wt, IsDefault: true}).
		FirstOrCreate(&w).Error)
	var e db.Exercise
	require.NoError(t, appCtx.DB.
		Where(db.Exercise{WorkoutID: w.ID, Name: exercise}).
		FirstOrCreate(&e).Error)
	require.NoError(t, appCtx.DB.Create(&db.ExerciseSet{
		ExerciseID: e.ID, UserID: userID, PerformedOn: on,
		Weight: weight, Reps: reps, Time: minutes,
	}).Error)
}

func TestEstimateCaloriesBurned(t *testing.T) {
	assert.InDelta(t, 50, tracker.EstimateCaloriesBurned(1000, 0), 1e-9)
	assert.InDelta(t, 300, tracker.EstimateCaloriesBurned(1000, 50), 1e-9)
	assert.InDelta(t, 0, tracker.EstimateCaloriesBurned(0, 0), 1e-9)
}

func TestSumSets(t *testing.T) {
	totals := tracker.SumSets([]repository.DaySet{
		{ExerciseID: 1, WorkoutType: nutrition.Chest, Weight: 100, Reps: 10},
		{ExerciseID: 1, WorkoutType: nutrition.Chest, Weight: 80, Reps: 5},
		{ExerciseID: 7, WorkoutType: nutrition.Cardio, Time: 20},
	})
	assert.Equal(t, 3, totals.Sets)
	assert.Equal(t, 15, totals.Reps)
	assert.InDelta(t, 1400, totals.WeightLifted, 1e-9)
	assert.InDelta(t, 20, totals.Minutes, 1e-9)
	assert.Equal(t, 2, totals.Exercises)
	assert.Equal(t, []nutrition.WorkoutType{nutrition.Cardio, nutrition.Chest}, totals.WorkoutTypes)
	assert.InDelta(t, 170, totals.CaloriesBurned, 1e-9)
}

func TestAggregateNoData(t *testing.T) {
	appCtx := apptest.New(t, nil)
	_, u := apptest.User(t, appCtx, "+15550000001")
	svc := tracker.NewTrackerService(appCtx)

	res, err := svc.Aggregate(context.Background(), u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, outcome.NoData, res.Status)
	assert.Nil(t, res.Tracker)

	_, err = repository.NewTrackerRepository(appCtx.DB).Get(context.Background(), u.ID, day)
	assert.Error(t, err, "no tracker is written for an empty day")
}

func TestAggregateCreatesTracker(t *testing.T) {
	appCtx := apptest.New(t, nil)
	_, u := apptest.User(t, appCtx, "+15550000001")
	svc := tracker.NewTrackerService(appCtx)

	logSet(t, appCtx, u.ID, nutrition.Chest, "Bench Press", 100, 10, 0, day)

	res, err := svc.Aggregate(context.Background(), u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, outcome.Success, res.Status)
	require.NotNil(t, res.Tracker)
	assert.Equal(t, 1, res.Tracker.TotalSetsCompleted)
	assert.InDelta(t, 1000, res.Tracker.TotalWeightLifted, 1e-9)
	assert.InDelta(t, 50, res.Tracker.CaloriesBurnedFromActivity, 1e-9)
	assert.InDelta(t, 0, res.Tracker.CaloriesConsumed, 1e-9)
	assert.InDelta(t, -50, res.Tracker.NetCalorieBalance, 1e-9)
	assert.Equal(t, []nutrition.WorkoutType{nutrition.Chest}, res.Tracker.WorkoutTypesDone)
}

func TestAggregateKeepsConsumption(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, u := apptest.User(t, appCtx, "+15550000001")
	svc := tracker.NewTrackerService(appCtx)

	created, err := svc.CreateTracker(ctx, &tracker.CreateTrackerRequest{Date: day, CaloriesConsumed: 2000, ProteinConsumedG: 120})
	require.NoError(t, err)
	assert.Equal(t, outcome.Success, created.Status)
	assert.InDelta(t, 2000, created.Tracker.NetCalorieBalance, 1e-9)

	logSet(t, appCtx, u.ID, nutrition.Chest, "Bench Press", 100, 10, 0, day)
	logSet(t, appCtx, u.ID, nutrition.Cardio, "Cycling", 0, 0, 50, day)
	// another day and another user must not leak in
	logSet(t, appCtx, u.ID, nutrition.Legs, "Squats", 200, 10, 0, "2025-03-11")
	_, other := apptest.User(t, appCtx, "+15550000002")
	logSet(t, appCtx, other.ID, nutrition.Legs, "Squats", 200, 10, 0, day)

	res, err := svc.Aggregate(ctx, u.ID, day)
	require.NoError(t, err)
	require.NotNil(t, res.Totals)
	assert.Equal(t, 2, res.Totals.Sets)
	assert.Equal(t, 2, res.Totals.Exercises)
	assert.InDelta(t, 300, res.Totals.CaloriesBurned, 1e-9)

	got, err := svc.GetTracker(ctx, &tracker.DayRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, created.Tracker.ID, got.Tracker.ID)
	assert.InDelta(t, 2000, got.Tracker.CaloriesConsumed, 1e-9)
	assert.InDelta(t, 120, got.Tracker.ProteinConsumedG, 1e-9)
	assert.InDelta(t, 1700, got.Tracker.NetCalorieBalance, 1e-9)
	assert.Equal(t, []nutrition.WorkoutType{nutrition.Cardio, nutrition.Chest}, got.Tracker.WorkoutTypesDone)

	// re-running is stable
	again, err := svc.Aggregate(ctx, u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, got.Tracker.NetCalorieBalance, again.Tracker.NetCalorieBalance)
}

func TestCreateTrackerAlreadyExists(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := tracker.NewTrackerService(appCtx)

	_, err := svc.CreateTracker(ctx, &tracker.CreateTrackerRequest{Date: day, CaloriesConsumed: 1500})
	require.NoError(t, err)

	dup, err := svc.CreateTracker(ctx, &tracker.CreateTrackerRequest{Date: day, CaloriesConsumed: 9})
	require.NoError(t, err)
	assert.Equal(t, outcome.Info, dup.Status)
	assert.InDelta(t, 1500, dup.Tracker.CaloriesConsumed, 1e-9)
}

func TestCreateTrackerConcurrentDuplicate(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := tracker.NewTrackerService(appCtx)

	var wg sync.WaitGroup
	results := make([]*tracker.TrackerResponse, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateTracker(ctx, &tracker.CreateTrackerRequest{Date: day, CaloriesConsumed: float64(i)})
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := range results {
		if errs[i] != nil {
			st, _ := status.FromError(errs[i])
			assert.Equal(t, codes.AlreadyExists, st.Code())
			continue
		}
		switch results[i].Status {
		case outcome.Success:
			createdCount++
		default:
			assert.Equal(t, outcome.Info, results[i].Status)
		}
	}
	assert.Equal(t, 1, createdCount)

	var n int64
	require.NoError(t, appCtx.DB.Model(&db.DailyActivityTracker{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestUpdateTracker(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := tracker.NewTrackerService(appCtx)

	kcal := 1800.0
	missing, err := svc.UpdateTracker(ctx, &tracker.UpdateTrackerRequest{Date: day, CaloriesConsumed: &kcal})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, missing.Status)

	_, err = svc.CreateTracker(ctx, &tracker.CreateTrackerRequest{Date: day, CaloriesConsumed: 1000, FatConsumedG: 40, Notes: "start"})
	require.NoError(t, err)

	res, err := svc.UpdateTracker(ctx, &tracker.UpdateTrackerRequest{Date: day, CaloriesConsumed: &kcal})
	require.NoError(t, err)
	assert.InDelta(t, 1800, res.Tracker.CaloriesConsumed, 1e-9)
	assert.InDelta(t, 40, res.Tracker.FatConsumedG, 1e-9)
	assert.Equal(t, "start", res.Tracker.Notes)
	assert.InDelta(t, 1800, res.Tracker.NetCalorieBalance, 1e-9)

	neg := -1.0
	_, err = svc.UpdateTracker(ctx, &tracker.UpdateTrackerRequest{Date: day, CaloriesConsumed: &neg})
	assert.Error(t, err)
}

func TestTrackerDefaultsToToday(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := tracker.NewTrackerService(appCtx)

	res, err := svc.CreateTracker(ctx, &tracker.CreateTrackerRequest{})
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(db.DateLayout), res.Tracker.Date)

	_, err = svc.GetTracker(ctx, &tracker.DayRequest{Date: "10/03/2025"})
	assert.Error(t, err)
}
