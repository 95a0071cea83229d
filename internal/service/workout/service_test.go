package workout_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fittrack/internal/app/apptest"
	"github.com/oggyb/fittrack/internal/db"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/nutrition"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/service/workout"
)

func TestWorkoutVisibility(t *testing.T) {
	appCtx := apptest.New(t, nil)
	n, err := db.SeedDefaultWorkouts(appCtx.DB)
	require.NoError(t, err)
	require.Equal(t, len(nutrition.WorkoutTypes), n)

	aliceCtx, _ := apptest.User(t, appCtx, "+15550000001")
	bobCtx, _ := apptest.User(t, appCtx, "+15550000002")
	svc := workout.NewWorkoutService(appCtx)

	created, err := svc.CreateWorkout(aliceCtx, &workout.CreateWorkoutRequest{Name: "Home Push", WorkoutType: "Chest"})
	require.NoError(t, err)
	assert.Equal(t, nutrition.Chest, created.Workout.WorkoutType)
	assert.False(t, created.Workout.IsDefault)

	alice, err := svc.ListWorkouts(aliceCtx, &workout.Empty{})
	require.NoError(t, err)
	assert.Len(t, alice.Workouts, n+1)
	assert.Equal(t, "Home Push", alice.Workouts[n].Name)

	bob, err := svc.ListWorkouts(bobCtx, &workout.Empty{})
	require.NoError(t, err)
	assert.Len(t, bob.Workouts, n)

	ex, err := svc.ListExercises(bobCtx, &workout.WorkoutRequest{WorkoutID: created.Workout.ID})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, ex.Status)

	ex, err = svc.ListExercises(bobCtx, &workout.WorkoutRequest{WorkoutID: bob.Workouts[0].ID})
	require.NoError(t, err)
	assert.Len(t, ex.Exercises, 10)
}

func TestCreateWorkoutRejectsUnknownType(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := workout.NewWorkoutService(appCtx)

	_, err := svc.CreateWorkout(ctx, &workout.CreateWorkoutRequest{Name: "Mystery", WorkoutType: "yoga"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

func TestAddExerciseOnlyToOwnWorkout(t *testing.T) {
	appCtx := apptest.New(t, nil)
	_, err := db.SeedDefaultWorkouts(appCtx.DB)
	require.NoError(t, err)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := workout.NewWorkoutService(appCtx)

	list, err := svc.ListWorkouts(ctx, &workout.Empty{})
	require.NoError(t, err)
	res, err := svc.AddExercise(ctx, &workout.AddExerciseRequest{WorkoutID: list.Workouts[0].ID, Name: "Extra"})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, res.Status, "default templates are read-only")

	own, err := svc.CreateWorkout(ctx, &workout.CreateWorkoutRequest{Name: "Garage", WorkoutType: "legs"})
	require.NoError(t, err)
	res, err = svc.AddExercise(ctx, &workout.AddExerciseRequest{WorkoutID: own.Workout.ID, Name: "Goblet Squat"})
	require.NoError(t, err)
	assert.Equal(t, outcome.Success, res.Status)
	assert.Equal(t, own.Workout.ID, res.Exercise.WorkoutID)
}

func TestLogSetAndDailyWorkout(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	otherCtx, _ := apptest.User(t, appCtx, "+15550000002")
	svc := workout.NewWorkoutService(appCtx)

	push, err := svc.CreateWorkout(ctx, &workout.CreateWorkoutRequest{Name: "Push", WorkoutType: "chest"})
	require.NoError(t, err)
	bench, err := svc.AddExercise(ctx, &workout.AddExerciseRequest{WorkoutID: push.Workout.ID, Name: "Bench Press"})
	require.NoError(t, err)
	dips, err := svc.AddExercise(ctx, &workout.AddExerciseRequest{WorkoutID: push.Workout.ID, Name: "Dips"})
	require.NoError(t, err)
	run, err := svc.CreateWorkout(ctx, &workout.CreateWorkoutRequest{Name: "Run", WorkoutType: "cardio"})
	require.NoError(t, err)
	tread, err := svc.AddExercise(ctx, &workout.AddExerciseRequest{WorkoutID: run.Workout.ID, Name: "Treadmill"})
	require.NoError(t, err)

	const day = "2025-03-10"
	for _, req := range []workout.LogSetRequest{
		{ExerciseID: bench.Exercise.ID, Date: day, Weight: 60, Reps: 10},
		{ExerciseID: bench.Exercise.ID, Date: day, Weight: 70, Reps: 8},
		{ExerciseID: dips.Exercise.ID, Date: day, Reps: 12},
		{ExerciseID: tread.Exercise.ID, Date: day, Time: 20},
		{ExerciseID: bench.Exercise.ID, Date: "2025-03-11", Weight: 75, Reps: 5},
	} {
		res, err := svc.LogSet(ctx, &req)
		require.NoError(t, err)
		require.Equal(t, outcome.Success, res.Status)
	}

	denied, err := svc.LogSet(otherCtx, &workout.LogSetRequest{ExerciseID: bench.Exercise.ID, Date: day, Reps: 1})
	require.NoError(t, err)
	assert.Equal(t, outcome.NotFound, denied.Status)

	daily, err := svc.DailyWorkout(ctx, &workout.DayRequest{Date: day})
	require.NoError(t, err)
	require.Len(t, daily.Workouts, 2)
	assert.Equal(t, "Push", daily.Workouts[0].Name)
	require.Len(t, daily.Workouts[0].Exercises, 2)
	assert.Len(t, daily.Workouts[0].Exercises[0].Sets, 2)
	assert.Equal(t, 8, daily.Workouts[0].Exercises[0].Sets[1].Reps)
	assert.Equal(t, "Dips", daily.Workouts[0].Exercises[1].Name)
	assert.Equal(t, nutrition.Cardio, daily.Workouts[1].WorkoutType)
	assert.InDelta(t, 20, daily.Workouts[1].Exercises[0].Sets[0].Time, 1e-9)

	empty, err := svc.DailyWorkout(ctx, &workout.DayRequest{Date: "2025-01-01"})
	require.NoError(t, err)
	assert.Equal(t, outcome.NoData, empty.Status)
	assert.Empty(t, empty.Workouts)
}

func TestLogSetValidation(t *testing.T) {
	appCtx := apptest.New(t, nil)
	ctx, _ := apptest.User(t, appCtx, "+15550000001")
	svc := workout.NewWorkoutService(appCtx)

	_, err := svc.LogSet(ctx, &workout.LogSetRequest{ExerciseID: 1, Reps: -1})
	assert.Error(t, err)

	_, err = svc.LogSet(context.Background(), &workout.LogSetRequest{ExerciseID: 1})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}
