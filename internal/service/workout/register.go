package workout

import (
	"google.golang.org/grpc"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/server"
)

const serviceName = "fittrack.v1.WorkoutService"

type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	svc := NewWorkoutService(r.appCtx)
	s.RegisterService(server.ServiceDesc(serviceName,
		server.Unary(serviceName, "ListWorkouts", svc.ListWorkouts),
		server.Unary(serviceName, "CreateWorkout", svc.CreateWorkout),
		server.Unary(serviceName, "ListExercises", svc.ListExercises),
		server.Unary(serviceName, "AddExercise", svc.AddExercise),
		server.Unary(serviceName, "LogSet", svc.LogSet),
		server.Unary(serviceName, "DailyWorkout", svc.DailyWorkout),
	), svc)
}
