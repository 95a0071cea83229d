package goal

import (
	"google.golang.org/grpc"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/server"
)

const serviceName = "fittrack.v1.GoalService"

// Registrar ties the Goal service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	svc := NewGoalService(r.appCtx)
	s.RegisterService(server.ServiceDesc(serviceName,
		server.Unary(serviceName, "SetGoal", svc.SetGoal),
		server.Unary(serviceName, "UpdateGoal", svc.UpdateGoal),
		server.Unary(serviceName, "ActiveGoal", svc.ActiveGoal),
		server.Unary(serviceName, "MarkAchieved", svc.MarkAchieved),
		server.Unary(serviceName, "Preview", svc.Preview),
		server.Unary(serviceName, "ListGoals", svc.ListGoals),
	), svc)
}
