package tracker

import (
	"google.golang.org/grpc"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/server"
)

const serviceName = "fittrack.v1.TrackerService"

type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	svc := NewTrackerService(r.appCtx)
	s.RegisterService(server.ServiceDesc(serviceName,
		server.Unary(serviceName, "CreateTracker", svc.CreateTracker),
		server.Unary(serviceName, "UpdateTracker", svc.UpdateTracker),
		server.Unary(serviceName, "GetTracker", svc.GetTracker),
		server.Unary(serviceName, "Aggregate", svc.AggregateDay),
	), svc)
}
