package profile

import (
	"google.golang.org/grpc"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/server"
)

const serviceName = "fittrack.v1.ProfileService"

type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	svc := NewProfileService(r.appCtx)
	s.RegisterService(server.ServiceDesc(serviceName,
		server.Unary(serviceName, "UpsertProfile", svc.UpsertProfile),
		server.Unary(serviceName, "GetProfile", svc.GetProfile),
	), svc)
}
