package auth

import (
	"google.golang.org/grpc"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/server"
)

// serviceName must stay under server.PublicPrefix: its methods are called
// before the client holds a token.
const serviceName = "fittrack.v1.AuthService"

type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	svc := NewAuthService(r.appCtx)
	s.RegisterService(server.ServiceDesc(serviceName,
		server.Unary(serviceName, "RequestOTP", svc.RequestOTP),
		server.Unary(serviceName, "VerifyOTP", svc.VerifyOTP),
		server.Unary(serviceName, "Refresh", svc.Refresh),
	), svc)
}
