package mealplan

import (
	"google.golang.org/grpc"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/server"
)

const serviceName = "fittrack.v1.MealPlanService"

type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	svc := NewMealPlanService(r.appCtx)
	s.RegisterService(server.ServiceDesc(serviceName,
		server.Unary(serviceName, "Generate", svc.Generate),
		server.Unary(serviceName, "Get", svc.Get),
		server.Unary(serviceName, "Summary", svc.Summary),
		server.Unary(serviceName, "Delete", svc.Delete),
		server.Unary(serviceName, "RateMeal", svc.RateMeal),
		server.Unary(serviceName, "Feedback", svc.Feedback),
		server.Unary(serviceName, "List", svc.List),
		server.Unary(serviceName, "RuleBased", svc.RuleBased),
	), svc)
}
