package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/fittrack/internal/auth"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/logger"
	"github.com/oggyb/fittrack/internal/metrics"
)

const requestIDHeader = "x-request-id"

// Authenticator turns a bearer token into a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint64, error)
}

// ObserveInterceptor tags each call with a request id, logs it and records
// request metrics.
func ObserveInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDHeader); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, reqID))

		l := base.With("request_id", reqID, "method", info.FullMethod)
		ctx = logger.WithContext(ctx, l)

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err)
		metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
		metrics.GRPCRequestDuration.WithLabelValues(info.FullMethod).Observe(elapsed.Seconds())

		if err != nil {
			l.Warn("grpc request failed", "code", code.String(), "duration_ms", elapsed.Milliseconds(), "err", err)
		} else {
			l.Info("grpc request", "code", code.String(), "duration_ms", elapsed.Milliseconds())
		}
		return resp, err
	}
}

// AuthInterceptor requires a valid bearer token on every method whose full
// name does not start with one of the public prefixes.
func AuthInterceptor(authn Authenticator, public ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		for _, p := range public {
			if strings.HasPrefix(info.FullMethod, p) {
				return handler(ctx, req)
			}
		}

		token := bearerToken(ctx)
		if token == "" {
			return nil, svcErr.Unauthenticated("missing bearer token")
		}
		userID, err := authn.Authenticate(ctx, token)
		if err != nil {
			return nil, svcErr.Map(err)
		}

		ctx = auth.WithUserID(ctx, userID)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx, nil).With("user_id", userID))
		return handler(ctx, req)
	}
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:])
		}
	}
	return ""
}
