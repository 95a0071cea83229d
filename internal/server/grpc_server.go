package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/fittrack/internal/config"
)

// PublicPrefix marks the methods reachable without a token.
const PublicPrefix = "/fittrack.v1.AuthService/"

// NewGRPCServer builds a server with the observe and auth interceptors and
// registers all provided services.
func NewGRPCServer(logger *slog.Logger, authn Authenticator, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			ObserveInterceptor(logger),
			AuthInterceptor(authn, PublicPrefix),
		),
	)

	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer serves on the configured address until ctx is done, then
// stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}
