package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/cache"
	"github.com/oggyb/fittrack/internal/config"
	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/llm"
	"github.com/oggyb/fittrack/internal/logger"
	"github.com/oggyb/fittrack/internal/server"
	"github.com/oggyb/fittrack/internal/service/auth"
	"github.com/oggyb/fittrack/internal/service/goal"
	"github.com/oggyb/fittrack/internal/service/mealplan"
	"github.com/oggyb/fittrack/internal/service/profile"
	"github.com/oggyb/fittrack/internal/service/tracker"
	"github.com/oggyb/fittrack/internal/service/workout"
)

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	if _, err := mealplan.LLMConfig(cfg); err != nil {
		log.Error("invalid llm configuration", "err", err)
		os.Exit(1)
	}
	registry := llm.NewRegistryFromConfig(cfg, logger.With("component", "llm"))

	appCtx := app.New(cfg, database, redisCache, log, registry)

	if cfg.App.ENV == "development" {
		n, err := db.SeedDefaultWorkouts(database)
		if err != nil {
			log.Error("failed to seed default workouts", "err", err)
		} else if n > 0 {
			log.Info("seeded default workouts", "count", n)
		}
	}

	registrars := []server.Registrar{
		auth.NewRegistrar(appCtx),
		goal.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		tracker.NewRegistrar(appCtx),
		workout.NewRegistrar(appCtx),
		mealplan.NewRegistrar(appCtx),
	}
	grpcServer := server.NewGRPCServer(log, auth.NewAuthService(appCtx), registrars...)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("metrics server listening", "addr", cfg.Metrics.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "err", err)
		}
	}()

	log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port, "env", cfg.App.ENV)
	if err := server.StartGRPCServer(ctx, cfg, grpcServer); err != nil {
		log.Error("gRPC server stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", "err", err)
	}
	log.Info("server stopped")
}
