package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/cache"
	"github.com/oggyb/fittrack/internal/config"
	"github.com/oggyb/fittrack/internal/llm"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	// Generator produces meal plans from a prompt; normally an *llm.Registry.
	Generator llm.Generator
	Tokens    *auth.Issuer
	OTP       *auth.OTP
}

// New creates a new AppContext. Token issuing and OTP storage are derived
// from cfg and the redis cache.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, gen llm.Generator) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Generator:  gen,
		Tokens:     auth.NewIssuer(cfg),
		OTP:        auth.NewOTP(rdb, cfg),
	}
}
