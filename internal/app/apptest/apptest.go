// Package apptest wires an AppContext against in-memory stores for service
// tests.
package apptest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fittrack/internal/app"
	"github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/cache"
	"github.com/oggyb/fittrack/internal/config"
	"github.com/oggyb/fittrack/internal/db"
	"github.com/oggyb/fittrack/internal/db/dbtest"
	"github.com/oggyb/fittrack/internal/llm"
)

// New returns an AppContext backed by a private SQLite database and a
// miniredis instance. gen may be nil for services that never generate.
func New(t *testing.T, gen llm.Generator) *app.AppContext {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.HashSecret = "test-hash-secret"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.New(cfg, dbtest.New(t), cache.NewRedisCache(cfg), logger, gen)
}

// User inserts a verified user and returns a context authenticated as them.
func User(t *testing.T, appCtx *app.AppContext, phone string) (context.Context, *db.User) {
	t.Helper()
	u := &db.User{PhoneNumber: phone, IsPhoneVerified: true, Active: true}
	require.NoError(t, appCtx.DB.Create(u).Error)
	return auth.WithUserID(context.Background(), u.ID), u
}
