package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oggyb/fittrack/internal/cache"
	"github.com/oggyb/fittrack/internal/config"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/metrics"
)

var (
	ErrCodeExpired  = fmt.Errorf("%w: code expired or never issued", svcErr.ErrInvalidArgument)
	ErrCodeMismatch = fmt.Errorf("%w: code does not match", svcErr.ErrInvalidArgument)
	ErrLockedOut    = fmt.Errorf("%w: too many attempts, request a new code", svcErr.ErrInvalidArgument)
)

// CodeStore is the subset of the redis cache the OTP flow needs.
type CodeStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// OTP issues short numeric codes and keeps only their bcrypt hash.
type OTP struct {
	store       CodeStore
	ttl         time.Duration
	digits      int
	maxAttempts int
}

func NewOTP(store CodeStore, cfg *config.Config) *OTP {
	return &OTP{
		store:       store,
		ttl:         cfg.OTP.TTL,
		digits:      cfg.OTP.Digits,
		maxAttempts: cfg.OTP.MaxAttempts,
	}
}

// TTL is how long an issued code stays valid.
func (o *OTP) TTL() time.Duration { return o.ttl }

// Issue creates a new code for (purpose, identifier), replacing any earlier
// one and resetting the attempt counter.
func (o *OTP) Issue(ctx context.Context, purpose, identifier string) (string, error) {
	code, err := generateCode(o.digits)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	if err := o.store.Set(ctx, cache.KeyForOTP(purpose, identifier), string(hash), o.ttl); err != nil {
		return "", err
	}
	if err := o.store.Del(ctx, cache.KeyForOTPAttempts(purpose, identifier)); err != nil {
		return "", err
	}
	metrics.OTPEventsTotal.WithLabelValues(metrics.OTPIssued).Inc()
	return code, nil
}

// Verify checks code against the stored hash. A successful check consumes
// the code.
func (o *OTP) Verify(ctx context.Context, purpose, identifier, code string) error {
	codeKey := cache.KeyForOTP(purpose, identifier)
	attemptsKey := cache.KeyForOTPAttempts(purpose, identifier)

	n, err := o.store.IncrWithTTL(ctx, attemptsKey, o.ttl)
	if err != nil {
		return err
	}
	if int(n) > o.maxAttempts {
		metrics.OTPEventsTotal.WithLabelValues(metrics.OTPLockedOut).Inc()
		return ErrLockedOut
	}

	hash, err := o.store.Get(ctx, codeKey)
	if errors.Is(err, cache.ErrMiss) {
		metrics.OTPEventsTotal.WithLabelValues(metrics.OTPExpired).Inc()
		return ErrCodeExpired
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		metrics.OTPEventsTotal.WithLabelValues(metrics.OTPMismatch).Inc()
		return ErrCodeMismatch
	}

	metrics.OTPEventsTotal.WithLabelValues(metrics.OTPVerified).Inc()
	return o.store.Del(ctx, codeKey, attemptsKey)
}

func generateCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("unsupported code length %d", digits)
	}
	max := uint64(1)
	for i := 0; i < digits; i++ {
		max *= 10
	}

	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	num := binary.LittleEndian.Uint64(b) % max
	return fmt.Sprintf("%0*d", digits, num), nil
}
