// Package auth issues and checks the JWTs and one-time codes used to sign
// users in by phone number.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oggyb/fittrack/internal/config"
	svcErr "github.com/oggyb/fittrack/internal/errors"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

// Claims are the custom JWT claims. Subject holds the user id as a string.
type Claims struct {
	UserID    uint64 `json:"user_id"`
	PhoneHash string `json:"phone_hash"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is what a successful sign-in returns.
type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Issuer struct {
	secret     []byte
	hashSecret []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		secret:     []byte(cfg.Auth.JWTSecret),
		hashSecret: []byte(cfg.Auth.HashSecret),
		accessTTL:  cfg.Auth.AccessTTL,
		refreshTTL: cfg.Auth.RefreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// HashPhone is the keyed hash carried in tokens so a token stops working when
// the account's phone number changes.
func (i *Issuer) HashPhone(phone string) string {
	mac := hmac.New(sha256.New, i.hashSecret)
	mac.Write([]byte(phone))
	return hex.EncodeToString(mac.Sum(nil))
}

func (i *Issuer) sign(userID uint64, phone, typ string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:    userID,
		PhoneHash: i.HashPhone(phone),
		Type:      typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// Issue returns a fresh access and refresh token for the user.
func (i *Issuer) Issue(userID uint64, phone string) (Pair, error) {
	access, _, err := i.sign(userID, phone, AccessToken, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := i.sign(userID, phone, RefreshToken, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int64(i.accessTTL.Seconds()),
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is returned unchanged.
func (i *Issuer) Refresh(refreshToken, phone string) (Pair, error) {
	claims, err := i.Parse(refreshToken, RefreshToken)
	if err != nil {
		return Pair{}, err
	}
	if !i.PhoneMatches(claims, phone) {
		return Pair{}, fmt.Errorf("%w: phone number changed", svcErr.ErrUnauthenticated)
	}
	access, _, err := i.sign(claims.UserID, phone, AccessToken, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(i.accessTTL.Seconds()),
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse validates signature, expiry and token type. Every failure wraps
// ErrUnauthenticated.
func (i *Issuer) Parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", svcErr.ErrUnauthenticated)
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("%w: expected %s token", svcErr.ErrUnauthenticated, wantType)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: invalid token payload", svcErr.ErrUnauthenticated)
	}
	return claims, nil
}

// PhoneMatches reports whether claims were issued for phone.
func (i *Issuer) PhoneMatches(claims *Claims, phone string) bool {
	return hmac.Equal([]byte(claims.PhoneHash), []byte(i.HashPhone(phone)))
}
