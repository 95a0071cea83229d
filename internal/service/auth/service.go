package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/app"
	identity "github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/db"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/logger"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/repository"
	"github.com/oggyb/fittrack/internal/validation"
)

// otpPurpose scopes sign-in codes in the code store.
const otpPurpose = "login"

// Service signs users in with a one-time code sent to their phone and
// checks the bearer tokens it hands out.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	now      func() time.Time
}

func NewAuthService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		now:      time.Now,
	}
}

type RequestOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
}

type RequestOTPResponse struct {
	outcome.Result
	ExpiresIn int64 `json:"expires_in"`
	// Code is only returned in development; there is no SMS gateway.
	Code string `json:"code,omitempty"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	Code        string `json:"code" validate:"required,numeric,max=18"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	outcome.Result
	UserID uint64         `json:"user_id"`
	Tokens *identity.Pair `json:"tokens,omitempty"`
}

func (s *Service) RequestOTP(ctx context.Context, req *RequestOTPRequest) (*RequestOTPResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	code, err := s.appCtx.OTP.Issue(ctx, otpPurpose, req.PhoneNumber)
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("issue otp failed", "err", err)
		return nil, err
	}

	resp := &RequestOTPResponse{
		Result:    outcome.OK("verification code sent"),
		ExpiresIn: int64(s.appCtx.OTP.TTL().Seconds()),
	}
	if s.appCtx.Config.App.ENV == "development" {
		resp.Code = code
	}
	return resp, nil
}

// VerifyOTP consumes the code and signs the user in, creating the account
// on first use.
func (s *Service) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*TokenResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := s.appCtx.OTP.Verify(ctx, otpPurpose, req.PhoneNumber, req.Code); err != nil {
		return nil, err
	}

	u, err := s.userRepo.UpsertVerified(ctx, req.PhoneNumber, s.now().UTC())
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("upsert user failed", "err", err)
		return nil, err
	}
	pair, err := s.appCtx.Tokens.Issue(u.ID, u.PhoneNumber)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.appCtx.Logger).Info("user signed in", "user_id", u.ID)
	return &TokenResponse{Result: outcome.OK("signed in"), UserID: u.ID, Tokens: &pair}, nil
}

func (s *Service) Refresh(ctx context.Context, req *RefreshRequest) (*TokenResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	claims, err := s.appCtx.Tokens.Parse(req.RefreshToken, identity.RefreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	pair, err := s.appCtx.Tokens.Refresh(req.RefreshToken, u.PhoneNumber)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Result: outcome.OK("token refreshed"), UserID: u.ID, Tokens: &pair}, nil
}

// Authenticate resolves an access token to its user. The token stops
// working once the user is deactivated or changes phone number.
func (s *Service) Authenticate(ctx context.Context, token string) (uint64, error) {
	claims, err := s.appCtx.Tokens.Parse(token, identity.AccessToken)
	if err != nil {
		return 0, err
	}
	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return 0, err
	}
	if !s.appCtx.Tokens.PhoneMatches(claims, u.PhoneNumber) {
		return 0, fmt.Errorf("%w: phone number changed", svcErr.ErrUnauthenticated)
	}
	return u.ID, nil
}

func (s *Service) activeUser(ctx context.Context, id uint64) (*db.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", svcErr.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, fmt.Errorf("%w: user is inactive", svcErr.ErrUnauthenticated)
	}
	return u, nil
}
