package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fittrack/internal/app/apptest"
	identity "github.com/oggyb/fittrack/internal/auth"
	"github.com/oggyb/fittrack/internal/db"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/outcome"
	"github.com/oggyb/fittrack/internal/service/auth"
)

const phone = "+15551234567"

func TestSignInFlow(t *testing.T) {
	appCtx := apptest.New(t, nil)
	appCtx.Config.App.ENV = "development"
	svc := auth.NewAuthService(appCtx)
	ctx := context.Background()

	otp, err := svc.RequestOTP(ctx, &auth.RequestOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)
	assert.Equal(t, outcome.Success, otp.Status)
	assert.EqualValues(t, 300, otp.ExpiresIn)
	require.Len(t, otp.Code, 6)

	signedIn, err := svc.VerifyOTP(ctx, &auth.VerifyOTPRequest{PhoneNumber: phone, Code: otp.Code})
	require.NoError(t, err)
	require.NotNil(t, signedIn.Tokens)
	assert.NotZero(t, signedIn.UserID)
	assert.Equal(t, "Bearer", signedIn.Tokens.TokenType)

	var u db.User
	require.NoError(t, appCtx.DB.First(&u, signedIn.UserID).Error)
	assert.True(t, u.IsPhoneVerified)
	assert.True(t, u.Active)
	assert.NotNil(t, u.LastLoginAt)

	id, err := svc.Authenticate(ctx, signedIn.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, signedIn.UserID, id)

	_, err = svc.Authenticate(ctx, signedIn.Tokens.RefreshToken)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated, "refresh tokens are not access tokens")

	refreshed, err := svc.Refresh(ctx, &auth.RefreshRequest{RefreshToken: signedIn.Tokens.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, signedIn.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)
	id, err = svc.Authenticate(ctx, refreshed.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, signedIn.UserID, id)

	// the code is single use
	_, err = svc.VerifyOTP(ctx, &auth.VerifyOTPRequest{PhoneNumber: phone, Code: otp.Code})
	assert.ErrorIs(t, err, identity.ErrCodeExpired)

	// signing in again keeps the same account
	otp, err = svc.RequestOTP(ctx, &auth.RequestOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)
	again, err := svc.VerifyOTP(ctx, &auth.VerifyOTPRequest{PhoneNumber: phone, Code: otp.Code})
	require.NoError(t, err)
	assert.Equal(t, signedIn.UserID, again.UserID)
}

func TestRequestOTPHidesCodeOutsideDevelopment(t *testing.T) {
	appCtx := apptest.New(t, nil)
	appCtx.Config.App.ENV = "production"
	svc := auth.NewAuthService(appCtx)

	otp, err := svc.RequestOTP(context.Background(), &auth.RequestOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)
	assert.Empty(t, otp.Code)

	_, err = svc.RequestOTP(context.Background(), &auth.RequestOTPRequest{PhoneNumber: "0800 FITNESS"})
	assert.Error(t, err)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	appCtx := apptest.New(t, nil)
	appCtx.Config.App.ENV = "development"
	svc := auth.NewAuthService(appCtx)
	ctx := context.Background()

	otp, err := svc.RequestOTP(ctx, &auth.RequestOTPRequest{PhoneNumber: phone})
	require.NoError(t, err)

	wrong := "000000"
	if otp.Code == wrong {
		wrong = "111111"
	}
	_, err = svc.VerifyOTP(ctx, &auth.VerifyOTPRequest{PhoneNumber: phone, Code: wrong})
	assert.ErrorIs(t, err, identity.ErrCodeMismatch)
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	var n int64
	require.NoError(t, appCtx.DB.Model(&db.User{}).Count(&n).Error)
	assert.Zero(t, n, "no account is created without a valid code")
}

func TestAuthenticateRejectsStaleTokens(t *testing.T) {
	appCtx := apptest.New(t, nil)
	svc := auth.NewAuthService(appCtx)
	ctx := context.Background()

	_, u := apptest.User(t, appCtx, phone)
	pair, err := appCtx.Tokens.Issue(u.ID, phone)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	require.NoError(t, appCtx.DB.Model(u).Update("phone_number", "+15559999999").Error)
	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
	_, err = svc.Refresh(ctx, &auth.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	require.NoError(t, appCtx.DB.Model(u).Updates(map[string]any{"phone_number": phone, "active": false}).Error)
	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	require.NoError(t, appCtx.DB.Delete(u).Error)
	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}
