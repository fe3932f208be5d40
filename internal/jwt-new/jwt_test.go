package security_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/models"
	security "github.com/linemk/bookstore/internal/jwt-new"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "testsecret"

func TestNewToken_RoundTrip(t *testing.T) {
	user := &models.User{ID: 42, Email: "reader@example.com"}

	token, err := security.NewToken(user, secret, time.Hour)
	require.NoError(t, err)

	userID, err := security.ParseToken(token, secret, security.PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestNewToken_EmptySecret(t *testing.T) {
	_, err := security.NewToken(&models.User{ID: 1}, "", time.Hour)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := security.NewToken(&models.User{ID: 1}, secret, -time.Minute)
	require.NoError(t, err)

	_, err = security.ParseToken(token, secret, security.PurposeAccess)
	authErr, ok := apperr.IsAuth(err)
	require.True(t, ok)
	assert.Equal(t, apperr.ExpiredCredential, authErr.Kind)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := security.NewToken(&models.User{ID: 1}, "other", time.Hour)
	require.NoError(t, err)

	_, err = security.ParseToken(token, secret, security.PurposeAccess)
	authErr, ok := apperr.IsAuth(err)
	require.True(t, ok)
	assert.Equal(t, apperr.InvalidCredential, authErr.Kind)
}

func TestParseToken_ResetTokenIsNotAccess(t *testing.T) {
	token, err := security.NewResetToken(&models.User{ID: 1}, secret, 15*time.Minute)
	require.NoError(t, err)

	_, err = security.ParseToken(token, secret, security.PurposeAccess)
	assert.ErrorIs(t, err, apperr.Auth(apperr.InvalidCredential, nil))

	userID, err := security.ParseToken(token, secret, security.PurposeReset)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"sub": "1", "purpose": "access", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = security.ParseToken(token, secret, security.PurposeAccess)
	assert.ErrorIs(t, err, apperr.Auth(apperr.InvalidCredential, nil))
}

func TestParseToken_BadSubject(t *testing.T) {
	claims := jwt.MapClaims{"sub": "abc", "purpose": "access", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = security.ParseToken(token, secret, security.PurposeAccess)
	assert.ErrorIs(t, err, apperr.Auth(apperr.InvalidCredential, nil))
}
