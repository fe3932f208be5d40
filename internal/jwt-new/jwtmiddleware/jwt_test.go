package jwtmiddleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/models"
	security "github.com/linemk/bookstore/internal/jwt-new"
	"github.com/linemk/bookstore/internal/jwt-new/jwtmiddleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "testsecret"

// fakeResolver знает только перечисленных пользователей
type fakeResolver struct {
	users map[int64]models.PublicUser
	err   error
}

func (f *fakeResolver) ResolveUser(ctx context.Context, id int64) (models.PublicUser, error) {
	if f.err != nil {
		return models.PublicUser{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return models.PublicUser{}, fmt.Errorf("user %w", apperr.ErrNotFound)
	}
	return u, nil
}

func newResolver() *fakeResolver {
	return &fakeResolver{users: map[int64]models.PublicUser{
		123: {ID: 123, Username: "reader", Email: "reader@example.com"},
	}}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestJWTMiddleware_MissingAuthorization(t *testing.T) {
	rr := serve(jwtmiddleware.New(secret, newResolver())(okHandler()), "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status when no token provided")
	body := decodeBody(t, rr)
	assert.Equal(t, "missing token", body["message"])
	assert.Equal(t, string(apperr.MissingCredential), body["code"])
}

func TestJWTMiddleware_InvalidAuthorizationFormat(t *testing.T) {
	rr := serve(jwtmiddleware.New(secret, newResolver())(okHandler()), "InvalidFormat")

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status for invalid token format")
	assert.Equal(t, string(apperr.InvalidCredential), decodeBody(t, rr)["code"])
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	rr := serve(jwtmiddleware.New(secret, newResolver())(okHandler()), "Bearer invalid.token.value")

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status for invalid token")
	assert.Equal(t, "invalid token", decodeBody(t, rr)["message"])
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token, err := security.NewToken(&models.User{ID: 123}, secret, -time.Minute)
	require.NoError(t, err)

	rr := serve(jwtmiddleware.New(secret, newResolver())(okHandler()), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "token expired", body["message"])
	assert.Equal(t, string(apperr.ExpiredCredential), body["code"])
}

func TestJWTMiddleware_UserGone(t *testing.T) {
	token, err := security.NewToken(&models.User{ID: 999}, secret, time.Hour)
	require.NoError(t, err)

	rr := serve(jwtmiddleware.New(secret, newResolver())(okHandler()), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, string(apperr.UserNotFound), decodeBody(t, rr)["code"])
}

func TestJWTMiddleware_ResolverFailure(t *testing.T) {
	token, err := security.NewToken(&models.User{ID: 123}, secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"pool exhausted", fmt.Errorf("acquire connection: %w", apperr.ErrServiceUnavailable), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"db down", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(jwtmiddleware.New(secret, &fakeResolver{err: tt.err})(okHandler()), "Bearer "+token)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotContains(t, rr.Body.String(), "db down")
			body := decodeBody(t, rr)
			assert.Empty(t, body["code"], "storage failures are not credential errors")
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rr.Header().Get("Retry-After"))
			}
		})
	}
}

func TestResolve_StorageFailureIsNotAuthError(t *testing.T) {
	token, err := security.NewToken(&models.User{ID: 123}, secret, time.Hour)
	require.NoError(t, err)

	_, err = jwtmiddleware.Resolve(context.Background(), "Bearer "+token, secret,
		&fakeResolver{err: apperr.ErrServiceUnavailable})
	require.Error(t, err)
	_, isAuth := apperr.IsAuth(err)
	assert.False(t, isAuth)
	assert.ErrorIs(t, err, apperr.ErrServiceUnavailable)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := security.NewToken(&models.User{ID: 123, Email: "reader@example.com"}, secret, time.Hour)
	require.NoError(t, err)

	var gotID int64
	var gotUser models.PublicUser
	handler := jwtmiddleware.New(secret, newResolver())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = jwtmiddleware.FromContext(r.Context())
		gotUser, _ = jwtmiddleware.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := serve(handler, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status OK for valid token")
	assert.Equal(t, int64(123), gotID, "UserID in context should match the token")
	assert.Equal(t, "reader", gotUser.Username)
}

func TestJWTMiddleware_OptionalPassesAnonymous(t *testing.T) {
	var authenticated bool
	handler := jwtmiddleware.NewOptional(secret, newResolver())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated = jwtmiddleware.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := serve(handler, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, authenticated)

	rr = serve(handler, "Bearer broken")
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "a presented but invalid token is still rejected")
}

func TestJWTMiddleware_EmptySecretPanics(t *testing.T) {
	assert.Panics(t, func() { jwtmiddleware.New("", newResolver()) })
}
