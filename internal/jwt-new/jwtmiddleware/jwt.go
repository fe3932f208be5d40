package jwtmiddleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/models"
	security "github.com/linemk/bookstore/internal/jwt-new"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	UserKey   contextKey = "user"
)

// UserResolver загружает пользователя по id из токена.
// Для отсутствующего пользователя должен вернуть ошибку с apperr.ErrNotFound в цепочке.
type UserResolver interface {
	ResolveUser(ctx context.Context, id int64) (models.PublicUser, error)
}

// New создаёт middleware, которое требует валидный bearer-токен доступа.
func New(secret string, resolver UserResolver) func(http.Handler) http.Handler {
	return newMiddleware(secret, resolver, false)
}

// NewOptional пропускает запросы без заголовка Authorization анонимно,
// но отклоняет присланный и невалидный токен.
func NewOptional(secret string, resolver UserResolver) func(http.Handler) http.Handler {
	return newMiddleware(secret, resolver, true)
}

func newMiddleware(secret string, resolver UserResolver, optional bool) func(http.Handler) http.Handler {
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" && optional {
				next.ServeHTTP(w, r)
				return
			}

			user, err := Resolve(r.Context(), authHeader, secret, resolver)
			if err != nil {
				writeResolveError(w, err)
				return
			}

			// Устанавливаем пользователя в контекст запроса
			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Resolve превращает заголовок Authorization в пользователя без секретных полей.
// Ошибки токена и отсутствующий пользователь - *apperr.AuthError,
// сбой хранилища возвращается как есть (например apperr.ErrServiceUnavailable).
func Resolve(ctx context.Context, authHeader, secret string, resolver UserResolver) (models.PublicUser, error) {
	// Извлекаем токен из заголовка Authorization (формат: "Bearer <token>")
	if strings.TrimSpace(authHeader) == "" {
		return models.PublicUser{}, apperr.Auth(apperr.MissingCredential, nil)
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return models.PublicUser{}, apperr.Auth(apperr.InvalidCredential, errors.New("invalid token format"))
	}

	userID, err := security.ParseToken(parts[1], secret, security.PurposeAccess)
	if err != nil {
		return models.PublicUser{}, err
	}

	user, err := resolver.ResolveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.PublicUser{}, apperr.Auth(apperr.UserNotFound, err)
		}
		return models.PublicUser{}, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// writeResolveError отвечает 401 только на ошибки учётных данных.
// Недоступная БД - 503, прочие сбои - 500, как в handlers.
func writeResolveError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Message: "internal server error"}

	if authErr, ok := apperr.IsAuth(err); ok {
		status = http.StatusUnauthorized
		body = errorBody{Message: authErr.Message(), Code: string(authErr.Kind)}
	} else if errors.Is(err, apperr.ErrServiceUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
		body = errorBody{Message: "service temporarily unavailable, please retry"}
		w.Header().Set("Retry-After", "1")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// FromContext извлекает userID из контекста.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// UserFromContext извлекает пользователя, установленного middleware.
func UserFromContext(ctx context.Context) (models.PublicUser, bool) {
	u, ok := ctx.Value(UserKey).(models.PublicUser)
	return u, ok
}
