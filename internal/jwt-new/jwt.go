package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/models"
)

// Purpose отделяет токены доступа от токенов сброса пароля:
// токен одного назначения не принимается там, где ждут другое.
type Purpose string

const (
	PurposeAccess Purpose = "access"
	PurposeReset  Purpose = "reset"
)

var errEmptySecret = errors.New("jwt secret is not set")

// NewToken генерирует токен доступа для указанного пользователя с заданным временем жизни.
func NewToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	return newToken(user, secret, ttl, PurposeAccess)
}

// NewResetToken генерирует короткоживущий токен для сброса пароля.
func NewResetToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	return newToken(user, secret, ttl, PurposeReset)
}

func newToken(user *models.User, secret string, ttl time.Duration, purpose Purpose) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     fmt.Sprintf("%d", user.ID),
		"email":   user.Email,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"purpose": string(purpose),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken проверяет подпись, срок и назначение токена и возвращает id пользователя.
// Истёкший токен - apperr.ExpiredCredential, любой другой дефект - apperr.InvalidCredential.
func ParseToken(tokenStr, secret string, purpose Purpose) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// Проверка алгоритма
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, apperr.Auth(apperr.ExpiredCredential, err)
		}
		return 0, apperr.Auth(apperr.InvalidCredential, err)
	}
	if !token.Valid {
		return 0, apperr.Auth(apperr.InvalidCredential, nil)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.Auth(apperr.InvalidCredential, errors.New("invalid token claims"))
	}

	if p, _ := claims["purpose"].(string); p != string(purpose) {
		return 0, apperr.Auth(apperr.InvalidCredential, fmt.Errorf("token purpose %q, want %q", p, purpose))
	}

	// Извлекаем идентификатор пользователя из поля "sub"
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, apperr.Auth(apperr.InvalidCredential, errors.New("sub not found"))
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return 0, apperr.Auth(apperr.InvalidCredential, errors.New("invalid user id"))
	}
	return userID, nil
}
