package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/lib/validate"
	"github.com/linemk/bookstore/internal/service"
)

// RegisterRequest - тело POST /auth/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest - тело POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// AuthResponse представляет структуру ответа с JWT-токеном
type AuthResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token,omitempty"`
	User    *models.PublicUser `json:"user,omitempty"`
}

// RegisterHandler обрабатывает POST /api/auth/register
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			logger.Warn("invalid request: decoding error")
			writeError(w, logger, err)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		token, user, err := authService.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, AuthResponse{Message: "user registered", Token: token, User: &user})
	}
}

// LoginHandler обрабатывает POST /api/auth/login
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			logger.Warn("invalid request: decoding error")
			writeError(w, logger, err)
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		// Вызов бизнес-логики для аутентификации
		token, user, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			logger.Warn("login failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, AuthResponse{Message: "logged in", Token: token, User: &user})
	}
}

// ForgotPasswordHandler обрабатывает POST /api/auth/forgot-password
func ForgotPasswordHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ForgotPasswordHandler"
		logger := log.With(slog.String("op", op))

		var req ForgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, logger, err)
			return
		}

		if err := authService.ForgotPassword(r.Context(), req.Email); err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, AuthResponse{Message: "password reset email sent"})
	}
}

// ResetPasswordHandler обрабатывает POST /api/auth/reset-password
func ResetPasswordHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ResetPasswordHandler"
		logger := log.With(slog.String("op", op))

		var req ResetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, logger, err)
			return
		}

		if err := authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, AuthResponse{Message: "password updated"})
	}
}
