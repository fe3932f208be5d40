package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/bookstore/internal/storage"
)

// ErrorResponse - тело любого ответа с ошибкой
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// MessageResponse - ответ без данных
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// notFound - конкретные сущности, имя которых можно показать клиенту
var notFound = []error{
	storage.ErrUserNotFound,
	storage.ErrBookNotFound,
	storage.ErrOrderNotFound,
	storage.ErrReviewNotFound,
	storage.ErrWishlistItemNotFound,
}

// writeError - единственное место, где ошибка приложения превращается в HTTP статус.
// Текст внутренних ошибок клиенту не уходит.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if vErr, ok := apperr.IsValidation(err); ok {
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Message: "validation failed", Fields: vErr.Fields})
		return
	}
	if authErr, ok := apperr.IsAuth(err); ok {
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Message: authErr.Message(), Code: string(authErr.Kind)})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrForbidden):
		writeJSON(w, logger, http.StatusForbidden, ErrorResponse{Message: "forbidden"})
	case errors.Is(err, apperr.ErrNotFound):
		msg := "not found"
		for _, e := range notFound {
			if errors.Is(err, e) {
				msg = e.Error()
				break
			}
		}
		writeJSON(w, logger, http.StatusNotFound, ErrorResponse{Message: msg})
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, logger, http.StatusConflict, ErrorResponse{Message: "already exists"})
	case errors.Is(err, apperr.ErrServiceUnavailable), errors.Is(err, context.DeadlineExceeded):
		logger.Error("service unavailable", slog.Any("error", err))
		w.Header().Set("Retry-After", "1")
		writeJSON(w, logger, http.StatusServiceUnavailable, ErrorResponse{Message: "service temporarily unavailable, please retry"})
	case errors.Is(err, apperr.ErrDependencyFailure):
		logger.Error("dependency failure", slog.Any("error", err))
		writeJSON(w, logger, http.StatusBadGateway, ErrorResponse{Message: "failed to send email"})
	default:
		logger.Error("internal error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
	}
}

// decodeJSON читает тело запроса; битый JSON - ошибка валидации поля body
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.NewValidation("body", "must be valid JSON")
	}
	return nil
}

// pathID разбирает числовой параметр маршрута
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NewValidation(name, "must be a positive integer")
	}
	return id, nil
}

// queryInt - необязательный числовой параметр строки запроса
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.NewValidation(name, "must be an integer")
	}
	return n, nil
}

// requireUser достаёт id пользователя, установленный jwtmiddleware
func requireUser(r *http.Request) (int64, error) {
	userID, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		return 0, apperr.Auth(apperr.MissingCredential, nil)
	}
	return userID, nil
}
