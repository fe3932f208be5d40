package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/bookstore/internal/service"
)

// MeHandler обрабатывает GET /api/auth/me: пользователь, найденный middleware, без секретных полей
func MeHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.MeHandler"))

		user, ok := jwtmiddleware.UserFromContext(r.Context())
		if !ok {
			writeError(w, logger, apperr.Auth(apperr.MissingCredential, nil))
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// MyBadgesHandler обрабатывает GET /api/badges/me
func MyBadgesHandler(log *slog.Logger, badgeService service.BadgeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyBadgesHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		badges, err := badgeService.ListUserBadges(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if badges == nil {
			badges = []*models.UserBadge{}
		}
		writeJSON(w, logger, http.StatusOK, badges)
	}
}
