package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
	"github.com/shopspring/decimal"
)

// CartRequest - тело PUT /cart/sync и POST /cart/merge
type CartRequest struct {
	CartItems []models.CartItem `json:"cartItems"`
}

type CartResponse struct {
	Message string             `json:"message,omitempty"`
	Cart    []*models.CartLine `json:"cart"`
	Total   decimal.Decimal    `json:"total"`
}

func cartResponse(msg string, view *service.CartView) CartResponse {
	lines := view.Items
	if lines == nil {
		lines = []*models.CartLine{}
	}
	return CartResponse{Message: msg, Cart: lines, Total: view.Total}
}

// GetCartHandler обрабатывает GET /api/cart
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		view, err := cartService.GetCart(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cartResponse("", view))
	}
}

// SyncCartHandler обрабатывает PUT /api/cart/sync: корзина заменяется целиком
func SyncCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SyncCartHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var req CartRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		view, err := cartService.SyncCart(r.Context(), userID, req.CartItems)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cartResponse("cart synced", view))
	}
}

// MergeCartHandler обрабатывает POST /api/cart/merge: гостевая корзина сливается с сохранённой
func MergeCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MergeCartHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var req CartRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		view, err := cartService.MergeCart(r.Context(), userID, req.CartItems)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cartResponse("cart merged", view))
	}
}
