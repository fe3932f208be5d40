package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/bookstore/internal/service"
)

// PlaceOrderResponse - структура ответа при успешном оформлении заказа.
type PlaceOrderResponse struct {
	Success     bool   `json:"success"`
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// PlaceOrderHandler обрабатывает POST /api/orders.
// Токен необязателен: без него оформляется гостевой заказ.
func PlaceOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		var req service.PlaceOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			logger.Warn("invalid request: decoding error")
			writeError(w, logger, err)
			return
		}

		// Извлекаем userID из контекста (установленный JWT middleware), если он есть
		var userID *int64
		if id, ok := jwtmiddleware.FromContext(r.Context()); ok {
			userID = &id
		}

		order, err := orderService.PlaceOrder(r.Context(), userID, req)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, PlaceOrderResponse{
			Success:     true,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
		})
	}
}

// UserOrdersHandler обрабатывает GET /api/orders/user/{userId}
func UserOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UserOrdersHandler"
		logger := log.With(slog.String("op", op))

		requesterID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		userID, err := pathID(r, "userId")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		orders, err := orderService.GetOrdersByUser(r.Context(), requesterID, userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// OrderItemsHandler обрабатывает GET /api/orders/{orderId}/items
func OrderItemsHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderItemsHandler"
		logger := log.With(slog.String("op", op))

		requesterID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		orderID, err := pathID(r, "orderId")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		items, err := orderService.GetOrderItems(r.Context(), requesterID, orderID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if items == nil {
			items = []*models.OrderItem{}
		}
		writeJSON(w, logger, http.StatusOK, items)
	}
}
