package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/badge"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/lib/validate"
	"github.com/linemk/bookstore/internal/notify"
	"github.com/linemk/bookstore/internal/storage"
	"github.com/shopspring/decimal"
)

// PlaceOrderRequest - тело POST /orders
type PlaceOrderRequest struct {
	FirstName  string          `json:"firstName" validate:"required"`
	LastName   string          `json:"lastName" validate:"required"`
	Email      string          `json:"email" validate:"required,email"`
	Phone      string          `json:"phone" validate:"required"`
	Address    string          `json:"address" validate:"required"`
	Apartment  string          `json:"apartment"`
	State      string          `json:"state" validate:"required"`
	Country    string          `json:"country" validate:"required"`
	BirthDate  string          `json:"birthDate"`
	Gender     string          `json:"gender"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Products   []OrderProduct  `json:"products" validate:"required,min=1,dive"`
}

type OrderProduct struct {
	ProductID int64           `json:"productId" validate:"gt=0"`
	Title     string          `json:"title" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1,lte=100000"`
	Price     decimal.Decimal `json:"price"`
}

// maxMoney - верхняя граница колонок NUMERIC(10,2)
var maxMoney = decimal.RequireFromString("99999999.99")

// moneyProblem проверяет, что сумма помещается в NUMERIC(10,2) без округления
func moneyProblem(d decimal.Decimal) string {
	switch {
	case !d.Equal(d.Round(2)):
		return "must have at most 2 decimal places"
	case d.GreaterThan(maxMoney):
		return "must be at most " + maxMoney.StringFixed(2)
	}
	return ""
}

// Validate проверяет запрос целиком и собирает все ошибочные поля
func (r *PlaceOrderRequest) Validate() error {
	vErr := &apperr.ValidationError{}
	if err := validate.Struct(r); err != nil {
		ve, ok := apperr.IsValidation(err)
		if !ok {
			return err
		}
		vErr = ve
	}

	if !r.TotalPrice.IsPositive() {
		vErr.Add("totalPrice", "must be greater than 0")
	} else if msg := moneyProblem(r.TotalPrice); msg != "" {
		vErr.Add("totalPrice", msg)
	}
	for i, p := range r.Products {
		field := fmt.Sprintf("products[%d].price", i)
		if p.Price.IsNegative() {
			vErr.Add(field, "must be at least 0")
		} else if msg := moneyProblem(p.Price); msg != "" {
			vErr.Add(field, msg)
		}
	}
	if _, err := parseBirthDate(r.BirthDate); err != nil {
		vErr.Add("birthDate", "must be a date in YYYY-MM-DD format")
	}

	// сумма сверяется только для корректных позиций; цены уже в копейках, сравнение точное
	if !vErr.HasFields() && !r.itemsTotal().Equal(r.TotalPrice) {
		vErr.Add("totalPrice", "must equal the sum of price × quantity")
	}

	if vErr.HasFields() {
		return vErr
	}
	return nil
}

func (r *PlaceOrderRequest) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return total
}

// parseBirthDate принимает "2006-01-02" и RFC3339, хранится только дата
func parseBirthDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// BadgeAwarder - пересмотр наград после события
type BadgeAwarder interface {
	Award(ctx context.Context, userID int64, trigger BadgeTrigger) ([]*models.Badge, error)
}

type OrderService interface {
	// PlaceOrder оформляет заказ; userID == nil - гостевой заказ
	PlaceOrder(ctx context.Context, userID *int64, req PlaceOrderRequest) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, requesterID, userID int64) ([]*models.Order, error)
	GetOrderItems(ctx context.Context, requesterID, orderID int64) ([]*models.OrderItem, error)
}

type orderService struct {
	log       *slog.Logger
	db        TxBeginner
	orderRepo storage.OrderStorage
	mailer    notify.Mailer
	badges    BadgeAwarder
}

func NewOrderService(log *slog.Logger, db TxBeginner, orderRepo storage.OrderStorage, mailer notify.Mailer, badges BadgeAwarder) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		orderRepo: orderRepo,
		mailer:    mailer,
		badges:    badges,
	}
}

// PlaceOrder проверяет запрос до любых записей, затем в одной транзакции сохраняет
// покупателя, заголовок и позиции. Любая ошибка откатывает всё.
// После коммита отправляется письмо и пересматриваются награды; их ошибки только логируются.
func (s *orderService) PlaceOrder(ctx context.Context, userID *int64, req PlaceOrderRequest) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op))
	if userID != nil {
		logger = logger.With(slog.Int64("userID", *userID))
	}

	if err := req.Validate(); err != nil {
		logger.Warn("invalid order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orderNumber, err := uuid.NewV7()
	if err != nil {
		logger.Error("failed to generate order number", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to generate order number: %w", op, err)
	}
	birthDate, _ := parseBirthDate(req.BirthDate)

	customer := &models.CustomerInfo{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		Address:   req.Address,
		Apartment: req.Apartment,
		State:     req.State,
		Country:   req.Country,
		BirthDate: birthDate,
		Gender:    req.Gender,
	}
	order := &models.Order{
		OrderNumber: orderNumber.String(),
		UserID:      userID,
		TotalPrice:  req.TotalPrice.Round(2),
		Status:      models.OrderStatusPending,
		Customer:    customer,
	}

	logger.Info("starting order transaction", slog.String("orderNumber", order.OrderNumber))

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		if errors.Is(err, apperr.ErrServiceUnavailable) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrTransactionFailure, err)
	}

	// Сохраняем снимок данных покупателя
	customerID, err := s.orderRepo.CreateCustomerTx(ctx, tx.Tx, customer)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create customer info", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrTransactionFailure, err)
	}
	order.CustomerID = customerID

	// Создаем заголовок заказа
	if err := s.orderRepo.CreateOrderTx(ctx, tx.Tx, order); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrTransactionFailure, err)
	}

	// Позиции: название и цена фиксируются на момент покупки
	for _, p := range req.Products {
		item := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: p.ProductID,
			Title:     p.Title,
			Quantity:  p.Quantity,
			Price:     p.Price,
		}
		if err := s.orderRepo.CreateOrderItemTx(ctx, tx.Tx, item); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to create order item", slog.Any("error", err), slog.Int64("productID", p.ProductID))
			return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrTransactionFailure, err)
		}
		order.Items = append(order.Items, item)
	}

	// Коммит транзакции
	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrTransactionFailure, err)
	}

	logger.Info("order placed", slog.Int64("orderID", order.ID), slog.String("orderNumber", order.OrderNumber))

	// заказ уже сохранён: отмена запроса не должна обрывать письмо и награды
	after := context.WithoutCancel(ctx)
	s.sendConfirmation(after, logger, order)
	if userID != nil {
		s.awardBadges(after, logger, *userID, order.ID)
	}

	return order, nil
}

func (s *orderService) sendConfirmation(ctx context.Context, logger *slog.Logger, order *models.Order) {
	msg, err := notify.RenderOrderConfirmation(notify.OrderConfirmation{
		To:           order.Customer.Email,
		CustomerName: order.Customer.FirstName + " " + order.Customer.LastName,
		OrderNumber:  order.OrderNumber,
		PlacedAt:     order.CreatedAt,
		Items:        order.Items,
		Total:        order.TotalPrice,
	})
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logger.Error("failed to send order confirmation",
			slog.Any("error", fmt.Errorf("%w: %v", apperr.ErrDependencyFailure, err)),
			slog.Int64("orderID", order.ID))
	}
}

func (s *orderService) awardBadges(ctx context.Context, logger *slog.Logger, userID, orderID int64) {
	trigger := BadgeTrigger{
		Kinds: []badge.Kind{
			badge.KindPurchaseCount,
			badge.KindCollectionSize,
			badge.KindNewReleasePurchase,
			badge.KindGenreReadCount,
			badge.KindAuthorReadCount,
		},
		OrderID: orderID,
	}
	granted, err := s.badges.Award(ctx, userID, trigger)
	if err != nil {
		logger.Error("failed to award badges", slog.Any("error", err), slog.Int64("orderID", orderID))
		return
	}
	if len(granted) > 0 {
		logger.Info("badges granted", slog.Int("count", len(granted)))
	}
}

// GetOrdersByUser - только свои заказы, иначе apperr.ErrForbidden
func (s *orderService) GetOrdersByUser(ctx context.Context, requesterID, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.GetOrdersByUser"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if requesterID != userID {
		logger.Warn("access to foreign orders", slog.Int64("requesterID", requesterID))
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrForbidden)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.orderRepo.GetItemsByOrderIDs(ctx, ids)
	if err != nil {
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, nil
}

// GetOrderItems - позиции заказа владельца; гостевые заказы недоступны через API
func (s *orderService) GetOrderItems(ctx context.Context, requesterID, orderID int64) ([]*models.OrderItem, error) {
	const op = "service.OrderService.GetOrderItems"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("order not found")
		} else {
			logger.Error("failed to get order", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID == nil || *order.UserID != requesterID {
		logger.Warn("access to foreign order", slog.Int64("requesterID", requesterID))
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrForbidden)
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}
