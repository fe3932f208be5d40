package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/badge"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
	"github.com/linemk/bookstore/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	customers []*models.CustomerInfo
	orders    []*models.Order
	items     []*models.OrderItem
	// failItem - номер позиции (с 1), на которой вставка падает
	failItem int
	calls    int
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func (f *fakeOrderRepo) CreateCustomerTx(ctx context.Context, tx *sql.Tx, c *models.CustomerInfo) (int64, error) {
	f.calls++
	c.ID = int64(len(f.customers) + 1)
	f.customers = append(f.customers, c)
	return c.ID, nil
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	f.calls++
	order.ID = int64(len(f.orders) + 1)
	order.CreatedAt = time.Now()
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrderRepo) CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	f.calls++
	if f.failItem > 0 && len(f.items)+1 == f.failItem {
		return errors.New("insert order item: connection reset")
	}
	item.ID = int64(len(f.items) + 1)
	f.items = append(f.items, item)
	return nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, storage.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	var out []*models.OrderItem
	for _, it := range f.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]*models.OrderItem, error) {
	out := make(map[int64][]*models.OrderItem)
	for _, id := range orderIDs {
		items, _ := f.GetOrderItems(ctx, id)
		if items != nil {
			out[id] = items
		}
	}
	return out, nil
}

type awardCall struct {
	userID  int64
	trigger service.BadgeTrigger
}

type fakeAwarder struct {
	calls []awardCall
	err   error
}

func (f *fakeAwarder) Award(ctx context.Context, userID int64, trigger service.BadgeTrigger) ([]*models.Badge, error) {
	f.calls = append(f.calls, awardCall{userID: userID, trigger: trigger})
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Badge{{ID: 1, Name: "First Purchase"}}, nil
}

func validOrderRequest() service.PlaceOrderRequest {
	return service.PlaceOrderRequest{
		FirstName:  "Ann",
		LastName:   "Lee",
		Email:      "ann@example.com",
		Phone:      "+100000000",
		Address:    "1 Main St",
		State:      "CA",
		Country:    "US",
		BirthDate:  "1990-04-12",
		TotalPrice: decimal.RequireFromString("32.00"),
		Products: []service.OrderProduct{
			{ProductID: 101, Title: "Dune", Quantity: 2, Price: decimal.RequireFromString("12.50")},
			{ProductID: 202, Title: "Emma", Quantity: 1, Price: decimal.RequireFromString("7.00")},
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestOrderService_PlaceOrder(t *testing.T) {
	pool, mock := newPool(t)
	repo := &fakeOrderRepo{}
	mailer := &fakeMailer{}
	awarder := &fakeAwarder{}
	svc := service.NewOrderService(testLogger(), pool, repo, mailer, awarder)

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.PlaceOrder(context.Background(), int64Ptr(7), validOrderRequest())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	number, err := uuid.Parse(order.OrderNumber)
	require.NoError(t, err, "order number is a uuid")
	assert.Equal(t, uuid.Version(7), number.Version())
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "32", order.TotalPrice.String())
	require.Len(t, order.Items, 2)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.True(t, models.ItemsTotal(order.Items).Equal(order.TotalPrice), "stored items add up to the order total")

	require.Len(t, repo.customers, 1)
	assert.Equal(t, int64(7), *repo.customers[0].UserID)
	require.NotNil(t, repo.customers[0].BirthDate)
	assert.Equal(t, "1990-04-12", repo.customers[0].BirthDate.Format(time.DateOnly))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ann@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Subject, order.OrderNumber)

	require.Len(t, awarder.calls, 1)
	assert.Equal(t, int64(7), awarder.calls[0].userID)
	assert.Equal(t, order.ID, awarder.calls[0].trigger.OrderID)
	assert.Contains(t, awarder.calls[0].trigger.Kinds, badge.KindPurchaseCount)
}

func TestOrderService_PlaceOrder_Guest(t *testing.T) {
	pool, mock := newPool(t)
	repo := &fakeOrderRepo{}
	awarder := &fakeAwarder{}
	svc := service.NewOrderService(testLogger(), pool, repo, &fakeMailer{}, awarder)

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.PlaceOrder(context.Background(), nil, validOrderRequest())
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Nil(t, repo.customers[0].UserID)
	assert.Empty(t, awarder.calls, "guests earn no badges")
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *service.PlaceOrderRequest)
		fields []string
	}{
		{
			name: "missing email and zero quantity",
			mutate: func(r *service.PlaceOrderRequest) {
				r.Email = ""
				r.Products[0].Quantity = 0
			},
			fields: []string{"email", "products[0].quantity"},
		},
		{
			name:   "no products",
			mutate: func(r *service.PlaceOrderRequest) { r.Products = nil },
			fields: []string{"products"},
		},
		{
			name:   "zero total",
			mutate: func(r *service.PlaceOrderRequest) { r.TotalPrice = decimal.Zero },
			fields: []string{"totalPrice"},
		},
		{
			name:   "total does not match items",
			mutate: func(r *service.PlaceOrderRequest) { r.TotalPrice = decimal.RequireFromString("31.99") },
			fields: []string{"totalPrice"},
		},
		{
			name:   "negative price",
			mutate: func(r *service.PlaceOrderRequest) { r.Products[1].Price = decimal.RequireFromString("-1") },
			fields: []string{"products[1].price"},
		},
		{
			name: "sub-cent price",
			mutate: func(r *service.PlaceOrderRequest) {
				r.Products = []service.OrderProduct{
					{ProductID: 101, Title: "Dune", Quantity: 2, Price: decimal.RequireFromString("0.005")},
				}
				r.TotalPrice = decimal.RequireFromString("0.01")
			},
			fields: []string{"products[0].price"},
		},
		{
			name:   "sub-cent total",
			mutate: func(r *service.PlaceOrderRequest) { r.TotalPrice = decimal.RequireFromString("32.004") },
			fields: []string{"totalPrice"},
		},
		{
			name: "price above column range",
			mutate: func(r *service.PlaceOrderRequest) {
				r.Products = []service.OrderProduct{
					{ProductID: 101, Title: "Dune", Quantity: 1, Price: decimal.RequireFromString("100000000")},
				}
				r.TotalPrice = decimal.RequireFromString("100000000")
			},
			fields: []string{"products[0].price", "totalPrice"},
		},
		{
			name:   "quantity above limit",
			mutate: func(r *service.PlaceOrderRequest) { r.Products[1].Quantity = 100001 },
			fields: []string{"products[1].quantity"},
		},
		{
			name:   "bad birth date",
			mutate: func(r *service.PlaceOrderRequest) { r.BirthDate = "12/04/1990" },
			fields: []string{"birthDate"},
		},
		{
			name:   "bad email",
			mutate: func(r *service.PlaceOrderRequest) { r.Email = "not-an-email" },
			fields: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, mock := newPool(t)
			repo := &fakeOrderRepo{}
			mailer := &fakeMailer{}
			svc := service.NewOrderService(testLogger(), pool, repo, mailer, &fakeAwarder{})

			req := validOrderRequest()
			tt.mutate(&req)

			_, err := svc.PlaceOrder(context.Background(), int64Ptr(7), req)
			vErr, ok := apperr.IsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			for _, f := range tt.fields {
				assert.Contains(t, vErr.Fields, f)
			}

			// до транзакции дело не дошло
			assert.Zero(t, repo.calls)
			assert.Empty(t, mailer.sent)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderService_PlaceOrder_RFC3339BirthDate(t *testing.T) {
	pool, mock := newPool(t)
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(testLogger(), pool, repo, &fakeMailer{}, &fakeAwarder{})

	mock.ExpectBegin()
	mock.ExpectCommit()

	req := validOrderRequest()
	req.BirthDate = "1990-04-12T00:00:00.000Z"
	_, err := svc.PlaceOrder(context.Background(), nil, req)
	require.NoError(t, err)
	assert.Equal(t, "1990-04-12", repo.customers[0].BirthDate.Format(time.DateOnly))
}

func TestOrderService_PlaceOrder_ItemFailureRollsBack(t *testing.T) {
	pool, mock := newPool(t)
	repo := &fakeOrderRepo{failItem: 2}
	mailer := &fakeMailer{}
	awarder := &fakeAwarder{}
	svc := service.NewOrderService(testLogger(), pool, repo, mailer, awarder)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), int64Ptr(7), validOrderRequest())
	assert.ErrorIs(t, err, apperr.ErrTransactionFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, mailer.sent, "no confirmation for a rolled back order")
	assert.Empty(t, awarder.calls)
}

func TestOrderService_PlaceOrder_CommitFailure(t *testing.T) {
	pool, mock := newPool(t)
	mailer := &fakeMailer{}
	svc := service.NewOrderService(testLogger(), pool, &fakeOrderRepo{}, mailer, &fakeAwarder{})

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection lost"))

	_, err := svc.PlaceOrder(context.Background(), nil, validOrderRequest())
	assert.ErrorIs(t, err, apperr.ErrTransactionFailure)
	assert.Empty(t, mailer.sent)
}

func TestOrderService_PlaceOrder_PoolExhausted(t *testing.T) {
	svc := service.NewOrderService(testLogger(), unavailablePool{}, &fakeOrderRepo{}, &fakeMailer{}, &fakeAwarder{})

	_, err := svc.PlaceOrder(context.Background(), nil, validOrderRequest())
	assert.ErrorIs(t, err, apperr.ErrServiceUnavailable)
	assert.NotErrorIs(t, err, apperr.ErrTransactionFailure)
}

func TestOrderService_PlaceOrder_SideEffectFailuresDoNotFailOrder(t *testing.T) {
	pool, mock := newPool(t)
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(testLogger(), pool, repo,
		&fakeMailer{err: errors.New("smtp down")},
		&fakeAwarder{err: errors.New("badge query failed")})

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := svc.PlaceOrder(context.Background(), int64Ptr(7), validOrderRequest())
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Len(t, repo.orders, 1)
}

func TestOrderService_GetOrdersByUser(t *testing.T) {
	pool, mock := newPool(t)
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(testLogger(), pool, repo, &fakeMailer{}, &fakeAwarder{})

	mock.ExpectBegin()
	mock.ExpectCommit()
	placed, err := svc.PlaceOrder(context.Background(), int64Ptr(7), validOrderRequest())
	require.NoError(t, err)

	orders, err := svc.GetOrdersByUser(context.Background(), 7, 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, placed.ID, orders[0].ID)
	assert.Len(t, orders[0].Items, 2)

	_, err = svc.GetOrdersByUser(context.Background(), 8, 7)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestOrderService_GetOrderItems(t *testing.T) {
	pool, mock := newPool(t)
	repo := &fakeOrderRepo{}
	svc := service.NewOrderService(testLogger(), pool, repo, &fakeMailer{}, &fakeAwarder{})

	mock.ExpectBegin()
	mock.ExpectCommit()
	own, err := svc.PlaceOrder(context.Background(), int64Ptr(7), validOrderRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	guest, err := svc.PlaceOrder(context.Background(), nil, validOrderRequest())
	require.NoError(t, err)

	items, err := svc.GetOrderItems(context.Background(), 7, own.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.GetOrderItems(context.Background(), 8, own.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "foreign order")

	_, err = svc.GetOrderItems(context.Background(), 7, guest.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "guest order")

	_, err = svc.GetOrderItems(context.Background(), 7, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
