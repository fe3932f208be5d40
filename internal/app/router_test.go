package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/linemk/bookstore/internal/app"
	"github.com/linemk/bookstore/internal/config"
	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/models"
	security "github.com/linemk/bookstore/internal/jwt-new"
	"github.com/linemk/bookstore/internal/service"
	"github.com/linemk/bookstore/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-secret"

// stubAuth знает одного пользователя с id 7
type stubAuth struct {
	service.AuthServiceInterface
}

func (stubAuth) ResolveUser(ctx context.Context, id int64) (models.PublicUser, error) {
	if id != 7 {
		return models.PublicUser{}, storage.ErrUserNotFound
	}
	return models.PublicUser{ID: 7, Username: "reader"}, nil
}

type stubOrders struct {
	service.OrderService
	lastUser *int64
}

func (s *stubOrders) PlaceOrder(ctx context.Context, userID *int64, req service.PlaceOrderRequest) (*models.Order, error) {
	s.lastUser = userID
	return &models.Order{ID: 1, OrderNumber: "n-1"}, nil
}

type stubCart struct {
	service.CartService
}

func (stubCart) GetCart(ctx context.Context, userID int64) (*service.CartView, error) {
	return &service.CartView{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubOrders) {
	t.Helper()
	cfg := &config.Config{
		HTTPServer: config.HTTPServerConfig{Timeout: 5 * time.Second},
		JWT:        config.JWTConfig{Secret: secret},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	orders := &stubOrders{}
	svcs := &app.Services{
		Auth:  stubAuth{},
		Cart:  stubCart{},
		Order: orders,
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return app.NewRouter(log, cfg, svcs), orders
}

func token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := security.NewToken(&models.User{ID: userID, Email: "reader@example.com"}, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Code
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{name: "no header", header: "", status: http.StatusUnauthorized, code: string(apperr.MissingCredential)},
		{name: "garbage", header: "Bearer nonsense", status: http.StatusUnauthorized, code: string(apperr.InvalidCredential)},
		{name: "unknown user", header: "Bearer " + token(t, 99), status: http.StatusUnauthorized, code: string(apperr.UserNotFound)},
		{name: "valid", header: "Bearer " + token(t, 7), status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rr))
			}
		})
	}
}

func TestRouter_GuestCheckout(t *testing.T) {
	router, orders := newTestRouter(t)
	body := `{"products": []}`

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Nil(t, orders.lastUser, "no token means guest order")

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token(t, 7))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, orders.lastUser)
	assert.Equal(t, int64(7), *orders.lastUser)

	// присланный, но негодный токен не превращает запрос в гостевой
	req = httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer nonsense")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart/sync", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rr.Code, 300)
}
