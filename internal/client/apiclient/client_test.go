package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linemk/bookstore/internal/client/apiclient"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL+"/", time.Second)
}

func TestLogin(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "reader@example.com", body["email"])

		_, _ = w.Write([]byte(`{"message":"login successful","token":"tok","user":{"id":7,"username":"reader","email":"reader@example.com"}}`))
	})

	res, err := c.Login(context.Background(), "reader@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, int64(7), res.User.ID)
}

func TestErrorResponse(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials","code":"invalid_login"}`))
	})

	_, err := c.Login(context.Background(), "reader@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_login", apiErr.Code)
}

func TestErrorResponseWithoutJSONBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.SyncCart(context.Background(), "tok", nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.False(t, apiclient.IsUnauthorized(err))
}

func TestGetCartMapsLines(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"cart":[{"id":101,"title":"Dune","price":12.5,"quantity":2},{"id":202,"title":"Emma","price":"7.00","quantity":1}],"total":32}`))
	})

	items, err := c.GetCart(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{BookID: 101, Quantity: 2}, {BookID: 202, Quantity: 1}}, items)
}

func TestSyncCartSendsEmptyArray(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/cart/sync", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `[]`, string(body["cartItems"]))
		_, _ = w.Write([]byte(`{"message":"cart synchronized","cart":[],"total":0}`))
	})

	require.NoError(t, c.SyncCart(context.Background(), "tok", nil))
}

func TestWishlist(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/wishlist":
			_, _ = w.Write([]byte(`{"wishlist":[{"id":202,"title":"Emma","price":7}]}`))
		case "/api/wishlist/sync":
			var body struct {
				WishlistItems []models.WishlistEntry `json:"wishlistItems"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []models.WishlistEntry{{BookID: 101}}, body.WishlistItems)
			_, _ = w.Write([]byte(`{"wishlist":[]}`))
		case "/api/wishlist/toggle":
			_, _ = w.Write([]byte(`{"added":true,"wishlist":[]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	entries, err := c.GetWishlist(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, []models.WishlistEntry{{BookID: 202}}, entries)

	require.NoError(t, c.SyncWishlist(ctx, "tok", []models.WishlistEntry{{BookID: 101}}))

	added, err := c.ToggleWishlist(ctx, "tok", 101)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestPlaceOrderAsGuest(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"orderId":5,"orderNumber":"0190-abc"}`))
	})

	res, err := c.PlaceOrder(context.Background(), "", service.PlaceOrderRequest{
		FirstName:  "Ann",
		TotalPrice: decimal.RequireFromString("7.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.OrderID)
	assert.Equal(t, "0190-abc", res.OrderNumber)
}

func TestOrders(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/user/7", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":5,"orderNumber":"n","customerId":1,"totalPrice":7,"status":"pending","createdAt":"2024-01-02T03:04:05Z"}]`))
	})

	orders, err := c.Orders(context.Background(), "tok", 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "pending", orders[0].Status)
	assert.True(t, orders[0].TotalPrice.Equal(decimal.NewFromInt(7)))
}

func TestDeviceRequestID(t *testing.T) {
	var ids []string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-Id"))
		_, _ = w.Write([]byte(`{"cart":[]}`))
	})
	ctx := context.Background()

	_, err := c.GetCart(ctx, "tok")
	require.NoError(t, err)
	c.SetDeviceID("dev")
	_, err = c.GetCart(ctx, "tok")
	require.NoError(t, err)
	_, err = c.GetCart(ctx, "tok")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "dev-1", "dev-2"}, ids)
}
