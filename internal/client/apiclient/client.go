// Package apiclient - HTTP клиент к API книжного магазина для консольного клиента.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
)

// APIError - ответ сервера со статусом 4xx/5xx
type APIError struct {
	Status  int
	Message string
	Code    string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsUnauthorized - токен отсутствует, просрочен или отозван
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

type OrderResult struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

type Client struct {
	baseURL  string
	http     *http.Client
	deviceID string
	seq      atomic.Uint64
}

// New создаёт клиент. baseURL - адрес сервера без /api.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetDeviceID включает заголовок X-Request-Id вида "<device>-<n>",
// по нему запросы клиента находятся в логах сервера
func (c *Client) SetDeviceID(id string) {
	c.deviceID = id
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetBook возвращает карточку книги из каталога
func (c *Client) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/libros/%d", id), "", nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

type cartResponse struct {
	Cart []models.CartLine `json:"cart"`
}

// GetCart возвращает серверную корзину как список ссылок на книги
func (c *Client) GetCart(ctx context.Context, token string) ([]models.CartItem, error) {
	var res cartResponse
	if err := c.do(ctx, http.MethodGet, "/api/cart", token, nil, &res); err != nil {
		return nil, err
	}
	items := make([]models.CartItem, 0, len(res.Cart))
	for _, l := range res.Cart {
		items = append(items, models.CartItem{BookID: l.ID, Quantity: l.Quantity})
	}
	return items, nil
}

// SyncCart заменяет серверную корзину целиком
func (c *Client) SyncCart(ctx context.Context, token string, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	body := map[string][]models.CartItem{"cartItems": items}
	return c.do(ctx, http.MethodPut, "/api/cart/sync", token, body, nil)
}

type wishlistResponse struct {
	Added    *bool                `json:"added"`
	Wishlist []models.BookSummary `json:"wishlist"`
}

func (r wishlistResponse) entries() []models.WishlistEntry {
	out := make([]models.WishlistEntry, 0, len(r.Wishlist))
	for _, b := range r.Wishlist {
		out = append(out, models.WishlistEntry{BookID: b.ID})
	}
	return out
}

func (c *Client) GetWishlist(ctx context.Context, token string) ([]models.WishlistEntry, error) {
	var res wishlistResponse
	if err := c.do(ctx, http.MethodGet, "/api/wishlist", token, nil, &res); err != nil {
		return nil, err
	}
	return res.entries(), nil
}

// SyncWishlist заменяет серверный список желаний целиком
func (c *Client) SyncWishlist(ctx context.Context, token string, entries []models.WishlistEntry) error {
	if entries == nil {
		entries = []models.WishlistEntry{}
	}
	body := map[string][]models.WishlistEntry{"wishlistItems": entries}
	return c.do(ctx, http.MethodPut, "/api/wishlist/sync", token, body, nil)
}

// ToggleWishlist переключает книгу в серверном списке; added=true, если книга добавлена
func (c *Client) ToggleWishlist(ctx context.Context, token string, bookID int64) (bool, error) {
	var res wishlistResponse
	if err := c.do(ctx, http.MethodPost, "/api/wishlist/toggle", token, map[string]int64{"bookId": bookID}, &res); err != nil {
		return false, err
	}
	return res.Added != nil && *res.Added, nil
}

// PlaceOrder оформляет заказ. Пустой token - гостевой заказ.
func (c *Client) PlaceOrder(ctx context.Context, token string, req service.PlaceOrderRequest) (*OrderResult, error) {
	var res OrderResult
	if err := c.do(ctx, http.MethodPost, "/api/orders", token, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Orders(ctx context.Context, token string, userID int64) ([]*models.Order, error) {
	var orders []*models.Order
	path := fmt.Sprintf("/api/orders/user/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Request-Id", fmt.Sprintf("%s-%d", c.deviceID, c.seq.Add(1)))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string            `json:"message"`
			Code    string            `json:"code"`
			Fields  map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message, apiErr.Code, apiErr.Fields = payload.Message, payload.Code, payload.Fields
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
