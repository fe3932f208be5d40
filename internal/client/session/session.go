// Package session ведёт состояние консольного клиента: гость или вошедший пользователь.
// При входе гостевые корзина и список желаний сливаются с серверными.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/linemk/bookstore/internal/client/apiclient"
	"github.com/linemk/bookstore/internal/client/gueststore"
	"github.com/linemk/bookstore/internal/domain/listsync"
	"github.com/linemk/bookstore/internal/domain/models"
)

type State int

const (
	Anonymous State = iota
	Reconciling
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Reconciling:
		return "reconciling"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrLoginInProgress  = errors.New("login already in progress")
	ErrNotAuthenticated = errors.New("not logged in")
)

// Remote - серверное API
type Remote interface {
	Login(ctx context.Context, email, password string) (*apiclient.AuthResult, error)
	GetCart(ctx context.Context, token string) ([]models.CartItem, error)
	SyncCart(ctx context.Context, token string, items []models.CartItem) error
	GetWishlist(ctx context.Context, token string) ([]models.WishlistEntry, error)
	SyncWishlist(ctx context.Context, token string, entries []models.WishlistEntry) error
	ToggleWishlist(ctx context.Context, token string, bookID int64) (bool, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

// Local - хранилище на стороне клиента
type Local interface {
	LoadCart(ctx context.Context) ([]models.CartItem, error)
	SaveCart(ctx context.Context, items []models.CartItem) error
	ClearCart(ctx context.Context) error
	LoadWishlist(ctx context.Context) ([]models.WishlistEntry, error)
	SaveWishlist(ctx context.Context, entries []models.WishlistEntry) error
	ClearWishlist(ctx context.Context) error
	SaveSession(ctx context.Context, sess gueststore.Session) error
	LoadSession(ctx context.Context) (gueststore.Session, bool, error)
	ClearSession(ctx context.Context) error
}

// LoginResult - списки после слияния, уже сохранённые на сервере
type LoginResult struct {
	User     models.PublicUser
	Cart     []models.CartItem
	Wishlist []models.WishlistEntry
}

type Session struct {
	log    *slog.Logger
	remote Remote
	local  Local

	mu    sync.Mutex
	state State
	auth  gueststore.Session
}

func New(log *slog.Logger, remote Remote, local Local) *Session {
	return &Session{log: log, remote: remote, local: local}
}

// Restore поднимает сохранённый вход из локального хранилища
func (s *Session) Restore(ctx context.Context) error {
	sess, ok, err := s.local.LoadSession(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.auth = sess
		s.state = Authenticated
	} else {
		s.auth = gueststore.Session{}
		s.state = Anonymous
	}
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Auth возвращает текущий вход; ok=false для гостя
func (s *Session) Auth() (gueststore.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth, s.state == Authenticated
}

// Login входит и переносит гостевые списки на сервер.
// Гостевые списки удаляются только после того, как сервер сохранил результат слияния.
// При ошибке сохранения сессия остаётся гостевой, гостевые списки не трогаются.
func (s *Session) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "session.Login"
	logger := s.log.With(slog.String("op", op))

	s.mu.Lock()
	if s.state == Reconciling {
		s.mu.Unlock()
		return nil, ErrLoginInProgress
	}
	s.state = Reconciling
	s.mu.Unlock()

	res, auth, err := s.reconcile(ctx, logger, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Anonymous
		s.auth = gueststore.Session{}
		return nil, err
	}
	s.state = Authenticated
	s.auth = auth
	return res, nil
}

func (s *Session) reconcile(ctx context.Context, logger *slog.Logger, email, password string) (*LoginResult, gueststore.Session, error) {
	authRes, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return nil, gueststore.Session{}, err
	}
	token := authRes.Token

	guestCart, err := s.local.LoadCart(ctx)
	if err != nil {
		return nil, gueststore.Session{}, fmt.Errorf("load guest cart: %w", err)
	}
	guestWishlist, err := s.local.LoadWishlist(ctx)
	if err != nil {
		return nil, gueststore.Session{}, fmt.Errorf("load guest wishlist: %w", err)
	}

	remoteCart, err := s.remote.GetCart(ctx, token)
	if err != nil {
		logger.Warn("failed to load user cart, merging into empty", slog.String("error", err.Error()))
		remoteCart = nil
	}
	remoteWishlist, err := s.remote.GetWishlist(ctx, token)
	if err != nil {
		logger.Warn("failed to load user wishlist, merging into empty", slog.String("error", err.Error()))
		remoteWishlist = nil
	}

	cart, err := persistMerged(ctx, logger, s.remote, guestCart, remoteCart,
		func(items []models.CartItem) error { return s.remote.SyncCart(ctx, token, items) })
	if err != nil {
		logger.Error("failed to persist merged cart", slog.String("error", err.Error()))
		return nil, gueststore.Session{}, fmt.Errorf("persist cart: %w", err)
	}
	wishlist, err := persistMerged(ctx, logger, s.remote, guestWishlist, remoteWishlist,
		func(entries []models.WishlistEntry) error { return s.remote.SyncWishlist(ctx, token, entries) })
	if err != nil {
		logger.Error("failed to persist merged wishlist", slog.String("error", err.Error()))
		return nil, gueststore.Session{}, fmt.Errorf("persist wishlist: %w", err)
	}

	auth := gueststore.Session{Token: token, UserID: authRes.User.ID, Username: authRes.User.Username}
	if err := s.local.SaveSession(ctx, auth); err != nil {
		return nil, gueststore.Session{}, err
	}

	// сервер уже подтвердил слияние, повторный перенос тех же позиций ничего не меняет
	if err := s.local.ClearCart(ctx); err != nil {
		logger.Warn("failed to clear guest cart", slog.String("error", err.Error()))
	}
	if err := s.local.ClearWishlist(ctx); err != nil {
		logger.Warn("failed to clear guest wishlist", slog.String("error", err.Error()))
	}

	logger.Info("guest lists reconciled",
		slog.Int64("user_id", auth.UserID),
		slog.Int("cart_items", len(cart)),
		slog.Int("wishlist_items", len(wishlist)),
	)
	return &LoginResult{User: authRes.User, Cart: cart, Wishlist: wishlist}, auth, nil
}

// persistMerged сохраняет слияние guest и remote. Если сервер отверг список как невалидный,
// из гостевых позиций убираются книги, которых больше нет в каталоге, и сохранение повторяется.
// Иначе такая позиция делала бы вход невозможным при каждой попытке.
func persistMerged[T listsync.Keyed](ctx context.Context, logger *slog.Logger, remote Remote, guest, server []T, save func([]T) error) ([]T, error) {
	merged := listsync.Merge(guest, server)
	err := save(merged)
	if err == nil || !isRejected(err) {
		return merged, err
	}

	kept, dropped, lookupErr := dropUnknownBooks(ctx, remote, guest, server)
	if lookupErr != nil {
		logger.Warn("failed to check guest books against the catalog", slog.String("error", lookupErr.Error()))
		return nil, err
	}
	if len(dropped) == 0 {
		return nil, err
	}
	logger.Warn("dropping guest entries for books missing from the catalog", slog.Any("book_ids", dropped))

	merged = listsync.Merge(kept, server)
	if err := save(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// isRejected - сервер ответил 400 на содержимое списка
func isRejected(err error) bool {
	var apiErr *apiclient.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

// dropUnknownBooks проверяет по каталогу гостевые позиции, которых нет в серверном списке
func dropUnknownBooks[T listsync.Keyed](ctx context.Context, remote Remote, guest, server []T) ([]T, []int64, error) {
	kept := make([]T, 0, len(guest))
	var dropped []int64
	for _, item := range guest {
		if listsync.Contains(server, item.Key()) {
			kept = append(kept, item)
			continue
		}
		_, err := remote.GetBook(ctx, item.Key())
		var apiErr *apiclient.APIError
		switch {
		case err == nil:
			kept = append(kept, item)
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
			dropped = append(dropped, item.Key())
		default:
			return nil, nil, err
		}
	}
	return kept, dropped, nil
}

// Logout забывает токен; дальше клиент работает как гость с пустыми списками
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Reconciling {
		return ErrLoginInProgress
	}
	if err := s.local.ClearSession(ctx); err != nil {
		return err
	}
	s.state = Anonymous
	s.auth = gueststore.Session{}
	return nil
}

// token возвращает токен, если пользователь вошёл
func (s *Session) token() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Reconciling:
		return "", false, ErrLoginInProgress
	case Authenticated:
		return s.auth.Token, true, nil
	default:
		return "", false, nil
	}
}

func (s *Session) Cart(ctx context.Context) ([]models.CartItem, error) {
	token, authed, err := s.token()
	if err != nil {
		return nil, err
	}
	if authed {
		return s.remote.GetCart(ctx, token)
	}
	return s.local.LoadCart(ctx)
}

// AddToCart увеличивает количество книги в корзине или добавляет её в конец
func (s *Session) AddToCart(ctx context.Context, bookID int64, quantity int) ([]models.CartItem, error) {
	return s.updateCart(ctx, func(items []models.CartItem) []models.CartItem {
		out := make([]models.CartItem, 0, len(items)+1)
		found := false
		for _, it := range items {
			if it.BookID == bookID {
				it.Quantity += quantity
				found = true
			}
			out = append(out, it)
		}
		if !found {
			out = append(out, models.CartItem{BookID: bookID, Quantity: quantity})
		}
		return out
	})
}

func (s *Session) RemoveFromCart(ctx context.Context, bookID int64) ([]models.CartItem, error) {
	return s.updateCart(ctx, func(items []models.CartItem) []models.CartItem {
		out, _ := listsync.Remove(items, bookID)
		return out
	})
}

func (s *Session) updateCart(ctx context.Context, change func([]models.CartItem) []models.CartItem) ([]models.CartItem, error) {
	token, authed, err := s.token()
	if err != nil {
		return nil, err
	}
	if !authed {
		items, err := s.local.LoadCart(ctx)
		if err != nil {
			return nil, err
		}
		items = change(items)
		return items, s.local.SaveCart(ctx, items)
	}

	items, err := s.remote.GetCart(ctx, token)
	if err != nil {
		return nil, err
	}
	items = change(items)
	return items, s.remote.SyncCart(ctx, token, items)
}

func (s *Session) Wishlist(ctx context.Context) ([]models.WishlistEntry, error) {
	token, authed, err := s.token()
	if err != nil {
		return nil, err
	}
	if authed {
		return s.remote.GetWishlist(ctx, token)
	}
	return s.local.LoadWishlist(ctx)
}

// ToggleWishlist добавляет книгу в список желаний или убирает её; added=true, если добавлена
func (s *Session) ToggleWishlist(ctx context.Context, bookID int64) (bool, error) {
	token, authed, err := s.token()
	if err != nil {
		return false, err
	}
	if authed {
		return s.remote.ToggleWishlist(ctx, token, bookID)
	}

	entries, err := s.local.LoadWishlist(ctx)
	if err != nil {
		return false, err
	}
	added := !listsync.Contains(entries, bookID)
	entries = listsync.Toggle(entries, models.WishlistEntry{BookID: bookID})
	return added, s.local.SaveWishlist(ctx, entries)
}

// ClearCart очищает корзину после оформления заказа
func (s *Session) ClearCart(ctx context.Context) error {
	_, err := s.updateCart(ctx, func([]models.CartItem) []models.CartItem {
		return []models.CartItem{}
	})
	return err
}
