package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/bookstore/internal/app/handlers"
	"github.com/linemk/bookstore/internal/config"
	"github.com/linemk/bookstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/bookstore/internal/lib/logger/handlers/urllog"
	"github.com/linemk/bookstore/internal/service"
	"github.com/linemk/bookstore/internal/storage"
	"github.com/rs/cors"
)

// AuthService - аутентификация и источник пользователей для middleware
type AuthService interface {
	service.AuthServiceInterface
	jwtmiddleware.UserResolver
}

// Services - бизнес-логика, которую обслуживает HTTP слой
type Services struct {
	Auth     AuthService
	Cart     service.CartService
	Wishlist service.WishlistService
	Order    service.OrderService
	Badge    service.BadgeService
	Review   service.ReviewService
	Catalog  service.CatalogService
}

// NewServices собирает сервисы поверх postgres
func (a *App) NewServices() *Services {
	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(a.DB)
	bookRepo := storage.NewBookRepository(a.DB)
	cartRepo := storage.NewCartRepository(a.DB)
	wishlistRepo := storage.NewWishlistRepository(a.DB)
	orderRepo := storage.NewOrderRepository(a.DB)
	reviewRepo := storage.NewReviewRepository(a.DB)
	badgeRepo := storage.NewBadgeRepository(a.DB)

	badgeService := service.NewBadgeService(a.Logger, a.Pool, badgeRepo)

	return &Services{
		Auth: service.NewAuthService(a.Logger, userRepo, a.Mailer, service.AuthConfig{
			Secret:        a.Config.JWT.Secret,
			TokenTTL:      time.Duration(a.Config.JWT.TokenTTL) * time.Minute,
			ResetTokenTTL: time.Duration(a.Config.JWT.ResetTokenTTL) * time.Minute,
			FrontendURL:   a.Config.SMTP.FrontendURL,
		}),
		Cart:     service.NewCartService(a.Logger, a.Pool, userRepo, cartRepo),
		Wishlist: service.NewWishlistService(a.Logger, a.Pool, userRepo, wishlistRepo),
		Order:    service.NewOrderService(a.Logger, a.Pool, orderRepo, a.Mailer, badgeService),
		Badge:    badgeService,
		Review:   service.NewReviewService(a.Logger, reviewRepo, badgeService),
		Catalog:  service.NewCatalogService(a.Logger, bookRepo),
	}
}

// NewRouter описывает HTTP API. Все маршруты живут под /api.
func NewRouter(log *slog.Logger, cfg *config.Config, s *Services) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)
	if cfg.HTTPServer.Timeout > 0 {
		router.Use(middleware.Timeout(cfg.HTTPServer.Timeout))
	}

	requireAuth := jwtmiddleware.New(cfg.JWT.Secret, s.Auth)
	optionalAuth := jwtmiddleware.NewOptional(cfg.JWT.Secret, s.Auth)

	router.Route("/api", func(r chi.Router) {
		// эндпоинты для аутентификации
		r.Post("/auth/register", handlers.RegisterHandler(log, s.Auth))
		r.Post("/auth/login", handlers.LoginHandler(log, s.Auth))
		r.Post("/auth/forgot-password", handlers.ForgotPasswordHandler(log, s.Auth))
		r.Post("/auth/reset-password", handlers.ResetPasswordHandler(log, s.Auth))

		// каталог и отзывы читаются без токена
		r.Get("/libros", handlers.ListBooksHandler(log, s.Catalog))
		r.Get("/libros/{id}", handlers.GetBookHandler(log, s.Catalog))
		r.Get("/authors", handlers.ListAuthorsHandler(log, s.Catalog))
		r.Get("/reviews", handlers.ListReviewsHandler(log, s.Review))
		r.Get("/reviews/{id}", handlers.BookReviewsHandler(log, s.Review))

		// гостевое оформление заказа
		r.With(optionalAuth).Post("/orders", handlers.PlaceOrderHandler(log, s.Order))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/me", handlers.MeHandler(log))
			r.Get("/badges/me", handlers.MyBadgesHandler(log, s.Badge))

			r.Get("/cart", handlers.GetCartHandler(log, s.Cart))
			r.Put("/cart/sync", handlers.SyncCartHandler(log, s.Cart))
			r.Post("/cart/merge", handlers.MergeCartHandler(log, s.Cart))

			r.Get("/wishlist", handlers.GetWishlistHandler(log, s.Wishlist))
			r.Post("/wishlist/add", handlers.AddWishlistItemHandler(log, s.Wishlist))
			r.Post("/wishlist/toggle", handlers.ToggleWishlistItemHandler(log, s.Wishlist))
			r.Delete("/wishlist/remove/{bookId}", handlers.RemoveWishlistItemHandler(log, s.Wishlist))
			r.Put("/wishlist/sync", handlers.SyncWishlistHandler(log, s.Wishlist))
			r.Post("/wishlist/merge", handlers.MergeWishlistHandler(log, s.Wishlist))

			r.Get("/orders/user/{userId}", handlers.UserOrdersHandler(log, s.Order))
			r.Get("/orders/{orderId}/items", handlers.OrderItemsHandler(log, s.Order))

			r.Post("/reviews", handlers.CreateReviewHandler(log, s.Review))
			r.Put("/reviews/{id}", handlers.UpdateReviewHandler(log, s.Review))
			r.Delete("/reviews/{id}", handlers.DeleteReviewHandler(log, s.Review))
		})
	})

	return router
}
