package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
)

// WishlistItemRequest - тело POST /wishlist/add и /wishlist/toggle
type WishlistItemRequest struct {
	BookID int64 `json:"bookId"`
}

// WishlistRequest - тело PUT /wishlist/sync и POST /wishlist/merge
type WishlistRequest struct {
	WishlistItems []models.WishlistEntry `json:"wishlistItems"`
}

type WishlistResponse struct {
	Message  string               `json:"message,omitempty"`
	Added    *bool                `json:"added,omitempty"`
	Wishlist []models.BookSummary `json:"wishlist"`
}

func wishlistResponse(msg string, list []models.BookSummary) WishlistResponse {
	if list == nil {
		list = []models.BookSummary{}
	}
	return WishlistResponse{Message: msg, Wishlist: list}
}

// GetWishlistHandler обрабатывает GET /api/wishlist
func GetWishlistHandler(log *slog.Logger, wishlistService service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetWishlistHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		list, err := wishlistService.GetWishlist(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, wishlistResponse("", list))
	}
}

// AddWishlistItemHandler обрабатывает POST /api/wishlist/add
func AddWishlistItemHandler(log *slog.Logger, wishlistService service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddWishlistItemHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var req WishlistItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		list, err := wishlistService.AddItem(r.Context(), userID, req.BookID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, wishlistResponse("book added to wishlist", list))
	}
}

// ToggleWishlistItemHandler обрабатывает POST /api/wishlist/toggle
func ToggleWishlistItemHandler(log *slog.Logger, wishlistService service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ToggleWishlistItemHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var req WishlistItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		added, list, err := wishlistService.ToggleItem(r.Context(), userID, req.BookID)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		msg := "book removed from wishlist"
		if added {
			msg = "book added to wishlist"
		}
		resp := wishlistResponse(msg, list)
		resp.Added = &added
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// RemoveWishlistItemHandler обрабатывает DELETE /api/wishlist/remove/{bookId}
func RemoveWishlistItemHandler(log *slog.Logger, wishlistService service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveWishlistItemHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		bookID, err := pathID(r, "bookId")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		list, err := wishlistService.RemoveItem(r.Context(), userID, bookID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, wishlistResponse("book removed from wishlist", list))
	}
}

// SyncWishlistHandler обрабатывает PUT /api/wishlist/sync
func SyncWishlistHandler(log *slog.Logger, wishlistService service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SyncWishlistHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var req WishlistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		list, err := wishlistService.SyncWishlist(r.Context(), userID, req.WishlistItems)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, wishlistResponse("wishlist synced", list))
	}
}

// MergeWishlistHandler обрабатывает POST /api/wishlist/merge
func MergeWishlistHandler(log *slog.Logger, wishlistService service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MergeWishlistHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var req WishlistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		list, err := wishlistService.MergeWishlist(r.Context(), userID, req.WishlistItems)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, wishlistResponse("wishlist merged", list))
	}
}
