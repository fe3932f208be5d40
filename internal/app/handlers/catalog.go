package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
)

// ListBooksHandler обрабатывает GET /api/libros?page&limit&search&category
func ListBooksHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListBooksHandler"
		logger := log.With(slog.String("op", op))

		page, err := queryInt(r, "page")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		q := r.URL.Query()
		result, err := catalogService.ListBooks(r.Context(), models.BookFilter{
			Search:   q.Get("search"),
			Category: q.Get("category"),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if result.Books == nil {
			result.Books = []*models.Book{}
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// GetBookHandler обрабатывает GET /api/libros/{id}
func GetBookHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GetBookHandler"))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		book, err := catalogService.GetBook(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, book)
	}
}

// ListAuthorsHandler обрабатывает GET /api/authors
func ListAuthorsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListAuthorsHandler"))

		authors, err := catalogService.ListAuthors(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, authors)
	}
}
