package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
)

type CreateReviewResponse struct {
	Message string          `json:"message"`
	Review  *models.Review  `json:"review"`
	Badges  []*models.Badge `json:"badges"`
}

type ReviewResponse struct {
	Message string         `json:"message"`
	Review  *models.Review `json:"review"`
}

func reviewList(reviews []*models.Review) []*models.Review {
	if reviews == nil {
		return []*models.Review{}
	}
	return reviews
}

// ListReviewsHandler обрабатывает GET /api/reviews
func ListReviewsHandler(log *slog.Logger, reviewService service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListReviewsHandler"))

		reviews, err := reviewService.List(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, reviewList(reviews))
	}
}

// BookReviewsHandler обрабатывает GET /api/reviews/{id}, где id - книга
func BookReviewsHandler(log *slog.Logger, reviewService service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.BookReviewsHandler"))

		bookID, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		reviews, err := reviewService.ListByBook(r.Context(), bookID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, reviewList(reviews))
	}
}

// CreateReviewHandler обрабатывает POST /api/reviews; в ответе - новые награды за отзыв
func CreateReviewHandler(log *slog.Logger, reviewService service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateReviewHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var in service.ReviewInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, logger, err)
			return
		}

		created, err := reviewService.Create(r.Context(), userID, in)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, CreateReviewResponse{
			Message: "review created",
			Review:  created.Review,
			Badges:  created.Badges,
		})
	}
}

// UpdateReviewHandler обрабатывает PUT /api/reviews/{id}
func UpdateReviewHandler(log *slog.Logger, reviewService service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateReviewHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		reviewID, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var in service.ReviewInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, logger, err)
			return
		}

		review, err := reviewService.Update(r.Context(), userID, reviewID, in)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ReviewResponse{Message: "review updated", Review: review})
	}
}

// DeleteReviewHandler обрабатывает DELETE /api/reviews/{id}
func DeleteReviewHandler(log *slog.Logger, reviewService service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteReviewHandler"
		logger := log.With(slog.String("op", op))

		userID, err := requireUser(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		reviewID, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		if err := reviewService.Delete(r.Context(), userID, reviewID); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
