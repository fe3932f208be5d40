package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/badge"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/lib/validate"
	"github.com/linemk/bookstore/internal/storage"
	"golang.org/x/text/unicode/norm"
)

// ReviewInput - тело создания и изменения отзыва
type ReviewInput struct {
	BookID  int64  `json:"bookId" validate:"gt=0"`
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// CreatedReview - отзыв и награды, выданные за него
type CreatedReview struct {
	Review *models.Review  `json:"review"`
	Badges []*models.Badge `json:"badges"`
}

type ReviewService interface {
	List(ctx context.Context) ([]*models.Review, error)
	ListByBook(ctx context.Context, bookID int64) ([]*models.Review, error)
	Create(ctx context.Context, userID int64, in ReviewInput) (*CreatedReview, error)
	Update(ctx context.Context, userID, reviewID int64, in ReviewInput) (*models.Review, error)
	Delete(ctx context.Context, userID, reviewID int64) error
}

type reviewService struct {
	log        *slog.Logger
	reviewRepo storage.ReviewStorage
	badges     BadgeAwarder
}

func NewReviewService(log *slog.Logger, reviewRepo storage.ReviewStorage, badges BadgeAwarder) ReviewService {
	return &reviewService{
		log:        log,
		reviewRepo: reviewRepo,
		badges:     badges,
	}
}

func normalizeComment(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (s *reviewService) List(ctx context.Context) ([]*models.Review, error) {
	const op = "service.ReviewService.List"

	reviews, err := s.reviewRepo.ListReviews(ctx)
	if err != nil {
		s.log.Error("failed to list reviews", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

func (s *reviewService) ListByBook(ctx context.Context, bookID int64) ([]*models.Review, error) {
	const op = "service.ReviewService.ListByBook"

	reviews, err := s.reviewRepo.ListReviewsByBook(ctx, bookID)
	if err != nil {
		s.log.Error("failed to list reviews", slog.String("op", op), slog.Int64("bookID", bookID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

// Create сохраняет отзыв и запускает проход наград review_count.
// Ошибка прохода не отменяет отзыв.
func (s *reviewService) Create(ctx context.Context, userID int64, in ReviewInput) (*CreatedReview, error) {
	const op = "service.ReviewService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("bookID", in.BookID))

	in.Comment = normalizeComment(in.Comment)
	if err := validate.Struct(in); err != nil {
		logger.Warn("invalid review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	review, err := s.reviewRepo.CreateReview(ctx, &models.Review{
		BookID:  in.BookID,
		UserID:  userID,
		Rating:  in.Rating,
		Comment: in.Comment,
	})
	if err != nil {
		logger.Error("failed to create review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, unknownBook(err, "bookId"))
	}
	logger.Info("review created", slog.Int64("reviewID", review.ID))

	granted, err := s.badges.Award(context.WithoutCancel(ctx), userID, BadgeTrigger{Kinds: []badge.Kind{badge.KindReviewCount}})
	if err != nil {
		logger.Error("failed to award badges", slog.Any("error", err))
		granted = nil
	}
	if granted == nil {
		granted = []*models.Badge{}
	}

	return &CreatedReview{Review: review, Badges: granted}, nil
}

// ownReview загружает отзыв и проверяет владельца
func (s *reviewService) ownReview(ctx context.Context, logger *slog.Logger, userID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("review not found")
		} else {
			logger.Error("failed to get review", slog.Any("error", err))
		}
		return nil, err
	}
	if review.UserID != userID {
		logger.Warn("review belongs to another user", slog.Int64("ownerID", review.UserID))
		return nil, apperr.ErrForbidden
	}
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, userID, reviewID int64, in ReviewInput) (*models.Review, error) {
	const op = "service.ReviewService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("reviewID", reviewID))

	review, err := s.ownReview(ctx, logger, userID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// книгу отзыва менять нельзя
	in.BookID = review.BookID
	in.Comment = normalizeComment(in.Comment)
	if err := validate.Struct(in); err != nil {
		logger.Warn("invalid review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	review.Rating = in.Rating
	review.Comment = in.Comment
	if err := s.reviewRepo.UpdateReview(ctx, review); err != nil {
		logger.Error("failed to update review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("review updated")
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, userID, reviewID int64) error {
	const op = "service.ReviewService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("reviewID", reviewID))

	if _, err := s.ownReview(ctx, logger, userID, reviewID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.reviewRepo.DeleteReview(ctx, reviewID); err != nil {
		logger.Error("failed to delete review", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("review deleted")
	return nil
}
