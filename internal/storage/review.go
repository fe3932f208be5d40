package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/bookstore/internal/domain/models"
)

type ReviewStorage interface {
	ListReviews(ctx context.Context) ([]*models.Review, error)
	ListReviewsByBook(ctx context.Context, bookID int64) ([]*models.Review, error)
	GetReviewByID(ctx context.Context, id int64) (*models.Review, error)
	// CreateReview - отзыв на несуществующую книгу возвращает ErrUnknownReference
	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id int64) error
}

type reviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) ReviewStorage {
	return &reviewRepository{db: db}
}

const reviewQuery = `
	SELECT r.id, r.book_id, r.user_id, u.username, b.title, r.rating, r.comment, r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id
	JOIN books b ON b.id = r.book_id`

func scanReview(row rowScanner) (*models.Review, error) {
	rv := &models.Review{}
	err := row.Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.Username, &rv.BookTitle, &rv.Rating, &rv.Comment,
		&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *reviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListReviews(ctx context.Context) ([]*models.Review, error) {
	return r.queryReviews(ctx, reviewQuery+" ORDER BY r.created_at DESC, r.id DESC")
}

func (r *reviewRepository) ListReviewsByBook(ctx context.Context, bookID int64) ([]*models.Review, error) {
	return r.queryReviews(ctx, reviewQuery+" WHERE r.book_id = $1 ORDER BY r.created_at DESC, r.id DESC", bookID)
}

func (r *reviewRepository) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewQuery+" WHERE r.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return rv, nil
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO reviews (book_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		review.BookID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", mapError(err))
	}
	return review, nil
}

func (r *reviewRepository) UpdateReview(ctx context.Context, review *models.Review) error {
	err := r.db.QueryRowContext(ctx,
		"UPDATE reviews SET rating = $1, comment = $2, updated_at = NOW() WHERE id = $3 RETURNING updated_at",
		review.Rating, review.Comment, review.ID,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}

func (r *reviewRepository) DeleteReview(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReviewNotFound
	}
	return nil
}
