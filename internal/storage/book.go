package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/bookstore/internal/domain/models"
)

// BookStorage - чтение каталога
type BookStorage interface {
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, int, error)
	GetBookByID(ctx context.Context, id int64) (*models.Book, error)
	// GetBookSummaries возвращает карточки существующих книг; отсутствующие id пропускаются
	GetBookSummaries(ctx context.Context, ids []int64) (map[int64]models.BookSummary, error)
	ListAuthors(ctx context.Context) ([]*models.Author, error)
}

type bookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) BookStorage {
	return &bookRepository{db: db}
}

const bookColumns = `b.id, b.title, b.description, b.price, b.old_price, b.image_url, b.rating,
	b.discount_percentage, b.category, b.year, b.stock, b.author_id, COALESCE(a.name, ''), b.type, b.released_at`

const bookFilter = `
	FROM books b
	LEFT JOIN authors a ON a.id = b.author_id
	WHERE ($1 = '' OR b.title ILIKE $2 OR a.name ILIKE $2)
	  AND ($3 = '' OR b.category = $3)`

func scanBook(row rowScanner) (*models.Book, error) {
	b := &models.Book{}
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.Price, &b.OldPrice, &b.ImageURL, &b.Rating,
		&b.DiscountPercentage, &b.Category, &b.Year, &b.Stock, &b.AuthorID, &b.AuthorName, &b.Type, &b.ReleasedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks возвращает страницу книг и общее число подходящих под фильтр
func (r *bookRepository) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, int, error) {
	pattern := likePattern(filter.Search)

	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+bookFilter, filter.Search, pattern, filter.Category).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookColumns+bookFilter+" ORDER BY b.id LIMIT $4 OFFSET $5",
		filter.Search, pattern, filter.Category, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := make([]*models.Book, 0, filter.Limit)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books b LEFT JOIN authors a ON a.id = b.author_id WHERE b.id = $1", id)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *bookRepository) GetBookSummaries(ctx context.Context, ids []int64) (map[int64]models.BookSummary, error) {
	summaries := make(map[int64]models.BookSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, price, image_url FROM books WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query book summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.BookSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Price, &s.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan book summary: %w", err)
		}
		summaries[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *bookRepository) ListAuthors(ctx context.Context) ([]*models.Author, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, bio, image_url FROM authors ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query authors: %w", err)
	}
	defer rows.Close()

	var authors []*models.Author
	for rows.Next() {
		a := &models.Author{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return authors, nil
}
