package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/bookstore/internal/domain/models"
)

// WishlistStorage - список желаний хранит только ссылки на книги
type WishlistStorage interface {
	GetWishlist(ctx context.Context, userID int64) ([]models.BookSummary, error)
	AddItem(ctx context.Context, userID, bookID int64) error
	RemoveItem(ctx context.Context, userID, bookID int64) error
	GetEntriesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.WishlistEntry, error)
	ReplaceWishlistTx(ctx context.Context, tx *sql.Tx, userID int64, entries []models.WishlistEntry) error
}

type wishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) WishlistStorage {
	return &wishlistRepository{db: db}
}

// GetWishlist разрешает ссылки в карточки книг в момент чтения
func (r *wishlistRepository) GetWishlist(ctx context.Context, userID int64) ([]models.BookSummary, error) {
	query := `
		SELECT b.id, b.title, b.price, b.image_url
		FROM wishlist_items w
		JOIN books b ON b.id = w.book_id
		WHERE w.user_id = $1
		ORDER BY w.position, w.added_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	books := []models.BookSummary{}
	for rows.Next() {
		var b models.BookSummary
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// AddItem идемпотентен: повторное добавление ничего не меняет
func (r *wishlistRepository) AddItem(ctx context.Context, userID, bookID int64) error {
	query := `
		INSERT INTO wishlist_items (user_id, book_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM wishlist_items WHERE user_id = $1
		ON CONFLICT (user_id, book_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, bookID); err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", mapError(err))
	}
	return nil
}

func (r *wishlistRepository) RemoveItem(ctx context.Context, userID, bookID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM wishlist_items WHERE user_id = $1 AND book_id = $2", userID, bookID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWishlistItemNotFound
	}
	return nil
}

func (r *wishlistRepository) GetEntriesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.WishlistEntry, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT book_id FROM wishlist_items WHERE user_id = $1 ORDER BY position, added_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist entries: %w", err)
	}
	defer rows.Close()

	entries := []models.WishlistEntry{}
	for rows.Next() {
		var e models.WishlistEntry
		if err := rows.Scan(&e.BookID); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *wishlistRepository) ReplaceWishlistTx(ctx context.Context, tx *sql.Tx, userID int64, entries []models.WishlistEntry) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM wishlist_items WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	bookIDs := make([]int64, len(entries))
	for i, e := range entries {
		bookIDs[i] = e.BookID
	}

	query := `
		INSERT INTO wishlist_items (user_id, book_id, position)
		SELECT $1, t.book_id, t.position
		FROM unnest($2::bigint[]) WITH ORDINALITY AS t(book_id, position)`
	if _, err := tx.ExecContext(ctx, query, userID, pq.Array(bookIDs)); err != nil {
		return fmt.Errorf("failed to insert wishlist items: %w", mapError(err))
	}
	return nil
}
