package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/bookstore/internal/domain/models"
)

// CartStorage - корзина пользователя в таблице cart_items
type CartStorage interface {
	// GetCartLines возвращает позиции вместе с книгами; строки исчезнувших книг отбрасываются
	GetCartLines(ctx context.Context, userID int64) ([]*models.CartLine, error)
	GetCartItemsTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartItem, error)
	// ReplaceCartTx заменяет корзину целиком; неизвестная книга - ErrUnknownReference
	ReplaceCartTx(ctx context.Context, tx *sql.Tx, userID int64, items []models.CartItem) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetCartLines(ctx context.Context, userID int64) ([]*models.CartLine, error) {
	query := `
		SELECT b.id, b.title, b.price, b.image_url, c.quantity
		FROM cart_items c
		JOIN books b ON b.id = c.book_id
		WHERE c.user_id = $1
		ORDER BY c.position, c.book_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := []*models.CartLine{}
	for rows.Next() {
		l := &models.CartLine{}
		if err := rows.Scan(&l.ID, &l.Title, &l.Price, &l.ImageURL, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepository) GetCartItemsTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartItem, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT book_id, quantity FROM cart_items WHERE user_id = $1 ORDER BY position, book_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.BookID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) ReplaceCartTx(ctx context.Context, tx *sql.Tx, userID int64, items []models.CartItem) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	bookIDs := make([]int64, len(items))
	quantities := make([]int64, len(items))
	for i, it := range items {
		bookIDs[i] = it.BookID
		quantities[i] = int64(it.Quantity)
	}

	query := `
		INSERT INTO cart_items (user_id, book_id, quantity, position)
		SELECT $1, t.book_id, t.quantity, t.position
		FROM unnest($2::bigint[], $3::int[]) WITH ORDINALITY AS t(book_id, quantity, position)`
	if _, err := tx.ExecContext(ctx, query, userID, pq.Array(bookIDs), pq.Array(quantities)); err != nil {
		return fmt.Errorf("failed to insert cart items: %w", mapError(err))
	}
	return nil
}
