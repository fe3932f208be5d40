// Package storage содержит репозитории поверх database/sql и lib/pq.
// Методы записи, которые должны идти в одной транзакции, принимают *sql.Tx.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/linemk/bookstore/internal/domain/apperr"
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrBookNotFound         = fmt.Errorf("book %w", apperr.ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order %w", apperr.ErrNotFound)
	ErrReviewNotFound       = fmt.Errorf("review %w", apperr.ErrNotFound)
	ErrWishlistItemNotFound = fmt.Errorf("wishlist item %w", apperr.ErrNotFound)
	// ErrUnknownReference - нарушение внешнего ключа, обычно ссылка на несуществующую книгу
	ErrUnknownReference = errors.New("referenced row does not exist")
)

// коды ошибок postgres
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqLockNotAvailable    = "55P03"
)

// mapError переводит ошибки драйвера в ошибки приложения
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrUnknownReference, pqErr.Constraint)
		case pqLockNotAvailable:
			return fmt.Errorf("resource is locked, please try again: %w", apperr.ErrServiceUnavailable)
		}
	}
	return err
}

// Pool ограничивает ожидание свободного соединения при открытии транзакции.
type Pool struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

func NewPool(db *sql.DB, acquireTimeout time.Duration) *Pool {
	return &Pool{db: db, acquireTimeout: acquireTimeout}
}

// DB отдаёт пул для запросов чтения
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Tx - транзакция на выделенном соединении.
// Commit и Rollback возвращают соединение в пул.
type Tx struct {
	*sql.Tx
	conn *sql.Conn
}

func (t *Tx) Commit() error {
	defer t.conn.Close()
	return t.Tx.Commit()
}

func (t *Tx) Rollback() error {
	defer t.conn.Close()
	return t.Tx.Rollback()
}

// BeginTx ждёт соединение не дольше acquireTimeout, иначе ErrServiceUnavailable.
// Сама транзакция живёт в контексте запроса.
func (p *Pool) BeginTx(ctx context.Context) (*Tx, error) {
	acquireCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire connection: %w", apperr.ErrServiceUnavailable)
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{Tx: tx, conn: conn}, nil
}

// likePattern экранирует спецсимволы ILIKE
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
