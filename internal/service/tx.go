package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/storage"
)

// TxBeginner открывает транзакцию с ограниченным ожиданием соединения (storage.Pool)
type TxBeginner interface {
	BeginTx(ctx context.Context) (*storage.Tx, error)
}

// withTx выполняет fn в транзакции: ошибка fn откатывает её, иначе коммит.
// Ошибка коммита оборачивается в apperr.ErrTransactionFailure.
func withTx(ctx context.Context, db TxBeginner, logger *slog.Logger, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return err
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%w: commit: %w", apperr.ErrTransactionFailure, err)
	}
	return nil
}
