package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/listsync"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/lib/validate"
	"github.com/linemk/bookstore/internal/storage"
	"github.com/shopspring/decimal"
)

// CartView - корзина с данными книг и итоговой суммой
type CartView struct {
	Items []*models.CartLine `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*CartView, error)
	// SyncCart заменяет корзину целиком
	SyncCart(ctx context.Context, userID int64, items []models.CartItem) (*CartView, error)
	// MergeCart сливает гостевую корзину с сохранённой, гостевые позиции побеждают
	MergeCart(ctx context.Context, userID int64, guest []models.CartItem) (*CartView, error)
}

type cartService struct {
	log      *slog.Logger
	db       TxBeginner
	userRepo storage.UserStorage
	cartRepo storage.CartStorage
}

func NewCartService(log *slog.Logger, db TxBeginner, userRepo storage.UserStorage, cartRepo storage.CartStorage) CartService {
	return &cartService{
		log:      log,
		db:       db,
		userRepo: userRepo,
		cartRepo: cartRepo,
	}
}

type syncCartInput struct {
	Items []models.CartItem `json:"items" validate:"unique=BookID,dive"`
}

type mergeCartInput struct {
	Items []models.CartItem `json:"items" validate:"dive"`
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	const op = "service.CartService.GetCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	lines, err := s.cartRepo.GetCartLines(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return &CartView{Items: lines, Total: total}, nil
}

func (s *cartService) SyncCart(ctx context.Context, userID int64, items []models.CartItem) (*CartView, error) {
	const op = "service.CartService.SyncCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if err := validate.Struct(syncCartInput{Items: items}); err != nil {
		logger.Warn("invalid cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.userRepo.LockUserByIDTx(ctx, tx, userID); err != nil {
			return err
		}
		return s.cartRepo.ReplaceCartTx(ctx, tx, userID, items)
	})
	if err != nil {
		logger.Error("failed to sync cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, unknownBook(err, "items"))
	}

	logger.Info("cart synced", slog.Int("items", len(items)))
	return s.GetCart(ctx, userID)
}

func (s *cartService) MergeCart(ctx context.Context, userID int64, guest []models.CartItem) (*CartView, error) {
	const op = "service.CartService.MergeCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if err := validate.Struct(mergeCartInput{Items: guest}); err != nil {
		logger.Warn("invalid guest cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var merged []models.CartItem
	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.userRepo.LockUserByIDTx(ctx, tx, userID); err != nil {
			return err
		}
		remote, err := s.cartRepo.GetCartItemsTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		merged = listsync.Merge(guest, remote)
		return s.cartRepo.ReplaceCartTx(ctx, tx, userID, merged)
	})
	if err != nil {
		logger.Error("failed to merge cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, unknownBook(err, "items"))
	}

	logger.Info("cart merged", slog.Int("guest", len(guest)), slog.Int("merged", len(merged)))
	return s.GetCart(ctx, userID)
}

// unknownBook превращает нарушение внешнего ключа в ошибку валидации поля
func unknownBook(err error, field string) error {
	if errors.Is(err, storage.ErrUnknownReference) {
		return apperr.NewValidation(field, "references an unknown book")
	}
	return err
}
