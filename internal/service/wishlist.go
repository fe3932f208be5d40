package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/listsync"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/lib/validate"
	"github.com/linemk/bookstore/internal/storage"
)

type WishlistService interface {
	GetWishlist(ctx context.Context, userID int64) ([]models.BookSummary, error)
	AddItem(ctx context.Context, userID, bookID int64) ([]models.BookSummary, error)
	RemoveItem(ctx context.Context, userID, bookID int64) ([]models.BookSummary, error)
	// ToggleItem добавляет книгу, если её нет, иначе убирает; added сообщает, что произошло
	ToggleItem(ctx context.Context, userID, bookID int64) (added bool, list []models.BookSummary, err error)
	SyncWishlist(ctx context.Context, userID int64, entries []models.WishlistEntry) ([]models.BookSummary, error)
	MergeWishlist(ctx context.Context, userID int64, guest []models.WishlistEntry) ([]models.BookSummary, error)
}

type wishlistService struct {
	log          *slog.Logger
	db           TxBeginner
	userRepo     storage.UserStorage
	wishlistRepo storage.WishlistStorage
}

func NewWishlistService(log *slog.Logger, db TxBeginner, userRepo storage.UserStorage, wishlistRepo storage.WishlistStorage) WishlistService {
	return &wishlistService{
		log:          log,
		db:           db,
		userRepo:     userRepo,
		wishlistRepo: wishlistRepo,
	}
}

type wishlistInput struct {
	Items []models.WishlistEntry `json:"items" validate:"dive"`
}

func validBookID(bookID int64) error {
	if bookID <= 0 {
		return apperr.NewValidation("bookId", "must be greater than 0")
	}
	return nil
}

func (s *wishlistService) GetWishlist(ctx context.Context, userID int64) ([]models.BookSummary, error) {
	const op = "service.WishlistService.GetWishlist"

	books, err := s.wishlistRepo.GetWishlist(ctx, userID)
	if err != nil {
		s.log.Error("failed to get wishlist", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return books, nil
}

func (s *wishlistService) AddItem(ctx context.Context, userID, bookID int64) ([]models.BookSummary, error) {
	const op = "service.WishlistService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("bookID", bookID))

	if err := validBookID(bookID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.wishlistRepo.AddItem(ctx, userID, bookID); err != nil {
		logger.Error("failed to add wishlist item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, unknownBook(err, "bookId"))
	}
	return s.GetWishlist(ctx, userID)
}

// RemoveItem - отсутствующая книга даёт not found
func (s *wishlistService) RemoveItem(ctx context.Context, userID, bookID int64) ([]models.BookSummary, error) {
	const op = "service.WishlistService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("bookID", bookID))

	if err := s.wishlistRepo.RemoveItem(ctx, userID, bookID); err != nil {
		logger.Warn("failed to remove wishlist item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.GetWishlist(ctx, userID)
}

func (s *wishlistService) ToggleItem(ctx context.Context, userID, bookID int64) (bool, []models.BookSummary, error) {
	const op = "service.WishlistService.ToggleItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("bookID", bookID))

	if err := validBookID(bookID); err != nil {
		return false, nil, fmt.Errorf("%s: %w", op, err)
	}

	var added bool
	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.userRepo.LockUserByIDTx(ctx, tx, userID); err != nil {
			return err
		}
		current, err := s.wishlistRepo.GetEntriesTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		added = !listsync.Contains(current, bookID)
		return s.wishlistRepo.ReplaceWishlistTx(ctx, tx, userID, listsync.Toggle(current, models.WishlistEntry{BookID: bookID}))
	})
	if err != nil {
		logger.Error("failed to toggle wishlist item", slog.Any("error", err))
		return false, nil, fmt.Errorf("%s: %w", op, unknownBook(err, "bookId"))
	}

	list, err := s.GetWishlist(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	return added, list, nil
}

func (s *wishlistService) SyncWishlist(ctx context.Context, userID int64, entries []models.WishlistEntry) ([]models.BookSummary, error) {
	const op = "service.WishlistService.SyncWishlist"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if err := validate.Struct(wishlistInput{Items: entries}); err != nil {
		logger.Warn("invalid wishlist", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries = listsync.Dedupe(entries)

	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.userRepo.LockUserByIDTx(ctx, tx, userID); err != nil {
			return err
		}
		return s.wishlistRepo.ReplaceWishlistTx(ctx, tx, userID, entries)
	})
	if err != nil {
		logger.Error("failed to sync wishlist", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, unknownBook(err, "items"))
	}

	logger.Info("wishlist synced", slog.Int("items", len(entries)))
	return s.GetWishlist(ctx, userID)
}

func (s *wishlistService) MergeWishlist(ctx context.Context, userID int64, guest []models.WishlistEntry) ([]models.BookSummary, error) {
	const op = "service.WishlistService.MergeWishlist"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if err := validate.Struct(wishlistInput{Items: guest}); err != nil {
		logger.Warn("invalid guest wishlist", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		if err := s.userRepo.LockUserByIDTx(ctx, tx, userID); err != nil {
			return err
		}
		remote, err := s.wishlistRepo.GetEntriesTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		return s.wishlistRepo.ReplaceWishlistTx(ctx, tx, userID, listsync.Merge(guest, remote))
	})
	if err != nil {
		logger.Error("failed to merge wishlist", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, unknownBook(err, "items"))
	}

	logger.Info("wishlist merged", slog.Int("guest", len(guest)))
	return s.GetWishlist(ctx, userID)
}
