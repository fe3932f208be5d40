package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/storage"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type CatalogService interface {
	ListBooks(ctx context.Context, filter models.BookFilter) (*models.BookPage, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	ListAuthors(ctx context.Context) ([]*models.Author, error)
}

type catalogService struct {
	log      *slog.Logger
	bookRepo storage.BookStorage
}

func NewCatalogService(log *slog.Logger, bookRepo storage.BookStorage) CatalogService {
	return &catalogService{log: log, bookRepo: bookRepo}
}

// normalizeFilter приводит страницу и лимит к допустимым значениям,
// поисковую строку - к NFC и сложенному регистру
func normalizeFilter(f models.BookFilter) models.BookFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	f.Search = cases.Fold().String(norm.NFC.String(strings.TrimSpace(f.Search)))
	f.Category = strings.TrimSpace(f.Category)
	return f
}

func (s *catalogService) ListBooks(ctx context.Context, filter models.BookFilter) (*models.BookPage, error) {
	const op = "service.CatalogService.ListBooks"
	filter = normalizeFilter(filter)

	books, total, err := s.bookRepo.ListBooks(ctx, filter)
	if err != nil {
		s.log.Error("failed to list books", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.BookPage{
		Books:       books,
		TotalItems:  total,
		TotalPages:  (total + filter.Limit - 1) / filter.Limit,
		CurrentPage: filter.Page,
	}, nil
}

func (s *catalogService) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	const op = "service.CatalogService.GetBook"

	book, err := s.bookRepo.GetBookByID(ctx, id)
	if err != nil {
		s.log.Warn("failed to get book", slog.String("op", op), slog.Int64("bookID", id), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return book, nil
}

func (s *catalogService) ListAuthors(ctx context.Context) ([]*models.Author, error) {
	const op = "service.CatalogService.ListAuthors"

	authors, err := s.bookRepo.ListAuthors(ctx)
	if err != nil {
		s.log.Error("failed to list authors", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if authors == nil {
		authors = []*models.Author{}
	}
	return authors, nil
}
