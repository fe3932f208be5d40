package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/linemk/bookstore/internal/domain/badge"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/storage"
	"gopkg.in/yaml.v3"
)

// BadgeTrigger - что произошло: типы событий и, для покупки, id заказа
type BadgeTrigger struct {
	Kinds   []badge.Kind
	OrderID int64
}

type BadgeService interface {
	BadgeAwarder
	ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error)
	SeedCatalog(ctx context.Context, entries []CatalogEntry) error
}

type badgeService struct {
	log       *slog.Logger
	db        TxBeginner
	badgeRepo storage.BadgeStorage
}

func NewBadgeService(log *slog.Logger, db TxBeginner, badgeRepo storage.BadgeStorage) BadgeService {
	return &badgeService{
		log:       log,
		db:        db,
		badgeRepo: badgeRepo,
	}
}

// eventFor собирает событие нужного типа из счётчиков пользователя
func eventFor(kind badge.Kind, stats storage.BadgeStats) badge.Event {
	ev := badge.Event{Type: kind}
	switch kind {
	case badge.KindPurchaseCount:
		ev.PurchaseCount = stats.PurchaseCount
	case badge.KindReviewCount:
		ev.ReviewCount = stats.ReviewCount
	case badge.KindCollectionSize:
		ev.CollectionSize = stats.CollectionSize
	case badge.KindGenreReadCount:
		ev.UniqueGenresCount = stats.UniqueGenres
	case badge.KindAuthorReadCount:
		ev.BooksByAuthorCount = stats.MaxBooksByAuthor
	case badge.KindNewReleasePurchase:
		if stats.DaysSinceRelease != nil {
			ev.IsNewReleasePurchase = true
			ev.DaysSinceRelease = *stats.DaysSinceRelease
		}
	}
	return ev
}

// Award - один проход оценки в одной транзакции. Пререквизиты проверяются
// по наградам, которые были до прохода. Если что-то падает, не выдаётся ничего.
func (s *badgeService) Award(ctx context.Context, userID int64, trigger BadgeTrigger) ([]*models.Badge, error) {
	const op = "service.BadgeService.Award"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	var granted []*models.Badge
	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		catalog, err := s.badgeRepo.ListBadgesTx(ctx, tx)
		if err != nil {
			return err
		}
		held, err := s.badgeRepo.HeldBadgeIDsTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		stats, err := s.badgeRepo.StatsTx(ctx, tx, userID, trigger.OrderID)
		if err != nil {
			return err
		}

		seen := make(map[int64]bool)
		warned := make(map[int64]bool)
		for _, kind := range trigger.Kinds {
			res := badge.Evaluate(catalog, held, eventFor(kind, stats))

			for _, sk := range res.Skipped {
				if warned[sk.Badge.ID] {
					continue
				}
				warned[sk.Badge.ID] = true
				logger.Warn("badge skipped", slog.String("badge", sk.Badge.Name), slog.String("reason", sk.Reason))
			}

			for _, b := range res.Granted {
				if seen[b.ID] {
					continue
				}
				seen[b.ID] = true
				inserted, err := s.badgeRepo.GrantTx(ctx, tx, userID, b.ID)
				if err != nil {
					return err
				}
				if inserted {
					granted = append(granted, b)
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("badge pass failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, b := range granted {
		logger.Info("badge granted", slog.Int64("badgeID", b.ID), slog.String("badge", b.Name))
	}
	return granted, nil
}

func (s *badgeService) ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	const op = "service.BadgeService.ListUserBadges"

	badges, err := s.badgeRepo.ListUserBadges(ctx, userID)
	if err != nil {
		s.log.Error("failed to list user badges", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return badges, nil
}

// CatalogEntry - награда из yaml каталога
type CatalogEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
	// Base - имя награды-пререквизита, объявленной выше в файле
	Base     string `yaml:"base"`
	Criteria struct {
		Type  string `yaml:"type"`
		Value int    `yaml:"value"`
		Days  int    `yaml:"days"`
	} `yaml:"criteria"`
}

type catalogFile struct {
	Badges []CatalogEntry `yaml:"badges"`
}

// LoadCatalog читает yaml каталог наград
func LoadCatalog(r io.Reader) ([]CatalogEntry, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode badge catalog: %w", err)
	}
	for i, e := range f.Badges {
		if e.Name == "" {
			return nil, fmt.Errorf("badge catalog: entry %d has no name", i)
		}
		if e.Criteria.Type == "" {
			return nil, fmt.Errorf("badge catalog: %q has no criteria type", e.Name)
		}
	}
	return f.Badges, nil
}

// SeedCatalog обновляет награды по имени в одной транзакции
func (s *badgeService) SeedCatalog(ctx context.Context, entries []CatalogEntry) error {
	const op = "service.BadgeService.SeedCatalog"
	logger := s.log.With(slog.String("op", op))

	err := withTx(ctx, s.db, logger, func(tx *sql.Tx) error {
		ids := make(map[string]int64, len(entries))
		for _, e := range entries {
			criteria, err := json.Marshal(map[string]any{
				"type":  e.Criteria.Type,
				"value": e.Criteria.Value,
				"days":  e.Criteria.Days,
			})
			if err != nil {
				return err
			}
			if _, err := badge.ParseCriterion(criteria); err != nil {
				return fmt.Errorf("badge %q: %w", e.Name, err)
			}

			b := &models.Badge{
				Name:        e.Name,
				Description: e.Description,
				ImageURL:    e.ImageURL,
				Criteria:    criteria,
			}
			if e.Base != "" {
				baseID, ok := ids[e.Base]
				if !ok {
					return fmt.Errorf("badge %q: base %q must be declared before it", e.Name, e.Base)
				}
				b.BaseBadgeID = &baseID
			}
			if err := s.badgeRepo.UpsertBadgeTx(ctx, tx, b); err != nil {
				return err
			}
			ids[b.Name] = b.ID
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to seed badge catalog", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("badge catalog seeded", slog.Int("badges", len(entries)))
	return nil
}
