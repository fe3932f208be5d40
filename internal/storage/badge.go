package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/bookstore/internal/domain/models"
)

// BadgeStats - счётчики пользователя, из которых собирается событие для оценки наград
type BadgeStats struct {
	PurchaseCount    int
	ReviewCount      int
	CollectionSize   int // всего купленных экземпляров
	UniqueGenres     int
	MaxBooksByAuthor int
	// DaysSinceRelease - для заказа: сколько дней прошло с выхода самой свежей книги; nil, если дат выхода нет
	DaysSinceRelease *int
}

type BadgeStorage interface {
	ListBadgesTx(ctx context.Context, tx *sql.Tx) ([]*models.Badge, error)
	HeldBadgeIDsTx(ctx context.Context, tx *sql.Tx, userID int64) (map[int64]bool, error)
	// StatsTx считает счётчики; orderID == 0 - без данных о заказе
	StatsTx(ctx context.Context, tx *sql.Tx, userID, orderID int64) (BadgeStats, error)
	// GrantTx выдаёт награду; false, если она уже была
	GrantTx(ctx context.Context, tx *sql.Tx, userID, badgeID int64) (bool, error)
	ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error)
	// UpsertBadgeTx обновляет награду по имени, заполняет ID
	UpsertBadgeTx(ctx context.Context, tx *sql.Tx, badge *models.Badge) error
}

type badgeRepository struct {
	db *sql.DB
}

func NewBadgeRepository(db *sql.DB) BadgeStorage {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListBadgesTx(ctx context.Context, tx *sql.Tx) ([]*models.Badge, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, name, description, image_url, criteria, base_badge_id FROM badges ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []*models.Badge
	for rows.Next() {
		b := &models.Badge{}
		var criteria []byte
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.ImageURL, &criteria, &b.BaseBadgeID); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		b.Criteria = criteria
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *badgeRepository) HeldBadgeIDsTx(ctx context.Context, tx *sql.Tx, userID int64) (map[int64]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT badge_id FROM user_badges WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user badges: %w", err)
	}
	defer rows.Close()

	held := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		held[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return held, nil
}

const badgeStatsQuery = `
	WITH purchased AS (
		SELECT DISTINCT b.id, b.category, b.author_id
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN books b ON b.id = oi.product_id
		WHERE o.user_id = $1
	)
	SELECT
		(SELECT COUNT(*) FROM orders WHERE user_id = $1),
		(SELECT COUNT(*) FROM reviews WHERE user_id = $1),
		(SELECT COALESCE(SUM(oi.quantity), 0)::int
			FROM order_items oi JOIN orders o ON o.id = oi.order_id WHERE o.user_id = $1),
		(SELECT COUNT(DISTINCT category) FROM purchased WHERE category <> ''),
		(SELECT COALESCE(MAX(cnt), 0) FROM (
			SELECT COUNT(*) AS cnt FROM purchased WHERE author_id IS NOT NULL GROUP BY author_id
		) per_author),
		(SELECT MIN(EXTRACT(DAY FROM o.created_at - b.released_at))::int
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			JOIN books b ON b.id = oi.product_id
			WHERE oi.order_id = $2 AND b.released_at IS NOT NULL AND b.released_at <= o.created_at)`

func (r *badgeRepository) StatsTx(ctx context.Context, tx *sql.Tx, userID, orderID int64) (BadgeStats, error) {
	var s BadgeStats
	err := tx.QueryRowContext(ctx, badgeStatsQuery, userID, orderID).Scan(
		&s.PurchaseCount, &s.ReviewCount, &s.CollectionSize, &s.UniqueGenres, &s.MaxBooksByAuthor, &s.DaysSinceRelease)
	if err != nil {
		return BadgeStats{}, fmt.Errorf("failed to count badge stats: %w", err)
	}
	return s, nil
}

func (r *badgeRepository) GrantTx(ctx context.Context, tx *sql.Tx, userID, badgeID int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO user_badges (user_id, badge_id, awarded_at) VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, badge_id) DO NOTHING`, userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to grant badge: %w", mapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *badgeRepository) ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	query := `
		SELECT ub.id, ub.user_id, ub.badge_id, ub.awarded_at,
			b.name, b.description, b.image_url, b.criteria, b.base_badge_id
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.awarded_at, ub.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user badges: %w", err)
	}
	defer rows.Close()

	result := []*models.UserBadge{}
	for rows.Next() {
		ub := &models.UserBadge{Badge: &models.Badge{}}
		var criteria []byte
		if err := rows.Scan(&ub.ID, &ub.UserID, &ub.BadgeID, &ub.AwardedAt,
			&ub.Badge.Name, &ub.Badge.Description, &ub.Badge.ImageURL, &criteria, &ub.Badge.BaseBadgeID); err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		ub.Badge.ID = ub.BadgeID
		ub.Badge.Criteria = criteria
		result = append(result, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *badgeRepository) UpsertBadgeTx(ctx context.Context, tx *sql.Tx, badge *models.Badge) error {
	query := `
		INSERT INTO badges (name, description, image_url, criteria, base_badge_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			criteria = EXCLUDED.criteria,
			base_badge_id = EXCLUDED.base_badge_id
		RETURNING id`
	err := tx.QueryRowContext(ctx, query, badge.Name, badge.Description, badge.ImageURL,
		[]byte(badge.Criteria), badge.BaseBadgeID).Scan(&badge.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert badge %q: %w", badge.Name, mapError(err))
	}
	return nil
}
