package models

import (
	"encoding/json"
	"time"
)

// Badge - справочная запись награды; Criteria хранится как jsonb и разбирается в пакете badge
type Badge struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Criteria    json.RawMessage `json:"criteria"`
	BaseBadgeID *int64          `json:"baseBadgeId,omitempty"`
}

// UserBadge - факт выдачи награды, уникален по (UserID, BadgeID) и никогда не отзывается
type UserBadge struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	BadgeID   int64     `json:"badgeId"`
	AwardedAt time.Time `json:"awardedAt"`
	Badge     *Badge    `json:"badge,omitempty"`
}
