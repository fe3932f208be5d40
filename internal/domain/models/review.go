package models

import "time"

// Review - отзыв пользователя о книге
type Review struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"bookId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username,omitempty"`  // через JOIN с users
	BookTitle string    `json:"bookTitle,omitempty"` // через JOIN с books
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
