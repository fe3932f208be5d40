package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book представляет книгу каталога (таблица books)
type Book struct {
	ID                 int64            `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	OldPrice           *decimal.Decimal `json:"oldPrice,omitempty"`
	ImageURL           string           `json:"imageUrl,omitempty"`
	Rating             *decimal.Decimal `json:"rating,omitempty"`
	DiscountPercentage int              `json:"discountPercentage,omitempty"`
	Category           string           `json:"category,omitempty"`
	Year               int              `json:"year,omitempty"`
	Stock              int              `json:"stock"`
	AuthorID           *int64           `json:"authorId,omitempty"`
	AuthorName         string           `json:"authorName,omitempty"` // заполняется через LEFT JOIN с authors
	Type               string           `json:"type,omitempty"`
	ReleasedAt         *time.Time       `json:"releasedAt,omitempty"`
}

// BookSummary - краткая карточка книги для корзины и списка желаний
type BookSummary struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// Author представляет автора
type Author struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// BookFilter - параметры постраничного поиска по каталогу
type BookFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// BookPage - страница каталога
type BookPage struct {
	Books       []*Book `json:"books"`
	TotalItems  int     `json:"totalItems"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}
