package models

import "github.com/shopspring/decimal"

// CartItem - строка корзины пользователя, уникальна по (userID, bookID)
type CartItem struct {
	BookID   int64 `json:"bookId" validate:"gt=0"`
	Quantity int   `json:"quantity" validate:"gte=1"`
}

// Key возвращает идентичность позиции для слияния списков
func (c CartItem) Key() int64 { return c.BookID }

// WishlistEntry - ссылка на книгу в списке желаний, без количества
type WishlistEntry struct {
	BookID int64 `json:"bookId" validate:"gt=0"`
}

func (w WishlistEntry) Key() int64 { return w.BookID }

// CartLine - позиция корзины вместе с данными книги, собирается при чтении
type CartLine struct {
	BookSummary
	Quantity int `json:"quantity"`
}

// Subtotal цена позиции
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
