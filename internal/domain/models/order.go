package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// CustomerInfo - снимок контактных данных покупателя на момент заказа
type CustomerInfo struct {
	ID        int64      `json:"id"`
	UserID    *int64     `json:"userId,omitempty"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Apartment string     `json:"apartment,omitempty"`
	State     string     `json:"state"`
	Country   string     `json:"country"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Gender    string     `json:"gender,omitempty"`
}

// Order - заголовок заказа
type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	CustomerID  int64           `json:"customerId"`
	UserID      *int64          `json:"userId,omitempty"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	Customer    *CustomerInfo   `json:"customer,omitempty"`
	Items       []*OrderItem    `json:"items,omitempty"`
}

// OrderItem - неизменяемый снимок названия и цены товара на момент заказа
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"` // заполняется через LEFT JOIN с books
}

// LineTotal price × quantity
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal сумма позиций заказа
func ItemsTotal(items []*OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
