package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// OrderConfirmation - данные письма о принятом заказе
type OrderConfirmation struct {
	To           string
	CustomerName string
	OrderNumber  string
	PlacedAt     time.Time
	Items        []*models.OrderItem
	Total        decimal.Decimal
}

type confirmationLine struct {
	Title    string
	Quantity int
	Price    string
	Subtotal string
}

func RenderOrderConfirmation(d OrderConfirmation) (Message, error) {
	lines := make([]confirmationLine, 0, len(d.Items))
	for _, it := range d.Items {
		lines = append(lines, confirmationLine{
			Title:    it.Title,
			Quantity: it.Quantity,
			Price:    money(it.Price),
			Subtotal: money(it.LineTotal()),
		})
	}

	view := struct {
		CustomerName string
		OrderNumber  string
		PlacedAt     string
		Items        []confirmationLine
		Total        string
	}{
		CustomerName: d.CustomerName,
		OrderNumber:  d.OrderNumber,
		PlacedAt:     d.PlacedAt.UTC().Format("2006-01-02 15:04 MST"),
		Items:        lines,
		Total:        money(d.Total),
	}

	body, err := render("order_confirmation.html", view)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      d.To,
		Subject: "Order confirmation " + d.OrderNumber,
		HTML:    body,
	}, nil
}

// PasswordReset - данные письма со ссылкой на сброс пароля
type PasswordReset struct {
	To        string
	Username  string
	Link      string
	ExpiresIn time.Duration
}

func RenderPasswordReset(d PasswordReset) (Message, error) {
	view := struct {
		Username  string
		Link      string
		ExpiresIn string
	}{
		Username:  d.Username,
		Link:      d.Link,
		ExpiresIn: fmt.Sprintf("%d minutes", int(d.ExpiresIn.Minutes())),
	}

	body, err := render("password_reset.html", view)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      d.To,
		Subject: "Password reset",
		HTML:    body,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
