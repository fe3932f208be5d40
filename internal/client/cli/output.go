package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/linemk/bookstore/internal/domain/models"
)

type printer struct {
	w      io.Writer
	asJSON bool
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, asJSON: format == "json"}
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) cart(items []models.CartItem) error {
	if p.asJSON {
		return p.json(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(p.w, "cart is empty")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(p.w, "%d\tx%d\n", it.BookID, it.Quantity)
	}
	return nil
}

func (p *printer) wishlist(entries []models.WishlistEntry) error {
	if p.asJSON {
		return p.json(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(p.w, "wishlist is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(p.w, "%d\n", e.BookID)
	}
	return nil
}

func (p *printer) orders(orders []*models.Order) error {
	if p.asJSON {
		return p.json(orders)
	}
	if len(orders) == 0 {
		fmt.Fprintln(p.w, "no orders yet")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(p.w, "%s\t%s\t%s\t%s\n", o.OrderNumber, o.CreatedAt.Format("2006-01-02"),
			o.TotalPrice.StringFixed(2), o.Status)
		for _, it := range o.Items {
			fmt.Fprintf(p.w, "  %d\t%s\tx%d\t%s\n", it.ProductID, it.Title, it.Quantity, it.Price.StringFixed(2))
		}
	}
	return nil
}

// status печатает короткое сообщение об успехе
func (p *printer) status(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.asJSON {
		return p.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.w, color.GreenString("✓"), msg)
	return err
}
