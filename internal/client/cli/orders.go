package cli

import (
	"context"
	"errors"

	"github.com/linemk/bookstore/internal/client/session"
	"github.com/linemk/bookstore/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func NewCheckoutCommand(opts *RootOptions) *cobra.Command {
	var req service.PlaceOrderRequest
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Long:  "Place an order for the current cart. Works without login as a guest checkout.",
		Args:  cobra.NoArgs,
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			items, err := e.session.Cart(ctx)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return errors.New("cart is empty")
			}

			// цены и названия берём из каталога на момент заказа
			order := req
			order.Products = make([]service.OrderProduct, 0, len(items))
			order.TotalPrice = decimal.Zero
			for _, it := range items {
				book, err := e.client.GetBook(ctx, it.BookID)
				if err != nil {
					return err
				}
				order.Products = append(order.Products, service.OrderProduct{
					ProductID: book.ID,
					Title:     book.Title,
					Quantity:  it.Quantity,
					Price:     book.Price,
				})
				order.TotalPrice = order.TotalPrice.Add(book.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}

			token := ""
			if auth, ok := e.session.Auth(); ok {
				token = auth.Token
			}
			res, err := e.client.PlaceOrder(ctx, token, order)
			if err != nil {
				return err
			}
			if err := e.session.ClearCart(ctx); err != nil {
				return err
			}
			return e.out.status("order %s placed, total %s", res.OrderNumber, order.TotalPrice.StringFixed(2))
		}),
	}

	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Email, "email", "", "contact email")
	f.StringVar(&req.Phone, "phone", "", "contact phone")
	f.StringVar(&req.Address, "address", "", "delivery address")
	f.StringVar(&req.Apartment, "apartment", "", "apartment")
	f.StringVar(&req.State, "state", "", "state or region")
	f.StringVar(&req.Country, "country", "", "country")
	f.StringVar(&req.BirthDate, "birth-date", "", "birth date, YYYY-MM-DD")
	f.StringVar(&req.Gender, "gender", "", "gender")
	for _, name := range []string{"first-name", "last-name", "email", "phone", "address", "state", "country"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func NewOrdersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			auth, ok := e.session.Auth()
			if !ok {
				return session.ErrNotAuthenticated
			}
			orders, err := e.client.Orders(ctx, auth.Token, auth.UserID)
			if err != nil {
				return err
			}
			return e.out.orders(orders)
		}),
	}
}
