package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func NewCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart",
	}
	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartShowCommand(opts))
	return cmd
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <book-id>",
		Short: "Add a book to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			bookID, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			if quantity < 1 {
				return fmt.Errorf("quantity must be at least 1")
			}
			items, err := e.session.AddToCart(ctx, bookID, quantity)
			if err != nil {
				return err
			}
			return e.out.cart(items)
		}),
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "number of copies")
	return cmd
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <book-id>",
		Short: "Remove a book from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			bookID, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			items, err := e.session.RemoveFromCart(ctx, bookID)
			if err != nil {
				return err
			}
			return e.out.cart(items)
		}),
	}
}

func newCartShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			items, err := e.session.Cart(ctx)
			if err != nil {
				return err
			}
			return e.out.cart(items)
		}),
	}
}

func parseBookID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}
