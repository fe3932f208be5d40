package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func NewWishlistCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Manage the wishlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <book-id>",
		Short: "Add a book to the wishlist or remove it",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			bookID, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			added, err := e.session.ToggleWishlist(ctx, bookID)
			if err != nil {
				return err
			}
			if added {
				return e.out.status("book %d added to wishlist", bookID)
			}
			return e.out.status("book %d removed from wishlist", bookID)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the wishlist",
		Args:  cobra.NoArgs,
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			entries, err := e.session.Wishlist(ctx)
			if err != nil {
				return err
			}
			return e.out.wishlist(entries)
		}),
	})

	return cmd
}
