package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// passwordFromFlagOrEnv - пароль из флага или из BOOKCTL_PASSWORD
func passwordFromFlagOrEnv(password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if env := os.Getenv("BOOKCTL_PASSWORD"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("password is required: pass --password or set BOOKCTL_PASSWORD")
}

func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			pw, err := passwordFromFlagOrEnv(password)
			if err != nil {
				return err
			}
			res, err := e.client.Register(ctx, args[0], args[1], pw)
			if err != nil {
				return err
			}
			return e.out.status("registered %s (id %d), run login to carry over the guest lists", res.User.Username, res.User.ID)
		}),
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and merge the guest cart and wishlist into the account",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			pw, err := passwordFromFlagOrEnv(password)
			if err != nil {
				return err
			}
			res, err := e.session.Login(ctx, args[0], pw)
			if err != nil {
				return err
			}
			return e.out.status("logged in as %s: %d cart items, %d wishlist items",
				res.User.Username, len(res.Cart), len(res.Wishlist))
		}),
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: opts.withEnv(func(ctx context.Context, e *env, args []string) error {
			if err := e.session.Logout(ctx); err != nil {
				return err
			}
			return e.out.status("logged out")
		}),
	}
}
