// Package cli - команды консольного клиента bookctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/linemk/bookstore/internal/client/apiclient"
	"github.com/linemk/bookstore/internal/client/gueststore"
	"github.com/linemk/bookstore/internal/client/session"
	"github.com/linemk/bookstore/internal/lib/logger"
	"github.com/spf13/cobra"
)

// RootOptions - общие флаги всех команд
type RootOptions struct {
	Server  string
	Store   string
	Timeout time.Duration
	Format  string // "json" | "text"
	Verbose bool
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bookctl",
		Short: "bookctl - bookstore client",
		Long:  "Browse the cart and wishlist as a guest and carry them over to your account on login.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
		SilenceUsage: true,
	}

	serverDefault := os.Getenv("BOOKSTORE_URL")
	if serverDefault == "" {
		serverDefault = "http://localhost:8080"
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", serverDefault, "bookstore API address")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", defaultStorePath(), "path to the local guest database")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewWishlistCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))

	return cmd
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bookctl.db"
	}
	return filepath.Join(home, ".bookctl.db")
}

// env - открытые на время команды клиент, хранилище и сессия
type env struct {
	client  *apiclient.Client
	store   *gueststore.Store
	session *session.Session
	out     *printer
}

func (o *RootOptions) open(ctx context.Context, cmd *cobra.Command) (*env, error) {
	log := logger.NewCLI(cmd.ErrOrStderr(), o.Verbose)

	store, err := gueststore.Open(o.Store)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(o.Server, o.Timeout)
	deviceID, err := store.DeviceID(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	client.SetDeviceID(deviceID)
	sess := session.New(log, client, store)
	if err := sess.Restore(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &env{
		client:  client,
		store:   store,
		session: sess,
		out:     newPrinter(cmd.OutOrStdout(), o.Format),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// withEnv открывает окружение и закрывает его после выполнения команды
func (o *RootOptions) withEnv(run func(ctx context.Context, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		e, err := o.open(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		return run(ctx, e, args)
	}
}
