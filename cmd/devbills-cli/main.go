// Command devbills-cli lists and edits DevBills transactions from a terminal
// and follows the activity event stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"devbills/internal/amqp"
	"devbills/internal/auth"
	"devbills/internal/backend"
	"devbills/internal/cli"
	"devbills/internal/finance"
	"devbills/internal/services"
)

// devUser owns the data of the memory backend when nobody is logged in.
var devUser = auth.User{UID: "dev-cli", DisplayName: "Dev"}

type app struct {
	v        *viper.Viper
	settings cli.Settings
	logger   *log.Logger
	out      io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      cli.NewViper(),
		out:    out,
		logger: log.NewWithOptions(errOut, log.Options{Prefix: "devbills-cli"}),
	}

	rootCmd := &cobra.Command{
		Use:           "devbills-cli",
		Short:         "DevBills from the terminal",
		Long:          "List, add and delete DevBills transactions and watch the activity feed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := cli.LoadSettings(a.v)
			if err != nil {
				return err
			}
			a.settings = settings
			if lvl, err := log.ParseLevel(settings.LogLevel); err == nil {
				a.logger.SetLevel(lvl)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	if err := cli.BindFlags(a.v, rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.transactionsCmd(),
		a.summaryCmd(),
		a.monthlyCmd(),
		a.categoriesCmd(),
		a.addCmd(),
		a.deleteCmd(),
		a.activityCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// service builds the transaction service for one command. The returned
// context carries the signed-in user; cleanup releases the backend and the
// event publisher.
func (a *app) service(ctx context.Context) (*services.TransactionService, context.Context, func(), error) {
	cfg := a.settings.BackendConfig()
	slogger := slog.New(a.logger.WithPrefix("backend"))

	user := devUser
	var tokens func(context.Context) (string, error)
	if cfg.Type == backend.APIBackend {
		creds, err := cli.LoadCredentials(a.settings.CredentialsFile)
		if err != nil {
			return nil, nil, nil, err
		}
		user = creds.User
		tokens = cli.TokenFunc(a.settings, creds, func(err error) {
			a.logger.Warn("Could not save refreshed credentials", "err", err)
		})
	}

	result, err := backend.NewFactoryWithTokens(slogger, tokens).CreateBackend(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var events services.EventPublisher
	var client *amqp.Client
	if a.settings.AMQPURL != "" {
		client, err = amqp.NewClient(a.settings.AMQPURL, a.settings.AMQPExchange, a.settings.AMQPQueue)
		if err != nil {
			a.logger.Warn("Activity events disabled", "err", err)
		} else {
			events = client
		}
	}

	svc := services.NewTransactionService(result.Backend, events)
	cleanup := func() {
		if err := svc.Close(); err != nil {
			a.logger.Warn("Close event publisher", "err", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				a.logger.Warn("Close backend", "err", err)
			}
		}
	}
	return svc, auth.WithUser(ctx, &user), cleanup, nil
}

// explain rewrites backend errors the user can act on.
func explain(err error) error {
	if errors.Is(err, auth.ErrRefreshRejected) || errors.Is(err, finance.ErrUnauthorized) {
		return fmt.Errorf("%w; run 'devbills-cli login' again", err)
	}
	return err
}
