package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"devbills/internal/amqp"
	"devbills/internal/cli"
	"devbills/internal/core"
)

// periodFlags adds --month and --year, defaulting to the current month.
func periodFlags(cmd *cobra.Command) {
	now := time.Now()
	cmd.Flags().Int("month", int(now.Month()), "Month (1-12)")
	cmd.Flags().Int("year", now.Year(), "Year")
}

func periodFrom(cmd *cobra.Command) (core.Period, error) {
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")
	return core.NewPeriod(year, month)
}

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and save the credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page := a.settings.FirebaseWeb()
			if err := page.Validate(); err != nil {
				return fmt.Errorf("firebase config: %w", err)
			}
			port, _ := cmd.Flags().GetInt("port")

			ls, err := cli.NewLoginServer("127.0.0.1:"+strconv.Itoa(port), page)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Open this URL to sign in:\n%s\n", ls.URL())

			creds, err := ls.Wait(cmd.Context())
			if err != nil {
				return err
			}
			if err := cli.SaveCredentials(a.settings.CredentialsFile, creds); err != nil {
				return err
			}
			a.logger.Info("Saved credentials", "file", a.settings.CredentialsFile)
			fmt.Fprintf(a.out, "Signed in as %s\n", creds.User.Name())
			return nil
		},
	}
	cmd.Flags().Int("port", 8085, "Local port of the sign-in page")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.RemoveCredentials(a.settings.CredentialsFile); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := cli.LoadCredentials(a.settings.CredentialsFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s>\n", creds.User.Name(), creds.User.Email)
			if !creds.Expiry.IsZero() {
				fmt.Fprintf(a.out, "ID token expires %s\n", creds.Expiry.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func (a *app) transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"ls"},
		Short:   "List the transactions of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := periodFrom(cmd)
			if err != nil {
				return err
			}
			search, _ := cmd.Flags().GetString("search")
			rawType, _ := cmd.Flags().GetString("type")
			categoryID, _ := cmd.Flags().GetString("category")

			filter := core.TransactionFilter{Month: p.Month, Year: p.Year, CategoryID: categoryID}
			if rawType != "" {
				t, ok := core.ParseTransactionType(rawType)
				if !ok {
					return fmt.Errorf("invalid type %q", rawType)
				}
				filter.Type = t
			}

			svc, ctx, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return explain(err)
			}
			defer cleanup()

			txs, err := svc.Transactions(ctx, filter, search)
			if err != nil {
				return explain(err)
			}
			cli.RenderTransactions(a.out, p, txs)
			return nil
		},
	}
	periodFlags(cmd)
	cmd.Flags().String("search", "", "Only descriptions containing this text")
	cmd.Flags().String("type", "", "expense or income")
	cmd.Flags().String("category", "", "Category ID")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show month totals, expenses by category and the trailing months",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := periodFrom(cmd)
			if err != nil {
				return err
			}
			svc, ctx, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return explain(err)
			}
			defer cleanup()

			d, err := svc.Dashboard(ctx, p)
			if err != nil {
				return explain(err)
			}
			cli.RenderSummary(a.out, p, d.Summary)
			if d.MonthlyErr != nil {
				a.logger.Warn("Monthly series unavailable", "err", d.MonthlyErr)
				return nil
			}
			cli.RenderMonthly(a.out, d.Monthly)
			return nil
		},
	}
	periodFlags(cmd)
	return cmd
}

func (a *app) monthlyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Show income and expenses of the trailing months",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := periodFrom(cmd)
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt("count")
			if count < 1 || count > 24 {
				return fmt.Errorf("count must be between 1 and 24")
			}
			svc, ctx, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return explain(err)
			}
			defer cleanup()

			items, err := svc.Monthly(ctx, p, count)
			if err != nil {
				return explain(err)
			}
			cli.RenderMonthly(a.out, items)
			return nil
		},
	}
	periodFlags(cmd)
	cmd.Flags().Int("count", 6, "Number of months")
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawType, _ := cmd.Flags().GetString("type")

			svc, ctx, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return explain(err)
			}
			defer cleanup()

			var cats []core.Category
			if rawType == "" {
				cats, err = svc.AllCategories(ctx)
			} else {
				t, ok := core.ParseTransactionType(rawType)
				if !ok {
					return fmt.Errorf("invalid type %q", rawType)
				}
				cats, err = svc.Categories(ctx, t)
			}
			if err != nil {
				return explain(err)
			}
			cli.RenderCategories(a.out, cats)
			return nil
		},
	}
	cmd.Flags().String("type", "", "expense or income; all when empty")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a transaction",
		Example: `  devbills-cli add --description "Mercado" --amount 152,30 --category alimentacao
  devbills-cli add --type income --description Salário --amount 5000 --category salario --date 2025-03-05`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var form core.TransactionForm
			form.Description, _ = cmd.Flags().GetString("description")
			form.Amount, _ = cmd.Flags().GetString("amount")
			form.Date, _ = cmd.Flags().GetString("date")
			form.CategoryID, _ = cmd.Flags().GetString("category")
			form.Type, _ = cmd.Flags().GetString("type")

			svc, ctx, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return explain(err)
			}
			defer cleanup()

			tx, err := svc.CreateFromForm(ctx, form)
			if err != nil {
				var ve *core.ValidationError
				if errors.As(err, &ve) {
					return errors.New(ve.Message)
				}
				return explain(err)
			}
			cli.RenderCreated(a.out, tx)
			return nil
		},
	}
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("amount", "", "Amount, e.g. 1.234,56 or 1234.56")
	cmd.Flags().String("date", time.Now().Format("2006-01-02"), "Date (YYYY-MM-DD)")
	cmd.Flags().String("category", "", "Category ID")
	cmd.Flags().String("type", string(core.Expense), "expense or income")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ctx, cleanup, err := a.service(cmd.Context())
			if err != nil {
				return explain(err)
			}
			defer cleanup()

			if err := svc.DeleteTransaction(ctx, args[0]); err != nil {
				return explain(err)
			}
			cli.RenderDeleted(a.out, args[0])
			return nil
		},
	}
}

func (a *app) activityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Follow transaction activity events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.settings.AMQPURL == "" {
				return errors.New("amqp-url is not set")
			}
			client, err := amqp.NewClient(a.settings.AMQPURL, a.settings.AMQPExchange, a.settings.AMQPQueue)
			if err != nil {
				return err
			}
			defer client.Close()

			a.logger.Info("Waiting for events", "queue", a.settings.AMQPQueue)
			err = client.ConsumeTransactionEvents(cmd.Context(), func(e *amqp.TransactionEvent) error {
				cli.RenderEvent(a.out, e)
				return nil
			})
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
}
