package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/collective-ledger/internal/auth"
	"github.com/josh-kwaku/collective-ledger/internal/config"
	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/fx"
	"github.com/josh-kwaku/collective-ledger/internal/ledger"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
	"github.com/josh-kwaku/collective-ledger/internal/migrate"
	"github.com/josh-kwaku/collective-ledger/internal/repository"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(logging.Options{Service: "ledgerctl", Level: cfg.LogLevel, Text: true, Output: os.Stderr})
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		ConnectWait:  cfg.DBConnectWait,
	})
}

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if dir == "" {
				dir = migrate.FindDir()
			}
			applied, err := migrate.Up(cmd.Context(), db, dir)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, f := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default: nearest ./migrations)")
	return cmd
}

func balanceCmd() *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "balance <payment-method-id>",
		Short: "Print the balance of a payment method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pmID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("payment method id: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			engine := ledger.NewEngine(
				repository.NewCollectiveRepository(db),
				repository.NewPaymentMethodRepository(db),
				fx.NewStaticRates(nil),
				repository.NewTransactionRepository(db),
				domain.NewCurrencyCatalog(cfg.SupportedCurrencies...),
				ledger.NewFeePolicy(cfg.PlatformFeePct),
			)

			cur := domain.Currency(strings.ToUpper(currency))
			balance, err := engine.GetBalance(cmd.Context(), pmID, cur)
			if err != nil {
				return err
			}
			if cur == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", balance)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", balance, cur)
			return nil
		},
	}

	cmd.Flags().StringVarP(&currency, "currency", "c", "", "express the balance in this currency")
	return cmd
}

func rateCmd() *cobra.Command {
	var from, to string
	var static bool

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Print the quote and the stored rate for a currency pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rates interface {
				GetRate(ctx context.Context, base, target domain.Currency) (*fx.Quote, error)
			}
			if static {
				rates = fx.DefaultStaticRates()
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				rates = fx.NewFixerClient(cfg.FXProviderURL, cfg.FXAccessKey, cfg.FXTimeout)
			}

			q, err := rates.GetRate(cmd.Context(), domain.Currency(strings.ToUpper(from)), domain.Currency(strings.ToUpper(to)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s (stored rate %s, as of %s)\n",
				q.Base, q.Rate, q.Target, ledger.StoredRate(q.Rate), q.AsOf.Format(time.DateOnly))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "collective currency")
	cmd.Flags().StringVar(&to, "to", "", "host currency")
	cmd.Flags().BoolVar(&static, "static", false, "use the built-in rate table instead of the provider")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func tokenCmd() *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for local API calls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("user id: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(id, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
