package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/collective-ledger/api"
	"github.com/josh-kwaku/collective-ledger/internal/config"
	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/fx"
	"github.com/josh-kwaku/collective-ledger/internal/handler"
	"github.com/josh-kwaku/collective-ledger/internal/ledger"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
	"github.com/josh-kwaku/collective-ledger/internal/middleware"
	"github.com/josh-kwaku/collective-ledger/internal/repository"
	"github.com/josh-kwaku/collective-ledger/internal/service/connectedaccount"
	"github.com/josh-kwaku/collective-ledger/internal/service/order"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("ledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectWait:      cfg.DBConnectWait,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	collectives := repository.NewCollectiveRepository(db)
	paymentMethods := repository.NewPaymentMethodRepository(db)
	orders := repository.NewOrderRepository(db)
	txns := repository.NewTransactionRepository(db)
	accounts := repository.NewConnectedAccountRepository(db)

	currencies := domain.NewCurrencyCatalog(cfg.SupportedCurrencies...)
	rates := fx.NewFixerClient(cfg.FXProviderURL, cfg.FXAccessKey, cfg.FXTimeout)

	engine := ledger.NewEngine(
		collectives,
		paymentMethods,
		rates,
		txns,
		currencies,
		ledger.NewFeePolicy(cfg.PlatformFeePct),
	)
	orderSvc := order.NewService(orders, collectives, paymentMethods, engine, cfg)
	accountSvc := connectedaccount.NewService(accounts, collectives, cfg.JWTSecret, cfg.ConnectedAccountTokenTTL)

	healthH := handler.NewHealthHandler(db, version)
	fxH := handler.NewFXHandler(rates, currencies)
	orderH := handler.NewOrderHandler(orderSvc)
	ledgerH := handler.NewLedgerHandler(engine)
	accountH := handler.NewConnectedAccountHandler(accountSvc)

	authed := middleware.Auth(cfg.JWTSecret)
	write := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireIdempotencyKey(h))
	}
	read := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthH.Liveness)
	mux.HandleFunc("GET /health/ready", healthH.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.Spec))

	mux.HandleFunc("GET /api/v1/fx/rates", fxH.GetRate)
	mux.HandleFunc("GET /api/v1/connected-accounts/verify", accountH.Verify)

	mux.Handle("POST /api/v1/orders", write(orderH.CreateOrder))
	mux.Handle("POST /api/v1/expenses", write(orderH.RecordExpense))
	mux.Handle("GET /api/v1/orders/{id}/transactions", read(orderH.ListOrderTransactions))
	mux.Handle("GET /api/v1/transactions", read(ledgerH.ListTransactions))
	mux.Handle("GET /api/v1/collectives/{id}/payment-methods", read(ledgerH.ListPaymentMethods))
	mux.Handle("GET /api/v1/payment-methods/{id}/balance", read(ledgerH.GetBalance))
	mux.Handle("GET /api/v1/collectives/{id}/connected-accounts", read(accountH.List))
	mux.Handle("POST /api/v1/collectives/{id}/connected-accounts/{service}", authed(http.HandlerFunc(accountH.Link)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.FXTimeout*time.Duration(cfg.OrderRateRetries+1) + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "currencies", cfg.SupportedCurrencies)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
