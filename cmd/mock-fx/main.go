package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/josh-kwaku/collective-ledger/internal/fx"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

func main() {
	logging.Init("mock-fx", "info", os.Getenv("APP_ENV"))

	addr := os.Getenv("MOCK_FX_ADDR")
	if addr == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.Handle("GET /latest", fx.NewFixerHandler(fx.DefaultStaticRates()))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	slog.Info("mock fx provider started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
