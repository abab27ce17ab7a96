package fx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

type quoteSource interface {
	GetRate(ctx context.Context, base, target domain.Currency) (*Quote, error)
}

// NewFixerHandler serves GET /latest in the fixer.io response shape from
// src. Symbols without a quote are left out of "rates".
func NewFixerHandler(src quoteSource) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /latest", func(w http.ResponseWriter, r *http.Request) {
		base := domain.Currency(strings.ToUpper(r.URL.Query().Get("base")))
		if base == "" {
			base = "EUR"
		}

		var symbols []string
		if raw := r.URL.Query().Get("symbols"); raw != "" {
			symbols = strings.Split(strings.ToUpper(raw), ",")
		}
		if len(symbols) == 0 {
			writeFixer(w, fixerResponse{
				Success: boolPtr(false),
				Error:   &fixerError{Code: 202, Type: "invalid_currency_codes", Info: "symbols is required"},
			})
			return
		}

		rates := make(map[string]decimal.Decimal, len(symbols))
		for _, s := range symbols {
			q, err := src.GetRate(r.Context(), base, domain.Currency(strings.TrimSpace(s)))
			if err != nil {
				continue
			}
			rates[string(q.Target)] = q.Rate
		}

		writeFixer(w, fixerResponse{
			Success: boolPtr(true),
			Base:    string(base),
			Date:    time.Now().UTC().Format(time.DateOnly),
			Rates:   rates,
		})
	})
	return mux
}

func writeFixer(w http.ResponseWriter, resp fixerResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode fixer response", "error", err)
	}
}

func boolPtr(b bool) *bool { return &b }
