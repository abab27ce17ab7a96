package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/fx"
	"github.com/josh-kwaku/collective-ledger/internal/ledger"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

type rateProvider interface {
	GetRate(ctx context.Context, base, target domain.Currency) (*fx.Quote, error)
}

type FXHandler struct {
	rates      rateProvider
	currencies *domain.CurrencyCatalog
}

func NewFXHandler(rates rateProvider, currencies *domain.CurrencyCatalog) *FXHandler {
	return &FXHandler{rates: rates, currencies: currencies}
}

type fxRateResponse struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Rate       string `json:"rate"`
	StoredRate string `json:"stored_rate"`
	AsOf       string `json:"as_of"`
}

// GetRate reports the quote the ledger would apply for from -> to, and
// the reciprocal that would be stored on the transaction.
func (h *FXHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	from := strings.ToUpper(r.URL.Query().Get("from"))
	to := strings.ToUpper(r.URL.Query().Get("to"))

	if fields := h.validateParams(from, to); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	quote, err := h.rates.GetRate(r.Context(), domain.Currency(from), domain.Currency(to))
	if err != nil {
		logging.FromContext(r.Context()).Warn("fx rate lookup failed", "error", err, "from", from, "to", to)
		RespondDomainError(w, err)
		return
	}

	asOf := quote.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	RespondSuccess(w, http.StatusOK, fxRateResponse{
		From:       string(quote.Base),
		To:         string(quote.Target),
		Rate:       quote.Rate.String(),
		StoredRate: ledger.StoredRate(quote.Rate).String(),
		AsOf:       asOf.UTC().Format(time.RFC3339),
	})
}

func (h *FXHandler) validateParams(from, to string) []FieldError {
	var errs []FieldError
	for _, p := range []struct{ field, value string }{{"from", from}, {"to", to}} {
		switch {
		case p.value == "":
			errs = append(errs, FieldError{Field: p.field, Message: "required"})
		case !h.currencies.Recognizes(domain.Currency(p.value)):
			errs = append(errs, FieldError{Field: p.field, Message: "unsupported currency"})
		}
	}
	return errs
}
