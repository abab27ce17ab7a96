package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

// FixerClient fetches quotes from a fixer.io compatible /latest endpoint.
type FixerClient struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

func NewFixerClient(baseURL, accessKey string, timeout time.Duration) *FixerClient {
	return &FixerClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fixerError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

type fixerResponse struct {
	Success *bool                      `json:"success,omitempty"`
	Base    string                     `json:"base"`
	Date    string                     `json:"date"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	Error   *fixerError                `json:"error,omitempty"`
}

func (c *FixerClient) GetRate(ctx context.Context, base, target domain.Currency) (*Quote, error) {
	if base == target {
		return identityQuote(base, time.Now().UTC()), nil
	}

	q := url.Values{}
	q.Set("base", string(base))
	q.Set("symbols", string(target))
	if c.accessKey != "" {
		q.Set("access_key", c.accessKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("GetRate: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable(base, target, err)
	}
	defer resp.Body.Close()

	logging.FromContext(ctx).Debug("fx provider responded",
		"base", base,
		"target", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unavailable(base, target, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	var payload fixerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(base, target, fmt.Errorf("decode: %w", err))
	}
	if payload.Success != nil && !*payload.Success {
		info := "unknown error"
		if payload.Error != nil {
			info = fmt.Sprintf("%d %s %s", payload.Error.Code, payload.Error.Type, payload.Error.Info)
		}
		return nil, unavailable(base, target, fmt.Errorf("provider error: %s", info))
	}

	rate, ok := payload.Rates[string(target)]
	if !ok || !rate.IsPositive() {
		return nil, unavailable(base, target, fmt.Errorf("no rate in response"))
	}

	asOf := time.Now().UTC()
	if payload.Date != "" {
		if d, err := time.Parse(time.DateOnly, payload.Date); err == nil {
			asOf = d
		}
	}

	return &Quote{Base: base, Target: target, Rate: rate, AsOf: asOf}, nil
}

func unavailable(base, target domain.Currency, cause error) error {
	return fmt.Errorf("GetRate: %s/%s: %w: %w", base, target, domain.ErrRateUnavailable, cause)
}
