package domain

import (
	"slices"
	"strings"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
	CurrencyMXN Currency = "MXN"
	CurrencyAUD Currency = "AUD"
)

var DefaultCurrencies = []Currency{
	CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCAD, CurrencyMXN, CurrencyAUD,
}

// CurrencyCatalog is the closed set of ISO 4217 codes the ledger accepts.
type CurrencyCatalog struct {
	codes []Currency
}

func NewCurrencyCatalog(codes ...string) *CurrencyCatalog {
	c := &CurrencyCatalog{}
	for _, code := range codes {
		cur := Currency(strings.ToUpper(strings.TrimSpace(code)))
		if cur == "" || slices.Contains(c.codes, cur) {
			continue
		}
		c.codes = append(c.codes, cur)
	}
	if len(c.codes) == 0 {
		c.codes = slices.Clone(DefaultCurrencies)
	}
	return c
}

func (c *CurrencyCatalog) Recognizes(cur Currency) bool {
	return slices.Contains(c.codes, cur)
}

func (c *CurrencyCatalog) Codes() []Currency {
	return slices.Clone(c.codes)
}
