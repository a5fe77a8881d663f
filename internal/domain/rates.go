// Package domain defines the core value types of the arbitrage monitor
// (quotes, snapshots, evaluation results) and the interfaces implemented by
// the storage and cache layers.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceID identifies one of the three price feeds.
type SourceID string

const (
	// SourceBank is the bank spot USD/TWD sell rate.
	SourceBank SourceID = "bank"
	// SourceExchange is the exchange USDT/TWD ticker.
	SourceExchange SourceID = "exchange"
	// SourceStream is the streaming USDT/USD quote.
	SourceStream SourceID = "stream"
)

// PriceQuote is a single price observation from one source. It is immutable
// once constructed; use NewPriceQuote to guarantee the value is valid.
type PriceQuote struct {
	Source     SourceID        `json:"source"`
	Value      decimal.Decimal `json:"value"`
	CapturedAt time.Time       `json:"captured_at"`
}

// NewPriceQuote builds a PriceQuote for the given source. Values that are not
// strictly positive are not valid quotes and are rejected with ErrInvalidRate;
// a source that obtains such a value must treat it as a fetch failure.
func NewPriceQuote(source SourceID, value decimal.Decimal) (PriceQuote, error) {
	if !value.IsPositive() {
		return PriceQuote{}, fmt.Errorf("quote from %s: value %s: %w", source, value, ErrInvalidRate)
	}
	return PriceQuote{
		Source:     source,
		Value:      value,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// MarketSnapshot joins the three rates captured within one evaluation cycle.
// It only ever exists as a complete value; the aggregator never hands out a
// partially populated snapshot.
type MarketSnapshot struct {
	BankRate     decimal.Decimal `json:"bank_rate"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	StreamRate   decimal.Decimal `json:"stream_rate"`
	CapturedAt   time.Time       `json:"captured_at"`
}

// ArbitrageResult is the outcome of evaluating one snapshot against the
// configured capital and fee parameters. Derived, immutable, one per cycle.
type ArbitrageResult struct {
	ID          string          `json:"id"`
	Snapshot    MarketSnapshot  `json:"snapshot"`
	CapitalTWD  decimal.Decimal `json:"capital_twd"`
	USDAmount   decimal.Decimal `json:"usd_amount"`
	USDTAmount  decimal.Decimal `json:"usdt_amount"`
	GrossTWD    decimal.Decimal `json:"gross_twd"`
	ProfitTWD   decimal.Decimal `json:"profit_twd"`
	Opportunity bool            `json:"opportunity"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}

// LatestRates is the cached view of the most recent successful cycle, served
// by the HTTP API.
type LatestRates struct {
	BankRate     decimal.Decimal `json:"bank_rate"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	StreamRate   decimal.Decimal `json:"stream_rate"`
	ProfitTWD    decimal.Decimal `json:"profit_twd"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
