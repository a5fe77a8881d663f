package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateSource is the single capability shared by the three price feeds:
// fetch the current price, bounded by the source's own timeout.
type RateSource interface {
	// ID returns the source identifier used in snapshots and error reports.
	ID() SourceID
	// Fetch obtains the current price. It blocks at most for the source's
	// configured timeout and returns exactly one quote or an error.
	Fetch(ctx context.Context) (PriceQuote, error)
}

// Ledger is the bounded append-only history of evaluation results. Append
// maintains insertion order and evicts the oldest entries beyond the retention
// cap. Implementations are not safe for concurrent writers; the monitor
// guarantees at most one cycle in flight.
type Ledger interface {
	Append(ctx context.Context, result ArbitrageResult) error
	// Recent returns up to limit results, newest first.
	Recent(ctx context.Context, limit int) ([]ArbitrageResult, error)
}

// RateCache stores the rates and profit of the most recent successful cycle
// for cheap reads by the HTTP API. Cache failures are never fatal.
type RateCache interface {
	SetRates(ctx context.Context, snap MarketSnapshot, profit decimal.Decimal) error
	GetRates(ctx context.Context) (LatestRates, error)
}
