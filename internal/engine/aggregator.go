// Package engine contains the evaluation core: the scatter/gather aggregator
// that joins the three feeds into one market snapshot, and the pure arbitrage
// computation over that snapshot.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// SourceError pairs a failed source with its cause.
type SourceError struct {
	Source domain.SourceID
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e SourceError) Unwrap() error {
	return e.Err
}

// AggregationError reports every source that failed during one gather. Causes
// are kept structured so operators can tell a bank outage from an exchange
// outage without parsing a flattened message.
type AggregationError struct {
	Causes []SourceError
}

func (e *AggregationError) Error() string {
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = c.Error()
	}
	return fmt.Sprintf("aggregate: %d source(s) failed: %s", len(e.Causes), strings.Join(parts, "; "))
}

// Unwrap exposes all causes to errors.Is / errors.As.
func (e *AggregationError) Unwrap() []error {
	errs := make([]error, len(e.Causes))
	for i, c := range e.Causes {
		errs[i] = c
	}
	return errs
}

// Aggregator fans the three rate fetches out concurrently and joins them into
// one MarketSnapshot. The join is all-or-nothing: a single source failure
// fails the whole cycle and no partial snapshot is ever produced.
type Aggregator struct {
	bank     domain.RateSource
	exchange domain.RateSource
	stream   domain.RateSource
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator over the three sources.
func NewAggregator(bank, exchange, stream domain.RateSource, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		bank:     bank,
		exchange: exchange,
		stream:   stream,
		logger:   logger.With(slog.String("component", "aggregator")),
	}
}

type fetchResult struct {
	source domain.SourceID
	quote  domain.PriceQuote
	err    error
}

// Snapshot fetches all three rates concurrently and joins them. Each fetch
// obeys its own timeout, so the join is bounded by the slowest single source
// rather than the sum. On any failure it returns an *AggregationError
// preserving every per-source cause.
func (a *Aggregator) Snapshot(ctx context.Context) (domain.MarketSnapshot, error) {
	sources := []domain.RateSource{a.bank, a.exchange, a.stream}
	results := make(chan fetchResult, len(sources))

	for _, src := range sources {
		go func(src domain.RateSource) {
			quote, err := src.Fetch(ctx)
			results <- fetchResult{source: src.ID(), quote: quote, err: err}
		}(src)
	}

	quotes := make(map[domain.SourceID]domain.PriceQuote, len(sources))
	var causes []SourceError
	for range sources {
		res := <-results
		if res.err != nil {
			a.logger.WarnContext(ctx, "source fetch failed",
				slog.String("source", string(res.source)),
				slog.String("error", res.err.Error()),
			)
			causes = append(causes, SourceError{Source: res.source, Err: res.err})
			continue
		}
		quotes[res.source] = res.quote
		a.logger.DebugContext(ctx, "source fetch ok",
			slog.String("source", string(res.source)),
			slog.String("value", res.quote.Value.String()),
		)
	}

	if len(causes) > 0 {
		return domain.MarketSnapshot{}, &AggregationError{Causes: causes}
	}

	return domain.MarketSnapshot{
		BankRate:     quotes[domain.SourceBank].Value,
		ExchangeRate: quotes[domain.SourceExchange].Value,
		StreamRate:   quotes[domain.SourceStream].Value,
		CapturedAt:   time.Now().UTC(),
	}, nil
}
