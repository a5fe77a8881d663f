// Package monitor drives the evaluation loop: one cycle immediately at
// startup, then one per polling interval, until shutdown.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/engine"
	"github.com/alanyoungcy/arbwatch/internal/metrics"
	"github.com/alanyoungcy/arbwatch/internal/notify"
)

// SnapshotSource produces one complete market snapshot per call.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.MarketSnapshot, error)
}

// Runner executes evaluation cycles. A cycle is: gather snapshot, evaluate,
// persist, cache, notify on opportunity. Ledger, cache, and notification
// failures are logged but never abort the cycle; an aggregation or evaluation
// failure aborts the cycle before anything is persisted or delivered.
type Runner struct {
	snapshots SnapshotSource
	params    engine.Params
	ledger    domain.Ledger
	cache     domain.RateCache // nil when Redis is not configured
	notifier  *notify.Notifier // nil when notifications are disabled
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// cycleMu enforces at most one cycle in flight; an overlapping trigger
	// is skipped, not queued.
	cycleMu sync.Mutex
}

// NewRunner creates a Runner. cache and notifier may be nil.
func NewRunner(
	snapshots SnapshotSource,
	params engine.Params,
	ledger domain.Ledger,
	cache domain.RateCache,
	notifier *notify.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		snapshots: snapshots,
		params:    params,
		ledger:    ledger,
		cache:     cache,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With(slog.String("component", "monitor")),
	}
}

// Run executes one cycle immediately, then one per interval, until ctx is
// done. Cycle failures are logged and the loop keeps running; only ctx
// cancellation stops it.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	r.logger.InfoContext(ctx, "monitor starting", slog.Duration("interval", interval))

	r.cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

// cycle runs one evaluation, skipping if a prior cycle is still in flight.
func (r *Runner) cycle(ctx context.Context) {
	if !r.cycleMu.TryLock() {
		r.logger.WarnContext(ctx, "previous cycle still running, skipping trigger")
		r.metrics.CyclesTotal.WithLabelValues(metrics.StatusSkipped).Inc()
		return
	}
	defer r.cycleMu.Unlock()

	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
		r.logger.ErrorContext(ctx, "evaluation cycle failed", slog.String("error", err.Error()))
	}
}

// RunOnce executes a single evaluation cycle and returns its result. It is
// exported for one-shot invocation; the periodic loop calls it through cycle,
// which adds the mutual-exclusion guard.
func (r *Runner) RunOnce(ctx context.Context) (domain.ArbitrageResult, error) {
	start := time.Now()

	snap, err := r.snapshots.Snapshot(ctx)
	if err != nil {
		r.recordFailure(err)
		return domain.ArbitrageResult{}, err
	}

	result, err := engine.Evaluate(snap, r.params)
	if err != nil {
		// The computed result would be meaningless; abort before any
		// persistence or notification.
		r.metrics.CyclesTotal.WithLabelValues(metrics.StatusError).Inc()
		return domain.ArbitrageResult{}, err
	}

	if err := r.ledger.Append(ctx, result); err != nil {
		r.logger.ErrorContext(ctx, "persist evaluation failed", slog.String("error", err.Error()))
	}
	if r.cache != nil {
		if err := r.cache.SetRates(ctx, snap, result.ProfitTWD); err != nil {
			r.logger.WarnContext(ctx, "rate cache update failed", slog.String("error", err.Error()))
		}
	}

	r.metrics.CyclesTotal.WithLabelValues(metrics.StatusOK).Inc()
	profit, _ := result.ProfitTWD.Float64()
	r.metrics.LastProfitTWD.Set(profit)
	r.metrics.CycleDuration.Observe(time.Since(start).Seconds())

	if result.Opportunity {
		r.metrics.Opportunities.Inc()
		r.logger.InfoContext(ctx, "arbitrage opportunity found",
			slog.String("profit_twd", result.ProfitTWD.StringFixed(2)),
			slog.String("bank_rate", snap.BankRate.String()),
			slog.String("exchange_rate", snap.ExchangeRate.String()),
			slog.String("stream_rate", snap.StreamRate.String()),
		)
		if r.notifier != nil {
			body := notify.FormatOpportunity(result)
			if err := r.notifier.Notify(ctx, notify.OpportunityTitle, body); err != nil {
				r.logger.ErrorContext(ctx, "opportunity notification failed", slog.String("error", err.Error()))
			}
		}
	} else {
		r.logger.InfoContext(ctx, "no opportunity",
			slog.String("profit_twd", result.ProfitTWD.StringFixed(2)),
		)
	}

	return result, nil
}

// recordFailure logs a failed gather with per-source detail and updates the
// failure metrics.
func (r *Runner) recordFailure(err error) {
	r.metrics.CyclesTotal.WithLabelValues(metrics.StatusError).Inc()

	var aggErr *engine.AggregationError
	if errors.As(err, &aggErr) {
		for _, cause := range aggErr.Causes {
			r.metrics.SourceFailures.WithLabelValues(string(cause.Source)).Inc()
			r.logger.Error("source degraded",
				slog.String("source", string(cause.Source)),
				slog.String("error", cause.Err.Error()),
			)
		}
	}
}
