package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	cacheredis "github.com/alanyoungcy/arbwatch/internal/cache/redis"
	"github.com/alanyoungcy/arbwatch/internal/config"
	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/engine"
	"github.com/alanyoungcy/arbwatch/internal/ledger"
	"github.com/alanyoungcy/arbwatch/internal/metrics"
	"github.com/alanyoungcy/arbwatch/internal/monitor"
	"github.com/alanyoungcy/arbwatch/internal/notify"
	"github.com/alanyoungcy/arbwatch/internal/server"
	"github.com/alanyoungcy/arbwatch/internal/source"
)

// Dependencies bundles everything the run loop needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Ledger   domain.Ledger
	Cache    domain.RateCache // nil when Redis is not configured
	Notifier *notify.Notifier // nil when notifications are disabled
	Runner   *monitor.Runner
	Server   *server.Server // nil when the HTTP server is disabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// releases resources in reverse construction order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Ledger ---
	switch cfg.Ledger.Backend {
	case "postgres":
		pgLedger, err := ledger.NewPostgresLedger(ctx, ledger.PostgresConfig{
			DSN:      cfg.Ledger.Postgres.DSN,
			Host:     cfg.Ledger.Postgres.Host,
			Port:     cfg.Ledger.Postgres.Port,
			Database: cfg.Ledger.Postgres.Database,
			User:     cfg.Ledger.Postgres.User,
			Password: cfg.Ledger.Postgres.Password,
			SSLMode:  cfg.Ledger.Postgres.SSLMode,
			MaxConns: cfg.Ledger.Postgres.MaxConns,
			MinConns: cfg.Ledger.Postgres.MinConns,
		}, cfg.Ledger.MaxEntries)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres ledger: %w", err)
		}
		closers = append(closers, pgLedger.Close)
		deps.Ledger = pgLedger
	default:
		deps.Ledger = ledger.NewFileLedger(cfg.Ledger.Path, cfg.Ledger.MaxEntries)
	}

	// --- Redis rate cache (optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := cacheredis.New(ctx, cacheredis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Cache = cacheredis.NewRateCache(redisClient, cfg.Redis.CacheTTL.Duration)
	}

	// --- Notifications ---
	if cfg.Notify.Enabled {
		var senders []notify.Sender
		if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
			senders = append(senders, notify.NewTelegramSender(
				cfg.Notify.TelegramToken,
				cfg.Notify.TelegramChatID,
			))
		}
		if cfg.Notify.DiscordWebhookURL != "" {
			senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
		}
		deps.Notifier = notify.NewNotifier(senders, logger)
	}

	// --- Sources and aggregator ---
	bank := source.NewBankSource(cfg.Sources.BankURL, cfg.Sources.BankCurrency, cfg.Sources.HTTPTimeout.Duration)
	exchange := source.NewExchangeSource(cfg.Sources.ExchangeURL, cfg.Sources.ExchangeMarket, cfg.Sources.HTTPTimeout.Duration)
	stream := source.NewStreamSource(cfg.Sources.StreamURL, cfg.Sources.StreamMarket, cfg.Sources.StreamIndexMarket, cfg.Sources.StreamTimeout.Duration)
	aggregator := engine.NewAggregator(bank, exchange, stream, logger)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- Runner ---
	params := engine.Params{
		CapitalTWD:     decimal.NewFromFloat(cfg.Arbitrage.CapitalTWD),
		FeeRatePercent: decimal.NewFromFloat(cfg.Arbitrage.FeeRatePercent),
		MinProfitTWD:   decimal.NewFromFloat(cfg.Arbitrage.MinProfitTWD),
	}
	deps.Runner = monitor.NewRunner(aggregator, params, deps.Ledger, deps.Cache, deps.Notifier, m, logger)

	// --- HTTP server (optional) ---
	if cfg.Server.Enabled {
		deps.Server = server.New(server.Config{Port: cfg.Server.Port}, deps.Ledger, deps.Cache, registry, logger)
	}

	return deps, cleanup, nil
}
