// Package config defines the monitor configuration and validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBWATCH_* environment
// variables.
type Config struct {
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Sources   SourcesConfig   `toml:"sources"`
	Polling   PollingConfig   `toml:"polling"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Redis     RedisConfig     `toml:"redis"`
	Notify    NotifyConfig    `toml:"notify"`
	Server    ServerConfig    `toml:"server"`
	LogLevel  string          `toml:"log_level"`
}

// ArbitrageConfig holds the evaluation parameters.
type ArbitrageConfig struct {
	// CapitalTWD is the amount moved through the conversion path.
	CapitalTWD float64 `toml:"capital_twd"`
	// FeeRatePercent is the exchange trade fee rate in percent.
	FeeRatePercent float64 `toml:"fee_rate_percent"`
	// MinProfitTWD is the profit threshold above which an alert is sent.
	MinProfitTWD float64 `toml:"min_profit_twd"`
}

// SourcesConfig holds the three feed endpoints and their timeouts.
type SourcesConfig struct {
	BankURL           string   `toml:"bank_url"`
	BankCurrency      string   `toml:"bank_currency"`
	ExchangeURL       string   `toml:"exchange_url"`
	ExchangeMarket    string   `toml:"exchange_market"`
	StreamURL         string   `toml:"stream_url"`
	StreamMarket      string   `toml:"stream_market"`
	StreamIndexMarket string   `toml:"stream_index_market"`
	HTTPTimeout       duration `toml:"http_timeout"`
	StreamTimeout     duration `toml:"stream_timeout"`
}

// PollingConfig holds the evaluation schedule.
type PollingConfig struct {
	Interval duration `toml:"interval"`
}

// LedgerConfig selects and parameterizes the history backend.
type LedgerConfig struct {
	// Backend is "file" or "postgres".
	Backend    string         `toml:"backend"`
	Path       string         `toml:"path"`
	MaxEntries int            `toml:"max_entries"`
	Postgres   PostgresConfig `toml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection parameters for the postgres
// ledger backend.
type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode"`
	MaxConns int    `toml:"pool_max_conns"`
	MinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables the
// rate cache.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	CacheTTL   duration `toml:"cache_ttl"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	Enabled           bool   `toml:"enabled"`
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "1m" or "10s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the values from
// config.example.toml.
func Defaults() Config {
	return Config{
		Arbitrage: ArbitrageConfig{
			CapitalTWD:     490000,
			FeeRatePercent: 0,
			MinProfitTWD:   1000,
		},
		Sources: SourcesConfig{
			BankURL:           "https://www.ubot.com.tw/MyBank/IBKB040101",
			BankCurrency:      "USD",
			ExchangeURL:       "https://max-api.maicoin.com/api/v3/ticker",
			ExchangeMarket:    "usdttwd",
			StreamURL:         "wss://ws.maicoin.com/ws",
			StreamMarket:      "usdtusd",
			StreamIndexMarket: "usdtwd",
			HTTPTimeout:       duration{10 * time.Second},
			StreamTimeout:     duration{5 * time.Second},
		},
		Polling: PollingConfig{
			Interval: duration{time.Minute},
		},
		Ledger: LedgerConfig{
			Backend:    "file",
			Path:       "arbitrage_data.json",
			MaxEntries: 100,
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "arbwatch",
				User:     "arbwatch",
				SSLMode:  "disable",
				MaxConns: 4,
				MinConns: 1,
			},
		},
		Redis: RedisConfig{
			Addr:       "",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    8080,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLedgerBackends enumerates the accepted values for Ledger.Backend.
var validLedgerBackends = map[string]bool{
	"file":     true,
	"postgres": true,
}

// Validate checks Config for invalid or missing values and returns a combined
// error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Arbitrage
	if c.Arbitrage.CapitalTWD <= 0 {
		errs = append(errs, "arbitrage: capital_twd must be > 0")
	}
	if c.Arbitrage.FeeRatePercent < 0 || c.Arbitrage.FeeRatePercent >= 100 {
		errs = append(errs, fmt.Sprintf("arbitrage: fee_rate_percent must be in [0, 100), got %g", c.Arbitrage.FeeRatePercent))
	}

	// Sources
	if c.Sources.BankURL == "" {
		errs = append(errs, "sources: bank_url must not be empty")
	}
	if c.Sources.BankCurrency == "" {
		errs = append(errs, "sources: bank_currency must not be empty")
	}
	if c.Sources.ExchangeURL == "" {
		errs = append(errs, "sources: exchange_url must not be empty")
	}
	if c.Sources.ExchangeMarket == "" {
		errs = append(errs, "sources: exchange_market must not be empty")
	}
	if c.Sources.StreamURL == "" {
		errs = append(errs, "sources: stream_url must not be empty")
	}
	if c.Sources.StreamMarket == "" {
		errs = append(errs, "sources: stream_market must not be empty")
	}
	if c.Sources.HTTPTimeout.Duration <= 0 {
		errs = append(errs, "sources: http_timeout must be positive")
	}
	if c.Sources.StreamTimeout.Duration <= 0 {
		errs = append(errs, "sources: stream_timeout must be positive")
	}

	// Polling
	if c.Polling.Interval.Duration < time.Second {
		errs = append(errs, fmt.Sprintf("polling: interval must be at least 1s, got %s", c.Polling.Interval.Duration))
	}

	// Ledger
	backend := strings.ToLower(c.Ledger.Backend)
	if !validLedgerBackends[backend] {
		errs = append(errs, fmt.Sprintf("ledger: unknown backend %q (valid: file, postgres)", c.Ledger.Backend))
	}
	if c.Ledger.MaxEntries < 1 {
		errs = append(errs, "ledger: max_entries must be >= 1")
	}
	if backend == "file" && strings.TrimSpace(c.Ledger.Path) == "" {
		errs = append(errs, "ledger: path must not be empty for the file backend")
	}
	if backend == "postgres" && strings.TrimSpace(c.Ledger.Postgres.DSN) == "" {
		if c.Ledger.Postgres.Host == "" {
			errs = append(errs, "ledger: postgres.host must not be empty (or set postgres.dsn)")
		}
		if c.Ledger.Postgres.Port <= 0 || c.Ledger.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("ledger: postgres.port must be 1-65535, got %d", c.Ledger.Postgres.Port))
		}
		if c.Ledger.Postgres.Database == "" {
			errs = append(errs, "ledger: postgres.database must not be empty")
		}
	}

	// Redis (optional; only checked when enabled)
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Notify
	if c.Notify.Enabled {
		hasTelegram := c.Notify.TelegramToken != "" && c.Notify.TelegramChatID != ""
		hasDiscord := c.Notify.DiscordWebhookURL != ""
		if !hasTelegram && !hasDiscord {
			errs = append(errs, "notify: enabled but no channel configured (set telegram_token + telegram_chat_id or discord_webhook_url)")
		}
		if (c.Notify.TelegramToken != "") != (c.Notify.TelegramChatID != "") {
			errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
