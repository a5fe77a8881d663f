package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// Arbitrage
	setFloat64(&cfg.Arbitrage.CapitalTWD, "ARBWATCH_ARBITRAGE_CAPITAL_TWD")
	setFloat64(&cfg.Arbitrage.FeeRatePercent, "ARBWATCH_ARBITRAGE_FEE_RATE_PERCENT")
	setFloat64(&cfg.Arbitrage.MinProfitTWD, "ARBWATCH_ARBITRAGE_MIN_PROFIT_TWD")

	// Sources
	setStr(&cfg.Sources.BankURL, "ARBWATCH_SOURCES_BANK_URL")
	setStr(&cfg.Sources.BankCurrency, "ARBWATCH_SOURCES_BANK_CURRENCY")
	setStr(&cfg.Sources.ExchangeURL, "ARBWATCH_SOURCES_EXCHANGE_URL")
	setStr(&cfg.Sources.ExchangeMarket, "ARBWATCH_SOURCES_EXCHANGE_MARKET")
	setStr(&cfg.Sources.StreamURL, "ARBWATCH_SOURCES_STREAM_URL")
	setStr(&cfg.Sources.StreamMarket, "ARBWATCH_SOURCES_STREAM_MARKET")
	setStr(&cfg.Sources.StreamIndexMarket, "ARBWATCH_SOURCES_STREAM_INDEX_MARKET")
	setDuration(&cfg.Sources.HTTPTimeout, "ARBWATCH_SOURCES_HTTP_TIMEOUT")
	setDuration(&cfg.Sources.StreamTimeout, "ARBWATCH_SOURCES_STREAM_TIMEOUT")

	// Polling
	setDuration(&cfg.Polling.Interval, "ARBWATCH_POLLING_INTERVAL")

	// Ledger
	setStr(&cfg.Ledger.Backend, "ARBWATCH_LEDGER_BACKEND")
	setStr(&cfg.Ledger.Path, "ARBWATCH_LEDGER_PATH")
	setInt(&cfg.Ledger.MaxEntries, "ARBWATCH_LEDGER_MAX_ENTRIES")
	setStr(&cfg.Ledger.Postgres.DSN, "ARBWATCH_LEDGER_POSTGRES_DSN")
	setStr(&cfg.Ledger.Postgres.Host, "ARBWATCH_LEDGER_POSTGRES_HOST")
	setInt(&cfg.Ledger.Postgres.Port, "ARBWATCH_LEDGER_POSTGRES_PORT")
	setStr(&cfg.Ledger.Postgres.Database, "ARBWATCH_LEDGER_POSTGRES_DATABASE")
	setStr(&cfg.Ledger.Postgres.User, "ARBWATCH_LEDGER_POSTGRES_USER")
	setStr(&cfg.Ledger.Postgres.Password, "ARBWATCH_LEDGER_POSTGRES_PASSWORD")
	setStr(&cfg.Ledger.Postgres.SSLMode, "ARBWATCH_LEDGER_POSTGRES_SSLMODE")
	setInt(&cfg.Ledger.Postgres.MaxConns, "ARBWATCH_LEDGER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Ledger.Postgres.MinConns, "ARBWATCH_LEDGER_POSTGRES_POOL_MIN_CONNS")

	// Redis
	setStr(&cfg.Redis.Addr, "ARBWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBWATCH_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.CacheTTL, "ARBWATCH_REDIS_CACHE_TTL")

	// Notify
	setBool(&cfg.Notify.Enabled, "ARBWATCH_NOTIFY_ENABLED")
	setStr(&cfg.Notify.TelegramToken, "ARBWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBWATCH_NOTIFY_DISCORD_WEBHOOK_URL")

	// Server
	setBool(&cfg.Server.Enabled, "ARBWATCH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBWATCH_SERVER_PORT")

	// Top-level
	setStr(&cfg.LogLevel, "ARBWATCH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
