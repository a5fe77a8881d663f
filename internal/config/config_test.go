package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float64(490000), cfg.Arbitrage.CapitalTWD)
	assert.Equal(t, float64(1000), cfg.Arbitrage.MinProfitTWD)
	assert.Equal(t, time.Minute, cfg.Polling.Interval.Duration)
	assert.Equal(t, "file", cfg.Ledger.Backend)
	assert.Equal(t, 100, cfg.Ledger.MaxEntries)
	assert.Empty(t, cfg.Redis.Addr, "redis is disabled out of the box")
	assert.False(t, cfg.Notify.Enabled)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[arbitrage]
capital_twd = 250000.0
min_profit_twd = 500.0

[polling]
interval = "30s"

[sources]
http_timeout = "3s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, float64(250000), cfg.Arbitrage.CapitalTWD)
	assert.Equal(t, float64(500), cfg.Arbitrage.MinProfitTWD)
	assert.Equal(t, 30*time.Second, cfg.Polling.Interval.Duration)
	assert.Equal(t, 3*time.Second, cfg.Sources.HTTPTimeout.Duration)

	// Untouched sections keep their defaults.
	assert.Equal(t, "usdttwd", cfg.Sources.ExchangeMarket)
	assert.Equal(t, "file", cfg.Ledger.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
[arbitrage]
capital_twd = 250000.0
`)

	t.Setenv("ARBWATCH_ARBITRAGE_CAPITAL_TWD", "300000")
	t.Setenv("ARBWATCH_POLLING_INTERVAL", "45s")
	t.Setenv("ARBWATCH_LEDGER_BACKEND", "postgres")
	t.Setenv("ARBWATCH_LEDGER_POSTGRES_PASSWORD", "hunter2")
	t.Setenv("ARBWATCH_NOTIFY_ENABLED", "true")
	t.Setenv("ARBWATCH_NOTIFY_TELEGRAM_TOKEN", "tok")
	t.Setenv("ARBWATCH_NOTIFY_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float64(300000), cfg.Arbitrage.CapitalTWD)
	assert.Equal(t, 45*time.Second, cfg.Polling.Interval.Duration)
	assert.Equal(t, "postgres", cfg.Ledger.Backend)
	assert.Equal(t, "hunter2", cfg.Ledger.Postgres.Password)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "tok", cfg.Notify.TelegramToken)
}

func TestEnvOverrideIgnoresMalformedValues(t *testing.T) {
	path := writeConfig(t, "")

	t.Setenv("ARBWATCH_ARBITRAGE_CAPITAL_TWD", "not-a-number")
	t.Setenv("ARBWATCH_POLLING_INTERVAL", "soon")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, float64(490000), cfg.Arbitrage.CapitalTWD)
	assert.Equal(t, time.Minute, cfg.Polling.Interval.Duration)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.Arbitrage.CapitalTWD = 0
	cfg.Arbitrage.FeeRatePercent = 100
	cfg.Sources.BankURL = ""
	cfg.Polling.Interval.Duration = 100 * time.Millisecond
	cfg.Ledger.Backend = "sqlite"
	cfg.Ledger.MaxEntries = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "log_level")
	assert.Contains(t, msg, "capital_twd")
	assert.Contains(t, msg, "fee_rate_percent")
	assert.Contains(t, msg, "bank_url")
	assert.Contains(t, msg, "interval")
	assert.Contains(t, msg, "backend")
	assert.Contains(t, msg, "max_entries")
}

func TestValidatePostgresBackendRequiresConnection(t *testing.T) {
	cfg := Defaults()
	cfg.Ledger.Backend = "postgres"
	cfg.Ledger.Postgres.Host = ""
	cfg.Ledger.Postgres.Database = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.host")
	assert.Contains(t, err.Error(), "postgres.database")

	// A DSN alone satisfies the backend.
	cfg.Ledger.Postgres.DSN = "postgres://u:p@db:5432/arb"
	assert.NoError(t, cfg.Validate())
}

func TestValidateNotifyChannelPairing(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.Enabled = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no channel configured")

	cfg.Notify.TelegramToken = "tok"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")

	cfg.Notify.TelegramChatID = "42"
	assert.NoError(t, cfg.Validate())
}
