package notify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func TestFormatOpportunity(t *testing.T) {
	result := domain.ArbitrageResult{
		ID: "r1",
		Snapshot: domain.MarketSnapshot{
			BankRate:     decimal.RequireFromString("31.50"),
			ExchangeRate: decimal.RequireFromString("31.20"),
			StreamRate:   decimal.RequireFromString("1.0019"),
		},
		CapitalTWD:  decimal.NewFromInt(490000),
		ProfitTWD:   decimal.RequireFromString("1530.5"),
		Opportunity: true,
		EvaluatedAt: time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC),
	}

	body := FormatOpportunity(result)

	assert.Contains(t, body, "490000 TWD")
	assert.Contains(t, body, "1530.50 TWD")
	assert.Contains(t, body, "31.5")
	assert.Contains(t, body, "31.2")
	assert.Contains(t, body, "1.0019")
	assert.Contains(t, body, "2026-08-31 12:30:00")
	assert.Contains(t, body, "Path:")
}
