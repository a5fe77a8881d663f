package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

func snapshot(bank, exchange, stream string) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		BankRate:     decimal.RequireFromString(bank),
		ExchangeRate: decimal.RequireFromString(exchange),
		StreamRate:   decimal.RequireFromString(stream),
		CapturedAt:   time.Now().UTC(),
	}
}

func TestEvaluateWorkedExample(t *testing.T) {
	snap := snapshot("31.50", "31.20", "1.0019")
	params := Params{
		CapitalTWD:     decimal.NewFromInt(490000),
		FeeRatePercent: decimal.Zero,
		MinProfitTWD:   decimal.NewFromInt(1000),
	}

	result, err := Evaluate(snap, params)
	require.NoError(t, err)

	assert.InDelta(t, 15572.8587, result.USDAmount.InexactFloat64(), 0.001)
	assert.InDelta(t, 15543.3264, result.USDTAmount.InexactFloat64(), 0.001)
	assert.InDelta(t, 484951.784, result.GrossTWD.InexactFloat64(), 0.01)
	assert.InDelta(t, -5078.216, result.ProfitTWD.InexactFloat64(), 0.01)
	assert.False(t, result.Opportunity)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.EvaluatedAt.IsZero())
}

func TestEvaluateDeterministic(t *testing.T) {
	snap := snapshot("31.50", "31.20", "1.0019")
	params := Params{
		CapitalTWD:     decimal.NewFromInt(490000),
		FeeRatePercent: decimal.RequireFromString("0.15"),
		MinProfitTWD:   decimal.NewFromInt(1000),
	}

	first, err := Evaluate(snap, params)
	require.NoError(t, err)
	second, err := Evaluate(snap, params)
	require.NoError(t, err)

	assert.True(t, first.ProfitTWD.Equal(second.ProfitTWD),
		"profit %s != %s for identical inputs", first.ProfitTWD, second.ProfitTWD)
	assert.Equal(t, first.Opportunity, second.Opportunity)
}

func TestEvaluateThresholdIsStrict(t *testing.T) {
	// Effective bank rate 2, stream 1, exchange 2: gross equals capital, so
	// profit is exactly the negated withdrawal fee.
	snap := snapshot("2.035", "2", "1")
	params := Params{
		CapitalTWD:     decimal.NewFromInt(1000),
		FeeRatePercent: decimal.Zero,
		MinProfitTWD:   decimal.NewFromInt(-30),
	}

	result, err := Evaluate(snap, params)
	require.NoError(t, err)
	require.True(t, result.ProfitTWD.Equal(decimal.NewFromInt(-30)))
	assert.False(t, result.Opportunity, "profit equal to threshold must not be flagged")

	params.MinProfitTWD = decimal.NewFromInt(-31)
	result, err = Evaluate(snap, params)
	require.NoError(t, err)
	assert.True(t, result.Opportunity, "profit above threshold must be flagged")
}

func TestEvaluateFeeRate(t *testing.T) {
	snap := snapshot("2.035", "2", "1")
	params := Params{
		CapitalTWD:     decimal.NewFromInt(1000),
		FeeRatePercent: decimal.NewFromInt(10),
		MinProfitTWD:   decimal.Zero,
	}

	result, err := Evaluate(snap, params)
	require.NoError(t, err)
	// gross 1000, minus 10% fee, minus capital, minus withdrawal fee.
	assert.True(t, result.ProfitTWD.Equal(decimal.NewFromInt(-130)),
		"got %s", result.ProfitTWD)
}

func TestEvaluateRejectsBankRateBelowDiscount(t *testing.T) {
	snap := snapshot("0.02", "31.20", "1.0019")
	params := Params{CapitalTWD: decimal.NewFromInt(490000)}

	_, err := Evaluate(snap, params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidRate))
}

func TestEvaluateRejectsNonPositiveRates(t *testing.T) {
	params := Params{CapitalTWD: decimal.NewFromInt(490000)}

	for name, snap := range map[string]domain.MarketSnapshot{
		"zero bank":         snapshot("0", "31.20", "1.0019"),
		"negative exchange": snapshot("31.50", "-1", "1.0019"),
		"zero stream":       snapshot("31.50", "31.20", "0"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(snap, params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidRate))
		})
	}
}
