package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPriceQuote(t *testing.T) {
	q, err := NewPriceQuote(SourceBank, decimal.RequireFromString("31.465"))
	require.NoError(t, err)
	assert.Equal(t, SourceBank, q.Source)
	assert.True(t, q.Value.Equal(decimal.RequireFromString("31.465")))
	assert.False(t, q.CapturedAt.IsZero())
}

func TestNewPriceQuoteRejectsNonPositive(t *testing.T) {
	_, err := NewPriceQuote(SourceExchange, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = NewPriceQuote(SourceStream, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestArbitrageResultJSONRoundTrip(t *testing.T) {
	r := ArbitrageResult{
		ID:          "9f1c2a10-7b3e-4c2f-9a58-000000000001",
		CapitalTWD:  decimal.NewFromInt(490000),
		USDAmount:   decimal.RequireFromString("15572.8587"),
		USDTAmount:  decimal.RequireFromString("15543.3264"),
		GrossTWD:    decimal.RequireFromString("484951.78"),
		ProfitTWD:   decimal.RequireFromString("-5078.22"),
		Opportunity: false,
	}

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var back ArbitrageResult
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, r.ID, back.ID)
	assert.True(t, r.ProfitTWD.Equal(back.ProfitTWD))
	assert.True(t, r.CapitalTWD.Equal(back.CapitalTWD))
}
