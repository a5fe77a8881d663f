package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

var (
	// bankDiscount is the fixed per-USD spread the bank grants on app/card
	// conversions, subtracted from the quoted sell rate.
	bankDiscount = decimal.RequireFromString("0.035")

	// withdrawalFeeTWD is the exchange's flat TWD withdrawal fee.
	withdrawalFeeTWD = decimal.NewFromInt(30)

	oneHundred = decimal.NewFromInt(100)
)

// Params are the static inputs of the arbitrage computation.
type Params struct {
	// CapitalTWD is the amount moved through the conversion path.
	CapitalTWD decimal.Decimal
	// FeeRatePercent is the exchange trade fee in percent.
	FeeRatePercent decimal.Decimal
	// MinProfitTWD is the strict threshold above which a result is flagged
	// as an opportunity.
	MinProfitTWD decimal.Decimal
}

// Evaluate computes the arbitrage margin for one snapshot. It is pure and
// deterministic: identical inputs always yield the identical profit.
//
// The path is: buy USD at the bank (sell rate minus the app discount), buy
// USDT with USD on the streaming venue at its ask, sell USDT for TWD on the
// exchange at its buy price, subtract the trade fee and the flat withdrawal
// fee.
func Evaluate(snap domain.MarketSnapshot, p Params) (domain.ArbitrageResult, error) {
	for _, rate := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"bank", snap.BankRate},
		{"exchange", snap.ExchangeRate},
		{"stream", snap.StreamRate},
	} {
		if !rate.value.IsPositive() {
			return domain.ArbitrageResult{}, fmt.Errorf("engine: %s rate %s must be positive: %w", rate.name, rate.value, domain.ErrInvalidRate)
		}
	}

	effectiveBankRate := snap.BankRate.Sub(bankDiscount)
	if !effectiveBankRate.IsPositive() {
		return domain.ArbitrageResult{}, fmt.Errorf("engine: bank rate %s does not exceed discount %s: %w", snap.BankRate, bankDiscount, domain.ErrInvalidRate)
	}

	usdAmount := p.CapitalTWD.Div(effectiveBankRate)
	usdtAmount := usdAmount.Div(snap.StreamRate)
	grossTWD := usdtAmount.Mul(snap.ExchangeRate)

	feeFraction := p.FeeRatePercent.Div(oneHundred)
	profitTWD := grossTWD.Mul(decimal.NewFromInt(1).Sub(feeFraction)).
		Sub(p.CapitalTWD).
		Sub(withdrawalFeeTWD)

	return domain.ArbitrageResult{
		ID:          uuid.NewString(),
		Snapshot:    snap,
		CapitalTWD:  p.CapitalTWD,
		USDAmount:   usdAmount,
		USDTAmount:  usdtAmount,
		GrossTWD:    grossTWD,
		ProfitTWD:   profitTWD,
		Opportunity: profitTWD.GreaterThan(p.MinProfitTWD),
		EvaluatedAt: time.Now().UTC(),
	}, nil
}
