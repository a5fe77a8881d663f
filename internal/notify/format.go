package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// OpportunityTitle is the alert title for flagged results.
const OpportunityTitle = "USDT/USD arbitrage opportunity"

// FormatOpportunity renders the human-readable alert body for a flagged
// result: the conversion path, the capital and expected profit, the three
// rates, and the evaluation time.
func FormatOpportunity(result domain.ArbitrageResult) string {
	var b strings.Builder

	b.WriteString("Path: buy USD at bank -> buy USDT with USD on streaming venue -> transfer to exchange -> sell USDT for TWD -> withdraw\n\n")

	fmt.Fprintf(&b, "Expected profit (capital %s TWD): %s TWD\n\n",
		result.CapitalTWD.StringFixed(0),
		result.ProfitTWD.StringFixed(2),
	)

	b.WriteString("Current rates:\n")
	fmt.Fprintf(&b, "- bank USD/TWD spot sell: %s\n", result.Snapshot.BankRate)
	fmt.Fprintf(&b, "- streaming USDT/USD ask: %s\n", result.Snapshot.StreamRate)
	fmt.Fprintf(&b, "- exchange USDT/TWD buy: %s\n", result.Snapshot.ExchangeRate)

	fmt.Fprintf(&b, "\nTime: %s\n", result.EvaluatedAt.Format("2006-01-02 15:04:05 MST"))
	b.WriteString("\nMind market volatility and fees before acting.")

	return b.String()
}
