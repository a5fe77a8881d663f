package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// defaultBankTimeout bounds a single bank rate request.
const defaultBankTimeout = 10 * time.Second

// BankSource fetches the bank's spot USD/TWD board and reads the immediate
// sell rate for the configured currency.
type BankSource struct {
	endpoint string
	currency string
	client   *http.Client
}

// NewBankSource creates a BankSource hitting the given endpoint. currency is
// the board record to select, e.g. "USD". A non-positive timeout falls back to
// the 10-second default.
func NewBankSource(endpoint, currency string, timeout time.Duration) *BankSource {
	if timeout <= 0 {
		timeout = defaultBankTimeout
	}
	return &BankSource{
		endpoint: endpoint,
		currency: currency,
		client:   &http.Client{Timeout: timeout},
	}
}

// ID implements domain.RateSource.
func (s *BankSource) ID() domain.SourceID {
	return domain.SourceBank
}

// bankBoard mirrors the bank API response. Rates are published as strings.
type bankBoard struct {
	RespBody struct {
		RateList []struct {
			CurrencyEName string `json:"CurrencyEName"`
			ImmeSell      string `json:"ImmeSell"`
		} `json:"RateList"`
	} `json:"RespBody"`
}

// Fetch requests the rate board and extracts the immediate sell rate for the
// configured currency.
func (s *BankSource) Fetch(ctx context.Context) (domain.PriceQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("bank: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, requestErr("bank: request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.PriceQuote{}, fmt.Errorf("bank: status %d: %w", resp.StatusCode, domain.ErrTransport)
	}

	var board bankBoard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("bank: decode board: %v: %w", err, domain.ErrParse)
	}

	for _, rec := range board.RespBody.RateList {
		if !strings.EqualFold(rec.CurrencyEName, s.currency) {
			continue
		}
		if strings.TrimSpace(rec.ImmeSell) == "" {
			return domain.PriceQuote{}, fmt.Errorf("bank: %s record has no immediate sell rate: %w", s.currency, domain.ErrParse)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rec.ImmeSell))
		if err != nil {
			return domain.PriceQuote{}, fmt.Errorf("bank: immediate sell rate %q: %w", rec.ImmeSell, domain.ErrParse)
		}
		return domain.NewPriceQuote(domain.SourceBank, rate)
	}

	return domain.PriceQuote{}, fmt.Errorf("bank: no %s record on rate board: %w", s.currency, domain.ErrNotFound)
}

var _ domain.RateSource = (*BankSource)(nil)
