package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// ExchangeSource fetches the exchange ticker for a market pair and reads its
// buy price.
type ExchangeSource struct {
	endpoint string
	market   string
	client   *http.Client
}

// NewExchangeSource creates an ExchangeSource for the given ticker endpoint
// and market pair, e.g. "usdttwd".
func NewExchangeSource(endpoint, market string, timeout time.Duration) *ExchangeSource {
	if timeout <= 0 {
		timeout = defaultBankTimeout
	}
	return &ExchangeSource{
		endpoint: endpoint,
		market:   market,
		client:   &http.Client{Timeout: timeout},
	}
}

// ID implements domain.RateSource.
func (s *ExchangeSource) ID() domain.SourceID {
	return domain.SourceExchange
}

// Fetch requests the ticker and extracts the buy price.
func (s *ExchangeSource) Fetch(ctx context.Context) (domain.PriceQuote, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("exchange: parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("market", s.market)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("exchange: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, requestErr("exchange: request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.PriceQuote{}, fmt.Errorf("exchange: status %d: %w", resp.StatusCode, domain.ErrTransport)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.PriceQuote{}, requestErr("exchange: read body", err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.PriceQuote{}, fmt.Errorf("exchange: ticker %s: %w", s.market, domain.ErrEmptyResponse)
	}

	var ticker struct {
		Buy string `json:"buy"`
	}
	if err := json.Unmarshal(trimmed, &ticker); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("exchange: decode ticker: %v: %w", err, domain.ErrParse)
	}
	if strings.TrimSpace(ticker.Buy) == "" {
		return domain.PriceQuote{}, fmt.Errorf("exchange: ticker %s has no buy price: %w", s.market, domain.ErrParse)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(ticker.Buy))
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("exchange: buy price %q: %w", ticker.Buy, domain.ErrParse)
	}

	return domain.NewPriceQuote(domain.SourceExchange, price)
}

var _ domain.RateSource = (*ExchangeSource)(nil)
