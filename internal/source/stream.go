package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

const (
	// defaultStreamTimeout bounds the whole call: dial, subscribe, and the
	// wait for one matching pricing message.
	defaultStreamTimeout = 5 * time.Second

	// streamWriteWait bounds each subscribe frame write.
	streamWriteWait = 5 * time.Second
)

// StreamSource obtains the USDT/USD ask price from the streaming feed. Each
// Fetch opens its own connection, subscribes, waits for exactly one matching
// pricing message, and closes the connection; nothing is reused across calls.
type StreamSource struct {
	url         string
	market      string
	indexMarket string
	timeout     time.Duration
	dialer      *websocket.Dialer
}

// NewStreamSource creates a StreamSource for the given WebSocket URL.
// market is the pricing channel market to resolve ("usdtusd") and indexMarket
// the index-price channel subscribed alongside it ("usdtwd").
func NewStreamSource(url, market, indexMarket string, timeout time.Duration) *StreamSource {
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}
	return &StreamSource{
		url:         url,
		market:      market,
		indexMarket: indexMarket,
		timeout:     timeout,
		dialer:      &websocket.Dialer{HandshakeTimeout: timeout},
	}
}

// ID implements domain.RateSource.
func (s *StreamSource) ID() domain.SourceID {
	return domain.SourceStream
}

// subscribeCommand is the outbound subscription frame.
type subscribeCommand struct {
	Action        string         `json:"action"`
	Subscriptions []subscription `json:"subscriptions"`
}

type subscription struct {
	Channel string `json:"channel"`
	Market  string `json:"market"`
}

// pricingEnvelope is the inbound message shape. The feed abbreviates the
// channel and market fields to "c" and "M".
type pricingEnvelope struct {
	Channel string `json:"c"`
	Market  string `json:"M"`
	Pricing struct {
		Ask []struct {
			Price string `json:"price"`
		} `json:"ask"`
	} `json:"pr"`
}

// Fetch dials the feed, subscribes to the index-price and pricing channels,
// and blocks until the first pricing message for the configured market
// arrives. Messages for other channels or markets are ignored. The wait is
// bounded by the source timeout; on expiry the connection is closed and the
// call fails with the timeout sentinel. A message that does not parse as the
// expected envelope fails the call immediately.
func (s *StreamSource) Fetch(ctx context.Context) (domain.PriceQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return domain.PriceQuote{}, requestErr("stream: dial", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	subs := []subscription{
		{Channel: "index_price", Market: s.indexMarket},
		{Channel: "pricing", Market: s.market},
	}
	for _, sub := range subs {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		cmd := subscribeCommand{Action: "sub", Subscriptions: []subscription{sub}}
		if err := conn.WriteJSON(cmd); err != nil {
			return domain.PriceQuote{}, requestErr("stream: subscribe "+sub.Channel, err)
		}
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return domain.PriceQuote{}, requestErr("stream: read", err)
		}

		var env pricingEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return domain.PriceQuote{}, fmt.Errorf("stream: decode message: %v: %w", err, domain.ErrParse)
		}

		if env.Channel != "pricing" || env.Market != s.market {
			continue
		}
		if len(env.Pricing.Ask) == 0 || strings.TrimSpace(env.Pricing.Ask[0].Price) == "" {
			// Pricing frame without an ask side; keep waiting.
			continue
		}

		price, err := decimal.NewFromString(strings.TrimSpace(env.Pricing.Ask[0].Price))
		if err != nil {
			return domain.PriceQuote{}, fmt.Errorf("stream: ask price %q: %w", env.Pricing.Ask[0].Price, domain.ErrParse)
		}
		return domain.NewPriceQuote(domain.SourceStream, price)
	}
}

var _ domain.RateSource = (*StreamSource)(nil)
