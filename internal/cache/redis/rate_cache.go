package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// ratesKey is the hash holding the rates of the latest successful cycle.
const ratesKey = "arbwatch:rates"

// RateCache implements domain.RateCache using a single Redis hash with the
// three rates, the computed profit, and a Unix-nanosecond timestamp.
type RateCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRateCache creates a RateCache backed by the given Client. A zero ttl
// keeps entries until overwritten.
func NewRateCache(c *Client, ttl time.Duration) *RateCache {
	return &RateCache{rdb: c.Underlying(), ttl: ttl}
}

// SetRates stores the snapshot rates and profit of a completed cycle.
func (rc *RateCache) SetRates(ctx context.Context, snap domain.MarketSnapshot, profit decimal.Decimal) error {
	fields := map[string]interface{}{
		"bank":     snap.BankRate.String(),
		"exchange": snap.ExchangeRate.String(),
		"stream":   snap.StreamRate.String(),
		"profit":   profit.String(),
		"ts":       strconv.FormatInt(snap.CapturedAt.UnixNano(), 10),
	}
	if err := rc.rdb.HSet(ctx, ratesKey, fields).Err(); err != nil {
		return fmt.Errorf("redis: set rates: %w", err)
	}
	if rc.ttl > 0 {
		if err := rc.rdb.Expire(ctx, ratesKey, rc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire rates: %w", err)
		}
	}
	return nil
}

// GetRates returns the cached latest rates. It returns domain.ErrNotFound when
// no cycle has been cached yet.
func (rc *RateCache) GetRates(ctx context.Context) (domain.LatestRates, error) {
	vals, err := rc.rdb.HGetAll(ctx, ratesKey).Result()
	if err != nil {
		return domain.LatestRates{}, fmt.Errorf("redis: get rates: %w", err)
	}
	if len(vals) == 0 {
		return domain.LatestRates{}, domain.ErrNotFound
	}

	out := domain.LatestRates{}
	for field, dst := range map[string]*decimal.Decimal{
		"bank":     &out.BankRate,
		"exchange": &out.ExchangeRate,
		"stream":   &out.StreamRate,
		"profit":   &out.ProfitTWD,
	} {
		raw, ok := vals[field]
		if !ok {
			return domain.LatestRates{}, domain.ErrNotFound
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.LatestRates{}, fmt.Errorf("redis: parse %s rate: %w", field, err)
		}
		*dst = d
	}

	if raw, ok := vals["ts"]; ok {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.LatestRates{}, fmt.Errorf("redis: parse rates timestamp: %w", err)
		}
		out.UpdatedAt = time.Unix(0, nanos).UTC()
	}
	return out, nil
}

var _ domain.RateCache = (*RateCache)(nil)
