package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

type stubLedger struct {
	results []domain.ArbitrageResult
	err     error
	gotLim  int
}

func (l *stubLedger) Append(ctx context.Context, result domain.ArbitrageResult) error {
	return nil
}

func (l *stubLedger) Recent(ctx context.Context, limit int) ([]domain.ArbitrageResult, error) {
	l.gotLim = limit
	return l.results, l.err
}

type stubCache struct {
	rates domain.LatestRates
	err   error
}

func (c *stubCache) SetRates(ctx context.Context, snap domain.MarketSnapshot, profit decimal.Decimal) error {
	return nil
}

func (c *stubCache) GetRates(ctx context.Context) (domain.LatestRates, error) {
	return c.rates, c.err
}

func newTestServer(ledger domain.Ledger, cache domain.RateCache) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{Port: 0}, ledger, cache, prometheus.NewRegistry(), logger)
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubLedger{}, nil)

	rec := doGet(t, s, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRatesWithoutCache(t *testing.T) {
	s := newTestServer(&stubLedger{}, nil)

	rec := doGet(t, s, "/api/rates")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRatesBeforeFirstCycle(t *testing.T) {
	s := newTestServer(&stubLedger{}, &stubCache{err: domain.ErrNotFound})

	rec := doGet(t, s, "/api/rates")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRatesServesCachedView(t *testing.T) {
	cache := &stubCache{rates: domain.LatestRates{
		BankRate:     decimal.RequireFromString("31.465"),
		ExchangeRate: decimal.RequireFromString("31.2"),
		StreamRate:   decimal.RequireFromString("1.0019"),
		ProfitTWD:    decimal.RequireFromString("-5078.22"),
		UpdatedAt:    time.Now().UTC(),
	}}
	s := newTestServer(&stubLedger{}, cache)

	rec := doGet(t, s, "/api/rates")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.LatestRates
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.BankRate.Equal(cache.rates.BankRate))
	assert.True(t, got.ProfitTWD.Equal(cache.rates.ProfitTWD))
}

func TestRecentDefaultsLimit(t *testing.T) {
	ledger := &stubLedger{results: []domain.ArbitrageResult{{ID: "a"}, {ID: "b"}}}
	s := newTestServer(ledger, nil)

	rec := doGet(t, s, "/api/history/recent")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, ledger.gotLim)

	var got []domain.ArbitrageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
}

func TestRecentCustomLimit(t *testing.T) {
	ledger := &stubLedger{}
	s := newTestServer(ledger, nil)

	rec := doGet(t, s, "/api/history/recent?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ledger.gotLim)

	// Empty history still serves a JSON array, not null.
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRecentRejectsBadLimit(t *testing.T) {
	s := newTestServer(&stubLedger{}, nil)

	for _, raw := range []string{"0", "-3", "abc"} {
		rec := doGet(t, s, "/api/history/recent?limit="+raw)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", raw)
	}
}

func TestRecentLedgerError(t *testing.T) {
	s := newTestServer(&stubLedger{err: errors.New("backend down")}, nil)

	rec := doGet(t, s, "/api/history/recent")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&stubLedger{}, nil)

	rec := doGet(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
