package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// PostgresConfig holds connection parameters for the PostgreSQL ledger.
type PostgresConfig struct {
	DSN      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

// dsn builds a connection string when no explicit DSN is configured.
func dsn(cfg PostgresConfig) string {
	if strings.TrimSpace(cfg.DSN) != "" {
		return cfg.DSN
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Database, sslMode,
	)
}

const schema = `
CREATE TABLE IF NOT EXISTS arbitrage_results (
    id           UUID PRIMARY KEY,
    payload      JSONB NOT NULL,
    profit_twd   NUMERIC NOT NULL,
    opportunity  BOOLEAN NOT NULL,
    evaluated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS arbitrage_results_evaluated_at_idx
    ON arbitrage_results (evaluated_at DESC);
`

// PostgresLedger keeps the history in a single table, pruned to the newest
// maxEntries rows after each insert.
type PostgresLedger struct {
	pool       *pgxpool.Pool
	maxEntries int
}

// NewPostgresLedger connects a pool, ensures the schema, and returns the
// ledger. Close the ledger to release the pool.
func NewPostgresLedger(ctx context.Context, cfg PostgresConfig, maxEntries int) (*PostgresLedger, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	poolCfg, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("ledger: parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: ensure schema: %w", err)
	}

	return &PostgresLedger{pool: pool, maxEntries: maxEntries}, nil
}

// Append inserts the result and prunes rows beyond the retention cap, oldest
// first.
func (l *PostgresLedger) Append(ctx context.Context, result domain.ArbitrageResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("ledger: marshal result: %w", err)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO arbitrage_results (id, payload, profit_twd, opportunity, evaluated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		result.ID, payload, result.ProfitTWD, result.Opportunity, result.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("ledger: insert result: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM arbitrage_results
		 WHERE id NOT IN (
		     SELECT id FROM arbitrage_results
		     ORDER BY evaluated_at DESC, id DESC
		     LIMIT $1
		 )`,
		l.maxEntries,
	)
	if err != nil {
		return fmt.Errorf("ledger: prune history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: commit: %w", err)
	}
	return nil
}

// Recent returns up to limit results, newest first.
func (l *PostgresLedger) Recent(ctx context.Context, limit int) ([]domain.ArbitrageResult, error) {
	if limit <= 0 || limit > l.maxEntries {
		limit = l.maxEntries
	}

	rows, err := l.pool.Query(ctx,
		`SELECT payload FROM arbitrage_results
		 ORDER BY evaluated_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: query history: %w", err)
	}
	defer rows.Close()

	var results []domain.ArbitrageResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("ledger: scan result: %w", err)
		}
		var result domain.ArbitrageResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("ledger: decode result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate history: %w", err)
	}
	return results, nil
}

// Close releases the connection pool.
func (l *PostgresLedger) Close() {
	l.pool.Close()
}

var _ domain.Ledger = (*PostgresLedger)(nil)
