// Package ledger implements the bounded evaluation history behind
// domain.Ledger, either as a JSON-array file or as a PostgreSQL table.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// DefaultMaxEntries is the retention cap applied when none is configured.
const DefaultMaxEntries = 100

// FileLedger keeps the history as a JSON array on disk. Each Append loads the
// whole array, appends, truncates to the newest maxEntries, and rewrites the
// file via a temp-file rename. Not safe for concurrent writers across
// processes; within the process a mutex serializes access.
type FileLedger struct {
	path       string
	maxEntries int

	mu sync.Mutex
}

// NewFileLedger creates a FileLedger at path. A non-positive maxEntries falls
// back to DefaultMaxEntries.
func NewFileLedger(path string, maxEntries int) *FileLedger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileLedger{path: path, maxEntries: maxEntries}
}

// Append adds result to the history, evicting the oldest entries beyond the
// retention cap.
func (l *FileLedger) Append(ctx context.Context, result domain.ArbitrageResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	results, err := l.load()
	if err != nil {
		return err
	}

	results = append(results, result)
	if len(results) > l.maxEntries {
		results = results[len(results)-l.maxEntries:]
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal history: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write history: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("ledger: replace history: %w", err)
	}
	return nil
}

// Recent returns up to limit results, newest first.
func (l *FileLedger) Recent(ctx context.Context, limit int) ([]domain.ArbitrageResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	results, err := l.load()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}

	out := make([]domain.ArbitrageResult, 0, limit)
	for i := len(results) - 1; i >= len(results)-limit; i-- {
		out = append(out, results[i])
	}
	return out, nil
}

// load reads the history file; a missing file is an empty history.
func (l *FileLedger) load() ([]domain.ArbitrageResult, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read history: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var results []domain.ArbitrageResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("ledger: decode history: %w", err)
	}
	return results, nil
}

var _ domain.Ledger = (*FileLedger)(nil)
