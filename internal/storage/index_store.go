package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// IndexEntry is one symbol -> source location row.
type IndexEntry struct {
	Symbol string `json:"symbol"`
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
}

// IndexRun describes one indexer pass.
type IndexRun struct {
	RunID       string    `json:"runId"`
	Roots       []string  `json:"roots"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	SymbolCount int       `json:"symbolCount"`
}

// IndexStore persists the symbol index.
type IndexStore struct {
	db *DB
}

// NewIndexStore creates a new index store
func NewIndexStore(db *DB) *IndexStore {
	return &IndexStore{db: db}
}

// Replace swaps the whole index for entries in one transaction and records
// the run. When entries repeat a symbol, the later entry wins.
func (s *IndexStore) Replace(ctx context.Context, roots []string, entries []IndexEntry) (*IndexRun, error) {
	run := &IndexRun{
		RunID:     uuid.New().String(),
		Roots:     roots,
		StartedAt: time.Now().UTC(),
	}

	err := s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO index_runs (run_id, roots, started_at)
			VALUES (?, ?, ?)
		`, run.RunID, strings.Join(roots, ","), run.StartedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("failed to record index run: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM symbol_index"); err != nil {
			return fmt.Errorf("failed to clear symbol index: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO symbol_index (symbol, path, kind, line, run_id)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Symbol, e.Path, e.Kind, e.Line, run.RunID); err != nil {
				return fmt.Errorf("failed to insert %s: %w", e.Symbol, err)
			}
		}

		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbol_index").Scan(&count); err != nil {
			return fmt.Errorf("failed to count symbols: %w", err)
		}
		run.SymbolCount = count
		run.FinishedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, `
			UPDATE index_runs SET finished_at = ?, symbol_count = ? WHERE run_id = ?
		`, run.FinishedAt.Format(timeLayout), run.SymbolCount, run.RunID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.db.logger.Info("Symbol index replaced",
		"run_id", run.RunID,
		"symbols", run.SymbolCount,
	)
	return run, nil
}

// All returns every indexed symbol ordered by name.
func (s *IndexStore) All(ctx context.Context) ([]IndexEntry, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT symbol, path, kind, line FROM symbol_index ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol index: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.Symbol, &e.Path, &e.Kind, &e.Line); err != nil {
			return nil, fmt.Errorf("failed to scan symbol index row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Lookup returns the entry for symbol, or nil if it is not indexed.
func (s *IndexStore) Lookup(ctx context.Context, symbol string) (*IndexEntry, error) {
	var e IndexEntry
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT symbol, path, kind, line FROM symbol_index WHERE symbol = ?
	`, symbol).Scan(&e.Symbol, &e.Path, &e.Kind, &e.Line)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol index lookup failed: %w", err)
	}
	return &e, nil
}

// LatestRun returns the most recent finished run, or nil if none.
func (s *IndexStore) LatestRun(ctx context.Context) (*IndexRun, error) {
	var (
		run        IndexRun
		roots      string
		startedAt  string
		finishedAt string
	)
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT run_id, roots, started_at, finished_at, symbol_count
		FROM index_runs
		WHERE finished_at IS NOT NULL
		ORDER BY finished_at DESC
		LIMIT 1
	`).Scan(&run.RunID, &roots, &startedAt, &finishedAt, &run.SymbolCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index run lookup failed: %w", err)
	}

	if roots != "" {
		run.Roots = strings.Split(roots, ",")
	}
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at format: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, fmt.Errorf("invalid finished_at format: %w", err)
	}
	return &run, nil
}
