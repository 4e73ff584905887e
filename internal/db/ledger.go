package db

import (
	"context"
	"fmt"
)

// LoadLedger returns the processed thread ids, most recent first.
func (s *Store) LoadLedger(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, "SELECT thread_id FROM ledger ORDER BY position ASC"); err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	return ids, nil
}

// SaveLedger replaces the stored ledger with ids, preserving their order.
func (s *Store) SaveLedger(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ledger"); err != nil {
		return fmt.Errorf("clearing ledger: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, "INSERT OR IGNORE INTO ledger (thread_id, position) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing ledger insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, i); err != nil {
			return fmt.Errorf("inserting ledger entry %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// LedgerSize returns the number of stored ids.
func (s *Store) LedgerSize(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM ledger"); err != nil {
		return 0, fmt.Errorf("counting ledger: %w", err)
	}
	return n, nil
}
