package repository

import (
	"context"
	"fmt"
)

func (r *Repository) ensureCounter(ctx context.Context, name string) error {
	_, err := r.exec(ctx, `INSERT INTO counters (name, value) VALUES (?, 0) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("failed to seed counter %s: %w", name, err)
	}
	return nil
}

// NextSequenceValue atomically increments the named counter and returns the new
// value, starting at 1. The counter row is locked for the rest of the
// transaction, so concurrent callers always receive distinct, contiguous values.
// Called on a transactional Repository it joins that transaction.
func (r *Repository) NextSequenceValue(ctx context.Context, name string) (int64, error) {
	var next int64
	err := r.InTx(ctx, func(tx *Repository) error {
		if err := tx.ensureCounter(ctx, name); err != nil {
			return err
		}

		query := `SELECT value FROM counters WHERE name = ?`
		if tx.isPostgres() {
			query += ` FOR UPDATE`
		}
		var current int64
		if err := tx.queryRow(ctx, query, name).Scan(&current); err != nil {
			return fmt.Errorf("failed to read counter %s: %w", name, err)
		}

		next = current + 1
		if _, err := tx.exec(ctx, `UPDATE counters SET value = ? WHERE name = ?`, next, name); err != nil {
			return fmt.Errorf("failed to update counter %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
