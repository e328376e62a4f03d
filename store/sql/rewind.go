package sql

import (
	"context"
	"database/sql"
	"fmt"
)

// RewindTo undoes every block above targetHeight in one transaction:
// outputs spent by a doomed block are resurrected, outputs produced by a
// doomed block are deleted, doomed blocks are deleted (cascading their
// transactions and inputs), and balances are recomputed from the
// surviving, unspent outputs.
func (s *Store) RewindTo(ctx context.Context, targetHeight uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		prometheusErrors.WithLabelValues("RewindTo").Inc()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.rewindTx(ctx, tx, targetHeight); err != nil {
		_ = tx.Rollback()
		prometheusErrors.WithLabelValues("RewindTo").Inc()

		return err
	}

	if err := tx.Commit(); err != nil {
		prometheusErrors.WithLabelValues("RewindTo").Inc()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	prometheusRewind.Inc()

	return nil
}

func (s *Store) rewindTx(ctx context.Context, tx *sql.Tx, targetHeight uint64) error {
	doomed, err := s.doomedTxIDs(ctx, tx, targetHeight)
	if err != nil {
		return err
	}

	if err := s.resurrectOutputsSpentByDoomed(ctx, tx, doomed); err != nil {
		return err
	}

	if err := s.deleteDoomedOutputs(ctx, tx, doomed); err != nil {
		return err
	}

	deleteBlocks := fmt.Sprintf("DELETE FROM blocks WHERE height > %s", s.placeholder(1))
	if _, err := tx.ExecContext(ctx, deleteBlocks, targetHeight); err != nil {
		return fmt.Errorf("failed to delete blocks above height %d: %w", targetHeight, err)
	}

	return s.recomputeBalances(ctx, tx)
}

func (s *Store) doomedTxIDs(ctx context.Context, tx *sql.Tx, targetHeight uint64) ([]string, error) {
	q := fmt.Sprintf(
		"SELECT t.id FROM transactions t JOIN blocks b ON t.block_id = b.id WHERE b.height > %s",
		s.placeholder(1))

	rows, err := tx.QueryContext(ctx, q, targetHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to collect doomed transactions: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan doomed transaction id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (s *Store) resurrectOutputsSpentByDoomed(ctx context.Context, tx *sql.Tx, doomed []string) error {
	if len(doomed) == 0 {
		return nil
	}

	q := fmt.Sprintf(`
		UPDATE outputs SET is_spent = FALSE WHERE (txid, idx) IN (
			SELECT spent_utxo_txid, spent_utxo_index FROM inputs WHERE tx_id IN (%s)
		)`, s.placeholderList(1, len(doomed)))

	if _, err := tx.ExecContext(ctx, q, toArgs(doomed)...); err != nil {
		return fmt.Errorf("failed to resurrect outputs spent by doomed transactions: %w", err)
	}

	return nil
}

func (s *Store) deleteDoomedOutputs(ctx context.Context, tx *sql.Tx, doomed []string) error {
	if len(doomed) == 0 {
		return nil
	}

	q := fmt.Sprintf("DELETE FROM outputs WHERE txid IN (%s)", s.placeholderList(1, len(doomed)))
	if _, err := tx.ExecContext(ctx, q, toArgs(doomed)...); err != nil {
		return fmt.Errorf("failed to delete outputs of doomed transactions: %w", err)
	}

	return nil
}

func (s *Store) recomputeBalances(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM balances"); err != nil {
		return fmt.Errorf("failed to clear balances: %w", err)
	}

	q := `INSERT INTO balances (address, balance)
		SELECT address, SUM(value) FROM outputs WHERE is_spent = FALSE GROUP BY address`

	if _, err := tx.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to recompute balances: %w", err)
	}

	return nil
}

// placeholderList renders n consecutive bind parameters starting at
// position start, comma-joined, in this store's dialect.
func (s *Store) placeholderList(start, n int) string {
	list := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			list += ", "
		}

		list += s.placeholder(start + i)
	}

	return list
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return args
}
