package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bsv-blockchain/utxoledger/model"
)

// Reset deletes every row from every relation, in an order that respects
// the schema's foreign keys.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		prometheusErrors.WithLabelValues("Reset").Inc()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	statements := []string{
		"DELETE FROM outputs",
		"DELETE FROM inputs",
		"DELETE FROM transactions",
		"DELETE FROM blocks",
		"DELETE FROM balances",
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			prometheusErrors.WithLabelValues("Reset").Inc()

			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		prometheusErrors.WithLabelValues("Reset").Inc()
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	prometheusReset.Inc()

	return nil
}

// GetBalance returns address's balance, or 0 if it has no entry.
func (s *Store) GetBalance(ctx context.Context, address string) (int64, error) {
	q := fmt.Sprintf("SELECT balance FROM balances WHERE address = %s", s.placeholder(1))

	var balance int64

	err := s.db.QueryRowContext(ctx, q, address).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}

	if err != nil {
		prometheusErrors.WithLabelValues("GetBalance").Inc()
		return 0, fmt.Errorf("failed to query balance for %s: %w", address, err)
	}

	return balance, nil
}

// ListBlocks returns every block's (id, height) projection ordered by
// height, plus the current height.
func (s *Store) ListBlocks(ctx context.Context) ([]model.BlockSummary, uint64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, height FROM blocks ORDER BY height ASC")
	if err != nil {
		prometheusErrors.WithLabelValues("ListBlocks").Inc()
		return nil, 0, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	var (
		summaries []model.BlockSummary
		height    uint64
	)

	for rows.Next() {
		var b model.BlockSummary
		if err := rows.Scan(&b.ID, &b.Height); err != nil {
			return nil, 0, fmt.Errorf("failed to scan block summary: %w", err)
		}

		summaries = append(summaries, b)
		height = b.Height
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return summaries, height, nil
}

// LoadAllBlocks returns every block with its full transaction bodies
// (including inputs and outputs), ordered by height ascending. It is the
// single source used to hydrate the in-memory index at startup and to
// rebuild it after a rewind.
func (s *Store) LoadAllBlocks(ctx context.Context) ([]model.Block, error) {
	blockRows, err := s.db.QueryContext(ctx, "SELECT id, height FROM blocks ORDER BY height ASC")
	if err != nil {
		prometheusErrors.WithLabelValues("LoadAllBlocks").Inc()
		return nil, fmt.Errorf("failed to load blocks: %w", err)
	}

	var blocks []model.Block

	for blockRows.Next() {
		var b model.Block
		if err := blockRows.Scan(&b.ID, &b.Height); err != nil {
			blockRows.Close()
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}

		blocks = append(blocks, b)
	}

	if err := blockRows.Err(); err != nil {
		blockRows.Close()
		return nil, err
	}

	blockRows.Close()

	for i := range blocks {
		txs, err := s.loadTransactions(ctx, blocks[i].ID)
		if err != nil {
			return nil, err
		}

		blocks[i].Transactions = txs
	}

	return blocks, nil
}

func (s *Store) loadTransactions(ctx context.Context, blockID string) ([]model.Transaction, error) {
	q := fmt.Sprintf("SELECT id FROM transactions WHERE block_id = %s ORDER BY id", s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, q, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for block %s: %w", blockID, err)
	}

	var txs []model.Transaction

	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}

	rows.Close()

	for i := range txs {
		inputs, err := s.loadInputs(ctx, txs[i].ID)
		if err != nil {
			return nil, err
		}

		outputs, err := s.loadOutputs(ctx, txs[i].ID)
		if err != nil {
			return nil, err
		}

		txs[i].Inputs = inputs
		txs[i].Outputs = outputs
	}

	return txs, nil
}

func (s *Store) loadInputs(ctx context.Context, txID string) ([]model.Input, error) {
	q := fmt.Sprintf(
		"SELECT spent_utxo_txid, spent_utxo_index FROM inputs WHERE tx_id = %s ORDER BY spent_utxo_txid, spent_utxo_index",
		s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, q, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inputs for %s: %w", txID, err)
	}
	defer rows.Close()

	var inputs []model.Input

	for rows.Next() {
		var in model.Input
		if err := rows.Scan(&in.TxID, &in.Index); err != nil {
			return nil, fmt.Errorf("failed to scan input: %w", err)
		}

		inputs = append(inputs, in)
	}

	return inputs, rows.Err()
}

func (s *Store) loadOutputs(ctx context.Context, txID string) ([]model.Output, error) {
	q := fmt.Sprintf(
		"SELECT idx, address, value FROM outputs WHERE txid = %s ORDER BY idx",
		s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, q, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outputs for %s: %w", txID, err)
	}
	defer rows.Close()

	var (
		outputs []model.Output
		idx     int
	)

	byIndex := make(map[int]model.Output)

	for rows.Next() {
		var o model.Output
		if err := rows.Scan(&idx, &o.Address, &o.Value); err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}

		byIndex[idx] = o
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	max := -1
	for i := range byIndex {
		if i > max {
			max = i
		}
	}

	outputs = make([]model.Output, max+1)
	for i, o := range byIndex {
		outputs[i] = o
	}

	return outputs, nil
}
