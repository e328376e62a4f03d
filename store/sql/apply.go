package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bsv-blockchain/utxoledger/model"
)

// ApplyBlock persists b within one transaction: the block row, each
// transaction's row, its inputs (marking the outputs they spend), its new
// outputs, and the balance deltas spent implies plus the outputs b itself
// produced.
func (s *Store) ApplyBlock(ctx context.Context, b model.Block, spent map[string]model.Output) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		prometheusErrors.WithLabelValues("ApplyBlock").Inc()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.applyBlockTx(ctx, tx, b, spent); err != nil {
		_ = tx.Rollback()
		prometheusErrors.WithLabelValues("ApplyBlock").Inc()

		return err
	}

	if err := tx.Commit(); err != nil {
		prometheusErrors.WithLabelValues("ApplyBlock").Inc()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	prometheusApplyBlock.Inc()

	return nil
}

func (s *Store) applyBlockTx(ctx context.Context, tx *sql.Tx, b model.Block, spent map[string]model.Output) error {
	insertBlock := fmt.Sprintf("INSERT INTO blocks (id, height) VALUES (%s, %s)", s.placeholder(1), s.placeholder(2))
	if _, err := tx.ExecContext(ctx, insertBlock, b.ID, b.Height); err != nil {
		return fmt.Errorf("failed to insert block %s: %w", b.ID, err)
	}

	insertTx := fmt.Sprintf("INSERT INTO transactions (id, block_id) VALUES (%s, %s)", s.placeholder(1), s.placeholder(2))
	insertInput := fmt.Sprintf(
		"INSERT INTO inputs (tx_id, spent_utxo_txid, spent_utxo_index) VALUES (%s, %s, %s)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3))
	markSpent := fmt.Sprintf(
		"UPDATE outputs SET is_spent = TRUE WHERE txid = %s AND idx = %s",
		s.placeholder(1), s.placeholder(2))
	insertOutput := fmt.Sprintf(
		"INSERT INTO outputs (txid, idx, address, value, is_spent) VALUES (%s, %s, %s, %s, FALSE)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))

	deltas := make(map[string]int64)

	for _, o := range spent {
		deltas[o.Address] -= o.Value
	}

	for _, t := range b.Transactions {
		if _, err := tx.ExecContext(ctx, insertTx, t.ID, b.ID); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}

		for _, in := range t.Inputs {
			if _, err := tx.ExecContext(ctx, insertInput, t.ID, in.TxID, in.Index); err != nil {
				return fmt.Errorf("failed to insert input of %s: %w", t.ID, err)
			}

			if _, err := tx.ExecContext(ctx, markSpent, in.TxID, in.Index); err != nil {
				return fmt.Errorf("failed to mark output %s:%d spent: %w", in.TxID, in.Index, err)
			}
		}

		for i, o := range t.Outputs {
			if _, err := tx.ExecContext(ctx, insertOutput, t.ID, i, o.Address, o.Value); err != nil {
				return fmt.Errorf("failed to insert output %s:%d: %w", t.ID, i, err)
			}

			deltas[o.Address] += o.Value
		}
	}

	return s.applyBalanceDeltas(ctx, tx, deltas)
}

func (s *Store) applyBalanceDeltas(ctx context.Context, tx *sql.Tx, deltas map[string]int64) error {
	var upsert string

	switch s.engine {
	case Postgres:
		upsert = "INSERT INTO balances (address, balance) VALUES ($1, $2) " +
			"ON CONFLICT (address) DO UPDATE SET balance = balances.balance + EXCLUDED.balance"
	default:
		upsert = "INSERT INTO balances (address, balance) VALUES (?, ?) " +
			"ON CONFLICT (address) DO UPDATE SET balance = balances.balance + excluded.balance"
	}

	for address, delta := range deltas {
		if delta == 0 {
			continue
		}

		if _, err := tx.ExecContext(ctx, upsert, address, delta); err != nil {
			return fmt.Errorf("failed to upsert balance for %s: %w", address, err)
		}
	}

	return nil
}
