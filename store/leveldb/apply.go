package leveldb

import (
	"context"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/model"
)

// ApplyBlock persists b in a single batched, fsync'd write: the block's
// height/id entry, each transaction body, each spent output flipped to
// Spent, each new output inserted live, and every affected address's
// balance adjusted by its net delta.
func (s *Store) ApplyBlock(ctx context.Context, b model.Block, spent map[string]model.Output) error {
	t, err := s.begin()
	if err != nil {
		prometheusErrors.WithLabelValues("ApplyBlock").Inc()
		return errors.WrapStoreError(err, "store/leveldb: ApplyBlock failed to begin")
	}
	defer t.discard()

	if err := s.applyBlockTxn(t, b, spent); err != nil {
		prometheusErrors.WithLabelValues("ApplyBlock").Inc()
		return err
	}

	if err := t.commit(); err != nil {
		prometheusErrors.WithLabelValues("ApplyBlock").Inc()
		return errors.WrapStoreError(err, "store/leveldb: ApplyBlock failed to commit")
	}

	prometheusApplyBlock.Inc()

	return nil
}

func (s *Store) applyBlockTxn(t *txn, b model.Block, spent map[string]model.Output) error {
	t.put(blockKey(b.Height), []byte(b.ID))
	t.put(blockIDKey(b.ID), heightBytes(b.Height))

	deltas := make(map[string]int64)

	for _, o := range spent {
		deltas[o.Address] -= o.Value
	}

	for seq, tx := range b.Transactions {
		if err := t.putTransaction(b.ID, seq, tx); err != nil {
			return errors.WrapStoreError(err, "store/leveldb: failed to persist transaction %s", tx.ID)
		}

		for _, in := range tx.Inputs {
			rec, err := t.getOutputRecord(in.TxID, in.Index)
			if err != nil {
				return errors.WrapStoreError(err, "store/leveldb: spent output %s:%d missing", in.TxID, in.Index)
			}

			rec.Spent = true

			if err := t.putOutputRecord(in.TxID, in.Index, rec); err != nil {
				return err
			}
		}

		for i, o := range tx.Outputs {
			if err := t.putOutputRecord(tx.ID, i, outputToRecord(o)); err != nil {
				return err
			}

			deltas[o.Address] += o.Value
		}
	}

	for address, delta := range deltas {
		if err := t.addBalance(address, delta); err != nil {
			return errors.WrapStoreError(err, "store/leveldb: failed to adjust balance for %s", address)
		}
	}

	return nil
}
