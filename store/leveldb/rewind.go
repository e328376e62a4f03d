package leveldb

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/model"
)

// RewindTo undoes every block above targetHeight in one batched, fsync'd
// write: outputs the doomed blocks spent are flipped back to live, outputs
// the doomed blocks produced are removed, the doomed blocks themselves are
// removed, and every address's balance is recomputed from what remains
// live in the output relation.
func (s *Store) RewindTo(ctx context.Context, targetHeight uint64) error {
	t, err := s.begin()
	if err != nil {
		prometheusErrors.WithLabelValues("RewindTo").Inc()
		return errors.WrapStoreError(err, "store/leveldb: RewindTo failed to begin")
	}
	defer t.discard()

	if err := s.rewindTxn(t, targetHeight); err != nil {
		prometheusErrors.WithLabelValues("RewindTo").Inc()
		return err
	}

	if err := t.commit(); err != nil {
		prometheusErrors.WithLabelValues("RewindTo").Inc()
		return errors.WrapStoreError(err, "store/leveldb: RewindTo failed to commit")
	}

	prometheusRewind.Inc()

	return nil
}

type doomedBlock struct {
	height uint64
	id     string
}

func (s *Store) rewindTxn(t *txn, targetHeight uint64) error {
	doomed, err := s.doomedBlocks(t, targetHeight)
	if err != nil {
		return err
	}

	// recomputeBalances reads through the same snapshot undoBlock's writes
	// land in (batched, not yet committed), so it cannot see them. Track
	// every output this rewind deletes or resurrects here and apply the
	// overlay on top of the snapshot when recomputing.
	overlay := newOutputOverlay()

	// Undo newest-first: a later doomed block can spend an output an
	// earlier doomed block produced, and that output must end up deleted
	// (its producing block is also gone), not resurrected. Processing
	// high-to-low means the producing block's delete is always applied
	// after any spender's resurrect, so it wins.
	for i := len(doomed) - 1; i >= 0; i-- {
		if err := s.undoBlock(t, doomed[i], overlay); err != nil {
			return err
		}
	}

	return s.recomputeBalances(t, overlay)
}

// outputOverlay records, within one rewind, which outputs were deleted and
// which had their Spent flag cleared - the deltas undoBlock applies to the
// batch that a snapshot read can't observe.
type outputOverlay struct {
	deleted     map[string]bool
	resurrected map[string]model.Output
}

func newOutputOverlay() *outputOverlay {
	return &outputOverlay{deleted: make(map[string]bool), resurrected: make(map[string]model.Output)}
}

func (s *Store) doomedBlocks(t *txn, targetHeight uint64) ([]doomedBlock, error) {
	rng := &util.Range{Start: blockKey(targetHeight + 1), Limit: blockRangeLimit()}

	it := t.snapshot.NewIterator(rng, nil)
	defer it.Release()

	var doomed []doomedBlock

	for it.Next() {
		height := heightFromBytes(it.Key()[len(prefixBlock):])
		id := string(it.Value())
		doomed = append(doomed, doomedBlock{height: height, id: id})
	}

	return doomed, it.Error()
}

func blockRangeLimit() []byte {
	return util.BytesPrefix([]byte(prefixBlock)).Limit
}

func (s *Store) undoBlock(t *txn, db doomedBlock, overlay *outputOverlay) error {
	prefix := txKeyPrefix(db.id)
	rng := util.BytesPrefix(prefix)

	it := t.snapshot.NewIterator(rng, nil)
	defer it.Release()

	var txs []model.Transaction

	for it.Next() {
		var tx model.Transaction
		if err := gob.NewDecoder(bytes.NewReader(it.Value())).Decode(&tx); err != nil {
			return fmt.Errorf("store/leveldb: failed to decode transaction under block %s: %w", db.id, err)
		}

		txs = append(txs, tx)
	}

	if err := it.Error(); err != nil {
		return err
	}

	for seq, tx := range txs {
		for _, in := range tx.Inputs {
			rec, err := t.getOutputRecord(in.TxID, in.Index)
			if err != nil {
				return errors.WrapStoreError(err, "store/leveldb: resurrecting output %s:%d", in.TxID, in.Index)
			}

			rec.Spent = false

			if err := t.putOutputRecord(in.TxID, in.Index, rec); err != nil {
				return err
			}

			overlay.resurrected[model.UTXOKey(in.TxID, in.Index)] = rec.output()
			delete(overlay.deleted, model.UTXOKey(in.TxID, in.Index))
		}

		for i := range tx.Outputs {
			t.delete(outputKey(tx.ID, i))
			overlay.deleted[model.UTXOKey(tx.ID, i)] = true
			delete(overlay.resurrected, model.UTXOKey(tx.ID, i))
		}

		t.delete(txKey(db.id, seq))
	}

	t.delete(blockKey(db.height))
	t.delete(blockIDKey(db.id))

	return nil
}

func (s *Store) recomputeBalances(t *txn, overlay *outputOverlay) error {
	balances := make(map[string]int64)

	rng := util.BytesPrefix([]byte(prefixOutput))
	it := t.snapshot.NewIterator(rng, nil)

	for it.Next() {
		txID, index, ok := parseOutputKey(it.Key())
		if !ok {
			it.Release()
			return fmt.Errorf("store/leveldb: malformed output key %q", it.Key())
		}

		key := model.UTXOKey(txID, index)

		if overlay.deleted[key] {
			continue
		}

		if o, ok := overlay.resurrected[key]; ok {
			balances[o.Address] += o.Value
			continue
		}

		var rec outputRecord
		if err := gob.NewDecoder(bytes.NewReader(it.Value())).Decode(&rec); err != nil {
			it.Release()
			return fmt.Errorf("store/leveldb: failed to decode output during balance recompute: %w", err)
		}

		if !rec.Spent {
			balances[rec.Address] += rec.Value
		}
	}

	if err := it.Error(); err != nil {
		it.Release()
		return err
	}

	it.Release()

	balRng := util.BytesPrefix([]byte(prefixBalance))
	balIt := t.snapshot.NewIterator(balRng, nil)

	for balIt.Next() {
		key := make([]byte, len(balIt.Key()))
		copy(key, balIt.Key())
		t.delete(key)
	}

	if err := balIt.Error(); err != nil {
		balIt.Release()
		return err
	}

	balIt.Release()

	for address, balance := range balances {
		t.putBalance(address, balance)
	}

	return nil
}
