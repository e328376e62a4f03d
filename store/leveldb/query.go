package leveldb

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/model"
)

// Reset deletes every key under every relation's prefix in one batched,
// fsync'd write.
func (s *Store) Reset(ctx context.Context) error {
	t, err := s.begin()
	if err != nil {
		prometheusErrors.WithLabelValues("Reset").Inc()
		return errors.WrapStoreError(err, "store/leveldb: Reset failed to begin")
	}
	defer t.discard()

	for _, prefix := range []string{prefixBlock, prefixBlockID, prefixTx, prefixOutput, prefixBalance} {
		rng := util.BytesPrefix([]byte(prefix))

		it := t.snapshot.NewIterator(rng, nil)
		for it.Next() {
			key := make([]byte, len(it.Key()))
			copy(key, it.Key())
			t.delete(key)
		}

		if err := it.Error(); err != nil {
			it.Release()
			prometheusErrors.WithLabelValues("Reset").Inc()

			return fmt.Errorf("store/leveldb: failed to scan prefix %q for reset: %w", prefix, err)
		}

		it.Release()
	}

	if err := t.commit(); err != nil {
		prometheusErrors.WithLabelValues("Reset").Inc()
		return errors.WrapStoreError(err, "store/leveldb: Reset failed to commit")
	}

	prometheusReset.Inc()

	return nil
}

// GetBalance returns address's balance, or 0 if it has no entry.
func (s *Store) GetBalance(ctx context.Context, address string) (int64, error) {
	raw, err := s.db.Get(balanceKey(address), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}

	if err != nil {
		prometheusErrors.WithLabelValues("GetBalance").Inc()
		return 0, fmt.Errorf("store/leveldb: failed to read balance for %s: %w", address, err)
	}

	return int64FromBytes(raw), nil
}

// ListBlocks returns every block's (id, height) projection ordered by
// height, plus the current height.
func (s *Store) ListBlocks(ctx context.Context) ([]model.BlockSummary, uint64, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		prometheusErrors.WithLabelValues("ListBlocks").Inc()
		return nil, 0, fmt.Errorf("store/leveldb: failed to snapshot: %w", err)
	}
	defer snap.Release()

	it := snap.NewIterator(util.BytesPrefix([]byte(prefixBlock)), nil)
	defer it.Release()

	var (
		summaries []model.BlockSummary
		height    uint64
	)

	for it.Next() {
		h := heightFromBytes(it.Key()[len(prefixBlock):])
		id := string(it.Value())

		summaries = append(summaries, model.BlockSummary{ID: id, Height: h})
		height = h
	}

	if err := it.Error(); err != nil {
		return nil, 0, err
	}

	return summaries, height, nil
}

// LoadAllBlocks returns every block with its full transaction bodies,
// ordered by height ascending and, within a block, by submission order. It
// is the single source used to hydrate the in-memory index at startup and
// to rebuild it after a rewind.
func (s *Store) LoadAllBlocks(ctx context.Context) ([]model.Block, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		prometheusErrors.WithLabelValues("LoadAllBlocks").Inc()
		return nil, fmt.Errorf("store/leveldb: failed to snapshot: %w", err)
	}
	defer snap.Release()

	blockIt := snap.NewIterator(util.BytesPrefix([]byte(prefixBlock)), nil)
	defer blockIt.Release()

	var blocks []model.Block

	for blockIt.Next() {
		h := heightFromBytes(blockIt.Key()[len(prefixBlock):])
		id := string(blockIt.Value())

		blocks = append(blocks, model.Block{ID: id, Height: h})
	}

	if err := blockIt.Error(); err != nil {
		return nil, err
	}

	for i := range blocks {
		txs, err := loadTransactions(snap, blocks[i].ID)
		if err != nil {
			return nil, err
		}

		blocks[i].Transactions = txs
	}

	return blocks, nil
}

func loadTransactions(snap *leveldb.Snapshot, blockID string) ([]model.Transaction, error) {
	it := snap.NewIterator(util.BytesPrefix(txKeyPrefix(blockID)), nil)
	defer it.Release()

	var txs []model.Transaction

	for it.Next() {
		var tx model.Transaction
		if err := gob.NewDecoder(bytes.NewReader(it.Value())).Decode(&tx); err != nil {
			return nil, fmt.Errorf("store/leveldb: failed to decode transaction under block %s: %w", blockID, err)
		}

		txs = append(txs, tx)
	}

	return txs, it.Error()
}
