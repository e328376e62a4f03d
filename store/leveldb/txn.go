package leveldb

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bsv-blockchain/utxoledger/model"
)

// txn batches every write of one mutating call against a consistent
// snapshot, so reads inside the call never observe the call's own
// half-applied writes.
type txn struct {
	db       *leveldb.DB
	snapshot *leveldb.Snapshot
	batch    *leveldb.Batch
}

func (s *Store) begin() (*txn, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("store/leveldb: failed to snapshot: %w", err)
	}

	return &txn{db: s.db, snapshot: snap, batch: new(leveldb.Batch)}, nil
}

func (t *txn) commit() error {
	defer t.snapshot.Release()
	return t.db.Write(t.batch, syncWriteOpts())
}

func (t *txn) discard() {
	t.snapshot.Release()
}

func (t *txn) put(key, value []byte) {
	t.batch.Put(key, value)
}

func (t *txn) delete(key []byte) {
	t.batch.Delete(key)
}

func (t *txn) get(key []byte) ([]byte, error) {
	v, err := t.snapshot.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, errKeyNotFound
	}

	return v, err
}

func (t *txn) putTransaction(blockID string, seq int, tx model.Transaction) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tx); err != nil {
		return fmt.Errorf("store/leveldb: failed to encode transaction %s: %w", tx.ID, err)
	}

	t.put(txKey(blockID, seq), buf.Bytes())

	return nil
}

func (t *txn) getOutputRecord(txID string, index int) (outputRecord, error) {
	raw, err := t.get(outputKey(txID, index))
	if err != nil {
		return outputRecord{}, err
	}

	var r outputRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&r); err != nil {
		return outputRecord{}, fmt.Errorf("store/leveldb: failed to decode output %s:%d: %w", txID, index, err)
	}

	return r, nil
}

func (t *txn) putOutputRecord(txID string, index int, r outputRecord) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return fmt.Errorf("store/leveldb: failed to encode output %s:%d: %w", txID, index, err)
	}

	t.put(outputKey(txID, index), buf.Bytes())

	return nil
}

func (t *txn) getBalance(address string) (int64, error) {
	raw, err := t.get(balanceKey(address))
	if err == errKeyNotFound {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return int64FromBytes(raw), nil
}

func (t *txn) putBalance(address string, balance int64) {
	t.put(balanceKey(address), int64Bytes(balance))
}

func (t *txn) addBalance(address string, delta int64) error {
	if delta == 0 {
		return nil
	}

	current, err := t.getBalance(address)
	if err != nil {
		return err
	}

	t.putBalance(address, current+delta)

	return nil
}
