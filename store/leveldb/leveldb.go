// Package leveldb implements store.Store over an embedded syndtr/goleveldb
// database: every mutation is built up as a single leveldb.Batch and
// committed with a synchronous (fsync'd) write, so a crash mid-ApplyBlock or
// mid-RewindTo can never leave the on-disk state half-written.
package leveldb

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/model"
	"github.com/bsv-blockchain/utxoledger/ulogger"
)

var (
	prometheusApplyBlock = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxoledger_leveldb_apply_block_total",
		Help: "Number of blocks applied to the leveldb store.",
	})
	prometheusRewind = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxoledger_leveldb_rewind_total",
		Help: "Number of rewinds performed against the leveldb store.",
	})
	prometheusReset = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxoledger_leveldb_reset_total",
		Help: "Number of resets performed against the leveldb store.",
	})
	prometheusErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utxoledger_leveldb_errors_total",
		Help: "Number of leveldb store errors, by operation.",
	}, []string{"op"})
)

// Store implements store.Store over a single embedded leveldb database.
type Store struct {
	logger ulogger.Logger
	db     *leveldb.DB
	path   string
}

// New opens (or creates) the leveldb database rooted at path. A detected
// on-disk corruption is recovered from automatically, matching the
// teacher's NewLevelDB.
func New(logger ulogger.Logger, path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)

	var corrupted *ldberrors.ErrCorrupted
	if errorsAs(err, &corrupted) {
		logger.Warnf("store/leveldb: corruption detected at %s, attempting recovery: %s", path, err)

		db, err = leveldb.RecoverFile(path, nil)
		if err != nil {
			return nil, errors.WrapStoreError(err, "store/leveldb: failed to recover %s", path)
		}

		logger.Warnf("store/leveldb: recovered %s from corruption", path)
	} else if err != nil {
		return nil, errors.WrapStoreError(err, "store/leveldb: failed to open %s", path)
	}

	logger.Infof("store/leveldb: opened %s", path)

	return &Store{logger: logger, db: db, path: path}, nil
}

func errorsAs(err error, target **ldberrors.ErrCorrupted) bool {
	corrupted, ok := err.(*ldberrors.ErrCorrupted)
	if ok {
		*target = corrupted
	}

	return ok
}

func (s *Store) Health(ctx context.Context) error {
	// goleveldb has no ping; opening a snapshot exercises the live handle.
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return errors.WrapStoreError(err, "store/leveldb: health check failed")
	}

	snap.Release()

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// outputRecord is the persisted form of a live or historically-spent
// output: Spent is flipped in place by ApplyBlock/RewindTo rather than the
// record being deleted, so a rewind can resurrect it without needing the
// caller to resupply the original value.
type outputRecord struct {
	Address string
	Value   int64
	Spent   bool
}

func outputToRecord(o model.Output) outputRecord {
	return outputRecord{Address: o.Address, Value: o.Value}
}

func (r outputRecord) output() model.Output {
	return model.Output{Address: r.Address, Value: r.Value}
}

func syncWriteOpts() *opt.WriteOptions {
	return &opt.WriteOptions{Sync: true}
}

var errKeyNotFound = fmt.Errorf("store/leveldb: key not found")
