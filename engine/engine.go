// Package engine implements the chain state engine: the block validator,
// state mutator, rewinder and query surface that together turn a stream of
// submitted blocks plus rollback/reset commands into a consistent UTXO set,
// balance map and block journal. It is the core of the ledger; every other
// package in this module (store, index, httpapi) exists to serve it.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/index"
	"github.com/bsv-blockchain/utxoledger/metrics"
	"github.com/bsv-blockchain/utxoledger/model"
	"github.com/bsv-blockchain/utxoledger/store"
	"github.com/bsv-blockchain/utxoledger/ulogger"
)

// Engine owns the in-memory index and the persistent store handle, and
// serializes every mutating operation behind a single writer lock. Reads
// go straight to the index, which has its own lock and is never blocked by
// a reader.
type Engine struct {
	logger ulogger.Logger
	store  store.Store
	index  *index.Index

	// writerMu serializes SubmitBlock, Rollback and Reset. It is held
	// across both the store's transaction and the matching in-memory
	// update, so no observer ever sees the two disagree.
	writerMu sync.Mutex
}

// New constructs an Engine backed by s, hydrating its in-memory index from
// the store's surviving blocks before returning - so a restarted process
// reconstructs its fast path before serving any request.
func New(ctx context.Context, s store.Store, logger ulogger.Logger) (*Engine, error) {
	metrics.Init()

	e := &Engine{
		logger: logger,
		store:  s,
		index:  index.New(),
	}

	blocks, err := s.LoadAllBlocks(ctx)
	if err != nil {
		return nil, errors.WrapStoreError(err, "failed to load blocks for startup hydration")
	}

	e.index.Rebuild(blocks)
	logger.Infof("hydrated index: height=%d blocks=%d", e.index.CurrentHeight(), len(blocks))

	return e, nil
}

// SubmitBlock validates b against the current state and, on acceptance,
// applies it atomically to the store and the index. It returns the
// block's height on success. On any validation failure, no state is
// mutated; the returned error carries a Kind from the errors package.
func (e *Engine) SubmitBlock(ctx context.Context, b model.Block) (uint64, error) {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	spent, err := validate(e.index, b)
	if err != nil {
		metrics.BlocksRejected.WithLabelValues(errors.KindOf(err).String()).Inc()
		return 0, err
	}

	start := time.Now()
	applyErr := e.store.ApplyBlock(ctx, b, spent)
	metrics.StoreLatency.WithLabelValues("ApplyBlock").Observe(time.Since(start).Seconds())

	if applyErr != nil {
		return 0, errors.WrapStoreError(applyErr, "failed to apply block %s at height %d", b.ID, b.Height)
	}

	e.index.Apply(b, spent)
	metrics.BlocksAccepted.Inc()

	return b.Height, nil
}

// Rollback undoes every block above targetHeight, in the store and then in
// the index, and reports the resulting height (== targetHeight on
// success).
func (e *Engine) Rollback(ctx context.Context, targetHeight uint64) (uint64, error) {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	if targetHeight < 1 {
		return 0, errors.NewInvalidHeightParamError("rollback target height must be >= 1, got %d", targetHeight)
	}

	current := e.index.CurrentHeight()
	if targetHeight > current {
		return 0, errors.NewTargetAboveHeadError(
			"rollback target %d is above current height %d", targetHeight, current)
	}

	start := time.Now()
	rewindErr := e.store.RewindTo(ctx, targetHeight)
	metrics.StoreLatency.WithLabelValues("RewindTo").Observe(time.Since(start).Seconds())

	if rewindErr != nil {
		return 0, errors.WrapStoreError(rewindErr, "failed to rewind store to height %d", targetHeight)
	}

	blocks, err := e.store.LoadAllBlocks(ctx)
	if err != nil {
		return 0, errors.WrapStoreError(err, "failed to reload blocks after rewind to height %d", targetHeight)
	}

	e.index.Rebuild(blocks)
	metrics.Rollbacks.Inc()

	return e.index.CurrentHeight(), nil
}

// Reset clears the store and the index, returning the chain to genesis.
func (e *Engine) Reset(ctx context.Context) error {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	if err := e.store.Reset(ctx); err != nil {
		return errors.WrapStoreError(err, "failed to reset store")
	}

	e.index.Reset()
	metrics.Resets.Inc()

	return nil
}

// Balance returns address's balance, or 0 if it has no entry. It never
// fails on an unknown address and reads straight from the index, never
// blocking on an in-flight mutation.
func (e *Engine) Balance(address string) int64 {
	return e.index.Balance(address)
}

// ListBlocks returns every block's (id, height) projection ordered by
// height, plus the current height.
func (e *Engine) ListBlocks() ([]model.BlockSummary, uint64) {
	return e.index.Blocks()
}

// ResetCounts returns the (blocks, utxos, balances) sizes after a Reset,
// for the /reset response body - all zero once Reset has returned.
func (e *Engine) ResetCounts() (blocks, utxos, balances int) {
	return e.index.Counts()
}

// CurrentHeight returns the chain's current height.
func (e *Engine) CurrentHeight() uint64 {
	return e.index.CurrentHeight()
}

// Health reports whether the underlying store can currently serve
// requests. It does not take writerMu: a slow or stuck writer should not
// make the service report unhealthy for reads.
func (e *Engine) Health(ctx context.Context) error {
	return e.store.Health(ctx)
}
