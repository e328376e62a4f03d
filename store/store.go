// Package store defines the persistent-store contract every backend
// (store/sql's postgres and sqlite dialects, store/leveldb's embedded
// key-value implementation) must satisfy. The engine depends only on this
// interface, never on a concrete backend, so the chain state logic is
// identical regardless of which DATABASE_URL scheme selected it.
package store

import (
	"context"

	"github.com/bsv-blockchain/utxoledger/model"
)

// Store is the ledger's durable backing store. Every mutating method runs
// as a single atomic unit: on any internal failure the store is left
// exactly as it was before the call, with nothing partially visible to a
// concurrent reader.
type Store interface {
	// ApplyBlock persists b: inserts the block and transaction rows,
	// marks spent inputs' outputs as spent, inserts b's new outputs, and
	// upserts every balance that changed as a result. spent maps each
	// input's UTXO key to the output it referenced, as resolved by the
	// validator against the pre-block snapshot.
	ApplyBlock(ctx context.Context, b model.Block, spent map[string]model.Output) error

	// RewindTo undoes every block with height > targetHeight: doomed
	// outputs are deleted, outputs they spent are resurrected, doomed
	// blocks (and their transactions/inputs) are removed, and the
	// balances table is recomputed from the surviving outputs.
	RewindTo(ctx context.Context, targetHeight uint64) error

	// Reset deletes every row from every relation.
	Reset(ctx context.Context) error

	// GetBalance returns address's balance, or 0 if it has no entry.
	GetBalance(ctx context.Context, address string) (int64, error)

	// ListBlocks returns every block's (id, height) projection ordered by
	// height ascending, plus the current chain height.
	ListBlocks(ctx context.Context) ([]model.BlockSummary, uint64, error)

	// LoadAllBlocks returns every surviving block with its full
	// transaction bodies, ordered by height ascending. It is the single
	// source used to hydrate the in-memory index at startup and to
	// rebuild it after a rewind.
	LoadAllBlocks(ctx context.Context) ([]model.Block, error)

	// Health reports whether the store can currently serve requests.
	Health(ctx context.Context) error

	// Close releases any resources the store holds (connections, file
	// handles).
	Close() error
}
