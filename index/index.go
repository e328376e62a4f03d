// Package index holds the ledger's in-memory fast path: a UTXO map, a
// balance map and the full block journal, mirroring the persistent store's
// semantic content. It is guarded by its own lock rather than the engine's
// writer mutex so that reads (Balance, ListBlocks) never block on, or
// observe, an in-flight mutation.
package index

import (
	"sync"

	"github.com/bsv-blockchain/utxoledger/model"
)

// Index is the ledger's in-memory mirror of the persistent store's
// derived content: the UTXO set, the balance map and the block journal.
// All methods are safe for concurrent use.
type Index struct {
	mu sync.RWMutex

	utxos         map[string]model.Output
	balances      map[string]int64
	blocks        []model.Block
	currentHeight uint64
}

// New returns an empty Index.
func New() *Index {
	idx := &Index{}
	idx.reset()

	return idx
}

func (idx *Index) reset() {
	idx.utxos = make(map[string]model.Output)
	idx.balances = make(map[string]int64)
	idx.blocks = nil
	idx.currentHeight = 0
}

// Reset clears every structure and sets currentHeight to 0.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset()
}

// CurrentHeight returns the height of the last block in the journal, or 0
// if the journal is empty.
func (idx *Index) CurrentHeight() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.currentHeight
}

// Lookup returns the output identified by key ("{txid}:{index}") and
// whether it is present in the UTXO set.
func (idx *Index) Lookup(key string) (model.Output, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	o, ok := idx.utxos[key]

	return o, ok
}

// Balance returns the address's balance, or 0 if it has no entry.
func (idx *Index) Balance(address string) int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.balances[address]
}

// Blocks returns the block journal's (id, height) projection in height
// order, plus the current height.
func (idx *Index) Blocks() ([]model.BlockSummary, uint64) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	summaries := make([]model.BlockSummary, len(idx.blocks))
	for i, b := range idx.blocks {
		summaries[i] = model.BlockSummary{ID: b.ID, Height: b.Height}
	}

	return summaries, idx.currentHeight
}

// Counts returns the number of blocks, UTXOs and addresses currently held,
// for the /reset response body.
func (idx *Index) Counts() (blocks, utxos, balances int) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.blocks), len(idx.utxos), len(idx.balances)
}

// Apply folds an already-validated block into the index: spent keys are
// removed, new outputs inserted, balances adjusted, and the block appended
// to the journal. Callers must hold the engine's writer lock so this runs
// serialized with every other mutation and with the matching store write.
func (idx *Index) Apply(b model.Block, spent map[string]model.Output) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for key, o := range spent {
		delete(idx.utxos, key)
		idx.balances[o.Address] -= o.Value
	}

	for _, t := range b.Transactions {
		for i, o := range t.Outputs {
			idx.utxos[model.UTXOKey(t.ID, i)] = o
			idx.balances[o.Address] += o.Value
		}
	}

	idx.blocks = append(idx.blocks, b)
	idx.currentHeight = b.Height
}

// Rebuild replaces the index's contents by replaying surviving blocks from
// empty, in ascending height order. It is the sole mechanism behind
// rollback, startup hydration and crash recovery: in every case, the
// in-memory state is recomputed as a pure function of the same block list.
func (idx *Index) Rebuild(blocks []model.Block) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset()

	for _, b := range blocks {
		for _, t := range b.Transactions {
			for _, in := range t.Inputs {
				key := model.UTXOKey(in.TxID, in.Index)
				if o, ok := idx.utxos[key]; ok {
					delete(idx.utxos, key)
					idx.balances[o.Address] -= o.Value
				}
			}

			for i, o := range t.Outputs {
				idx.utxos[model.UTXOKey(t.ID, i)] = o
				idx.balances[o.Address] += o.Value
			}
		}

		idx.blocks = append(idx.blocks, b)
		idx.currentHeight = b.Height
	}
}
