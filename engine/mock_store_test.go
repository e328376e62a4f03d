package engine

import (
	"context"
	"sort"

	"github.com/bsv-blockchain/utxoledger/model"
)

// memStore is a minimal in-memory store.Store double used by the engine's
// own tests, hand-written rather than generated or reflection-based.
type memStore struct {
	blocks []model.Block
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) ApplyBlock(_ context.Context, b model.Block, _ map[string]model.Output) error {
	m.blocks = append(m.blocks, b)
	return nil
}

func (m *memStore) RewindTo(_ context.Context, targetHeight uint64) error {
	surviving := m.blocks[:0:0]
	for _, b := range m.blocks {
		if b.Height <= targetHeight {
			surviving = append(surviving, b)
		}
	}
	m.blocks = surviving

	return nil
}

func (m *memStore) Reset(_ context.Context) error {
	m.blocks = nil
	return nil
}

func (m *memStore) GetBalance(_ context.Context, address string) (int64, error) {
	var balance int64

	spent := make(map[string]bool)
	outputs := make(map[string]model.Output)

	for _, b := range m.blocks {
		for _, t := range b.Transactions {
			for _, in := range t.Inputs {
				spent[model.UTXOKey(in.TxID, in.Index)] = true
			}

			for i, o := range t.Outputs {
				outputs[model.UTXOKey(t.ID, i)] = o
			}
		}
	}

	for key, o := range outputs {
		if !spent[key] && o.Address == address {
			balance += o.Value
		}
	}

	return balance, nil
}

func (m *memStore) ListBlocks(_ context.Context) ([]model.BlockSummary, uint64, error) {
	summaries := make([]model.BlockSummary, len(m.blocks))
	for i, b := range m.blocks {
		summaries[i] = model.BlockSummary{ID: b.ID, Height: b.Height}
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Height < summaries[j].Height })

	var height uint64
	if len(m.blocks) > 0 {
		height = m.blocks[len(m.blocks)-1].Height
	}

	return summaries, height, nil
}

func (m *memStore) LoadAllBlocks(_ context.Context) ([]model.Block, error) {
	out := make([]model.Block, len(m.blocks))
	copy(out, m.blocks)

	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })

	return out, nil
}

func (m *memStore) Health(_ context.Context) error {
	return nil
}

func (m *memStore) Close() error {
	return nil
}
