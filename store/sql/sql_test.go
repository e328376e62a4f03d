package sql

import (
	"context"
	"io"
	"net/url"
	"testing"

	"github.com/bsv-blockchain/utxoledger/model"
	"github.com/bsv-blockchain/utxoledger/ulogger"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbURL, err := url.Parse("sqlite:///" + t.Name())
	require.NoError(t, err)

	s, err := New(ulogger.New("test", ulogger.WithWriter(io.Discard)), dbURL, Options{DataFolder: t.TempDir()})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestApplyBlockAndGetBalance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b := model.Block{
		ID:     "block1",
		Height: 1,
		Transactions: []model.Transaction{
			{ID: "tx1", Outputs: []model.Output{{Address: "addr1", Value: 10}}},
		},
	}

	require.NoError(t, s.ApplyBlock(ctx, b, nil))

	balance, err := s.GetBalance(ctx, "addr1")
	require.NoError(t, err)
	require.EqualValues(t, 10, balance)

	unknown, err := s.GetBalance(ctx, "nobody")
	require.NoError(t, err)
	require.EqualValues(t, 0, unknown)
}

func TestApplyBlockMarksSpentOutputsAndUpdatesBalances(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b1 := model.Block{
		ID:     "block1",
		Height: 1,
		Transactions: []model.Transaction{
			{ID: "tx1", Outputs: []model.Output{{Address: "addr1", Value: 10}}},
		},
	}
	require.NoError(t, s.ApplyBlock(ctx, b1, nil))

	b2 := model.Block{
		ID:     "block2",
		Height: 2,
		Transactions: []model.Transaction{{
			ID:      "tx2",
			Inputs:  []model.Input{{TxID: "tx1", Index: 0}},
			Outputs: []model.Output{{Address: "addr2", Value: 4}, {Address: "addr3", Value: 6}},
		}},
	}
	spent := map[string]model.Output{model.UTXOKey("tx1", 0): {Address: "addr1", Value: 10}}
	require.NoError(t, s.ApplyBlock(ctx, b2, spent))

	bal1, _ := s.GetBalance(ctx, "addr1")
	bal2, _ := s.GetBalance(ctx, "addr2")
	bal3, _ := s.GetBalance(ctx, "addr3")
	require.EqualValues(t, 0, bal1)
	require.EqualValues(t, 4, bal2)
	require.EqualValues(t, 6, bal3)
}

func TestListBlocksOrderedByHeight(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := uint64(1); i <= 3; i++ {
		b := model.Block{
			ID:     "block" + string(rune('0'+i)),
			Height: i,
			Transactions: []model.Transaction{
				{ID: "tx" + string(rune('0'+i)), Outputs: []model.Output{{Address: "addr", Value: 1}}},
			},
		}
		require.NoError(t, s.ApplyBlock(ctx, b, nil))
	}

	summaries, height, err := s.ListBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	require.EqualValues(t, 3, height)
	require.EqualValues(t, 1, summaries[0].Height)
	require.EqualValues(t, 3, summaries[2].Height)
}

func TestRewindToResurrectsSpentOutputsAndDeletesDoomedBlocks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b1 := model.Block{
		ID:     "block1",
		Height: 1,
		Transactions: []model.Transaction{
			{ID: "tx1", Outputs: []model.Output{{Address: "addr1", Value: 10}}},
		},
	}
	require.NoError(t, s.ApplyBlock(ctx, b1, nil))

	b2 := model.Block{
		ID:     "block2",
		Height: 2,
		Transactions: []model.Transaction{{
			ID:      "tx2",
			Inputs:  []model.Input{{TxID: "tx1", Index: 0}},
			Outputs: []model.Output{{Address: "addr2", Value: 10}},
		}},
	}
	spent := map[string]model.Output{model.UTXOKey("tx1", 0): {Address: "addr1", Value: 10}}
	require.NoError(t, s.ApplyBlock(ctx, b2, spent))

	require.NoError(t, s.RewindTo(ctx, 1))

	bal1, _ := s.GetBalance(ctx, "addr1")
	bal2, _ := s.GetBalance(ctx, "addr2")
	require.EqualValues(t, 10, bal1)
	require.EqualValues(t, 0, bal2)

	summaries, height, err := s.ListBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.EqualValues(t, 1, height)
}

func TestLoadAllBlocksReturnsFullBodies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b := model.Block{
		ID:     "block1",
		Height: 1,
		Transactions: []model.Transaction{
			{ID: "tx1", Outputs: []model.Output{{Address: "addr1", Value: 10}}},
		},
	}
	require.NoError(t, s.ApplyBlock(ctx, b, nil))

	blocks, err := s.LoadAllBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Transactions, 1)
	require.Equal(t, "tx1", blocks[0].Transactions[0].ID)
	require.Equal(t, []model.Output{{Address: "addr1", Value: 10}}, blocks[0].Transactions[0].Outputs)
}

func TestResetClearsAllRelations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b := model.Block{
		ID:     "block1",
		Height: 1,
		Transactions: []model.Transaction{
			{ID: "tx1", Outputs: []model.Output{{Address: "addr1", Value: 10}}},
		},
	}
	require.NoError(t, s.ApplyBlock(ctx, b, nil))
	require.NoError(t, s.Reset(ctx))

	blocks, height, err := s.ListBlocks(ctx)
	require.NoError(t, err)
	require.Empty(t, blocks)
	require.EqualValues(t, 0, height)

	balance, err := s.GetBalance(ctx, "addr1")
	require.NoError(t, err)
	require.EqualValues(t, 0, balance)
}

func TestHealth(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Health(context.Background()))
}
