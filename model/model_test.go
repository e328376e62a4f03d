package model

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUTXOKeyRoundTrip(t *testing.T) {
	key := UTXOKey("tx1", 3)
	require.Equal(t, "tx1:3", key)

	txID, index, ok := SplitUTXOKey(key)
	require.True(t, ok)
	require.Equal(t, "tx1", txID)
	require.Equal(t, 3, index)
}

func TestSplitUTXOKeyRejectsMalformedInput(t *testing.T) {
	_, _, ok := SplitUTXOKey("no-colon-here")
	require.False(t, ok)

	_, _, ok = SplitUTXOKey("tx1:not-a-number")
	require.False(t, ok)
}

func TestIsCoinbase(t *testing.T) {
	require.True(t, Transaction{ID: "tx1"}.IsCoinbase())
	require.False(t, Transaction{ID: "tx2", Inputs: []Input{{TxID: "tx1", Index: 0}}}.IsCoinbase())
}

func TestComputeBlockIDMatchesDecimalConcatEncoding(t *testing.T) {
	// sha256("1" + "tx1"): decimal height with no padding, followed by
	// transaction ids in submission order, with no separators.
	id := ComputeBlockID(1, []string{"tx1"})
	require.Len(t, id, 64)
	sum := sha256.Sum256([]byte("1tx1"))
	require.Equal(t, hex.EncodeToString(sum[:]), id)
}

func TestComputeBlockIDDiffersByTxOrder(t *testing.T) {
	a := ComputeBlockID(5, []string{"tx1", "tx2"})
	b := ComputeBlockID(5, []string{"tx2", "tx1"})
	require.NotEqual(t, a, b)
}

func TestTxIDs(t *testing.T) {
	b := Block{Transactions: []Transaction{{ID: "a"}, {ID: "b"}}}
	require.Equal(t, []string{"a", "b"}, b.TxIDs())
}
