// Package model defines the ledger's core data types: outputs, inputs,
// transactions and blocks. These are the values that flow between the
// validator, the in-memory index and the persistent store; none of those
// packages define their own copies.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Output is an amount credited to an address.
type Output struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

// Input references a prior output by the transaction that produced it and
// its zero-based position in that transaction's output list. It carries no
// value of its own; the value is looked up from the referenced output.
type Input struct {
	TxID  string `json:"txId"`
	Index int    `json:"index"`
}

// Transaction is an ordered list of inputs and an ordered list of outputs.
// A transaction with zero inputs is a coinbase: it mints value from nothing.
type Transaction struct {
	ID      string   `json:"id"`
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// IsCoinbase reports whether t has no inputs.
func (t Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 0
}

// Block is an ordered list of transactions at a given height.
type Block struct {
	ID           string        `json:"id"`
	Height       uint64        `json:"height"`
	Transactions []Transaction `json:"transactions"`
}

// BlockSummary is the (id, height) projection of a Block used by ListBlocks.
type BlockSummary struct {
	ID     string `json:"id"`
	Height uint64 `json:"height"`
}

// UTXOKey returns the canonical key identifying the output produced by
// transaction txID at position index: "{txID}:{index}".
func UTXOKey(txID string, index int) string {
	return txID + ":" + strconv.Itoa(index)
}

// SplitUTXOKey reverses UTXOKey, returning the transaction id and index it
// encodes. ok is false if key is not in the "{txID}:{index}" form.
func SplitUTXOKey(key string) (txID string, index int, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "", 0, false
	}

	idx, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, false
	}

	return key[:i], idx, true
}

// HeightDecimalString renders height in base 10 with no padding, the exact
// encoding ComputeBlockID feeds to the digest.
func HeightDecimalString(height uint64) string {
	return strconv.FormatUint(height, 10)
}

// ComputeBlockID derives the block identity hash specified for this ledger:
// the lowercase hex SHA-256 of decimal_height concatenated with every
// transaction id, in submission order. There is no length-prefixing or
// separator between fields, so this encoding is not collision-resistant
// against reordered/rebalanced boundaries between height and tx ids -
// replayers must reproduce the same concatenation to match.
func ComputeBlockID(height uint64, txIDs []string) string {
	h := sha256.New()
	h.Write([]byte(HeightDecimalString(height)))

	for _, id := range txIDs {
		h.Write([]byte(id))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// TxIDs returns the ids of a block's transactions in submission order.
func (b Block) TxIDs() []string {
	ids := make([]string, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = t.ID
	}

	return ids
}

// String renders a block for log messages.
func (b Block) String() string {
	return fmt.Sprintf("block{id=%s height=%d txs=%d}", b.ID, b.Height, len(b.Transactions))
}
