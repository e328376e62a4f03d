package engine

import (
	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/index"
	"github.com/bsv-blockchain/utxoledger/model"
)

// validate decides whether b may be applied on top of idx's current state.
// It is pure and read-only: idx is never mutated here, and every check
// below runs against the pre-block snapshot only. Checks run in the order
// given; the first failure wins and later checks are not performed.
//
// On success it returns, for every input in the block, the output it
// resolved to - the same lookup the mutator then applies, so the store and
// the index are updated from one consistent resolution rather than two.
func validate(idx *index.Index, b model.Block) (map[string]model.Output, error) {
	if err := checkHeight(idx.CurrentHeight(), b.Height); err != nil {
		return nil, err
	}

	// Pass 1: UTXO existence, across every transaction in the block, read
	// entirely from the pre-block snapshot. A transaction may not spend
	// an output produced earlier in the same block - that output only
	// enters idx once the whole block is applied - so this pass never
	// looks at anything b itself produced.
	spent := make(map[string]model.Output)
	consumed := make(map[string]bool)
	inSums := make([]int64, len(b.Transactions))

	for i, t := range b.Transactions {
		for _, in := range t.Inputs {
			key := model.UTXOKey(in.TxID, in.Index)

			if consumed[key] {
				return nil, errors.NewInputNotFoundError(key)
			}

			o, ok := idx.Lookup(key)
			if !ok {
				return nil, errors.NewInputNotFoundError(key)
			}

			consumed[key] = true
			spent[key] = o
			inSums[i] += o.Value
		}
	}

	// Pass 2: value conservation, across every non-coinbase transaction.
	for i, t := range b.Transactions {
		if t.IsCoinbase() {
			continue
		}

		var outSum int64
		for _, o := range t.Outputs {
			outSum += o.Value
		}

		if inSums[i] != outSum {
			return nil, errors.NewValueMismatchError(
				"transaction %s: input sum %d does not equal output sum %d", t.ID, inSums[i], outSum)
		}
	}

	hashInput, expected := blockIDInputAndDigest(b)
	if b.ID != expected {
		return nil, errors.NewInvalidBlockIDError(expected, b.ID, hashInput)
	}

	return spent, nil
}

func checkHeight(currentHeight, candidate uint64) error {
	var want uint64
	if currentHeight == 0 {
		want = 1
	} else {
		want = currentHeight + 1
	}

	if candidate != want {
		return errors.NewInvalidHeightError("expected height %d, got %d", want, candidate)
	}

	return nil
}

func blockIDInputAndDigest(b model.Block) (hashInput, expected string) {
	txIDs := b.TxIDs()
	expected = model.ComputeBlockID(b.Height, txIDs)

	hashInput = model.HeightDecimalString(b.Height)
	for _, id := range txIDs {
		hashInput += id
	}

	return hashInput, expected
}
