package leveldb

import (
	"bytes"
	"encoding/binary"
)

// Key layout, one prefix per relation (mirroring store/sql's five tables):
//
//	blk:<height-8BE>               -> block id               (blocks)
//	blkid:<block id>                -> height-8BE              (blocks, reverse)
//	tx:<block id>\x00<seq-8BE>      -> gob(model.Transaction)  (transactions, inputs, outputs)
//	out:<tx id>\x00<index-8BE>      -> gob(outputRecord)       (outputs / the live UTXO set)
//	bal:<address>                   -> int64-8BE               (balances)
const (
	prefixBlock   = "blk:"
	prefixBlockID = "blkid:"
	prefixTx      = "tx:"
	prefixOutput  = "out:"
	prefixBalance = "bal:"
)

func heightBytes(height uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)

	return b
}

func heightFromBytes(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func indexBytes(index int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(index))

	return b
}

func int64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))

	return b
}

func int64FromBytes(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func blockKey(height uint64) []byte {
	return append([]byte(prefixBlock), heightBytes(height)...)
}

func blockIDKey(blockID string) []byte {
	return append([]byte(prefixBlockID), blockID...)
}

// txKeyPrefix and txKey key transactions by their position within the
// block rather than by transaction id, so a prefix scan replays them back
// in their original submission order - order that matters both for
// ComputeBlockID and for the intra-block visibility rule.
func txKeyPrefix(blockID string) []byte {
	key := append([]byte(prefixTx), blockID...)
	return append(key, 0x00)
}

func txKey(blockID string, seq int) []byte {
	key := txKeyPrefix(blockID)
	return append(key, indexBytes(seq)...)
}

func outputKeyPrefix(txID string) []byte {
	key := append([]byte(prefixOutput), txID...)
	return append(key, 0x00)
}

func outputKey(txID string, index int) []byte {
	key := outputKeyPrefix(txID)
	return append(key, indexBytes(index)...)
}

func balanceKey(address string) []byte {
	return append([]byte(prefixBalance), address...)
}

// parseOutputKey reverses outputKey, recovering the tx id and output index
// it encodes. ok is false if key is not a well-formed "out:" key.
func parseOutputKey(key []byte) (txID string, index int, ok bool) {
	rest := bytes.TrimPrefix(key, []byte(prefixOutput))
	if len(rest) < 9 {
		return "", 0, false
	}

	sep := bytes.IndexByte(rest, 0x00)
	if sep < 0 {
		return "", 0, false
	}

	idxBytes := rest[sep+1:]
	if len(idxBytes) != 8 {
		return "", 0, false
	}

	return string(rest[:sep]), int(heightFromBytes(idxBytes)), true
}
