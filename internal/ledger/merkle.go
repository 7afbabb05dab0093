package ledger

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// MerkleRoot builds a binary hash tree over the transaction digests, bottom
// up. Odd-length levels duplicate their last digest before pairing. An empty
// transaction list yields the digest of the empty byte string.
func MerkleRoot(txs []*model.Transaction) chainhash.Hash {
	if len(txs) == 0 {
		return chainhash.HashH(nil)
	}

	level := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		level[i] = tx.Hash()
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			pair := make([]byte, 0, 2*chainhash.HashSize)
			pair = append(pair, level[i][:]...)
			pair = append(pair, level[i+1][:]...)
			next = append(next, chainhash.HashH(pair))
		}
		level = next
	}
	return level[0]
}

// MerkleRootHex is MerkleRoot rendered for block headers and the wire.
func MerkleRootHex(txs []*model.Transaction) string {
	return model.HashHex(MerkleRoot(txs))
}
