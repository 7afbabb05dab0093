package model

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// GenesisPreviousHash is the previous-hash marker of the genesis block.
	GenesisPreviousHash = "0"

	// GenesisTimestamp is fixed so every node derives the same genesis hash.
	GenesisTimestamp int64 = 1_700_000_000

	// GenesisMiner labels the synthetic producer of block zero.
	GenesisMiner = "GENESIS_SYSTEM"
)

// Block is one link of the chain. The Hash field caches ComputeHash over the
// header fields; validators and receivers recompute it rather than trusting
// the stored value.
type Block struct {
	Height        uint64
	PreviousHash  string
	Timestamp     int64
	Transactions  []*Transaction
	MerkleRoot    string
	Miner         string
	Validators    []string
	PoCDifficulty uint32
	LotteryWinner string
	Nonce         uint64
	Hash          string
}

// ComputeHash digests the header fields. The validator set contributes as a
// sorted copy, so approval order does not change the hash. Transactions are
// covered through the merkle root.
func (b *Block) ComputeHash() chainhash.Hash {
	w := newDigestWriter()
	w.writeUint64(b.Height)
	w.writeString(b.PreviousHash)
	w.writeInt64(b.Timestamp)
	w.writeString(b.MerkleRoot)
	w.writeString(b.Miner)
	w.writeStringsSorted(b.Validators)
	w.writeUint64(uint64(b.PoCDifficulty))
	w.writeUint64(b.Nonce)
	return w.sum()
}

// Seal stores the computed hash on the block and returns it.
func (b *Block) Seal() string {
	b.Hash = HashHex(b.ComputeHash())
	return b.Hash
}

// VerifyHash recomputes the header digest and compares it to the stored one.
func (b *Block) VerifyHash() bool {
	return b.Hash == HashHex(b.ComputeHash())
}
