package ledger

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

func makeTxs(n int) []*model.Transaction {
	txs := make([]*model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, &model.Transaction{
			ID:        string(rune('a' + i)),
			Timestamp: int64(i),
			Sender:    "s",
			Receiver:  "r",
			Amount:    uint64(i + 1),
			Kind:      model.TxTransfer,
		})
	}
	return txs
}

func TestMerkleRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int
	}{
		{name: "single", n: 1},
		{name: "even", n: 4},
		{name: "odd duplicates last", n: 3},
		{name: "larger odd", n: 7},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			txs := makeTxs(tt.n)
			first := MerkleRootHex(txs)
			if first == "" {
				t.Fatalf("empty root for %d transactions", tt.n)
			}
			if again := MerkleRootHex(txs); again != first {
				t.Fatalf("root not deterministic: %s vs %s", again, first)
			}

			// Any transaction change must surface in the root.
			txs[tt.n-1].Amount++
			if MerkleRootHex(txs) == first {
				t.Fatalf("transaction mutation left the root unchanged")
			}
		})
	}
}

func TestMerkleRootEmpty(t *testing.T) {
	t.Parallel()

	want := model.HashHex(chainhash.HashH(nil))
	if got := MerkleRootHex(nil); got != want {
		t.Fatalf("empty list root = %s, want digest of empty input %s", got, want)
	}
}

func TestMerkleRootOddMatchesDuplicatedLast(t *testing.T) {
	t.Parallel()

	odd := makeTxs(3)
	padded := append(makeTxs(3), odd[2])
	if MerkleRootHex(odd) != MerkleRootHex(padded) {
		t.Fatalf("odd level did not behave as duplicated-last pairing")
	}
}
