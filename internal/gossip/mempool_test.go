package gossip

import (
	"fmt"
	"testing"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

func testTx(id string) *model.Transaction {
	return &model.Transaction{ID: id, Sender: "a", Receiver: "b", Amount: 1, Kind: model.TxTransfer}
}

func TestMempoolAddTransaction(t *testing.T) {
	t.Parallel()

	m := NewMempool(2)
	if !m.AddTransaction(testTx("tx-1")) {
		t.Fatalf("first add refused")
	}
	if m.AddTransaction(testTx("tx-1")) {
		t.Fatalf("duplicate add accepted")
	}
	if !m.AddTransaction(testTx("tx-2")) {
		t.Fatalf("second add refused")
	}
	if m.AddTransaction(testTx("tx-3")) {
		t.Fatalf("add above capacity accepted")
	}
	if m.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", m.Size())
	}
}

func TestMempoolPendingOrder(t *testing.T) {
	t.Parallel()

	m := NewMempool(0)
	for i := 0; i < 5; i++ {
		m.AddTransaction(testTx(fmt.Sprintf("tx-%d", i)))
	}

	batch := m.PendingTransactions(3)
	if len(batch) != 3 {
		t.Fatalf("batch size = %d, want 3", len(batch))
	}
	for i, tx := range batch {
		if want := fmt.Sprintf("tx-%d", i); tx.ID != want {
			t.Fatalf("batch[%d] = %s, want %s (arrival order)", i, tx.ID, want)
		}
	}

	// Zero or oversized limits return everything.
	if got := len(m.PendingTransactions(0)); got != 5 {
		t.Fatalf("PendingTransactions(0) = %d, want 5", got)
	}
	if got := len(m.PendingTransactions(100)); got != 5 {
		t.Fatalf("PendingTransactions(100) = %d, want 5", got)
	}
}

func TestMempoolRemoveTransaction(t *testing.T) {
	t.Parallel()

	m := NewMempool(0)
	m.AddTransaction(testTx("tx-1"))
	m.AddTransaction(testTx("tx-2"))

	if !m.RemoveTransaction("tx-1") {
		t.Fatalf("remove of staged transaction failed")
	}
	if m.RemoveTransaction("tx-1") {
		t.Fatalf("second remove succeeded")
	}
	if batch := m.PendingTransactions(0); len(batch) != 1 || batch[0].ID != "tx-2" {
		t.Fatalf("pending after remove = %+v", batch)
	}

	// Seen survives removal; replays of included transactions are known.
	if !m.HasSeen("tx-1") {
		t.Fatalf("removed transaction forgotten")
	}
}

func TestMempoolRejectsReplayAfterInclusion(t *testing.T) {
	t.Parallel()

	m := NewMempool(0)
	if !m.AddTransaction(testTx("tx-1")) {
		t.Fatalf("first add refused")
	}
	if !m.RemoveTransaction("tx-1") {
		t.Fatalf("remove of staged transaction failed")
	}

	// A fresh gossip envelope would carry the same transaction id; the
	// seen-set, not the live pool, is the idempotency gate.
	if m.AddTransaction(testTx("tx-1")) {
		t.Fatalf("included transaction re-admitted on replay")
	}
	if got := len(m.PendingTransactions(0)); got != 0 {
		t.Fatalf("pending after replay = %d, want 0", got)
	}

	b := &model.Block{Height: 3, PreviousHash: "p"}
	b.Seal()
	m.AddBlock(b)
	m.RemoveBlock(b.Hash)
	if m.AddBlock(b) {
		t.Fatalf("removed block re-admitted on replay")
	}
}

func TestMempoolSeenIsBounded(t *testing.T) {
	t.Parallel()

	// Capacity 2 gives a seen record of 8 entries; churning well past that
	// must evict the oldest ids instead of growing without bound.
	m := NewMempool(2)
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("tx-%d", i)
		if !m.AddTransaction(testTx(id)) {
			t.Fatalf("add %s refused", id)
		}
		if !m.RemoveTransaction(id) {
			t.Fatalf("remove %s failed", id)
		}
	}
	if m.HasSeen("tx-0") {
		t.Fatalf("oldest id survived churn past the seen capacity")
	}
	if !m.HasSeen("tx-39") {
		t.Fatalf("newest id evicted")
	}
}

func TestMempoolBlocks(t *testing.T) {
	t.Parallel()

	m := NewMempool(0)
	b := &model.Block{Height: 7, PreviousHash: "p"}
	b.Seal()

	if !m.AddBlock(b) {
		t.Fatalf("block add refused")
	}
	if m.AddBlock(b) {
		t.Fatalf("duplicate block accepted")
	}

	staged, ok := m.PendingBlock(b.Hash)
	if !ok || staged.Height != 7 {
		t.Fatalf("PendingBlock = (%+v, %v)", staged, ok)
	}
	if !m.RemoveBlock(b.Hash) {
		t.Fatalf("block remove failed")
	}
	if m.RemoveBlock(b.Hash) {
		t.Fatalf("second block remove succeeded")
	}
	if !m.HasSeen(b.Hash) {
		t.Fatalf("removed block forgotten")
	}
}
