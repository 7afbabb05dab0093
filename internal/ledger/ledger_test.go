package ledger

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// buildBlock assembles and seals a valid next block on the given tip.
func buildBlock(tip *model.Block, miner string, txs []*model.Transaction) *model.Block {
	b := &model.Block{
		Height:        tip.Height + 1,
		PreviousHash:  tip.Hash,
		Timestamp:     time.Now().Unix(),
		Transactions:  txs,
		MerkleRoot:    MerkleRootHex(txs),
		Miner:         miner,
		Validators:    []string{miner},
		PoCDifficulty: 4,
	}
	b.Seal()
	return b
}

func TestNewLedgerGenesis(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())
	if l.Height() != 0 {
		t.Fatalf("genesis height = %d, want 0", l.Height())
	}
	tip := l.Tip()
	if tip.PreviousHash != model.GenesisPreviousHash {
		t.Fatalf("genesis previous hash = %q", tip.PreviousHash)
	}
	if !tip.VerifyHash() {
		t.Fatalf("genesis block does not verify")
	}
	if got := l.Balance(model.TreasuryAccount); got != model.GenesisAmount {
		t.Fatalf("treasury balance = %d, want %d", got, model.GenesisAmount)
	}

	// Genesis must be identical across independently built ledgers.
	if other := New(zap.NewNop()); other.Tip().Hash != tip.Hash {
		t.Fatalf("genesis hash differs between ledgers: %s vs %s", other.Tip().Hash, tip.Hash)
	}
}

func TestAppendBlockContinuity(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())
	bad := buildBlock(l.Tip(), "node-1", nil)
	bad.PreviousHash = "not-the-tip"
	bad.Seal()

	if err := l.AppendBlock(bad); !errors.Is(err, ErrChainContinuity) {
		t.Fatalf("AppendBlock error = %v, want ErrChainContinuity", err)
	}
	if l.Height() != 0 {
		t.Fatalf("rejected block changed the chain height")
	}
}

func TestAppendBlockHashMismatch(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())

	tampered := buildBlock(l.Tip(), "node-1", nil)
	tampered.Nonce++ // invalidates the sealed hash
	if err := l.AppendBlock(tampered); !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("AppendBlock error = %v, want ErrHashMismatch", err)
	}

	badRoot := buildBlock(l.Tip(), "node-1", nil)
	badRoot.MerkleRoot = "ffff"
	badRoot.Seal()
	if err := l.AppendBlock(badRoot); !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("AppendBlock error = %v, want ErrHashMismatch for merkle root", err)
	}
}

func TestAppendBlockAppliesTransfers(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())

	fund := &model.Transaction{
		ID: "fund-1", Timestamp: 1, Sender: model.TreasuryAccount,
		Receiver: "alice", Amount: 500_000, Kind: model.TxTransfer,
	}
	if err := l.AppendBlock(buildBlock(l.Tip(), "node-1", []*model.Transaction{fund})); err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	if got := l.Balance("alice"); got != 500_000 {
		t.Fatalf("alice balance = %d, want 500000", got)
	}
	if got := l.Balance(model.TreasuryAccount); got != 500_000 {
		t.Fatalf("treasury balance = %d, want 500000", got)
	}
}

func TestAppendBlockUnknownKindLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())

	// A valid transfer ahead of the bad transaction must not leak through
	// when the block as a whole is rejected.
	txs := []*model.Transaction{
		{
			ID: "fund-1", Timestamp: 1, Sender: model.TreasuryAccount,
			Receiver: "alice", Amount: 500_000, Kind: model.TxTransfer,
		},
		{
			ID: "odd-1", Timestamp: 2, Sender: "alice",
			Receiver: "bob", Amount: 1, Kind: "mystery",
		},
	}
	if err := l.AppendBlock(buildBlock(l.Tip(), "node-1", txs)); !errors.Is(err, ErrUnknownTxKind) {
		t.Fatalf("AppendBlock error = %v, want ErrUnknownTxKind", err)
	}
	if l.Height() != 0 {
		t.Fatalf("rejected block changed the chain height")
	}
	if got := l.Balance(model.TreasuryAccount); got != model.GenesisAmount {
		t.Fatalf("treasury balance = %d, want untouched %d", got, model.GenesisAmount)
	}
	if got := l.Balance("alice"); got != 0 {
		t.Fatalf("alice balance = %d, want 0", got)
	}
}

func TestApplyTransactionUnknownKind(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())
	tx := &model.Transaction{ID: "odd-2", Sender: "alice", Receiver: "bob", Amount: 1, Kind: "mystery"}
	if err := l.ApplyTransaction(tx); !errors.Is(err, ErrUnknownTxKind) {
		t.Fatalf("ApplyTransaction error = %v, want ErrUnknownTxKind", err)
	}
}

func TestAppendBlockSkipsUncoveredTransfers(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())

	// alice holds 500k; a 600k spend inside the block is skipped, the rest
	// of the block still applies.
	txs := []*model.Transaction{
		{ID: "fund-1", Timestamp: 1, Sender: model.TreasuryAccount, Receiver: "alice", Amount: 500_000, Kind: model.TxTransfer},
		{ID: "over-1", Timestamp: 2, Sender: "alice", Receiver: "bob", Amount: 600_000, Kind: model.TxTransfer},
		{ID: "ok-1", Timestamp: 3, Sender: "alice", Receiver: "bob", Amount: 100_000, Kind: model.TxTransfer},
	}
	if err := l.AppendBlock(buildBlock(l.Tip(), "node-1", txs)); err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	if l.Height() != 1 {
		t.Fatalf("block with a skipped transaction did not append")
	}
	if got := l.Balance("alice"); got != 400_000 {
		t.Fatalf("alice balance = %d, want 400000", got)
	}
	if got := l.Balance("bob"); got != 100_000 {
		t.Fatalf("bob balance = %d, want 100000", got)
	}
}

func TestApplyTransactionInsufficientBalance(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())
	err := l.ApplyTransaction(&model.Transaction{
		ID: "tx-1", Sender: "nobody", Receiver: "bob", Amount: 1, Kind: model.TxTransfer,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("ApplyTransaction error = %v, want ErrInsufficientBalance", err)
	}
}

func TestStakeDepositAndWithdraw(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())
	l.Credit("val-1", 5000)

	if err := l.ApplyTransaction(&model.Transaction{
		ID: "stake-1", Sender: "val-1", Amount: 3000, Kind: model.TxStakeDeposit, Timestamp: 1,
	}); err != nil {
		t.Fatalf("stake deposit: %v", err)
	}
	if got := l.Balance("val-1"); got != 2000 {
		t.Fatalf("balance after deposit = %d, want 2000", got)
	}
	if got := l.StakeTotal("val-1"); got != 3000 {
		t.Fatalf("stake total = %d, want 3000", got)
	}

	// Depositing more than the remaining balance fails.
	if err := l.ApplyTransaction(&model.Transaction{
		ID: "stake-2", Sender: "val-1", Amount: 9000, Kind: model.TxStakeDeposit, Timestamp: 2,
	}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("oversized deposit error = %v, want ErrInsufficientBalance", err)
	}

	// Partial withdraw refunds the balance and keeps the remainder staked.
	if err := l.ApplyTransaction(&model.Transaction{
		ID: "withdraw-1", Sender: "val-1", Amount: 1000, Kind: model.TxStakeWithdraw, Timestamp: 3,
	}); err != nil {
		t.Fatalf("stake withdraw: %v", err)
	}
	if got := l.Balance("val-1"); got != 3000 {
		t.Fatalf("balance after withdraw = %d, want 3000", got)
	}
	if got := l.StakeTotal("val-1"); got != 2000 {
		t.Fatalf("stake total after withdraw = %d, want 2000", got)
	}

	// Withdrawing more than staked releases everything and stops.
	if err := l.ApplyTransaction(&model.Transaction{
		ID: "withdraw-2", Sender: "val-1", Amount: 9999, Kind: model.TxStakeWithdraw, Timestamp: 4,
	}); err != nil {
		t.Fatalf("stake withdraw: %v", err)
	}
	if got := l.StakeTotal("val-1"); got != 0 {
		t.Fatalf("stake total after full withdraw = %d, want 0", got)
	}
	if got := l.Balance("val-1"); got != 5000 {
		t.Fatalf("balance after full withdraw = %d, want 5000", got)
	}
}

func TestStoragePledgeLifecycle(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())

	tests := []struct {
		name     string
		capacity string
		want     uint64
	}{
		{name: "declared capacity", capacity: "512", want: 512},
		{name: "below floor clamps up", capacity: "10", want: model.MinPledgeGB},
		{name: "garbage falls back to floor", capacity: "lots", want: model.MinPledgeGB},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := l.ApplyTransaction(&model.Transaction{
				ID: "pledge-" + tt.name, Sender: "miner-" + tt.name,
				Kind: model.TxStoragePledge, Timestamp: 1,
				Data: map[string]string{"capacity_gb": tt.capacity},
			}); err != nil {
				t.Fatalf("pledge: %v", err)
			}
			pledge, ok := l.Pledge("miner-" + tt.name)
			if !ok || !pledge.Active {
				t.Fatalf("pledge missing or inactive")
			}
			if pledge.CapacityGB != tt.want {
				t.Fatalf("pledge capacity = %d, want %d", pledge.CapacityGB, tt.want)
			}
		})
	}

	if got := l.NetworkCapacityGB(); got != 512+2*model.MinPledgeGB {
		t.Fatalf("network capacity = %d", got)
	}

	if err := l.ApplyTransaction(&model.Transaction{
		ID: "revoke-1", Sender: "miner-declared capacity", Kind: model.TxStorageRevoke, Timestamp: 2,
	}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got := l.NetworkCapacityGB(); got != 2*model.MinPledgeGB {
		t.Fatalf("network capacity after revoke = %d", got)
	}
	if got := len(l.ActivePledges()); got != 2 {
		t.Fatalf("active pledges = %d, want 2", got)
	}
}

func TestValidateDetectsTampering(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())
	for i := 0; i < 3; i++ {
		tx := &model.Transaction{
			ID: "tx-" + string(rune('a'+i)), Timestamp: int64(i),
			Sender: model.TreasuryAccount, Receiver: "alice", Amount: 10, Kind: model.TxTransfer,
		}
		if err := l.AppendBlock(buildBlock(l.Tip(), "node-1", []*model.Transaction{tx})); err != nil {
			t.Fatalf("AppendBlock %d: %v", i, err)
		}
	}

	if idx, err := l.Validate(); idx != -1 || err != nil {
		t.Fatalf("Validate on clean chain = (%d, %v), want (-1, nil)", idx, err)
	}

	// Mutating a historical transaction must be caught at that index.
	l.Block(2).Transactions[0].Amount = 999_999
	idx, err := l.Validate()
	if idx != 2 {
		t.Fatalf("Validate index = %d, want 2", idx)
	}
	if !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("Validate error = %v, want ErrHashMismatch", err)
	}
}

func TestBlockOutOfRange(t *testing.T) {
	t.Parallel()

	l := New(zap.NewNop())
	if b := l.Block(99); b != nil {
		t.Fatalf("out-of-range block = %+v, want nil", b)
	}
}
