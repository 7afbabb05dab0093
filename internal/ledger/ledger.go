// Package ledger owns the block chain and the account, stake, and storage
// pledge tables. No other component mutates this state directly; blocks and
// transactions are submitted through it.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

const genesisDifficulty = 1

// Ledger is the append-only chain plus derived state. Reads take a shared
// lock; the owning node's control loop is the only writer.
type Ledger struct {
	mu       sync.RWMutex
	chain    []*model.Block
	balances map[string]uint64
	pledges  map[string]*model.StoragePledge
	stakes   map[string][]*model.Stake
	logger   *zap.Logger
}

// New builds a ledger holding only the genesis block, with the treasury
// credited by the genesis transaction.
func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	genesisTx := model.NewGenesisTx()
	genesis := &model.Block{
		Height:        0,
		PreviousHash:  model.GenesisPreviousHash,
		Timestamp:     model.GenesisTimestamp,
		Transactions:  []*model.Transaction{genesisTx},
		MerkleRoot:    MerkleRootHex([]*model.Transaction{genesisTx}),
		Miner:         model.GenesisMiner,
		Validators:    []string{model.GenesisMiner},
		PoCDifficulty: genesisDifficulty,
	}
	genesis.Seal()

	return &Ledger{
		chain:    []*model.Block{genesis},
		balances: map[string]uint64{genesisTx.Receiver: genesisTx.Amount},
		pledges:  make(map[string]*model.StoragePledge),
		stakes:   make(map[string][]*model.Stake),
		logger:   logger,
	}
}

// Tip returns the latest block.
func (l *Ledger) Tip() *model.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chain[len(l.chain)-1]
}

// Height returns the height of the tip.
func (l *Ledger) Height() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chain[len(l.chain)-1].Height
}

// Block returns the block at the given height, or nil if out of range.
func (l *Ledger) Block(height uint64) *model.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if height >= uint64(len(l.chain)) {
		return nil
	}
	return l.chain[height]
}

// Balance returns the current balance of an address, zero for unknown ones.
func (l *Ledger) Balance(address string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[address]
}

// AppendBlock validates the block against the tip and, on success, applies
// its transactions in order and appends it. Continuity, digest, and
// transaction-kind failures reject the block without touching state.
func (l *Ledger) AppendBlock(block *model.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.chain[len(l.chain)-1]
	if block.PreviousHash != tip.Hash {
		return fmt.Errorf("%w: height %d previous %q tip %q",
			ErrChainContinuity, block.Height, block.PreviousHash, tip.Hash)
	}
	if root := MerkleRootHex(block.Transactions); root != block.MerkleRoot {
		return fmt.Errorf("%w: merkle root %q recomputed %q", ErrHashMismatch, block.MerkleRoot, root)
	}
	if !block.VerifyHash() {
		return fmt.Errorf("%w: block %d", ErrHashMismatch, block.Height)
	}

	// Kinds are vetted before anything applies, so a bad transaction in the
	// middle of the block can never leave earlier mutations behind.
	for _, tx := range block.Transactions {
		if !tx.Kind.Known() {
			return fmt.Errorf("%w: %q in block %d", ErrUnknownTxKind, tx.Kind, block.Height)
		}
	}

	for _, tx := range block.Transactions {
		if err := l.applyLocked(tx); err != nil {
			if errors.Is(err, ErrInsufficientBalance) {
				// Rejected transactions inside an accepted block are
				// skipped, not fatal; the block still appends.
				l.logger.Warn("skipping transaction",
					zap.String("tx", tx.ID), zap.Error(err))
				continue
			}
			return err
		}
	}

	l.chain = append(l.chain, block)
	l.logger.Info("block appended",
		zap.Uint64("height", block.Height),
		zap.String("hash", block.Hash),
		zap.Int("txs", len(block.Transactions)))
	return nil
}

// ApplyTransaction applies a single transaction outside of a block. Used for
// admission checks and system credits; block application goes through
// AppendBlock.
func (l *Ledger) ApplyTransaction(tx *model.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(tx)
}

func (l *Ledger) applyLocked(tx *model.Transaction) error {
	switch tx.Kind {
	case model.TxTransfer:
		return l.transferLocked(tx)
	case model.TxStakeDeposit:
		return l.stakeDepositLocked(tx)
	case model.TxStakeWithdraw:
		l.stakeWithdrawLocked(tx)
		return nil
	case model.TxStoragePledge:
		l.storagePledgeLocked(tx)
		return nil
	case model.TxStorageRevoke:
		if pledge, ok := l.pledges[tx.Sender]; ok {
			pledge.Active = false
		}
		return nil
	case model.TxGovernanceVote:
		// Carried on chain for the record; voting state lives in the council.
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTxKind, tx.Kind)
	}
}

func (l *Ledger) transferLocked(tx *model.Transaction) error {
	if tx.Sender == model.SystemAccount {
		l.balances[tx.Receiver] += tx.Amount
		return nil
	}
	if l.balances[tx.Sender] < tx.Amount {
		return fmt.Errorf("%w: %s has %d, needs %d",
			ErrInsufficientBalance, tx.Sender, l.balances[tx.Sender], tx.Amount)
	}
	l.balances[tx.Sender] -= tx.Amount
	l.balances[tx.Receiver] += tx.Amount
	return nil
}

func (l *Ledger) stakeDepositLocked(tx *model.Transaction) error {
	if l.balances[tx.Sender] < tx.Amount {
		return fmt.Errorf("%w: %s has %d, stake needs %d",
			ErrInsufficientBalance, tx.Sender, l.balances[tx.Sender], tx.Amount)
	}
	l.balances[tx.Sender] -= tx.Amount
	l.stakes[tx.Sender] = append(l.stakes[tx.Sender], &model.Stake{
		Validator: tx.Sender,
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
		Active:    true,
	})
	return nil
}

// stakeWithdrawLocked releases up to the requested amount from active stake
// records, oldest first, and refunds it to the sender's balance.
func (l *Ledger) stakeWithdrawLocked(tx *model.Transaction) {
	remaining := tx.Amount
	for _, stake := range l.stakes[tx.Sender] {
		if remaining == 0 {
			break
		}
		if !stake.Active {
			continue
		}
		release := stake.Amount
		if release > remaining {
			release = remaining
		}
		stake.Amount -= release
		if stake.Amount == 0 {
			stake.Active = false
		}
		l.balances[tx.Sender] += release
		remaining -= release
	}
}

func (l *Ledger) storagePledgeLocked(tx *model.Transaction) {
	capacity := model.MinPledgeGB
	if raw, ok := tx.Data["capacity_gb"]; ok {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			capacity = parsed
		}
	}
	if capacity < model.MinPledgeGB {
		capacity = model.MinPledgeGB
	}
	l.pledges[tx.Sender] = &model.StoragePledge{
		Pledger:    tx.Sender,
		CapacityGB: capacity,
		Timestamp:  tx.Timestamp,
		ProofRef:   tx.Data["proof_ref"],
		Active:     true,
	}
}

// Credit adds a system-originated amount to an account (block rewards).
func (l *Ledger) Credit(address string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[address] += amount
}

// StakeTotal sums the active stake records of a validator.
func (l *Ledger) StakeTotal(validator string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for _, stake := range l.stakes[validator] {
		if stake.Active {
			total += stake.Amount
		}
	}
	return total
}

// Pledge returns the current storage pledge of an address, if any.
func (l *Ledger) Pledge(address string) (*model.StoragePledge, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pledge, ok := l.pledges[address]
	return pledge, ok
}

// ActivePledges snapshots the active storage pledges.
func (l *Ledger) ActivePledges() []*model.StoragePledge {
	l.mu.RLock()
	defer l.mu.RUnlock()
	active := make([]*model.StoragePledge, 0, len(l.pledges))
	for _, pledge := range l.pledges {
		if pledge.Active {
			active = append(active, pledge)
		}
	}
	return active
}

// NetworkCapacityGB sums the capacity of all active pledges.
func (l *Ledger) NetworkCapacityGB() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for _, pledge := range l.pledges {
		if pledge.Active {
			total += pledge.CapacityGB
		}
	}
	return total
}

// Validate re-walks the chain checking continuity and digest integrity. It
// returns the index of the first failing block, or -1 and a nil error when
// the whole chain verifies.
func (l *Ledger) Validate() (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := 1; i < len(l.chain); i++ {
		block := l.chain[i]
		if !block.VerifyHash() {
			return i, fmt.Errorf("%w: block %d", ErrHashMismatch, i)
		}
		if root := MerkleRootHex(block.Transactions); root != block.MerkleRoot {
			return i, fmt.Errorf("%w: block %d merkle root", ErrHashMismatch, i)
		}
		if block.PreviousHash != l.chain[i-1].Hash {
			return i, fmt.Errorf("%w: block %d", ErrChainContinuity, i)
		}
	}
	return -1, nil
}
