// Package model defines the FCU chain domain types and their canonical
// digests. Digest computation is part of the type contract: a receiving node
// recomputes every digest before trusting it.
package model

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TxKind enumerates the supported transaction kinds.
type TxKind string

const (
	TxTransfer       TxKind = "transfer"
	TxStakeDeposit   TxKind = "stake_deposit"
	TxStakeWithdraw  TxKind = "stake_withdraw"
	TxStoragePledge  TxKind = "storage_pledge"
	TxStorageRevoke  TxKind = "storage_revoke"
	TxGovernanceVote TxKind = "governance_vote"
)

const (
	// TreasuryAccount receives the genesis credit.
	TreasuryAccount = "FCU_TREASURY"

	// SystemAccount is the sender of system-originated transactions.
	SystemAccount = "SYSTEM"

	// GenesisAmount is the initial treasury credit, in whole FCU.
	GenesisAmount uint64 = 1_000_000

	// GenesisTxID identifies the single genesis transaction.
	GenesisTxID = "GENESIS_SIMCOIN"

	// MinPledgeGB is the storage pledge floor. Smaller pledges are clamped
	// up, never rejected.
	MinPledgeGB uint64 = 32
)

// Known reports whether the kind is one this chain processes. The wire
// codec does not restrict the field; admission and block validation do.
func (k TxKind) Known() bool {
	switch k {
	case TxTransfer, TxStakeDeposit, TxStakeWithdraw,
		TxStoragePledge, TxStorageRevoke, TxGovernanceVote:
		return true
	}
	return false
}

// Transaction is an immutable value transfer or protocol action. Once hashed
// it must not be mutated; any change invalidates the digest.
type Transaction struct {
	ID        string
	Timestamp int64
	Sender    string
	Receiver  string
	Amount    uint64
	Kind      TxKind
	Nonce     uint64
	Signature string
	Data      map[string]string
}

// Hash computes the canonical content digest. Data map key order does not
// affect the result.
func (t *Transaction) Hash() chainhash.Hash {
	w := newDigestWriter()
	w.writeString(t.ID)
	w.writeInt64(t.Timestamp)
	w.writeString(t.Sender)
	w.writeString(t.Receiver)
	w.writeUint64(t.Amount)
	w.writeString(string(t.Kind))
	w.writeUint64(t.Nonce)
	w.writeString(t.Signature)
	w.writeStringMap(t.Data)
	return w.sum()
}

// HashHex is the hex form of Hash, used on the wire.
func (t *Transaction) HashHex() string {
	return HashHex(t.Hash())
}

// NewGenesisTx builds the fixed genesis transaction crediting the treasury.
func NewGenesisTx() *Transaction {
	return &Transaction{
		ID:        GenesisTxID,
		Timestamp: GenesisTimestamp,
		Sender:    SystemAccount,
		Receiver:  TreasuryAccount,
		Amount:    GenesisAmount,
		Kind:      TxTransfer,
		Data:      map[string]string{"note": "Genesis - Simcoin donation to FCU Treasury"},
	}
}
