package ledger

import "errors"

var (
	// ErrChainContinuity means a block does not chain onto the current tip.
	ErrChainContinuity = errors.New("block does not extend chain tip")

	// ErrHashMismatch means a recomputed digest differs from the stored one.
	ErrHashMismatch = errors.New("recomputed hash does not match stored hash")

	// ErrInsufficientBalance means a debit would drive a balance negative.
	// The transaction is rejected, never partially applied.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnknownTxKind means a transaction kind this chain does not process.
	// A block carrying one is rejected before any of its transactions apply.
	ErrUnknownTxKind = errors.New("unknown transaction kind")
)
