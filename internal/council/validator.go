// Package council implements the Proof of Stake approval layer: a treasurer,
// a bounded council, the governance proposal lifecycle, and the treasury and
// reward tables that proposals act on.
package council

import "sync"

// Role is the validator's capability tier. Treasurer is a singleton system
// role, council members are the bounded voting set, plain validators hold
// stake without governance rights.
type Role string

const (
	RoleTreasurer Role = "treasurer"
	RoleCouncil   Role = "council"
	RoleValidator Role = "validator"
)

// DefaultMinStake gates council proposal and voting rights.
const DefaultMinStake uint64 = 1000

// Validator is a stake-holding participant. Stake mutations (deposits,
// slashing) go through its methods; reads are safe for concurrent use.
type Validator struct {
	mu              sync.Mutex
	id              string
	role            Role
	minStake        uint64
	staked          uint64
	blocksValidated uint64
	slashCount      uint64
}

// NewValidator builds a validator; a zero minStake falls back to the default.
func NewValidator(id string, role Role, minStake uint64) *Validator {
	if minStake == 0 {
		minStake = DefaultMinStake
	}
	return &Validator{id: id, role: role, minStake: minStake}
}

// ID returns the validator identity.
func (v *Validator) ID() string { return v.id }

// Role returns the capability tier.
func (v *Validator) Role() Role { return v.role }

// TotalStake returns the current staked amount.
func (v *Validator) TotalStake() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.staked
}

// AddStake credits stake to the validator.
func (v *Validator) AddStake(amount uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.staked += amount
}

// HasSufficientStake reports whether the minimum stake gate is met.
func (v *Validator) HasSufficientStake() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.staked >= v.minStake
}

// CanProposeBlock is true for the treasurer unconditionally and for council
// members meeting the stake gate; plain validators never propose.
func (v *Validator) CanProposeBlock() bool {
	switch v.role {
	case RoleTreasurer:
		return true
	case RoleCouncil:
		return v.HasSufficientStake()
	default:
		return false
	}
}

// CanVote mirrors CanProposeBlock: governance ballots come from the
// treasurer or stake-gated council members only.
func (v *Validator) CanVote() bool {
	return v.CanProposeBlock()
}

// RecordValidation increments the validated-blocks counter.
func (v *Validator) RecordValidation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blocksValidated++
}

// BlocksValidated returns the cumulative validation count.
func (v *Validator) BlocksValidated() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.blocksValidated
}

// ApplySlashing forces a stake reduction, floored at zero. Slashing is a
// correction, not a failure; it never errors.
func (v *Validator) ApplySlashing(amount uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if amount > v.staked {
		v.staked = 0
	} else {
		v.staked -= amount
	}
	v.slashCount++
}

// SlashCount returns how many times the validator has been slashed.
func (v *Validator) SlashCount() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.slashCount
}
