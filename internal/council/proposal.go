package council

import "time"

// ProposalType enumerates what a governance proposal may change.
type ProposalType string

const (
	ProposalRewardAdjustment   ProposalType = "reward_adjustment"
	ProposalDifficultyTuning   ProposalType = "difficulty_tuning"
	ProposalParameterChange    ProposalType = "parameter_change"
	ProposalTreasurySpending   ProposalType = "treasury_spending"
	ProposalValidatorRemoval   ProposalType = "validator_removal"
	ProposalStorageRequirement ProposalType = "storage_requirement"
)

// ProposalStatus is the lifecycle state.
type ProposalStatus string

const (
	StatusProposed ProposalStatus = "proposed"
	StatusVoting   ProposalStatus = "voting"
	StatusApproved ProposalStatus = "approved"
	StatusRejected ProposalStatus = "rejected"
	StatusExecuted ProposalStatus = "executed"
	StatusExpired  ProposalStatus = "expired"
)

// Proposal is a governance item under vote. All mutation happens under the
// council lock; Snapshot hands out copies.
type Proposal struct {
	ID          string
	Type        ProposalType
	Proposer    string
	Description string
	Changes     map[string]uint64
	CreatedAt   time.Time
	Deadline    time.Time
	Status      ProposalStatus
	Votes       map[string]bool
	ExecutedAt  time.Time
}

// tally is the pure vote count: (yes, no). It has no side effects so quorum
// logic is testable apart from execution.
func tally(votes map[string]bool) (yes, no int) {
	for _, v := range votes {
		if v {
			yes++
		} else {
			no++
		}
	}
	return yes, no
}

// snapshot copies the proposal for read access outside the council lock.
func (p *Proposal) snapshot() Proposal {
	cp := *p
	cp.Changes = make(map[string]uint64, len(p.Changes))
	for k, v := range p.Changes {
		cp.Changes[k] = v
	}
	cp.Votes = make(map[string]bool, len(p.Votes))
	for k, v := range p.Votes {
		cp.Votes[k] = v
	}
	return cp
}
