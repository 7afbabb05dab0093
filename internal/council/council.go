package council

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/clock"
)

const (
	// MaxCouncilSize bounds the voting set, treasurer excluded.
	MaxCouncilSize = 5

	// DefaultQuorum is the fixed yes-vote threshold. It stays 3 even if the
	// council is configured smaller; it is a constant of the protocol, not a
	// ratio.
	DefaultQuorum = 3

	// DefaultVotingPeriod is the proposal voting window.
	DefaultVotingPeriod = 24 * time.Hour
)

var (
	// ErrNotAuthorized means the actor lacks the capability for the
	// operation (non-treasurer proposing, non-member voting).
	ErrNotAuthorized = errors.New("not authorized")

	// ErrUnknownProposal means the proposal id is not registered.
	ErrUnknownProposal = errors.New("unknown proposal")

	// ErrVotingClosed means the voting window has ended or the proposal has
	// already been finalized.
	ErrVotingClosed = errors.New("voting closed")
)

// Council is the PoS governance body: one treasurer plus up to five members.
// Proposal state transitions are serialized under its lock, so concurrent
// votes on one proposal cannot race past the all-ballots check.
type Council struct {
	mu        sync.Mutex
	treasurer *Validator
	members   map[string]*Validator
	proposals map[string]*Proposal
	treasury  *Treasury
	rewards   RewardConfig
	counter   uint64
	clk       clock.Clock
	period    time.Duration
	logger    *zap.Logger
}

// New builds a council around its treasurer.
func New(treasurer *Validator, treasury *Treasury, clk clock.Clock, logger *zap.Logger) *Council {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if treasury == nil {
		treasury = NewTreasury(0)
	}
	return &Council{
		treasurer: treasurer,
		members:   make(map[string]*Validator),
		proposals: make(map[string]*Proposal),
		treasury:  treasury,
		rewards:   DefaultRewardConfig(),
		clk:       clk,
		period:    DefaultVotingPeriod,
		logger:    logger,
	}
}

// Treasurer returns the singleton treasurer.
func (c *Council) Treasurer() *Validator { return c.treasurer }

// Treasury returns the governed treasury.
func (c *Council) Treasury() *Treasury { return c.treasury }

// AddCouncilMember seats a validator. False (no error) when the council is
// full or the seat is taken.
func (c *Council) AddCouncilMember(v *Validator) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.members) >= MaxCouncilSize {
		return false
	}
	if _, ok := c.members[v.ID()]; ok {
		return false
	}
	c.members[v.ID()] = v
	return true
}

// RemoveCouncilMember unseats a member. False when absent.
func (c *Council) RemoveCouncilMember(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[id]; !ok {
		return false
	}
	delete(c.members, id)
	return true
}

// Member returns a seated council member.
func (c *Council) Member(id string) (*Validator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.members[id]
	return v, ok
}

// Size returns the number of seated members, treasurer excluded.
func (c *Council) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

// Validators lists the treasurer plus all seated members.
func (c *Council) Validators() []*Validator {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := make([]*Validator, 0, len(c.members)+1)
	all = append(all, c.treasurer)
	for _, v := range c.members {
		all = append(all, v)
	}
	return all
}

// CreateProposal opens a proposal for voting. Treasurer only; the status
// moves straight to voting with deadline now+period.
func (c *Council) CreateProposal(proposerID string, kind ProposalType, description string, changes map[string]uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if proposerID != c.treasurer.ID() {
		return "", fmt.Errorf("%w: only the treasurer proposes, got %q", ErrNotAuthorized, proposerID)
	}

	c.counter++
	id := fmt.Sprintf("PROP_%06d", c.counter)
	now := c.clk.Now()
	c.proposals[id] = &Proposal{
		ID:          id,
		Type:        kind,
		Proposer:    proposerID,
		Description: description,
		Changes:     changes,
		CreatedAt:   now,
		Deadline:    now.Add(c.period),
		Status:      StatusVoting,
		Votes:       make(map[string]bool),
	}
	c.logger.Info("proposal created",
		zap.String("proposal", id),
		zap.String("type", string(kind)))
	return id, nil
}

// Vote records a ballot. Eligible voters are the treasurer and seated
// members. Once every seated member has voted the proposal finalizes
// immediately, without waiting for the deadline.
func (c *Council) Vote(proposalID, voterID string, approve bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProposal, proposalID)
	}

	if voterID != c.treasurer.ID() {
		if _, seated := c.members[voterID]; !seated {
			return fmt.Errorf("%w: %q is not treasurer or council", ErrNotAuthorized, voterID)
		}
	}

	// Deadline expiry is applied lazily; whichever path observes the open
	// proposal first performs the transition.
	c.expireLocked(p)
	if p.Status != StatusVoting {
		return fmt.Errorf("%w: proposal %s is %s", ErrVotingClosed, proposalID, p.Status)
	}

	p.Votes[voterID] = approve

	if c.councilBallotsComplete(p) {
		c.finalizeLocked(p)
	}
	return nil
}

// Finalize applies deadline-driven finalization to a proposal. Safe to call
// repeatedly; closed proposals are left as they are.
func (c *Council) Finalize(proposalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProposal, proposalID)
	}
	c.expireLocked(p)
	return nil
}

// councilBallotsComplete reports whether every seated member has voted.
// Treasurer ballots count toward quorum but not toward completion.
func (c *Council) councilBallotsComplete(p *Proposal) bool {
	if len(c.members) == 0 {
		return false
	}
	for id := range c.members {
		if _, voted := p.Votes[id]; !voted {
			return false
		}
	}
	return true
}

// expireLocked closes an open proposal whose deadline has passed: approved
// when quorum was reached, rejected when all ballots are in, expired when
// only the deadline triggered.
func (c *Council) expireLocked(p *Proposal) {
	if p.Status != StatusVoting || c.clk.Now().Before(p.Deadline) {
		return
	}
	yes, _ := tally(p.Votes)
	switch {
	case yes >= DefaultQuorum:
		p.Status = StatusApproved
		c.executeLocked(p)
	case c.councilBallotsComplete(p):
		p.Status = StatusRejected
	default:
		p.Status = StatusExpired
	}
}

// finalizeLocked closes a proposal once all council ballots are in.
func (c *Council) finalizeLocked(p *Proposal) {
	yes, no := tally(p.Votes)
	if yes >= DefaultQuorum {
		p.Status = StatusApproved
		c.executeLocked(p)
	} else {
		p.Status = StatusRejected
	}
	c.logger.Info("proposal finalized",
		zap.String("proposal", p.ID),
		zap.String("status", string(p.Status)),
		zap.Int("yes", yes),
		zap.Int("no", no))
}

// executeLocked applies an approved proposal's side effects exactly once,
// guarded by the status transition approved -> executed.
func (c *Council) executeLocked(p *Proposal) {
	if p.Status != StatusApproved {
		return
	}

	switch p.Type {
	case ProposalRewardAdjustment:
		c.rewards.apply(p.Changes)
	case ProposalTreasurySpending:
		amount := p.Changes["amount"]
		if amount > 0 && !c.treasury.SpendFromAllocation(p.Description, amount, p.Proposer) {
			c.logger.Warn("treasury spending not covered by allocation",
				zap.String("proposal", p.ID),
				zap.Uint64("amount", amount))
		}
	case ProposalValidatorRemoval:
		for id := range p.Changes {
			delete(c.members, id)
		}
	default:
		// Difficulty tuning, parameter and storage-requirement changes are
		// recorded on chain by the caller; nothing to mutate here.
	}

	p.Status = StatusExecuted
	p.ExecutedAt = c.clk.Now()
}

// Proposal returns a copy of a proposal after lazily applying expiry.
func (c *Council) Proposal(id string) (Proposal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proposals[id]
	if !ok {
		return Proposal{}, fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	c.expireLocked(p)
	return p.snapshot(), nil
}

// Rewards returns the current reward table.
func (c *Council) Rewards() RewardConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rewards
}

// DistributeBlockRewards computes the per-account credits for a produced
// block from the current reward table. The ledger applies the credits; this
// only prices them.
func (c *Council) DistributeBlockRewards(miner string, validators []string, lotteryWinner string) map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	rewards := make(map[string]uint64)
	rewards[miner] += c.rewards.MinerReward
	for _, v := range validators {
		rewards[v] += c.rewards.ValidatorReward
	}
	if lotteryWinner != "" {
		rewards[lotteryWinner] += c.rewards.LotteryReward
	}
	return rewards
}

// ApplySlashing reduces a validator's stake, floored at zero. Unknown ids
// are ignored; slashing is always a no-fail correction.
func (c *Council) ApplySlashing(validatorID string, amount uint64) {
	c.mu.Lock()
	target := c.members[validatorID]
	if target == nil && validatorID == c.treasurer.ID() {
		target = c.treasurer
	}
	c.mu.Unlock()
	if target != nil {
		target.ApplySlashing(amount)
	}
}

// Stats summarizes governance state.
type Stats struct {
	Treasurer       string
	CouncilSize     int
	TotalProposals  int
	OpenProposals   int
	TreasuryBalance uint64
	Rewards         RewardConfig
}

// Stats returns a snapshot of governance counters.
func (c *Council) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	open := 0
	for _, p := range c.proposals {
		if p.Status == StatusVoting {
			open++
		}
	}
	return Stats{
		Treasurer:       c.treasurer.ID(),
		CouncilSize:     len(c.members),
		TotalProposals:  len(c.proposals),
		OpenProposals:   open,
		TreasuryBalance: c.treasury.Balance(),
		Rewards:         c.rewards,
	}
}
