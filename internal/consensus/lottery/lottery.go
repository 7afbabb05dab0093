// Package lottery implements the PoW-lite reward draw: a capacity-weighted
// random pick seeded deterministically from the block hash, so any node
// holding the same participant set and hash recomputes the same winner.
package lottery

import (
	"encoding/binary"
	"math/rand"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// Participant tracks one storage donator's lottery standing.
type Participant struct {
	ID         string
	CapacityGB uint64
	Entries    uint64
	Wins       uint64
}

// TicketsFor converts pledged capacity to ticket count: one ticket per 32 GB,
// floored at one.
func TicketsFor(capacityGB uint64) uint64 {
	tickets := capacityGB / model.MinPledgeGB
	if tickets < 1 {
		tickets = 1
	}
	return tickets
}

// Engine holds the participant table and runs draws.
type Engine struct {
	mu           sync.Mutex
	participants map[string]*Participant
	logger       *zap.Logger
}

// New builds an empty lottery engine.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		participants: make(map[string]*Participant),
		logger:       logger,
	}
}

// RegisterParticipant upserts a participant; re-registering updates the
// capacity and keeps the counters.
func (e *Engine) RegisterParticipant(id string, capacityGB uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.participants[id]; ok {
		p.CapacityGB = capacityGB
		return
	}
	e.participants[id] = &Participant{ID: id, CapacityGB: capacityGB}
}

// IssueTickets credits the participant's entries for a block and returns the
// ticket count, zero for unregistered ids.
func (e *Engine) IssueTickets(id string, blockHeight uint64) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.participants[id]
	if !ok {
		return 0
	}
	tickets := TicketsFor(p.CapacityGB)
	p.Entries += tickets
	return tickets
}

// SelectWinner draws one winner for the block. The generator is constructed
// locally per call and seeded from the first 8 bytes of the block hash
// digest; no shared random state is involved. Returns ok=false when no
// participants are registered.
func (e *Engine) SelectWinner(blockHash string, blockHeight uint64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.participants) == 0 {
		return "", false
	}

	// Deterministic pool order: participants sorted by id, each appearing
	// once per ticket.
	ids := make([]string, 0, len(e.participants))
	for id := range e.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var pool []string
	for _, id := range ids {
		tickets := TicketsFor(e.participants[id].CapacityGB)
		for i := uint64(0); i < tickets; i++ {
			pool = append(pool, id)
		}
	}

	digest := chainhash.HashH([]byte(blockHash))
	seed := binary.BigEndian.Uint64(digest[:8])
	rng := rand.New(rand.NewSource(int64(seed)))

	winner := pool[rng.Intn(len(pool))]
	e.participants[winner].Wins++

	e.logger.Debug("lottery winner selected",
		zap.String("winner", winner),
		zap.Uint64("height", blockHeight),
		zap.Int("pool_size", len(pool)))
	return winner, true
}

// Stats summarizes the lottery state.
type Stats struct {
	Participants int
	TotalEntries uint64
	TotalWins    uint64
}

// Stats returns aggregate counters over all participants.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{Participants: len(e.participants)}
	for _, p := range e.participants {
		s.TotalEntries += p.Entries
		s.TotalWins += p.Wins
	}
	return s
}

// Participant returns a copy of one participant's standing.
func (e *Engine) Participant(id string) (Participant, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}
