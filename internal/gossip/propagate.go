package gossip

import (
	"math/rand"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

const (
	// DefaultFanout is how many peers a message is relayed to.
	DefaultFanout = 5

	// DefaultSeenCapacity bounds the dedup set; oldest entries are evicted.
	DefaultSeenCapacity = 1000

	// weightFloor guarantees low-reputation peers are never permanently
	// excluded from selection.
	weightFloor = 0.1
)

// Propagator decides whether and to whom a message spreads. The seen-set is
// a bounded LRU keyed by content digest (TTL excluded), so replays and
// relabeled relays deduplicate while memory stays fixed.
type Propagator struct {
	mu     sync.Mutex
	seen   *lru.Cache[string, struct{}]
	fanout int
	rng    *rand.Rand
	logger *zap.Logger
}

// NewPropagator builds a propagator with the given fanout and seen-set
// capacity; non-positive arguments fall back to the defaults.
func NewPropagator(fanout, seenCapacity int, seed int64, logger *zap.Logger) *Propagator {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	if seenCapacity <= 0 {
		seenCapacity = DefaultSeenCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seen, err := lru.New[string, struct{}](seenCapacity)
	if err != nil {
		// Only reachable with a non-positive capacity, which is clamped above.
		panic(err)
	}
	return &Propagator{
		seen:   seen,
		fanout: fanout,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

// ShouldPropagate is false for messages already seen or with an exhausted
// hop budget. It does not record the message; pair it with Remember.
func (p *Propagator) ShouldPropagate(msg *model.Message) bool {
	if msg.TTL <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.seen.Contains(model.HashHex(msg.DedupHash()))
}

// Remember records the message in the dedup set.
func (p *Propagator) Remember(msg *model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen.Add(model.HashHex(msg.DedupHash()), struct{}{})
}

// CheckAndRemember gates and records in one critical section: it returns
// true exactly once per content digest, so concurrent deliveries of the same
// message cannot both pass. Exhausted hop budgets are refused unrecorded.
func (p *Propagator) CheckAndRemember(msg *model.Message) bool {
	if msg.TTL <= 0 {
		return false
	}
	key := model.HashHex(msg.DedupHash())
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen.Contains(key) {
		return false
	}
	p.seen.Add(key, struct{}{})
	return true
}

// SelectTargets picks up to fanout relay targets by reputation-weighted
// sampling without replacement. Each candidate weighs max(0.1, reputation);
// weights renormalize after every pick, and the original sender is excluded.
func (p *Propagator) SelectTargets(peers []model.PeerInfo, excludeSender string, fanout int) []model.PeerInfo {
	if fanout <= 0 {
		fanout = p.fanout
	}

	candidates := make([]model.PeerInfo, 0, len(peers))
	weights := make([]float64, 0, len(peers))
	var total float64
	for _, peer := range peers {
		if peer.ID == excludeSender {
			continue
		}
		w := peer.Reputation
		if w < weightFloor {
			w = weightFloor
		}
		candidates = append(candidates, peer)
		weights = append(weights, w)
		total += w
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	selected := make([]model.PeerInfo, 0, fanout)
	for len(selected) < fanout && len(candidates) > 0 {
		point := p.rng.Float64() * total
		idx := len(candidates) - 1
		var cum float64
		for i, w := range weights {
			cum += w
			if point <= cum {
				idx = i
				break
			}
		}
		selected = append(selected, candidates[idx])
		total -= weights[idx]
		candidates = append(candidates[:idx], candidates[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return selected
}
