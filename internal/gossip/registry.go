// Package gossip provides the node-local networking state: the peer
// registry, the dedup/TTL propagation policy, the mempool, and the chain
// sync coordinator. Nothing here touches sockets; the transport is injected
// at the node layer.
package gossip

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/clock"
	"github.com/goodnatureofminers/fcuchain/internal/model"
)

var (
	// ErrSyncInProgress means a sync is already running; retry later.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnknownPeer means the sender is not in the registry.
	ErrUnknownPeer = errors.New("unknown peer")
)

const (
	// DefaultLivenessWindow is how recently a peer must have been seen to
	// count as alive.
	DefaultLivenessWindow = 5 * time.Minute

	// healthyReputation is the floor above which a live peer is healthy.
	healthyReputation = 0.5

	reputationReward  = 0.05
	reputationPenalty = 0.10
)

// Registry is the node-local table of known peers.
type Registry struct {
	mu       sync.RWMutex
	peers    map[string]*model.PeerInfo
	clk      clock.Clock
	liveness time.Duration
	logger   *zap.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(clk clock.Clock, logger *zap.Logger) *Registry {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		peers:    make(map[string]*model.PeerInfo),
		clk:      clk,
		liveness: DefaultLivenessWindow,
		logger:   logger,
	}
}

// AddPeer registers or refreshes a peer. Returns true when the peer is new.
// A refresh updates the advertised address, role, version, and last-seen
// only; reputation and its counters are earned and survive re-hellos.
func (r *Registry) AddPeer(info model.PeerInfo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info.LastSeen.IsZero() {
		info.LastSeen = r.clk.Now()
	}

	if existing, ok := r.peers[info.ID]; ok {
		existing.Address = info.Address
		existing.Role = info.Role
		existing.Version = info.Version
		existing.LastSeen = info.LastSeen
		return false
	}

	if info.Reputation == 0 {
		info.Reputation = 1.0
	}
	r.peers[info.ID] = &info
	return true
}

// RemovePeer drops a peer. False when absent.
func (r *Registry) RemovePeer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[id]; !ok {
		return false
	}
	delete(r.peers, id)
	return true
}

// Peer returns a copy of one peer's info.
func (r *Registry) Peer(id string) (model.PeerInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	if !ok {
		return model.PeerInfo{}, false
	}
	return *p, true
}

// Count returns the number of known peers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// HealthyPeers lists peers that are alive within the liveness window and
// carry reputation above the healthy floor.
func (r *Registry) HealthyPeers() []model.PeerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.clk.Now()
	healthy := make([]model.PeerInfo, 0, len(r.peers))
	for _, p := range r.peers {
		if p.IsAlive(now, r.liveness) && p.Reputation > healthyReputation {
			healthy = append(healthy, *p)
		}
	}
	return healthy
}

// PeersByRole lists peers advertising the given role.
func (r *Registry) PeersByRole(role model.PeerRole) []model.PeerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.PeerInfo, 0, len(r.peers))
	for _, p := range r.peers {
		if p.Role == role {
			out = append(out, *p)
		}
	}
	return out
}

// UpdateReputation nudges a peer's score: success moves it up by a small
// step (capped at 1), failure down by a larger one (floored at 0), and
// refreshes last-seen either way.
func (r *Registry) UpdateReputation(id string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[id]
	if !ok {
		return ErrUnknownPeer
	}
	if success {
		p.Reputation += reputationReward
		if p.Reputation > 1.0 {
			p.Reputation = 1.0
		}
		p.SharedCount++
	} else {
		p.Reputation -= reputationPenalty
		if p.Reputation < 0 {
			p.Reputation = 0
		}
		p.FailedCount++
	}
	p.LastSeen = r.clk.Now()
	return nil
}
