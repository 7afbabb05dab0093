package model

import "time"

// PeerRole enumerates the declared roles a peer may advertise.
type PeerRole string

const (
	RolePoCMiner     PeerRole = "poc_miner"
	RolePoSValidator PeerRole = "pos_validator"
	RoleFullNode     PeerRole = "full_node"
)

// PeerInfo describes a known peer. Reputation is a leaky bounded score in
// [0,1], not a probability.
type PeerInfo struct {
	ID          string
	Address     string
	Role        PeerRole
	LastSeen    time.Time
	Reputation  float64
	SharedCount uint64
	FailedCount uint64
	Version     string
}

// IsAlive reports whether the peer was seen within the liveness window.
func (p *PeerInfo) IsAlive(now time.Time, window time.Duration) bool {
	return now.Sub(p.LastSeen) < window
}
