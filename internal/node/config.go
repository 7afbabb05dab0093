package node

import (
	"time"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// Config shapes one node's behavior.
type Config struct {
	ID         string
	Address    string
	Role       model.PeerRole
	CapacityGB uint64

	// MineTimeout bounds one block-solution search.
	MineTimeout time.Duration

	// BlockTxLimit caps transactions pulled from the mempool per block.
	BlockTxLimit int

	Fanout        int
	SeenCapacity  int
	MempoolSize   int
	SyncBatch     int
	RelayRPS      int
	RelayInterval time.Duration

	// GossipSeed seeds fanout sampling; zero means time-derived.
	GossipSeed int64
}

// DefaultConfig returns sane per-node defaults for the given identity.
func DefaultConfig(id string) Config {
	return Config{
		ID:            id,
		Role:          model.RoleFullNode,
		CapacityGB:    256,
		MineTimeout:   30 * time.Second,
		BlockTxLimit:  100,
		Fanout:        0, // gossip default
		SeenCapacity:  0, // gossip default
		MempoolSize:   0, // gossip default
		SyncBatch:     0, // gossip default
		RelayRPS:      100,
		RelayInterval: 50 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	base := DefaultConfig(c.ID)
	if c.Role == "" {
		c.Role = base.Role
	}
	if c.CapacityGB == 0 {
		c.CapacityGB = base.CapacityGB
	}
	if c.MineTimeout <= 0 {
		c.MineTimeout = base.MineTimeout
	}
	if c.BlockTxLimit <= 0 {
		c.BlockTxLimit = base.BlockTxLimit
	}
	if c.RelayRPS == 0 {
		c.RelayRPS = base.RelayRPS
	}
	if c.RelayInterval <= 0 {
		c.RelayInterval = base.RelayInterval
	}
	if c.GossipSeed == 0 {
		c.GossipSeed = time.Now().UnixNano()
	}
	return c
}
