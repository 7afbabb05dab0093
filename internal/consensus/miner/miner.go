// Package miner implements the Proof of Capacity block-solution search. The
// puzzle here is a CPU-bound stand-in for a storage-plot lookup; a real
// capacity proof can replace VerifySolution behind the same boolean contract
// without touching the surrounding protocol.
package miner

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// nonceBatch is how many nonces are tried between cancellation checks.
const nonceBatch = 256

// VerifySolution reports whether the nonce solves the capacity puzzle: the
// digest of "previousHash:capacity:nonce" must start with at least
// max(1, difficulty/2) zero hex characters.
func VerifySolution(previousHash string, capacityGB uint64, nonce uint64, difficulty uint32) bool {
	payload := fmt.Sprintf("%s:%d:%d", previousHash, capacityGB, nonce)
	digest := chainhash.HashH([]byte(payload))
	zeros := int(difficulty / 2)
	if zeros < 1 {
		zeros = 1
	}
	return strings.HasPrefix(hex.EncodeToString(digest[:]), strings.Repeat("0", zeros))
}

// Miner is a single participant's capacity miner.
type Miner struct {
	id          string
	capacityGB  uint64
	blocksMined atomic.Uint64
	logger      *zap.Logger
}

// New builds a miner. Declared capacities below the pledge floor are clamped
// up, matching the ledger's pledge handling.
func New(id string, capacityGB uint64, logger *zap.Logger) *Miner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacityGB < model.MinPledgeGB {
		capacityGB = model.MinPledgeGB
	}
	return &Miner{id: id, capacityGB: capacityGB, logger: logger}
}

// ID returns the miner's identity.
func (m *Miner) ID() string { return m.id }

// CapacityGB returns the declared (clamped) capacity.
func (m *Miner) CapacityGB() uint64 { return m.capacityGB }

// BlocksMined returns the cumulative solved-block count.
func (m *Miner) BlocksMined() uint64 { return m.blocksMined.Load() }

// AttemptSolve searches the nonce space until it finds a valid solution or
// the context is done. It holds no shared lock while searching. On
// cancellation or deadline it returns found=false with state unchanged.
func (m *Miner) AttemptSolve(ctx context.Context, previousHash string, difficulty uint32) (nonce uint64, elapsed time.Duration, found bool) {
	start := time.Now()
	for n := uint64(0); ; n++ {
		if n%nonceBatch == 0 && ctx.Err() != nil {
			m.logger.Debug("mining attempt aborted",
				zap.String("miner", m.id),
				zap.Uint64("nonces_tried", n),
				zap.Duration("elapsed", time.Since(start)))
			return 0, time.Since(start), false
		}
		if VerifySolution(previousHash, m.capacityGB, n, difficulty) {
			m.blocksMined.Add(1)
			elapsed = time.Since(start)
			m.logger.Debug("mining solution found",
				zap.String("miner", m.id),
				zap.Uint64("nonce", n),
				zap.Duration("elapsed", elapsed))
			return n, elapsed, true
		}
	}
}

// MiningProbability is the miner's capacity share of the network, purely
// informational. Zero when the network total is zero.
func (m *Miner) MiningProbability(totalNetworkCapacityGB uint64) float64 {
	if totalNetworkCapacityGB == 0 {
		return 0
	}
	return float64(m.capacityGB) / float64(totalNetworkCapacityGB)
}
