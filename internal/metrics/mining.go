package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	miningAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fcuchain",
		Subsystem: "mining",
		Name:      "attempts_total",
		Help:      "Count of capacity mining attempts.",
	}, []string{"node", "status"})

	miningDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fcuchain",
		Subsystem: "mining",
		Name:      "duration_seconds",
		Help:      "Duration of capacity mining attempts.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"node", "status"})

	chainHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fcuchain",
		Subsystem: "ledger",
		Name:      "chain_height",
		Help:      "Current chain height.",
	}, []string{"node"})

	pocDifficulty = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fcuchain",
		Subsystem: "mining",
		Name:      "poc_difficulty",
		Help:      "Current PoC difficulty.",
	}, []string{"node"})
)

// Mining tracks per-node mining and chain metrics.
type Mining struct {
	node string
}

// NewMining constructs mining metrics labeled by node id.
func NewMining(node string) *Mining {
	if node == "" {
		node = "unknown"
	}
	return &Mining{node: node}
}

// ObserveAttempt records one mining attempt with its outcome.
func (m *Mining) ObserveAttempt(found bool, elapsed time.Duration) {
	status := "found"
	if !found {
		status = "timeout"
	}
	miningAttemptsTotal.WithLabelValues(m.node, status).Inc()
	miningDuration.WithLabelValues(m.node, status).Observe(elapsed.Seconds())
}

// SetChainHeight updates the chain height gauge.
func (m *Mining) SetChainHeight(height uint64) {
	chainHeight.WithLabelValues(m.node).Set(float64(height))
}

// SetDifficulty updates the difficulty gauge.
func (m *Mining) SetDifficulty(difficulty uint32) {
	pocDifficulty.WithLabelValues(m.node).Set(float64(difficulty))
}
