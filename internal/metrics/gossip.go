package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fcuchain",
		Subsystem: "gossip",
		Name:      "messages_received_total",
		Help:      "Count of received gossip messages by outcome.",
	}, []string{"node", "type", "status"})

	messagesRelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fcuchain",
		Subsystem: "gossip",
		Name:      "messages_relayed_total",
		Help:      "Count of messages relayed to peers.",
	}, []string{"node", "type"})

	mempoolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fcuchain",
		Subsystem: "gossip",
		Name:      "mempool_size",
		Help:      "Staged transactions plus blocks.",
	}, []string{"node"})

	peerCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fcuchain",
		Subsystem: "gossip",
		Name:      "peers",
		Help:      "Known peers.",
	}, []string{"node"})
)

// Received outcomes.
const (
	ReceiveAccepted  = "accepted"
	ReceiveDuplicate = "duplicate"
	ReceiveExpired   = "expired"
	ReceiveRejected  = "rejected"
)

// Gossip tracks per-node message propagation metrics.
type Gossip struct {
	node string
}

// NewGossip constructs gossip metrics labeled by node id.
func NewGossip(node string) *Gossip {
	if node == "" {
		node = "unknown"
	}
	return &Gossip{node: node}
}

// ObserveReceive records a received message and its outcome.
func (g *Gossip) ObserveReceive(msgType, status string) {
	messagesReceivedTotal.WithLabelValues(g.node, msgType, status).Inc()
}

// ObserveRelay records messages fanned out to peers.
func (g *Gossip) ObserveRelay(msgType string, targets int) {
	messagesRelayedTotal.WithLabelValues(g.node, msgType).Add(float64(targets))
}

// SetMempoolSize updates the mempool gauge.
func (g *Gossip) SetMempoolSize(size int) {
	mempoolSize.WithLabelValues(g.node).Set(float64(size))
}

// SetPeerCount updates the peer gauge.
func (g *Gossip) SetPeerCount(count int) {
	peerCount.WithLabelValues(g.node).Set(float64(count))
}
