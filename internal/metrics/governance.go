package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	proposalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fcuchain",
		Subsystem: "governance",
		Name:      "proposals_total",
		Help:      "Count of governance proposals created.",
	}, []string{"node", "type"})

	votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fcuchain",
		Subsystem: "governance",
		Name:      "votes_total",
		Help:      "Count of governance ballots cast.",
	}, []string{"node"})

	lotteryDrawsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fcuchain",
		Subsystem: "lottery",
		Name:      "draws_total",
		Help:      "Count of lottery draws by outcome.",
	}, []string{"node", "status"})
)

// Governance tracks per-node governance and lottery metrics.
type Governance struct {
	node string
}

// NewGovernance constructs governance metrics labeled by node id.
func NewGovernance(node string) *Governance {
	if node == "" {
		node = "unknown"
	}
	return &Governance{node: node}
}

// ObserveProposal records a created proposal.
func (g *Governance) ObserveProposal(proposalType string) {
	proposalsTotal.WithLabelValues(g.node, proposalType).Inc()
}

// ObserveVote records one cast ballot.
func (g *Governance) ObserveVote() {
	votesTotal.WithLabelValues(g.node).Inc()
}

// ObserveDraw records one lottery draw.
func (g *Governance) ObserveDraw(won bool) {
	status := "winner"
	if !won {
		status = "empty_pool"
	}
	lotteryDrawsTotal.WithLabelValues(g.node, status).Inc()
}
