// Package node composes the ledger, the three consensus mechanisms, and the
// gossip state into one chain participant, and orchestrates block
// production: mine, approve, draw, append, broadcast.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/clock"
	"github.com/goodnatureofminers/fcuchain/internal/consensus/difficulty"
	"github.com/goodnatureofminers/fcuchain/internal/consensus/lottery"
	"github.com/goodnatureofminers/fcuchain/internal/consensus/miner"
	"github.com/goodnatureofminers/fcuchain/internal/council"
	"github.com/goodnatureofminers/fcuchain/internal/gossip"
	"github.com/goodnatureofminers/fcuchain/internal/ledger"
	"github.com/goodnatureofminers/fcuchain/internal/metrics"
	"github.com/goodnatureofminers/fcuchain/internal/model"
	"github.com/goodnatureofminers/fcuchain/pkg/batcher"
)

var (
	// ErrProposalInFlight means a mining attempt for the same previous hash
	// is already outstanding.
	ErrProposalInFlight = errors.New("block proposal already in flight")

	// ErrNoSolution means the mining attempt ended without a valid nonce.
	ErrNoSolution = errors.New("no mining solution before deadline")

	// ErrMempoolRejected means the mempool refused the item (full or
	// duplicate).
	ErrMempoolRejected = errors.New("mempool rejected")
)

// outbound is one queued transport delivery.
type outbound struct {
	peerID string
	msg    *model.Message
}

// Node is a single chain participant.
type Node struct {
	cfg        Config
	ledger     *ledger.Ledger
	miner      *miner.Miner
	difficulty *difficulty.Controller
	lottery    *lottery.Engine
	council    *council.Council
	registry   *gossip.Registry
	propagator *gossip.Propagator
	mempool    *gossip.Mempool
	syncer     *gossip.Syncer
	transport  Transport
	relay      *batcher.Batcher[outbound]
	clk        clock.Clock
	logger     *zap.Logger

	miningMetrics *metrics.Mining
	gossipMetrics *metrics.Gossip
	govMetrics    *metrics.Governance

	mu       sync.Mutex
	inFlight string // previous hash currently being mined, "" when idle
}

// New wires a node from its config. The council and transport are shared or
// external collaborators and come in from the caller; everything else is
// node-owned.
func New(cfg Config, cncl *council.Council, transport Transport, clk clock.Clock, logger *zap.Logger) *Node {
	cfg = cfg.withDefaults()
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("node", cfg.ID))

	n := &Node{
		cfg:           cfg,
		ledger:        ledger.New(logger),
		miner:         miner.New(cfg.ID, cfg.CapacityGB, logger),
		difficulty:    difficulty.New(0, 0),
		lottery:       lottery.New(logger),
		council:       cncl,
		registry:      gossip.NewRegistry(clk, logger),
		propagator:    gossip.NewPropagator(cfg.Fanout, cfg.SeenCapacity, cfg.GossipSeed, logger),
		mempool:       gossip.NewMempool(cfg.MempoolSize),
		syncer:        gossip.NewSyncer(cfg.SyncBatch, clk, logger),
		transport:     transport,
		clk:           clk,
		logger:        logger,
		miningMetrics: metrics.NewMining(cfg.ID),
		gossipMetrics: metrics.NewGossip(cfg.ID),
		govMetrics:    metrics.NewGovernance(cfg.ID),
	}
	n.relay = batcher.New(logger, n.flushOutbound, 32, cfg.RelayInterval, cfg.RelayRPS)
	return n
}

// Start launches the background relay loop.
func (n *Node) Start(ctx context.Context) {
	n.relay.Start(ctx)
}

// Stop drains and stops the relay loop.
func (n *Node) Stop() {
	n.relay.Stop()
}

// ID returns the node identity.
func (n *Node) ID() string { return n.cfg.ID }

// Ledger exposes the node's chain state.
func (n *Node) Ledger() *ledger.Ledger { return n.ledger }

// Council exposes the governance body this node participates in.
func (n *Node) Council() *council.Council { return n.council }

// Lottery exposes the reward lottery engine.
func (n *Node) Lottery() *lottery.Engine { return n.lottery }

// Mempool exposes the staging pool.
func (n *Node) Mempool() *gossip.Mempool { return n.mempool }

// Registry exposes the peer table.
func (n *Node) Registry() *gossip.Registry { return n.registry }

// GetBalance returns an account balance from the node's ledger.
func (n *Node) GetBalance(address string) uint64 {
	return n.ledger.Balance(address)
}

// SubmitTransaction admits a transaction into the mempool and gossips it.
// The admission check rejects transfers the sender cannot cover; admission
// is the idempotency gate, the ledger applies blindly at block time.
func (n *Node) SubmitTransaction(ctx context.Context, tx *model.Transaction) error {
	if !tx.Kind.Known() {
		return fmt.Errorf("%w: %q", ledger.ErrUnknownTxKind, tx.Kind)
	}
	if tx.Kind == model.TxTransfer && n.ledger.Balance(tx.Sender) < tx.Amount {
		return fmt.Errorf("%w: %s cannot cover %d", ledger.ErrInsufficientBalance, tx.Sender, tx.Amount)
	}
	if !n.mempool.AddTransaction(tx) {
		return fmt.Errorf("%w: transaction %s", ErrMempoolRejected, tx.ID)
	}
	n.gossipMetrics.SetMempoolSize(n.mempool.Size())

	raw, err := model.EncodeTransaction(tx)
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", tx.ID, err)
	}
	n.Broadcast(ctx, n.newMessage(model.MsgTransaction, map[string]string{"data": string(raw)}), "")
	return nil
}

// ConnectPeer registers a peer and greets it.
func (n *Node) ConnectPeer(ctx context.Context, info model.PeerInfo) {
	n.registry.AddPeer(info)
	n.gossipMetrics.SetPeerCount(n.registry.Count())

	hello := n.newMessage(model.MsgPeerHello, map[string]string{
		"id":      n.cfg.ID,
		"address": n.cfg.Address,
		"role":    string(n.cfg.Role),
	})
	n.enqueue(ctx, info.ID, hello)
}

// DisconnectPeer drops a peer from the registry.
func (n *Node) DisconnectPeer(id string) bool {
	removed := n.registry.RemovePeer(id)
	n.gossipMetrics.SetPeerCount(n.registry.Count())
	return removed
}

// CreateProposal opens a governance proposal via the council and announces
// the ballot.
func (n *Node) CreateProposal(ctx context.Context, kind council.ProposalType, description string, changes map[string]uint64) (string, error) {
	id, err := n.council.CreateProposal(n.cfg.ID, kind, description, changes)
	if err != nil {
		return "", err
	}
	n.govMetrics.ObserveProposal(string(kind))

	n.Broadcast(ctx, n.newMessage(model.MsgVote, map[string]string{
		"proposal_id": id,
		"proposer":    n.cfg.ID,
		"action":      "open",
	}), "")
	return id, nil
}

// Vote casts this node's ballot and gossips it.
func (n *Node) Vote(ctx context.Context, proposalID string, approve bool) error {
	if err := n.council.Vote(proposalID, n.cfg.ID, approve); err != nil {
		return err
	}
	n.govMetrics.ObserveVote()

	n.Broadcast(ctx, n.newMessage(model.MsgVote, map[string]string{
		"proposal_id": proposalID,
		"voter":       n.cfg.ID,
		"action":      "ballot",
		"vote":        fmt.Sprintf("%t", approve),
	}), "")
	return nil
}

// ProposeBlock runs the full production sequence: mine a candidate on the
// current tip, collect council approvals, draw the lottery winner, append,
// distribute rewards, and broadcast. At most one attempt per previous hash
// may be in flight.
func (n *Node) ProposeBlock(ctx context.Context) (*model.Block, error) {
	tip := n.ledger.Tip()

	n.mu.Lock()
	if n.inFlight == tip.Hash {
		n.mu.Unlock()
		return nil, fmt.Errorf("%w: previous %s", ErrProposalInFlight, tip.Hash)
	}
	n.inFlight = tip.Hash
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.inFlight = ""
		n.mu.Unlock()
	}()

	diff := n.difficulty.Current()

	mineCtx, cancel := context.WithTimeout(ctx, n.cfg.MineTimeout)
	defer cancel()
	nonce, elapsed, found := n.miner.AttemptSolve(mineCtx, tip.Hash, diff)
	n.miningMetrics.ObserveAttempt(found, elapsed)
	if !found {
		return nil, fmt.Errorf("%w: difficulty %d", ErrNoSolution, diff)
	}

	txs := n.mempool.PendingTransactions(n.cfg.BlockTxLimit)

	var approvers []string
	for _, v := range n.council.Validators() {
		if v.CanProposeBlock() {
			approvers = append(approvers, v.ID())
			v.RecordValidation()
		}
	}

	block := &model.Block{
		Height:        tip.Height + 1,
		PreviousHash:  tip.Hash,
		Timestamp:     n.clk.Now().Unix(),
		Transactions:  txs,
		MerkleRoot:    ledger.MerkleRootHex(txs),
		Miner:         n.cfg.ID,
		Validators:    approvers,
		PoCDifficulty: diff,
		Nonce:         nonce,
	}
	block.Seal()

	// Lottery tickets accrue per block from the active pledges; the draw is
	// seeded by the sealed hash so any node can verify the winner.
	for _, pledge := range n.ledger.ActivePledges() {
		n.lottery.RegisterParticipant(pledge.Pledger, pledge.CapacityGB)
		n.lottery.IssueTickets(pledge.Pledger, block.Height)
	}
	if winner, ok := n.lottery.SelectWinner(block.Hash, block.Height); ok {
		block.LotteryWinner = winner
		n.govMetrics.ObserveDraw(true)
	} else {
		n.govMetrics.ObserveDraw(false)
	}

	if err := n.ledger.AppendBlock(block); err != nil {
		return nil, fmt.Errorf("append mined block: %w", err)
	}
	for _, tx := range txs {
		n.mempool.RemoveTransaction(tx.ID)
	}

	for account, amount := range n.council.DistributeBlockRewards(block.Miner, block.Validators, block.LotteryWinner) {
		n.ledger.Credit(account, amount)
	}

	n.recordBlockTime(elapsed, block.Height)
	n.miningMetrics.SetChainHeight(block.Height)
	n.gossipMetrics.SetMempoolSize(n.mempool.Size())

	raw, err := model.EncodeBlock(block)
	if err != nil {
		return block, fmt.Errorf("encode block %d: %w", block.Height, err)
	}
	n.Broadcast(ctx, n.newMessage(model.MsgBlockAnnounce, map[string]string{"data": string(raw)}), "")

	n.logger.Info("block proposed",
		zap.Uint64("height", block.Height),
		zap.Uint64("nonce", nonce),
		zap.Int("txs", len(txs)),
		zap.String("lottery_winner", block.LotteryWinner))
	return block, nil
}

func (n *Node) recordBlockTime(sample time.Duration, height uint64) {
	n.difficulty.Record(sample)
	if height%uint64(n.difficulty.Window()) == 0 {
		n.miningMetrics.SetDifficulty(n.difficulty.Recalculate())
	}
}

// Run drives periodic block production until the context ends. Failed
// attempts are logged and retried on the next tick; ErrProposalInFlight and
// ErrNoSolution are part of normal operation, not faults.
func (n *Node) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = difficulty.DefaultTargetBlockTime
	}
	for {
		if err := clock.SleepWithContext(ctx, interval); err != nil {
			return err
		}
		if _, err := n.ProposeBlock(ctx); err != nil {
			n.logger.Debug("block production attempt failed", zap.Error(err))
		}
	}
}

// Sync pulls blocks (tip, target] from a peer through the fetcher and
// appends them in order. Only one sync runs at a time.
func (n *Node) Sync(ctx context.Context, target uint64, fetch gossip.BlockFetcher) error {
	if err := n.syncer.Start(); err != nil {
		return err
	}
	defer n.syncer.Finish()

	for n.ledger.Height() < target {
		start := n.ledger.Height() + 1
		blocks, err := n.syncer.FetchRange(ctx, start, target, fetch)
		if err != nil {
			return err
		}
		for _, block := range blocks {
			if err := n.ledger.AppendBlock(block); err != nil {
				return fmt.Errorf("apply synced block %d: %w", block.Height, err)
			}
		}
		n.miningMetrics.SetChainHeight(n.ledger.Height())
	}
	return nil
}

// Stats is the node-facing status snapshot.
type Stats struct {
	NodeID       string
	ChainHeight  uint64
	PeerCount    int
	MempoolSize  int
	Difficulty   uint32
	BlocksMined  uint64
	SyncProgress float64
	Governance   council.Stats
	Lottery      lottery.Stats
}

// Stats snapshots the node.
func (n *Node) Stats() Stats {
	return Stats{
		NodeID:       n.cfg.ID,
		ChainHeight:  n.ledger.Height(),
		PeerCount:    n.registry.Count(),
		MempoolSize:  n.mempool.Size(),
		Difficulty:   n.difficulty.Current(),
		BlocksMined:  n.miner.BlocksMined(),
		SyncProgress: n.syncer.Progress(),
		Governance:   n.council.Stats(),
		Lottery:      n.lottery.Stats(),
	}
}

// newMessage wraps a payload in a fresh gossip envelope.
func (n *Node) newMessage(msgType model.MessageType, payload map[string]string) *model.Message {
	return &model.Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Sender:    n.cfg.ID,
		Timestamp: n.clk.Now().UnixNano(),
		Payload:   payload,
		TTL:       model.DefaultTTL,
	}
}

// Broadcast gossips a message to reputation-weighted targets, excluding the
// given peer, and returns how many peers it was queued to.
func (n *Node) Broadcast(ctx context.Context, msg *model.Message, exclude string) int {
	n.propagator.Remember(msg)
	targets := n.propagator.SelectTargets(n.registry.HealthyPeers(), exclude, 0)
	for _, peer := range targets {
		n.enqueue(ctx, peer.ID, msg)
	}
	n.gossipMetrics.ObserveRelay(string(msg.Type), len(targets))
	return len(targets)
}

func (n *Node) enqueue(ctx context.Context, peerID string, msg *model.Message) {
	if err := n.relay.Add(ctx, outbound{peerID: peerID, msg: msg}); err != nil {
		n.logger.Debug("relay queue closed", zap.Error(err))
	}
}

// flushOutbound delivers one relay batch. Delivery outcomes feed peer
// reputation; failures never abort the batch.
func (n *Node) flushOutbound(ctx context.Context, batch []outbound) error {
	for _, out := range batch {
		err := n.transport.Send(ctx, out.peerID, out.msg)
		if updateErr := n.registry.UpdateReputation(out.peerID, err == nil); updateErr != nil {
			continue
		}
		if err != nil {
			n.logger.Debug("message delivery failed",
				zap.String("peer", out.peerID),
				zap.String("type", string(out.msg.Type)),
				zap.Error(err))
		}
	}
	return nil
}
