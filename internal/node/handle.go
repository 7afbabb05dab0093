package node

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/council"
	"github.com/goodnatureofminers/fcuchain/internal/ledger"
	"github.com/goodnatureofminers/fcuchain/internal/metrics"
	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// HandleMessage processes one inbound gossip message: dedup and TTL checks,
// local dispatch by type, then relay with a decremented hop budget, never
// back to the peer it came from. Duplicate and stale messages are dropped
// silently; they are not failures.
func (n *Node) HandleMessage(ctx context.Context, from string, msg *model.Message) error {
	if msg.TTL <= 0 {
		n.gossipMetrics.ObserveReceive(string(msg.Type), metrics.ReceiveExpired)
		return nil
	}
	if !n.propagator.CheckAndRemember(msg) {
		n.gossipMetrics.ObserveReceive(string(msg.Type), metrics.ReceiveDuplicate)
		return nil
	}

	if err := n.dispatch(ctx, from, msg); err != nil {
		n.gossipMetrics.ObserveReceive(string(msg.Type), metrics.ReceiveRejected)
		if repErr := n.registry.UpdateReputation(from, false); repErr != nil {
			n.logger.Debug("reputation update skipped", zap.String("peer", from))
		}
		return err
	}
	n.gossipMetrics.ObserveReceive(string(msg.Type), metrics.ReceiveAccepted)
	if err := n.registry.UpdateReputation(from, true); err != nil {
		n.logger.Debug("reputation update skipped", zap.String("peer", from))
	}

	relayed := *msg
	relayed.TTL--
	if relayed.TTL > 0 {
		n.Broadcast(ctx, &relayed, from)
	}
	return nil
}

func (n *Node) dispatch(ctx context.Context, from string, msg *model.Message) error {
	switch msg.Type {
	case model.MsgTransaction:
		return n.handleTransaction(msg)
	case model.MsgBlockAnnounce:
		return n.handleBlockAnnounce(msg)
	case model.MsgVote:
		return n.handleVote(msg)
	case model.MsgPeerHello:
		n.registry.AddPeer(model.PeerInfo{
			ID:      msg.Payload["id"],
			Address: msg.Payload["address"],
			Role:    model.PeerRole(msg.Payload["role"]),
		})
		n.gossipMetrics.SetPeerCount(n.registry.Count())
		return nil
	case model.MsgStoragePledge:
		return n.handleStoragePledge(msg)
	case model.MsgPing:
		n.enqueue(ctx, msg.Sender, n.newMessage(model.MsgPong, map[string]string{
			"ping_id": msg.ID,
		}))
		return nil
	case model.MsgSyncRequest:
		n.enqueue(ctx, msg.Sender, n.newMessage(model.MsgSyncResponse, map[string]string{
			"height": strconv.FormatUint(n.ledger.Height(), 10),
		}))
		return nil
	default:
		// peer_discovery, block_request/response, sync_response and pong
		// carry no node-local state change here; they still relay.
		return nil
	}
}

func (n *Node) handleTransaction(msg *model.Message) error {
	tx, err := model.DecodeTransaction([]byte(msg.Payload["data"]))
	if err != nil {
		return err
	}
	if !tx.Kind.Known() {
		return fmt.Errorf("%w: %q", ledger.ErrUnknownTxKind, tx.Kind)
	}
	if n.mempool.AddTransaction(tx) {
		n.gossipMetrics.SetMempoolSize(n.mempool.Size())
	}
	return nil
}

// handleBlockAnnounce recomputes the announced block's digests before
// trusting it. Blocks that do not yet chain onto the tip are staged for
// sync; corrupt blocks are rejected outright.
func (n *Node) handleBlockAnnounce(msg *model.Message) error {
	block, err := model.DecodeBlock([]byte(msg.Payload["data"]))
	if err != nil {
		return err
	}
	if !block.VerifyHash() {
		return fmt.Errorf("%w: announced block %d", ledger.ErrHashMismatch, block.Height)
	}
	if root := ledger.MerkleRootHex(block.Transactions); root != block.MerkleRoot {
		return fmt.Errorf("%w: announced block %d merkle root", ledger.ErrHashMismatch, block.Height)
	}

	err = n.ledger.AppendBlock(block)
	switch {
	case err == nil:
		for _, tx := range block.Transactions {
			n.mempool.RemoveTransaction(tx.ID)
		}
		n.miningMetrics.SetChainHeight(block.Height)
		n.gossipMetrics.SetMempoolSize(n.mempool.Size())
		return nil
	case errors.Is(err, ledger.ErrChainContinuity):
		// Ahead of or behind us; stage it and let sync close the gap.
		n.mempool.AddBlock(block)
		n.gossipMetrics.SetMempoolSize(n.mempool.Size())
		return nil
	default:
		return err
	}
}

func (n *Node) handleVote(msg *model.Message) error {
	if msg.Payload["action"] != "ballot" {
		return nil
	}
	approve, err := strconv.ParseBool(msg.Payload["vote"])
	if err != nil {
		return fmt.Errorf("vote payload: %w", err)
	}
	err = n.council.Vote(msg.Payload["proposal_id"], msg.Payload["voter"], approve)
	if err != nil && !errors.Is(err, council.ErrVotingClosed) {
		return err
	}
	return nil
}

func (n *Node) handleStoragePledge(msg *model.Message) error {
	capacity, err := strconv.ParseUint(msg.Payload["capacity_gb"], 10, 64)
	if err != nil {
		return fmt.Errorf("pledge payload: %w", err)
	}
	if capacity < model.MinPledgeGB {
		capacity = model.MinPledgeGB
	}
	n.lottery.RegisterParticipant(msg.Payload["pledger"], capacity)
	return nil
}
