package model

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MessageType enumerates the gossip wire message types.
type MessageType string

const (
	MsgPeerHello     MessageType = "peer_hello"
	MsgPeerDiscovery MessageType = "peer_discovery"
	MsgBlockAnnounce MessageType = "block_announce"
	MsgBlockRequest  MessageType = "block_request"
	MsgBlockResponse MessageType = "block_response"
	MsgTransaction   MessageType = "transaction"
	MsgSyncRequest   MessageType = "sync_request"
	MsgSyncResponse  MessageType = "sync_response"
	MsgVote          MessageType = "vote_message"
	MsgStoragePledge MessageType = "storage_pledge"
	MsgPing          MessageType = "ping"
	MsgPong          MessageType = "pong"
)

// DefaultTTL is the initial hop budget for a freshly originated message.
const DefaultTTL = 64

// Message is the gossip envelope. TTL is the remaining hop budget; it is
// decremented on each relay and the message is dropped at zero.
type Message struct {
	ID        string
	Type      MessageType
	Sender    string
	Timestamp int64
	Payload   map[string]string
	TTL       int
}

// DedupHash digests the message content excluding TTL and ID, so the same
// content relayed under a fresh envelope still deduplicates.
func (m *Message) DedupHash() chainhash.Hash {
	w := newDigestWriter()
	w.writeString(string(m.Type))
	w.writeString(m.Sender)
	w.writeInt64(m.Timestamp)
	w.writeStringMap(m.Payload)
	return w.sum()
}
