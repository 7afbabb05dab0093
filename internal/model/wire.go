package model

import (
	"encoding/json"
	"fmt"

	"github.com/goodnatureofminers/fcuchain/pkg/safe"
)

// Wire forms are canonical JSON maps with fixed field order (struct order).
// They exist for transport and cross-node comparison only; digests are always
// recomputed from the decoded value, never trusted from the wire.

type wireTransaction struct {
	ID        string            `json:"id"`
	Timestamp int64             `json:"timestamp"`
	Sender    string            `json:"sender"`
	Receiver  string            `json:"receiver"`
	Amount    uint64            `json:"amount"`
	Kind      string            `json:"kind"`
	Nonce     uint64            `json:"nonce"`
	Signature string            `json:"signature,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

type wireBlock struct {
	Height        uint64            `json:"height"`
	PreviousHash  string            `json:"previous_hash"`
	Timestamp     int64             `json:"timestamp"`
	Transactions  []wireTransaction `json:"transactions"`
	MerkleRoot    string            `json:"merkle_root"`
	Miner         string            `json:"miner"`
	Validators    []string          `json:"validators"`
	PoCDifficulty uint64            `json:"poc_difficulty"`
	LotteryWinner string            `json:"lottery_winner,omitempty"`
	Nonce         uint64            `json:"nonce"`
	Hash          string            `json:"hash"`
}

type wireMessage struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Sender    string            `json:"sender"`
	Timestamp int64             `json:"timestamp"`
	Payload   map[string]string `json:"payload,omitempty"`
	TTL       int               `json:"ttl"`
}

func toWireTx(t *Transaction) wireTransaction {
	return wireTransaction{
		ID:        t.ID,
		Timestamp: t.Timestamp,
		Sender:    t.Sender,
		Receiver:  t.Receiver,
		Amount:    t.Amount,
		Kind:      string(t.Kind),
		Nonce:     t.Nonce,
		Signature: t.Signature,
		Data:      t.Data,
	}
}

func fromWireTx(w wireTransaction) *Transaction {
	return &Transaction{
		ID:        w.ID,
		Timestamp: w.Timestamp,
		Sender:    w.Sender,
		Receiver:  w.Receiver,
		Amount:    w.Amount,
		Kind:      TxKind(w.Kind),
		Nonce:     w.Nonce,
		Signature: w.Signature,
		Data:      w.Data,
	}
}

// EncodeTransaction marshals a transaction to its wire form.
func EncodeTransaction(t *Transaction) ([]byte, error) {
	return json.Marshal(toWireTx(t))
}

// DecodeTransaction parses a wire transaction.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	var w wireTransaction
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return fromWireTx(w), nil
}

// EncodeBlock marshals a block to its wire form.
func EncodeBlock(b *Block) ([]byte, error) {
	txs := make([]wireTransaction, len(b.Transactions))
	for i, t := range b.Transactions {
		txs[i] = toWireTx(t)
	}
	return json.Marshal(wireBlock{
		Height:        b.Height,
		PreviousHash:  b.PreviousHash,
		Timestamp:     b.Timestamp,
		Transactions:  txs,
		MerkleRoot:    b.MerkleRoot,
		Miner:         b.Miner,
		Validators:    b.Validators,
		PoCDifficulty: uint64(b.PoCDifficulty),
		LotteryWinner: b.LotteryWinner,
		Nonce:         b.Nonce,
		Hash:          b.Hash,
	})
}

// DecodeBlock parses a wire block. The caller still has to recompute the
// merkle root and block hash before accepting it.
func DecodeBlock(raw []byte) (*Block, error) {
	var w wireBlock
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	difficulty, err := safe.Uint32(w.PoCDifficulty)
	if err != nil {
		return nil, fmt.Errorf("decode block difficulty: %w", err)
	}
	txs := make([]*Transaction, len(w.Transactions))
	for i, t := range w.Transactions {
		txs[i] = fromWireTx(t)
	}
	return &Block{
		Height:        w.Height,
		PreviousHash:  w.PreviousHash,
		Timestamp:     w.Timestamp,
		Transactions:  txs,
		MerkleRoot:    w.MerkleRoot,
		Miner:         w.Miner,
		Validators:    w.Validators,
		PoCDifficulty: difficulty,
		LotteryWinner: w.LotteryWinner,
		Nonce:         w.Nonce,
		Hash:          w.Hash,
	}, nil
}

// EncodeMessage marshals a gossip envelope.
func EncodeMessage(m *Message) ([]byte, error) {
	return json.Marshal(wireMessage{
		ID:        m.ID,
		Type:      string(m.Type),
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Payload:   m.Payload,
		TTL:       m.TTL,
	})
}

// DecodeMessage parses a gossip envelope.
func DecodeMessage(raw []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &Message{
		ID:        w.ID,
		Type:      MessageType(w.Type),
		Sender:    w.Sender,
		Timestamp: w.Timestamp,
		Payload:   w.Payload,
		TTL:       w.TTL,
	}, nil
}
