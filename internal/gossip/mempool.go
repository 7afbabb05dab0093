package gossip

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// DefaultMempoolSize bounds pending transactions and blocks.
const DefaultMempoolSize = 10000

// seenFactor sizes the dedup record relative to the staging capacity, so the
// seen-set keeps rejecting replays of included items well after removal.
const seenFactor = 4

// Mempool stages transactions and blocks awaiting inclusion. Adds are
// rejected (false, no error) at capacity or on anything seen before; dedup
// identity is the transaction id and the block hash, and it outlives removal
// so an included item cannot be re-admitted. The seen record is a bounded
// LRU; oldest entries are evicted.
type Mempool struct {
	mu      sync.RWMutex
	maxSize int
	txs     map[string]*model.Transaction
	txOrder []string
	blocks  map[string]*model.Block
	seen    *lru.Cache[string, struct{}]
}

// NewMempool builds a mempool; a non-positive size falls back to the default.
func NewMempool(maxSize int) *Mempool {
	if maxSize <= 0 {
		maxSize = DefaultMempoolSize
	}
	seen, err := lru.New[string, struct{}](maxSize * seenFactor)
	if err != nil {
		// Only reachable with a non-positive capacity, which is clamped above.
		panic(err)
	}
	return &Mempool{
		maxSize: maxSize,
		txs:     make(map[string]*model.Transaction),
		blocks:  make(map[string]*model.Block),
		seen:    seen,
	}
}

// AddTransaction stages a transaction. False when full or when the id was
// ever admitted before, including transactions already included in a block.
func (m *Mempool) AddTransaction(tx *model.Transaction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txs) >= m.maxSize {
		return false
	}
	if m.seen.Contains(tx.ID) {
		return false
	}
	m.txs[tx.ID] = tx
	m.txOrder = append(m.txOrder, tx.ID)
	m.seen.Add(tx.ID, struct{}{})
	return true
}

// AddBlock stages a received block pending validation. False when full or
// when the hash was ever admitted before.
func (m *Mempool) AddBlock(block *model.Block) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.blocks) >= m.maxSize {
		return false
	}
	if m.seen.Contains(block.Hash) {
		return false
	}
	m.blocks[block.Hash] = block
	m.seen.Add(block.Hash, struct{}{})
	return true
}

// PendingTransactions returns up to limit staged transactions in arrival
// order, for block assembly.
func (m *Mempool) PendingTransactions(limit int) []*model.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.txOrder) {
		limit = len(m.txOrder)
	}
	batch := make([]*model.Transaction, 0, limit)
	for _, id := range m.txOrder {
		if len(batch) == limit {
			break
		}
		if tx, ok := m.txs[id]; ok {
			batch = append(batch, tx)
		}
	}
	return batch
}

// RemoveTransaction pops an included transaction. False when absent.
func (m *Mempool) RemoveTransaction(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return false
	}
	delete(m.txs, id)
	for i, staged := range m.txOrder {
		if staged == id {
			m.txOrder = append(m.txOrder[:i], m.txOrder[i+1:]...)
			break
		}
	}
	return true
}

// PendingBlock returns a staged block by hash.
func (m *Mempool) PendingBlock(hash string) (*model.Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[hash]
	return b, ok
}

// RemoveBlock pops a staged block once appended or rejected.
func (m *Mempool) RemoveBlock(hash string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[hash]; !ok {
		return false
	}
	delete(m.blocks, hash)
	return true
}

// HasSeen reports whether the id or hash ever passed through the pool.
func (m *Mempool) HasSeen(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seen.Contains(id)
}

// Size returns the number of staged transactions plus blocks.
func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs) + len(m.blocks)
}
