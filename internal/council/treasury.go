package council

import "sync"

// Treasury is the minimal balance ledger needed to validate governance
// spending: a balance plus named allocations. Full bookkeeping lives outside
// this core.
type Treasury struct {
	mu          sync.Mutex
	balance     uint64
	allocations map[string]uint64
	spendCount  uint64
}

// NewTreasury builds a treasury with the given opening balance.
func NewTreasury(initial uint64) *Treasury {
	return &Treasury{
		balance:     initial,
		allocations: make(map[string]uint64),
	}
}

// Allocate reserves funds under a purpose. False when the balance cannot
// cover it.
func (t *Treasury) Allocate(purpose string, amount uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount > t.balance {
		return false
	}
	t.balance -= amount
	t.allocations[purpose] += amount
	return true
}

// SpendFromAllocation debits a previous allocation. False when the
// allocation is missing or too small.
func (t *Treasury) SpendFromAllocation(purpose string, amount uint64, recipient string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allocations[purpose] < amount {
		return false
	}
	t.allocations[purpose] -= amount
	t.spendCount++
	return true
}

// Receive credits incoming funds (rewards, donations).
func (t *Treasury) Receive(amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balance += amount
}

// Balance returns the unallocated-plus-allocatable balance held directly.
func (t *Treasury) Balance() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// Allocated sums all outstanding allocations.
func (t *Treasury) Allocated() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total uint64
	for _, amount := range t.allocations {
		total += amount
	}
	return total
}

// Allocation returns the outstanding amount under one purpose.
func (t *Treasury) Allocation(purpose string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocations[purpose]
}
