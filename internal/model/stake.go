package model

// StoragePledge records a capacity commitment backing PoC mining. A pledger
// holds at most one active pledge; re-pledging replaces it. Capacities below
// MinPledgeGB are clamped up at record time.
type StoragePledge struct {
	Pledger    string
	CapacityGB uint64
	Timestamp  int64
	ProofRef   string
	Active     bool
}

// Stake is a single PoS stake record. A validator may hold several; their
// total is the sum over active records.
type Stake struct {
	Validator string
	Amount    uint64
	Timestamp int64
	Active    bool
}
