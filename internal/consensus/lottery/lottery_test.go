package lottery

import (
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

func TestTicketsFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		capacityGB uint64
		want       uint64
	}{
		{capacityGB: 512, want: 16},
		{capacityGB: 32, want: 1},
		{capacityGB: 10, want: 1},
		{capacityGB: 0, want: 1},
		{capacityGB: 63, want: 1},
		{capacityGB: 64, want: 2},
	}
	for _, tt := range tests {
		if got := TicketsFor(tt.capacityGB); got != tt.want {
			t.Fatalf("TicketsFor(%d) = %d, want %d", tt.capacityGB, got, tt.want)
		}
	}
	if model.MinPledgeGB != 32 {
		t.Fatalf("ticket unit drifted from the pledge floor")
	}
}

func TestSelectWinnerDeterministic(t *testing.T) {
	t.Parallel()

	build := func() *Engine {
		e := New(zap.NewNop())
		e.RegisterParticipant("alice", 512)
		e.RegisterParticipant("bob", 128)
		e.RegisterParticipant("carol", 32)
		return e
	}

	first := build()
	winner1, ok := first.SelectWinner("block-hash-1", 1)
	if !ok {
		t.Fatalf("no winner from a populated pool")
	}

	// Same hash, fresh engine, participants registered in another order:
	// identical winner.
	second := New(zap.NewNop())
	second.RegisterParticipant("carol", 32)
	second.RegisterParticipant("alice", 512)
	second.RegisterParticipant("bob", 128)
	winner2, ok := second.SelectWinner("block-hash-1", 1)
	if !ok || winner2 != winner1 {
		t.Fatalf("draw not deterministic: %q vs %q", winner2, winner1)
	}

	// Repeating the draw on the same engine is also stable.
	winner3, _ := build().SelectWinner("block-hash-1", 1)
	if winner3 != winner1 {
		t.Fatalf("repeat draw diverged: %q vs %q", winner3, winner1)
	}

	// A different seed hash must be able to pick differently over many
	// blocks; verify at least two distinct winners across a hash range.
	seen := map[string]bool{}
	e := build()
	for i := 0; i < 50; i++ {
		w, _ := e.SelectWinner(fmt.Sprintf("hash-%d", i), uint64(i))
		seen[w] = true
	}
	if len(seen) < 2 {
		t.Fatalf("50 draws over distinct hashes picked a single winner")
	}
}

func TestSelectWinnerEmptyPool(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())
	if _, ok := e.SelectWinner("hash", 1); ok {
		t.Fatalf("empty pool produced a winner")
	}
}

func TestSelectWinnerWeighting(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())
	e.RegisterParticipant("whale", 32*100) // 100 tickets
	e.RegisterParticipant("minnow", 32)    // 1 ticket

	wins := map[string]int{}
	const draws = 2000
	for i := 0; i < draws; i++ {
		w, ok := e.SelectWinner(fmt.Sprintf("hash-%d", i), uint64(i))
		if !ok {
			t.Fatalf("draw %d returned no winner", i)
		}
		wins[w]++
	}

	// Expected whale share is 100/101; allow a generous tolerance.
	share := float64(wins["whale"]) / draws
	if share < 0.95 {
		t.Fatalf("whale win share = %v, capacity weighting not applied", share)
	}
	if wins["minnow"] == 0 {
		t.Fatalf("single-ticket participant never won in %d draws", draws)
	}
}

func TestRegisterParticipantUpsert(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())
	e.RegisterParticipant("alice", 64)
	if tickets := e.IssueTickets("alice", 1); tickets != 2 {
		t.Fatalf("IssueTickets = %d, want 2", tickets)
	}

	// Re-registering updates capacity but keeps accrued entries.
	e.RegisterParticipant("alice", 320)
	if tickets := e.IssueTickets("alice", 2); tickets != 10 {
		t.Fatalf("IssueTickets after upsert = %d, want 10", tickets)
	}
	p, ok := e.Participant("alice")
	if !ok || p.Entries != 12 {
		t.Fatalf("entries = %d, want 12", p.Entries)
	}
}

func TestIssueTicketsUnknown(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())
	if tickets := e.IssueTickets("ghost", 1); tickets != 0 {
		t.Fatalf("IssueTickets for unknown id = %d, want 0", tickets)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())
	e.RegisterParticipant("alice", 64)
	e.RegisterParticipant("bob", 32)
	e.IssueTickets("alice", 1)
	e.IssueTickets("bob", 1)
	e.SelectWinner("hash", 1)

	s := e.Stats()
	if s.Participants != 2 {
		t.Fatalf("Participants = %d, want 2", s.Participants)
	}
	if s.TotalEntries != 3 {
		t.Fatalf("TotalEntries = %d, want 3", s.TotalEntries)
	}
	if s.TotalWins != 1 {
		t.Fatalf("TotalWins = %d, want 1", s.TotalWins)
	}
}
