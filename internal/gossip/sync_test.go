package gossip

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

func TestSyncerMutualExclusion(t *testing.T) {
	t.Parallel()

	s := NewSyncer(0, fixedClock(), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("second Start error = %v, want ErrSyncInProgress", err)
	}
	if !s.InProgress() {
		t.Fatalf("InProgress() = false while running")
	}

	s.Finish()
	if s.InProgress() {
		t.Fatalf("InProgress() = true after Finish")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("restart after Finish: %v", err)
	}
}

func TestRequestRangeClamp(t *testing.T) {
	t.Parallel()

	s := NewSyncer(50, fixedClock(), nil)
	tests := []struct {
		name                 string
		start, end           uint64
		wantStart, wantEnd   uint64
	}{
		{name: "within batch", start: 1, end: 40, wantStart: 1, wantEnd: 40},
		{name: "exactly batch", start: 1, end: 50, wantStart: 1, wantEnd: 50},
		{name: "clamped", start: 1, end: 500, wantStart: 1, wantEnd: 50},
		{name: "inverted collapses", start: 10, end: 5, wantStart: 10, wantEnd: 10},
		{name: "single", start: 7, end: 7, wantStart: 7, wantEnd: 7},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			gotStart, gotEnd := s.RequestRange(tt.start, tt.end)
			if gotStart != tt.wantStart || gotEnd != tt.wantEnd {
				t.Fatalf("RequestRange(%d, %d) = (%d, %d), want (%d, %d)",
					tt.start, tt.end, gotStart, gotEnd, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()

	clk := fixedClock()
	s := NewSyncer(0, clk, nil)
	if got := s.Progress(); got != 1.0 {
		t.Fatalf("idle Progress() = %v, want 1.0", got)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := s.Progress(); got != 0 {
		t.Fatalf("Progress() at start = %v, want 0", got)
	}

	clk.Advance(time.Hour)
	if got := s.Progress(); got != 1.0 {
		t.Fatalf("Progress() after budget = %v, want capped 1.0", got)
	}
}

func TestFetchRangeOrdersBlocks(t *testing.T) {
	t.Parallel()

	s := NewSyncer(50, fixedClock(), nil)
	blocks, err := s.FetchRange(context.Background(), 3, 12,
		func(_ context.Context, height uint64) (*model.Block, error) {
			return &model.Block{Height: height}, nil
		})
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(blocks) != 10 {
		t.Fatalf("fetched %d blocks, want 10", len(blocks))
	}
	for i, b := range blocks {
		if b.Height != uint64(3+i) {
			t.Fatalf("blocks[%d].Height = %d, want %d", i, b.Height, 3+i)
		}
	}
}

func TestFetchRangeClampsToBatch(t *testing.T) {
	t.Parallel()

	s := NewSyncer(5, fixedClock(), nil)
	var calls atomic.Int64
	blocks, err := s.FetchRange(context.Background(), 1, 100,
		func(_ context.Context, height uint64) (*model.Block, error) {
			calls.Add(1)
			return &model.Block{Height: height}, nil
		})
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(blocks) != 5 || calls.Load() != 5 {
		t.Fatalf("fetched %d blocks with %d calls, want 5 and 5", len(blocks), calls.Load())
	}
}

func TestFetchRangeAbortsOnError(t *testing.T) {
	t.Parallel()

	s := NewSyncer(50, fixedClock(), nil)
	fetchErr := errors.New("peer gone")
	blocks, err := s.FetchRange(context.Background(), 1, 20,
		func(_ context.Context, height uint64) (*model.Block, error) {
			if height == 10 {
				return nil, fetchErr
			}
			return &model.Block{Height: height}, nil
		})
	if blocks != nil {
		t.Fatalf("partial result returned on error")
	}
	if !errors.Is(err, fetchErr) {
		t.Fatalf("FetchRange error = %v, want wrapped fetch error", err)
	}
	if !strings.Contains(err.Error(), "sync aborted") {
		t.Fatalf("FetchRange error = %v, want sync aborted wrapping", err)
	}
}

func TestFetchRangeCancellation(t *testing.T) {
	t.Parallel()

	s := NewSyncer(50, fixedClock(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocks, err := s.FetchRange(ctx, 1, 20,
		func(ctx context.Context, height uint64) (*model.Block, error) {
			return &model.Block{Height: height}, ctx.Err()
		})
	if err == nil || blocks != nil {
		t.Fatalf("canceled FetchRange = (%v, %v), want error and no blocks", blocks, err)
	}
}
