package gossip

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/clock"
	"github.com/goodnatureofminers/fcuchain/internal/model"
	"github.com/goodnatureofminers/fcuchain/pkg/workerpool"
)

const (
	// DefaultMaxBatch clamps how many blocks one range request covers.
	DefaultMaxBatch = 50

	// assumedFullSyncBudget backs the wall-time progress estimate. It is a
	// placeholder metric, not an exact measure.
	assumedFullSyncBudget = 5 * time.Minute

	// syncFetchWorkers bounds parallel block fetches during a range sync.
	syncFetchWorkers = 4
)

// BlockFetcher retrieves one block by height from a peer.
type BlockFetcher func(ctx context.Context, height uint64) (*model.Block, error)

// Syncer coordinates chain synchronization. Only one sync may run at a time,
// guarding against concurrent sync storms.
type Syncer struct {
	mu         sync.Mutex
	inProgress bool
	startedAt  time.Time
	maxBatch   int
	clk        clock.Clock
	logger     *zap.Logger
}

// NewSyncer builds a syncer; a non-positive batch falls back to the default.
func NewSyncer(maxBatch int, clk clock.Clock, logger *zap.Logger) *Syncer {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{maxBatch: maxBatch, clk: clk, logger: logger}
}

// Start claims the sync slot. ErrSyncInProgress when already running.
func (s *Syncer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inProgress {
		return ErrSyncInProgress
	}
	s.inProgress = true
	s.startedAt = s.clk.Now()
	return nil
}

// Finish releases the sync slot.
func (s *Syncer) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inProgress = false
}

// InProgress reports whether a sync is running.
func (s *Syncer) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}

// RequestRange clamps a block range request to the batch limit and returns
// the effective (start, end) pair.
func (s *Syncer) RequestRange(start, end uint64) (uint64, uint64) {
	if end < start {
		return start, start
	}
	if end-start+1 > uint64(s.maxBatch) {
		end = start + uint64(s.maxBatch) - 1
	}
	return start, end
}

// Progress estimates completion from elapsed wall time against the assumed
// full-sync budget. 1.0 when idle.
func (s *Syncer) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inProgress {
		return 1.0
	}
	elapsed := s.clk.Now().Sub(s.startedAt)
	progress := float64(elapsed) / float64(assumedFullSyncBudget)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// FetchRange retrieves the clamped block range in parallel and returns the
// blocks ordered by height. On cancellation it returns a sync-aborted error
// with no partial result, leaving state unchanged.
func (s *Syncer) FetchRange(ctx context.Context, start, end uint64, fetch BlockFetcher) ([]*model.Block, error) {
	start, end = s.RequestRange(start, end)

	heights := make([]uint64, 0, end-start+1)
	for h := start; h <= end; h++ {
		heights = append(heights, h)
	}

	var mu sync.Mutex
	blocks := make([]*model.Block, 0, len(heights))

	err := workerpool.Process(ctx, syncFetchWorkers, heights,
		func(ctx context.Context, height uint64) error {
			block, err := fetch(ctx, height)
			if err != nil {
				return fmt.Errorf("fetch block %d: %w", height, err)
			}
			mu.Lock()
			blocks = append(blocks, block)
			mu.Unlock()
			return nil
		}, nil)
	if err != nil {
		s.logger.Warn("sync aborted", zap.Uint64("start", start), zap.Uint64("end", end), zap.Error(err))
		return nil, fmt.Errorf("sync aborted: %w", err)
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Height < blocks[j].Height })
	return blocks, nil
}
