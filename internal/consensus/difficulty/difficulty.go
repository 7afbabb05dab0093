// Package difficulty maintains the network PoC difficulty. The controller is
// deliberately hysteretic: it only moves when the trailing mean block time
// leaves a ±20% band around the target, one step at a time, so that noisy
// samples do not cause oscillation.
package difficulty

import (
	"sync"
	"time"
)

const (
	// InitialDifficulty is the network starting point.
	InitialDifficulty uint32 = 4

	// MinDifficulty and MaxDifficulty bound the controller output.
	MinDifficulty uint32 = 1
	MaxDifficulty uint32 = 32

	// DefaultTargetBlockTime is the block interval the controller steers
	// toward.
	DefaultTargetBlockTime = 22500 * time.Millisecond

	// DefaultAdjustmentWindow is how many trailing samples are kept and how
	// often (in blocks) the controller recalculates.
	DefaultAdjustmentWindow = 50

	bandLow  = 0.8
	bandHigh = 1.2
)

// Controller tracks trailing block-time samples and the current difficulty.
type Controller struct {
	mu      sync.RWMutex
	current uint32
	samples []time.Duration
	target  time.Duration
	window  int
}

// New builds a controller with the given target and window; non-positive
// arguments fall back to the defaults.
func New(target time.Duration, window int) *Controller {
	if target <= 0 {
		target = DefaultTargetBlockTime
	}
	if window <= 0 {
		window = DefaultAdjustmentWindow
	}
	return &Controller{
		current: InitialDifficulty,
		target:  target,
		window:  window,
	}
}

// Current returns the network difficulty.
func (c *Controller) Current() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Window returns the adjustment interval in blocks.
func (c *Controller) Window() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window
}

// Record appends a block-time sample, keeping only the trailing window.
func (c *Controller) Record(sample time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, sample)
	if len(c.samples) > c.window {
		c.samples = c.samples[len(c.samples)-c.window:]
	}
}

// Recalculate applies the band rule over the trailing samples and returns the
// resulting difficulty. Fewer than two samples leave it unchanged.
func (c *Controller) Recalculate() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.samples) < 2 {
		return c.current
	}

	var sum time.Duration
	for _, s := range c.samples {
		sum += s
	}
	mean := float64(sum) / float64(len(c.samples))

	switch {
	case mean < bandLow*float64(c.target):
		if c.current < MaxDifficulty {
			c.current++
		}
	case mean > bandHigh*float64(c.target):
		if c.current > MinDifficulty {
			c.current--
		}
	}
	return c.current
}
