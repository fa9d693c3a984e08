package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values mean "unlimited" except for
// MaxConcurrentBuilds, which defaults to 1.
type Config struct {
	// MaxConcurrentBuilds is the number of builds allowed to run at once.
	MaxConcurrentBuilds int64

	// MaxStagedElements caps the elements staged by concurrent builds.
	// A single build larger than the cap is admitted alone.
	MaxStagedElements int64

	// IOLimitBytesPerSec throttles checkpoint reads and writes.
	IOLimitBytesPerSec int64
}

// Controller manages build concurrency and IO throughput.
type Controller struct {
	cfg Config

	builds  *semaphore.Weighted
	staged  *semaphore.Weighted // nil if unlimited
	inUse   atomic.Int64
	running atomic.Int64

	io *rate.Limiter // nil if unlimited
}

// NewController creates a new controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentBuilds <= 0 {
		cfg.MaxConcurrentBuilds = 1
	}

	c := &Controller{
		cfg:    cfg,
		builds: semaphore.NewWeighted(cfg.MaxConcurrentBuilds),
	}

	if cfg.MaxStagedElements > 0 {
		c.staged = semaphore.NewWeighted(cfg.MaxStagedElements)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// Parallelism returns how many builds may run at once (1 for nil).
func (c *Controller) Parallelism() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxConcurrentBuilds)
}

func (c *Controller) weight(elements int) int64 {
	w := int64(elements)
	if w <= 0 {
		w = 1
	}
	if w > c.cfg.MaxStagedElements {
		w = c.cfg.MaxStagedElements
	}
	return w
}

// AcquireBuild reserves a build slot for a build over elements elements.
// Blocks until both a slot and enough element budget are available.
func (c *Controller) AcquireBuild(ctx context.Context, elements int) error {
	if c == nil {
		return nil
	}

	if err := c.builds.Acquire(ctx, 1); err != nil {
		return err
	}

	if c.staged != nil {
		if err := c.staged.Acquire(ctx, c.weight(elements)); err != nil {
			c.builds.Release(1)
			return err
		}
	}

	c.inUse.Add(int64(elements))
	c.running.Add(1)
	return nil
}

// TryAcquireBuild is the non-blocking variant of AcquireBuild.
func (c *Controller) TryAcquireBuild(elements int) bool {
	if c == nil {
		return true
	}

	if !c.builds.TryAcquire(1) {
		return false
	}

	if c.staged != nil && !c.staged.TryAcquire(c.weight(elements)) {
		c.builds.Release(1)
		return false
	}

	c.inUse.Add(int64(elements))
	c.running.Add(1)
	return true
}

// ReleaseBuild returns what AcquireBuild reserved for elements.
func (c *Controller) ReleaseBuild(elements int) {
	if c == nil {
		return
	}

	if c.staged != nil {
		c.staged.Release(c.weight(elements))
	}
	c.inUse.Add(-int64(elements))
	c.running.Add(-1)
	c.builds.Release(1)
}

// StagedElements returns the number of elements held by running builds.
func (c *Controller) StagedElements() int64 {
	if c == nil {
		return 0
	}
	return c.inUse.Load()
}

// RunningBuilds returns the number of builds currently admitted.
func (c *Controller) RunningBuilds() int64 {
	if c == nil {
		return 0
	}
	return c.running.Load()
}

// AcquireIO waits until the IO limit allows n bytes.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.io == nil {
		return nil
	}

	// WaitN rejects requests larger than the burst; split them.
	burst := c.io.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.io.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
