package dynamize

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/dynamize/internal/block"
	"github.com/hupe1980/dynamize/static"
	"github.com/hupe1980/dynamize/strategy"
)

var errStopScan = errors.New("stop scan")

// Container is a dynamized collection of T over the static structure S.
//
// Reads (Query, Fold, Len, Snapshot, ...) are safe for concurrent use with
// each other and with one writer. Mutations must be serialized by the caller.
type Container[T, S, Q, R any] struct {
	e *engine[T, S, Q, R]

	current    atomic.Pointer[Snapshot[T, S, Q, R]]
	rebuilding atomic.Bool
	rebuilds   atomic.Uint64
	inserts    atomic.Uint64
	merged     atomic.Uint64
	maxMerged  atomic.Uint64
	maxBlocks  atomic.Uint64 // most blocks consumed by one insertion
}

// New creates an empty container over capability.
func New[T, S, Q, R any](capability static.Capability[T, S, Q, R], optFns ...Option) (*Container[T, S, Q, R], error) {
	if capability == nil {
		return nil, fmt.Errorf("%w: nil capability", ErrInvalidArgument)
	}

	o, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	e := &engine[T, S, Q, R]{
		cap:       capability,
		strategy:  o.strategy,
		threshold: o.threshold,
		noRebuild: o.noRebuild,
		maxLevels: o.maxLevels,
		parallel:  o.queryParallelism,
		rc:        o.rc,
		metrics:   o.metricsCollector,
		logger:    o.logger.WithStrategy(o.strategy.Name()),
	}

	if o.queryCacheSize > 0 {
		cache, err := lru.New[cacheKey, R](o.queryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		e.cache = cache
		if rc, ok := capability.(static.ResultCloner[R]); ok {
			e.clone = rc.CloneResult
		}
	}

	c := &Container[T, S, Q, R]{e: e}
	c.current.Store(e.snapshot(block.Empty[T, S](), nil))
	return c, nil
}

// Build creates a container holding elems laid out as n insertions would
// leave them, building every block once.
func Build[T, S, Q, R any](capability static.Capability[T, S, Q, R], elems []T, optFns ...Option) (*Container[T, S, Q, R], error) {
	c, err := New(capability, optFns...)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return c, nil
	}

	next, err := c.rebuild(c.current.Load(), slices.Clone(elems), "bulk load")
	if err != nil {
		return nil, err
	}
	c.publish(next)
	return c, nil
}

// Strategy returns the numeral system in use.
func (c *Container[T, S, Q, R]) Strategy() strategy.Strategy { return c.e.strategy }

// Snapshot returns the current published state.
func (c *Container[T, S, Q, R]) Snapshot() *Snapshot[T, S, Q, R] { return c.current.Load() }

// Len returns n, the number of rows including logically deleted ones.
func (c *Container[T, S, Q, R]) Len() int { return c.Snapshot().Len() }

// Live returns the number of live elements.
func (c *Container[T, S, Q, R]) Live() int { return c.Snapshot().Live() }

// DeadWeight returns the number of logically deleted rows.
func (c *Container[T, S, Q, R]) DeadWeight() int { return c.Snapshot().DeadWeight() }

// IsEmpty reports whether no live element remains.
func (c *Container[T, S, Q, R]) IsEmpty() bool { return c.Snapshot().IsEmpty() }

// Digits returns a copy of the current digit vector.
func (c *Container[T, S, Q, R]) Digits() strategy.Digits { return c.Snapshot().Digits() }

// State returns the lifecycle state.
func (c *Container[T, S, Q, R]) State() State {
	if c.rebuilding.Load() {
		return StateRebuilding
	}
	return c.Snapshot().State()
}

// Query evaluates q against the current snapshot. See Snapshot.Query.
func (c *Container[T, S, Q, R]) Query(q Q, combine func(acc, next R) R) (R, error) {
	return c.Snapshot().Query(q, combine)
}

// Fold evaluates q against the current snapshot. See Snapshot.Fold.
func (c *Container[T, S, Q, R]) Fold(q Q, init R, combine func(acc, next R) R) (R, error) {
	return c.Snapshot().Fold(q, init, combine)
}

// Insert adds elem, executing the merge plan of the strategy. On failure the
// published state is left unchanged.
func (c *Container[T, S, Q, R]) Insert(elem T) error {
	start := time.Now()
	snap := c.current.Load()

	next, res, plan, err := c.insert(snap, elem)

	c.e.metrics.RecordInsert(res.Elements, time.Since(start), err)
	c.e.logger.LogInsert(snap.Len()+1, plan.String(), res.Elements, err)

	if err != nil {
		return err
	}

	c.recordMerge(res)
	c.publish(next)
	return nil
}

// InsertBatch inserts elems in order and publishes once. Either every element
// is inserted or none is.
func (c *Container[T, S, Q, R]) InsertBatch(elems []T) error {
	if len(elems) == 0 {
		return nil
	}

	start := time.Now()
	next := c.current.Load()

	var (
		results []block.ExecResult
		merged  int
		err     error
	)
	for _, elem := range elems {
		var res block.ExecResult
		next, res, _, err = c.insert(next, elem)
		if err != nil {
			break
		}
		results = append(results, res)
		merged += res.Elements
	}

	c.e.metrics.RecordBatchInsert(len(elems), merged, time.Since(start), err)
	c.e.logger.LogBatchInsert(len(elems), merged, err)

	if err != nil {
		return err
	}

	for _, res := range results {
		c.recordMerge(res)
	}
	c.publish(next)
	return nil
}

func (c *Container[T, S, Q, R]) insert(snap *Snapshot[T, S, Q, R], elem T) (*Snapshot[T, S, Q, R], block.ExecResult, strategy.Plan, error) {
	digits, plan := c.e.strategy.PlanInsert(snap.digits)
	if len(digits) > c.e.maxLevels {
		return nil, block.ExecResult{}, plan, &CapacityError{Levels: len(digits), MaxLevels: c.e.maxLevels}
	}

	store, res, err := snap.store.Execute(c.e.cap, c.e.rc, plan, elem)
	if err != nil {
		return nil, block.ExecResult{}, plan, err
	}
	return c.e.snapshot(store, digits), res, plan, nil
}

// Delete logically deletes one live element equal to elem. The capability
// must implement static.Locator; use DeleteFunc otherwise.
func (c *Container[T, S, Q, R]) Delete(elem T) error {
	loc, ok := c.e.cap.(static.Locator[T, S])
	if !ok {
		return ErrDeleteUnsupported
	}
	return c.delete(locateEqual(loc, elem))
}

// DeleteFunc logically deletes the first live element for which match
// returns true, scanning blocks in ascending level order.
func (c *Container[T, S, Q, R]) DeleteFunc(match func(elem T) bool) error {
	return c.delete(func(blk *block.Block[S], fn func(row uint32) bool) error {
		return c.e.cap.Iterate(blk.Structure, func(row uint32, elem T) error {
			if match(elem) && !fn(row) {
				return errStopScan
			}
			return nil
		})
	})
}

// Replace logically deletes one live element equal to old and inserts elem,
// publishing both changes as one mutation. On failure, including a missing
// old element, the published state is left unchanged. The capability must
// implement static.Locator.
func (c *Container[T, S, Q, R]) Replace(old, elem T) (err error) {
	loc, ok := c.e.cap.(static.Locator[T, S])
	if !ok {
		return ErrDeleteUnsupported
	}

	start := time.Now()
	snap := c.current.Load()

	var (
		res  block.ExecResult
		plan strategy.Plan
	)
	defer func() {
		elapsed := time.Since(start)
		c.e.metrics.RecordDelete(elapsed, err)
		c.e.metrics.RecordInsert(res.Elements, elapsed, err)
		c.e.logger.LogInsert(snap.Len()+1, plan.String(), res.Elements, err)
	}()

	next, err := c.markDeleted(snap, locateEqual(loc, old))
	if err != nil {
		return err
	}

	next, res, plan, err = c.insert(next, elem)
	if err != nil {
		return err
	}

	next, err = c.rebuildIfNeeded(next)
	if err != nil {
		return err
	}

	c.recordMerge(res)
	c.publish(next)
	return nil
}

// delete marks the located row dead and runs a global rebuild once the dead
// weight exceeds the threshold. A failed rebuild discards the deletion too.
func (c *Container[T, S, Q, R]) delete(find func(blk *block.Block[S], fn func(row uint32) bool) error) (err error) {
	start := time.Now()
	snap := c.current.Load()

	var next *Snapshot[T, S, Q, R]
	defer func() {
		c.e.metrics.RecordDelete(time.Since(start), err)
		if next != nil {
			c.e.logger.LogDelete(next.Live(), next.DeadWeight(), err)
		} else {
			c.e.logger.LogDelete(snap.Live(), snap.DeadWeight(), err)
		}
	}()

	marked, err := c.markDeleted(snap, find)
	if err != nil {
		return err
	}
	next = marked

	rebuilt, err := c.rebuildIfNeeded(marked)
	if err != nil {
		return err
	}
	next = rebuilt

	c.publish(next)
	return nil
}

// markDeleted returns snap with the first row find reports marked dead.
func (c *Container[T, S, Q, R]) markDeleted(snap *Snapshot[T, S, Q, R], find func(blk *block.Block[S], fn func(row uint32) bool) error) (*Snapshot[T, S, Q, R], error) {
	blk, row, found, err := snap.store.Locate(find)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	store, err := snap.store.MarkDeleted(blk, row)
	if err != nil {
		return nil, err
	}
	return c.e.snapshot(store, snap.digits), nil
}

func (c *Container[T, S, Q, R]) rebuildIfNeeded(snap *Snapshot[T, S, Q, R]) (*Snapshot[T, S, Q, R], error) {
	if !c.needsRebuild(snap) {
		return snap, nil
	}
	live, err := snap.Elements()
	if err != nil {
		return nil, err
	}
	return c.rebuild(snap, live, "dead weight")
}

func locateEqual[T, S any](loc static.Locator[T, S], elem T) func(blk *block.Block[S], fn func(row uint32) bool) error {
	return func(blk *block.Block[S], fn func(row uint32) bool) error {
		loc.Locate(blk.Structure, elem, fn)
		return nil
	}
}

func (c *Container[T, S, Q, R]) needsRebuild(snap *Snapshot[T, S, Q, R]) bool {
	if c.e.noRebuild || snap.Len() == 0 {
		return false
	}
	return float64(snap.DeadWeight()) > c.e.threshold*float64(snap.Len())
}

// Rebuild discards every block and rebuilds the live elements into the
// minimal layout for their count. Dead weight drops to zero.
func (c *Container[T, S, Q, R]) Rebuild() error {
	snap := c.current.Load()

	live, err := snap.Elements()
	if err != nil {
		return err
	}

	next, err := c.rebuild(snap, live, "manual")
	if err != nil {
		return err
	}

	c.publish(next)
	return nil
}

func (c *Container[T, S, Q, R]) rebuild(snap *Snapshot[T, S, Q, R], live []T, reason string) (next *Snapshot[T, S, Q, R], err error) {
	c.rebuilding.Store(true)
	start := time.Now()

	defer func() {
		c.rebuilding.Store(false)
		c.e.metrics.RecordRebuild(len(live), time.Since(start), err)
		blocks := 0
		if next != nil {
			blocks = next.store.Len()
		}
		c.e.logger.LogRebuild(len(live), blocks, reason, err)
	}()

	digits := c.e.strategy.Decompose(len(live))
	if len(digits) > c.e.maxLevels {
		return nil, &CapacityError{Levels: len(digits), MaxLevels: c.e.maxLevels}
	}

	store, err := snap.store.Rebuild(c.e.cap, c.e.rc, c.e.strategy, digits, live)
	if err != nil {
		return nil, err
	}

	c.rebuilds.Add(1)
	return c.e.snapshot(store, digits), nil
}

func (c *Container[T, S, Q, R]) publish(next *Snapshot[T, S, Q, R]) {
	next.version = c.current.Load().version + 1
	c.current.Store(next)
}

func (c *Container[T, S, Q, R]) recordMerge(res block.ExecResult) {
	c.inserts.Add(1)
	c.merged.Add(uint64(res.Elements))
	storeMax(&c.maxMerged, uint64(res.Elements))
	storeMax(&c.maxBlocks, uint64(res.Consumed))
}

// storeMax raises v to x. Only the writer stores, readers just load.
func storeMax(v *atomic.Uint64, x uint64) {
	if x > v.Load() {
		v.Store(x)
	}
}
