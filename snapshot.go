package dynamize

import (
	"iter"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/dynamize/internal/block"
	"github.com/hupe1980/dynamize/resource"
	"github.com/hupe1980/dynamize/static"
	"github.com/hupe1980/dynamize/strategy"
)

// State describes where a container is in its lifecycle.
type State int

const (
	// StateEmpty holds no rows.
	StateEmpty State = iota
	// StatePopulated holds at least one row.
	StatePopulated
	// StateRebuilding is set while a global rebuild runs.
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// CacheKeyer is implemented by queries whose results may be cached.
// CacheKey returns false when the query must not be cached.
type CacheKeyer interface {
	CacheKey() (string, bool)
}

type cacheKey struct {
	version uint64
	query   string
}

// engine is the configuration shared by a container and its snapshots.
type engine[T, S, Q, R any] struct {
	cap       static.Capability[T, S, Q, R]
	strategy  strategy.Strategy
	threshold float64
	noRebuild bool
	maxLevels int
	parallel  int
	rc        *resource.Controller
	metrics   MetricsCollector
	logger    *Logger
	cache     *lru.Cache[cacheKey, R] // nil if disabled
	clone     func(R) R               // nil if results are shared
}

func (e *engine[T, S, Q, R]) cloneResult(r R) R {
	if e.clone == nil {
		return r
	}
	return e.clone(r)
}

func (e *engine[T, S, Q, R]) snapshot(store *block.Store[T, S], digits strategy.Digits) *Snapshot[T, S, Q, R] {
	return &Snapshot[T, S, Q, R]{e: e, store: store, digits: digits}
}

// Snapshot is an immutable view of a container. It stays valid and queryable
// after the container moves on.
type Snapshot[T, S, Q, R any] struct {
	e       *engine[T, S, Q, R]
	store   *block.Store[T, S]
	digits  strategy.Digits
	version uint64
}

// BlockInfo describes one block of a snapshot.
type BlockInfo[S any] struct {
	Level     int
	Seq       uint64
	Size      int
	Live      int
	Structure S
	Deleted   static.Bitmap // nil if nothing is deleted
}

// Version increases by one with every published mutation.
func (s *Snapshot[T, S, Q, R]) Version() uint64 { return s.version }

// Len returns n, the number of rows including logically deleted ones.
func (s *Snapshot[T, S, Q, R]) Len() int { return s.store.Size() }

// Live returns n minus the dead weight.
func (s *Snapshot[T, S, Q, R]) Live() int { return s.store.Size() - s.store.Dead() }

// DeadWeight returns the number of logically deleted rows.
func (s *Snapshot[T, S, Q, R]) DeadWeight() int { return s.store.Dead() }

// IsEmpty reports whether no live element remains.
func (s *Snapshot[T, S, Q, R]) IsEmpty() bool { return s.Live() == 0 }

// Digits returns a copy of the digit vector.
func (s *Snapshot[T, S, Q, R]) Digits() strategy.Digits { return s.digits.Clone() }

// State returns StateEmpty or StatePopulated.
func (s *Snapshot[T, S, Q, R]) State() State {
	if s.store.Size() == 0 {
		return StateEmpty
	}
	return StatePopulated
}

// Blocks describes every block in ascending level order.
func (s *Snapshot[T, S, Q, R]) Blocks() []BlockInfo[S] {
	blocks := s.store.Blocks()
	out := make([]BlockInfo[S], 0, len(blocks))
	for _, blk := range blocks {
		out = append(out, BlockInfo[S]{
			Level:     blk.Level,
			Seq:       blk.Seq,
			Size:      blk.Size,
			Live:      blk.Live(),
			Structure: blk.Structure,
			Deleted:   blk.Deleted(),
		})
	}
	return out
}

// Query evaluates q on every block and folds the partial results with
// combine, seeded with the first partial result. An empty snapshot yields the
// zero R. The first failing block aborts the query with a *QueryError.
//
// With a query cache enabled, results of cacheable queries are shared between
// callers unless the capability implements static.ResultCloner. Shared
// results must be treated as read-only.
func (s *Snapshot[T, S, Q, R]) Query(q Q, combine func(acc, next R) R) (R, error) {
	key, cacheable := s.cacheKey(q)
	if cacheable {
		if r, ok := s.e.cache.Get(key); ok {
			return s.e.cloneResult(r), nil
		}
	}

	var (
		acc    R
		seeded bool
	)
	err := s.query(q, func(r R) {
		if !seeded {
			acc, seeded = r, true
			return
		}
		acc = combine(acc, r)
	})
	if err != nil {
		var zero R
		return zero, err
	}

	if cacheable {
		s.e.cache.Add(key, s.e.cloneResult(acc))
	}
	return acc, nil
}

// Fold is like Query but seeds the fold with init.
func (s *Snapshot[T, S, Q, R]) Fold(q Q, init R, combine func(acc, next R) R) (R, error) {
	acc := init
	err := s.query(q, func(r R) {
		acc = combine(acc, r)
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return acc, nil
}

// Each calls fn for every live element until fn returns false.
func (s *Snapshot[T, S, Q, R]) Each(fn func(elem T) bool) error {
	return s.store.Each(s.e.cap, fn)
}

// Elements returns every live element, largest blocks last.
func (s *Snapshot[T, S, Q, R]) Elements() ([]T, error) {
	return s.store.LiveElements(s.e.cap)
}

// All iterates over every live element. An enumeration failure is yielded
// once with the zero element and ends the sequence.
func (s *Snapshot[T, S, Q, R]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		stopped := false
		err := s.store.Each(s.e.cap, func(elem T) bool {
			if !yield(elem, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			var zero T
			yield(zero, err)
		}
	}
}

func (s *Snapshot[T, S, Q, R]) cacheKey(q Q) (cacheKey, bool) {
	if s.e.cache == nil {
		return cacheKey{}, false
	}
	ck, ok := any(q).(CacheKeyer)
	if !ok {
		return cacheKey{}, false
	}
	k, ok := ck.CacheKey()
	if !ok {
		return cacheKey{}, false
	}
	return cacheKey{version: s.version, query: k}, true
}

func (s *Snapshot[T, S, Q, R]) query(q Q, yield func(R)) (err error) {
	start := time.Now()
	blocks := s.store.Blocks()

	defer func() {
		s.e.metrics.RecordQuery(len(blocks), time.Since(start), err)
		s.e.logger.LogQuery(len(blocks), err)
	}()

	if s.e.parallel <= 1 || len(blocks) < 2 {
		for _, blk := range blocks {
			r, err := s.e.cap.Query(blk.Structure, q, blk.Deleted())
			if err != nil {
				return &QueryError{Level: blk.Level, Err: err}
			}
			yield(r)
		}
		return nil
	}

	partials := make([]R, len(blocks))
	g := new(errgroup.Group)
	g.SetLimit(s.e.parallel)
	for i, blk := range blocks {
		g.Go(func() error {
			r, err := s.e.cap.Query(blk.Structure, q, blk.Deleted())
			if err != nil {
				return &QueryError{Level: blk.Level, Err: err}
			}
			partials[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range partials {
		yield(r)
	}
	return nil
}
