package block

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/dynamize/internal/tombstone"
	"github.com/hupe1980/dynamize/resource"
	"github.com/hupe1980/dynamize/strategy"
)

var errStop = errors.New("stop iteration")

// Builder is the part of a static capability the store needs.
type Builder[T, S any] interface {
	Build(elems []T) (S, error)
	Iterate(s S, fn func(row uint32, elem T) error) error
	Size(s S) int
}

// Store maps levels to the blocks occupying them.
type Store[T, S any] struct {
	levels  [][]*Block[S]
	size    int
	dead    int
	nextSeq uint64
}

// Empty returns a store without blocks.
func Empty[T, S any]() *Store[T, S] {
	return &Store[T, S]{}
}

// Size returns the total number of rows, deleted or not.
func (st *Store[T, S]) Size() int { return st.size }

// Dead returns the total number of logically deleted rows.
func (st *Store[T, S]) Dead() int { return st.dead }

// Levels returns the number of level slots, including empty ones.
func (st *Store[T, S]) Levels() int { return len(st.levels) }

// Level returns the blocks at level in creation order.
func (st *Store[T, S]) Level(level int) []*Block[S] {
	if level < 0 || level >= len(st.levels) {
		return nil
	}
	return st.levels[level]
}

// Len returns the number of blocks.
func (st *Store[T, S]) Len() int {
	var n int
	for _, blocks := range st.levels {
		n += len(blocks)
	}
	return n
}

// Blocks returns every block in ascending level order.
func (st *Store[T, S]) Blocks() []*Block[S] {
	out := make([]*Block[S], 0, st.Len())
	for _, blocks := range st.levels {
		out = append(out, blocks...)
	}
	return out
}

// Digits derives the digit vector from the blocks actually stored.
func (st *Store[T, S]) Digits() strategy.Digits {
	d := make(strategy.Digits, len(st.levels))
	for lvl, blocks := range st.levels {
		d[lvl] = uint8(len(blocks))
	}
	for len(d) > 0 && d[len(d)-1] == 0 {
		d = d[:len(d)-1]
	}
	return d
}

// ExecResult describes the work done by Execute.
type ExecResult struct {
	// Consumed is the number of blocks replaced.
	Consumed int
	// Elements is the number of elements fed to builds.
	Elements int
	// Built is the number of blocks built.
	Built int
}

// Execute applies plan to st, inserting elem in every step flagged Insert.
// It returns a new Store; st is left untouched whether or not it fails.
func (st *Store[T, S]) Execute(b Builder[T, S], rc *resource.Controller, plan strategy.Plan, elem T) (*Store[T, S], ExecResult, error) {
	next := st.shallowClone()
	var res ExecResult

	for _, step := range plan.Steps {
		var consumed []*Block[S]
		for _, lvl := range step.Consume {
			consumed = append(consumed, next.Level(lvl)...)
		}

		elems, deleted, err := gather(b, consumed, step.Insert)
		if err != nil {
			return nil, ExecResult{}, err
		}
		if step.Insert {
			elems[len(elems)-1] = elem
		}

		blk, err := next.build(b, rc, step.Level, elems, deleted)
		if err != nil {
			return nil, ExecResult{}, err
		}

		for _, lvl := range step.Consume {
			next.setLevel(lvl, nil)
		}
		for _, c := range consumed {
			next.size -= c.Size
			next.dead -= c.Dead()
		}
		next.setLevel(step.Level, append(slices.Clip(next.Level(step.Level)), blk))
		next.size += blk.Size
		next.dead += blk.Dead()

		res.Consumed += len(consumed)
		res.Elements += len(elems)
		res.Built++
	}

	next.trim()
	return next, res, nil
}

// Rebuild returns a fresh store holding live laid out as digits describes under
// s. Blocks are built in parallel, bounded by rc. The sequence seeds of st are
// carried over so block identities stay unique.
func (st *Store[T, S]) Rebuild(b Builder[T, S], rc *resource.Controller, s strategy.Strategy, digits strategy.Digits, live []T) (*Store[T, S], error) {
	if want := strategy.Decode(s, digits); want != len(live) {
		return nil, fmt.Errorf("rebuild layout holds %d elements, got %d", want, len(live))
	}

	type slot struct {
		level int
		elems []T
	}

	// Slots are filled largest level first, consuming live in its given order.
	var slots []slot
	off := 0
	for lvl := len(digits) - 1; lvl >= 0; lvl-- {
		w := s.Weight(lvl)
		for range int(digits[lvl]) {
			chunk := make([]T, w)
			copy(chunk, live[off:off+w])
			slots = append(slots, slot{level: lvl, elems: chunk})
			off += w
		}
	}

	next := &Store[T, S]{nextSeq: st.nextSeq}
	built := make([]*Block[S], len(slots))
	for i := range slots {
		built[i] = &Block[S]{Seq: next.nextSeq + uint64(i)}
	}
	next.nextSeq += uint64(len(slots))

	g := new(errgroup.Group)
	g.SetLimit(rc.Parallelism())
	for i, sl := range slots {
		g.Go(func() error {
			structure, err := buildStructure(b, rc, sl.level, sl.elems)
			if err != nil {
				return err
			}
			built[i].Level = sl.level
			built[i].Structure = structure
			built[i].Size = len(sl.elems)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, blk := range built {
		next.setLevel(blk.Level, append(next.Level(blk.Level), blk))
		next.size += blk.Size
	}

	return next, nil
}

// Locate asks find for candidate rows block by block, in ascending level
// order, and returns the first candidate that is not deleted. find may return
// an error after fn has asked it to stop; that error is ignored once a row
// has been found.
func (st *Store[T, S]) Locate(find func(blk *Block[S], fn func(row uint32) bool) error) (*Block[S], uint32, bool, error) {
	for _, blk := range st.Blocks() {
		if blk.Live() == 0 {
			continue
		}

		var (
			row   uint32
			found bool
		)
		err := find(blk, func(r uint32) bool {
			if blk.IsDeleted(r) {
				return true
			}
			row, found = r, true
			return false
		})
		if found {
			return blk, row, true, nil
		}
		if err != nil {
			return nil, 0, false, err
		}
	}
	return nil, 0, false, nil
}

// MarkDeleted returns a new Store in which row of blk is logically deleted.
// blk must belong to st.
func (st *Store[T, S]) MarkDeleted(blk *Block[S], row uint32) (*Store[T, S], error) {
	if int(row) >= blk.Size {
		return nil, fmt.Errorf("row %d out of range for block of size %d", row, blk.Size)
	}
	if blk.IsDeleted(row) {
		return st, nil
	}

	blocks := st.Level(blk.Level)
	idx := slices.Index(blocks, blk)
	if idx < 0 {
		return nil, fmt.Errorf("block %d not found at level %d", blk.Seq, blk.Level)
	}

	next := st.shallowClone()
	replaced := slices.Clone(blocks)
	replaced[idx] = blk.withDeleted(row)
	next.setLevel(blk.Level, replaced)
	next.dead++
	return next, nil
}

// Each calls fn for every live element in ascending level order until fn
// returns false.
func (st *Store[T, S]) Each(b Builder[T, S], fn func(elem T) bool) error {
	for _, blk := range st.Blocks() {
		err := b.Iterate(blk.Structure, func(row uint32, elem T) error {
			if blk.IsDeleted(row) {
				return nil
			}
			if !fn(elem) {
				return errStop
			}
			return nil
		})
		if errors.Is(err, errStop) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// LiveElements collects every live element.
func (st *Store[T, S]) LiveElements(b Builder[T, S]) ([]T, error) {
	out := make([]T, 0, st.size-st.dead)
	err := st.Each(b, func(elem T) bool {
		out = append(out, elem)
		return true
	})
	return out, err
}

func (st *Store[T, S]) shallowClone() *Store[T, S] {
	return &Store[T, S]{
		levels:  slices.Clone(st.levels),
		size:    st.size,
		dead:    st.dead,
		nextSeq: st.nextSeq,
	}
}

func (st *Store[T, S]) setLevel(level int, blocks []*Block[S]) {
	for len(st.levels) <= level {
		st.levels = append(st.levels, nil)
	}
	st.levels[level] = blocks
}

func (st *Store[T, S]) trim() {
	n := len(st.levels)
	for n > 0 && len(st.levels[n-1]) == 0 {
		n--
	}
	st.levels = st.levels[:n]
}

func (st *Store[T, S]) build(b Builder[T, S], rc *resource.Controller, level int, elems []T, deleted *tombstone.Set) (*Block[S], error) {
	structure, err := buildStructure(b, rc, level, elems)
	if err != nil {
		return nil, err
	}
	blk := &Block[S]{
		Level:     level,
		Seq:       st.nextSeq,
		Structure: structure,
		Size:      len(elems),
		deleted:   deleted,
	}
	st.nextSeq++
	return blk, nil
}

func buildStructure[T, S any](b Builder[T, S], rc *resource.Controller, level int, elems []T) (S, error) {
	var zero S
	n := len(elems)

	if err := rc.AcquireBuild(context.Background(), n); err != nil {
		return zero, &BuildError{Level: level, Elements: n, Err: err}
	}
	defer rc.ReleaseBuild(n)

	s, err := b.Build(elems)
	if err != nil {
		return zero, &BuildError{Level: level, Elements: n, Err: err}
	}
	if got := b.Size(s); got != n {
		return zero, &BuildError{Level: level, Elements: n, Err: fmt.Errorf("%w: built %d rows from %d elements", ErrEnumeration, got, n)}
	}
	return s, nil
}

// gather concatenates the rows of blocks in order, leaving a trailing free
// slot when extra is set. Tombstones move along with their rows.
func gather[T, S any](b Builder[T, S], blocks []*Block[S], extra bool) ([]T, *tombstone.Set, error) {
	total := 0
	for _, blk := range blocks {
		total += blk.Size
	}
	if extra {
		total++
	}

	elems := make([]T, total)
	shifted := make([]*tombstone.Set, 0, len(blocks))

	off := 0
	for _, blk := range blocks {
		seen := 0
		err := b.Iterate(blk.Structure, func(row uint32, elem T) error {
			if int(row) >= blk.Size {
				return fmt.Errorf("%w: row %d beyond size %d", ErrEnumeration, row, blk.Size)
			}
			elems[off+int(row)] = elem
			seen++
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("enumerate level %d: %w", blk.Level, err)
		}
		if seen != blk.Size {
			return nil, nil, fmt.Errorf("%w: enumerated %d of %d rows at level %d", ErrEnumeration, seen, blk.Size, blk.Level)
		}
		shifted = append(shifted, blk.deleted.Shift(uint32(off)))
		off += blk.Size
	}

	return elems, tombstone.Union(shifted...), nil
}
