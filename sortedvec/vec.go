package sortedvec

import (
	"errors"
	"slices"
	"sort"

	"github.com/hupe1980/dynamize/static"
)

// ErrNilCompare is returned by Build when the capability has no comparison.
var ErrNilCompare = errors.New("sortedvec: nil compare function")

// Vec is an immutable vector of elements in ascending order. Each position
// remembers the row, that is the input position, its element came from.
type Vec[T any] struct {
	elems []T
	rows  []uint32
}

// Len returns the number of rows.
func (v *Vec[T]) Len() int { return len(v.elems) }

// Capability implements static.Capability for Vec. Equal elements keep their
// input order.
type Capability[T any] struct {
	cmp func(a, b T) int
}

var (
	_ static.Capability[int, *Vec[int], Query[int], []int] = (*Capability[int])(nil)
	_ static.Locator[int, *Vec[int]]                       = (*Capability[int])(nil)
	_ static.ResultCloner[[]int]                           = (*Capability[int])(nil)
)

// New returns a capability ordering elements by cmp.
func New[T any](cmp func(a, b T) int) *Capability[T] {
	return &Capability[T]{cmp: cmp}
}

// Compare returns the comparison function.
func (c *Capability[T]) Compare() func(a, b T) int { return c.cmp }

// Build sorts elems.
func (c *Capability[T]) Build(elems []T) (*Vec[T], error) {
	if c.cmp == nil {
		return nil, ErrNilCompare
	}

	rows := make([]uint32, len(elems))
	for i := range rows {
		rows[i] = uint32(i)
	}
	slices.SortStableFunc(rows, func(a, b uint32) int {
		return c.cmp(elems[a], elems[b])
	})

	sorted := make([]T, len(elems))
	for i, r := range rows {
		sorted[i] = elems[r]
	}

	return &Vec[T]{elems: sorted, rows: rows}, nil
}

// Iterate yields rows in sorted order.
func (c *Capability[T]) Iterate(v *Vec[T], fn func(row uint32, elem T) error) error {
	for i, e := range v.elems {
		if err := fn(v.rows[i], e); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of rows of v.
func (c *Capability[T]) Size(v *Vec[T]) int { return v.Len() }

// CloneResult copies r so cached results stay private.
func (c *Capability[T]) CloneResult(r []T) []T { return slices.Clone(r) }

// Locate reports the rows equal to elem, starting from the last one in sorted
// order. That is the row a Max query picks among equal elements.
func (c *Capability[T]) Locate(v *Vec[T], elem T, fn func(row uint32) bool) {
	hi := c.upperBound(v, elem)
	for i := hi - 1; i >= 0 && c.cmp(v.elems[i], elem) == 0; i-- {
		if !fn(v.rows[i]) {
			return
		}
	}
}

// Query evaluates q on v, skipping deleted rows. The result is ascending.
func (c *Capability[T]) Query(v *Vec[T], q Query[T], deleted static.Bitmap) ([]T, error) {
	switch q.kind {
	case kindAll:
		return c.collect(v, 0, len(v.elems), deleted), nil
	case kindRange:
		if c.cmp(q.lo, q.hi) > 0 {
			return nil, nil
		}
		return c.collect(v, c.lowerBound(v, q.lo), c.upperBound(v, q.hi), deleted), nil
	case kindLookup:
		return c.collect(v, c.lowerBound(v, q.lo), c.upperBound(v, q.lo), deleted), nil
	case kindMin:
		for i := range v.elems {
			if static.Alive(deleted, v.rows[i]) {
				return []T{v.elems[i]}, nil
			}
		}
		return nil, nil
	case kindMax:
		for i := len(v.elems) - 1; i >= 0; i-- {
			if static.Alive(deleted, v.rows[i]) {
				return []T{v.elems[i]}, nil
			}
		}
		return nil, nil
	default:
		return nil, ErrUnknownQuery
	}
}

func (c *Capability[T]) collect(v *Vec[T], from, to int, deleted static.Bitmap) []T {
	if from >= to {
		return nil
	}
	if deleted == nil {
		return slices.Clone(v.elems[from:to])
	}
	out := make([]T, 0, to-from)
	for i := from; i < to; i++ {
		if static.Alive(deleted, v.rows[i]) {
			out = append(out, v.elems[i])
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// lowerBound returns the first index whose element is not less than x.
func (c *Capability[T]) lowerBound(v *Vec[T], x T) int {
	return sort.Search(len(v.elems), func(i int) bool { return c.cmp(v.elems[i], x) >= 0 })
}

// upperBound returns the first index whose element is greater than x.
func (c *Capability[T]) upperBound(v *Vec[T], x T) int {
	return sort.Search(len(v.elems), func(i int) bool { return c.cmp(v.elems[i], x) > 0 })
}
