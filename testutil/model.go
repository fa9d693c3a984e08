package testutil

import "slices"

// Model is a sorted multiset used as the reference for container tests.
type Model[T any] struct {
	cmp   func(a, b T) int
	elems []T
}

// NewModel creates an empty model ordered by cmp.
func NewModel[T any](cmp func(a, b T) int) *Model[T] {
	return &Model[T]{cmp: cmp}
}

// Insert adds x.
func (m *Model[T]) Insert(x T) {
	i, _ := slices.BinarySearchFunc(m.elems, x, m.cmp)
	m.elems = slices.Insert(m.elems, i, x)
}

// Delete removes one copy of x and reports whether it was present.
func (m *Model[T]) Delete(x T) bool {
	i, found := slices.BinarySearchFunc(m.elems, x, m.cmp)
	if !found {
		return false
	}
	m.elems = slices.Delete(m.elems, i, i+1)
	return true
}

// Len returns the number of elements.
func (m *Model[T]) Len() int { return len(m.elems) }

// Sorted returns the elements in ascending order, never nil.
func (m *Model[T]) Sorted() []T { return append([]T{}, m.elems...) }

// Range returns the elements in [lo, hi], never nil.
func (m *Model[T]) Range(lo, hi T) []T {
	from, _ := slices.BinarySearchFunc(m.elems, lo, m.cmp)
	to := from
	for to < len(m.elems) && m.cmp(m.elems[to], hi) <= 0 {
		to++
	}
	return append([]T{}, m.elems[from:to]...)
}

// Pick returns a random element. The model must not be empty.
func (m *Model[T]) Pick(r *RNG) T {
	return m.elems[r.Intn(len(m.elems))]
}
