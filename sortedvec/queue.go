package sortedvec

import (
	"github.com/hupe1980/dynamize"
)

// Container is a dynamized collection of sorted vectors.
type Container[T any] = dynamize.Container[T, *Vec[T], Query[T], []T]

// NewContainer returns an empty container over sorted vectors ordered by cmp.
func NewContainer[T any](cmp func(a, b T) int, optFns ...dynamize.Option) (*Container[T], error) {
	return dynamize.New(New(cmp), optFns...)
}

// Queue is a max-priority queue. Elements come out in descending order;
// equal elements come out in no particular order.
//
// Like the underlying container, a Queue allows concurrent readers (Peek,
// Len) alongside a single writer.
type Queue[T any] struct {
	c   *Container[T]
	cmp func(a, b T) int
}

// NewQueue returns an empty queue ordered by cmp.
func NewQueue[T any](cmp func(a, b T) int, optFns ...dynamize.Option) (*Queue[T], error) {
	c, err := NewContainer(cmp, optFns...)
	if err != nil {
		return nil, err
	}
	return &Queue[T]{c: c, cmp: cmp}, nil
}

// Container exposes the underlying container.
func (q *Queue[T]) Container() *Container[T] { return q.c }

// Push adds x.
func (q *Queue[T]) Push(x T) error {
	return q.c.Insert(x)
}

// Peek returns the largest element without removing it.
func (q *Queue[T]) Peek() (T, bool, error) {
	top, err := q.c.Query(Max[T](), MaxOf(q.cmp))
	if err != nil || len(top) == 0 {
		var zero T
		return zero, false, err
	}
	return top[0], true, nil
}

// Pop removes and returns the largest element.
func (q *Queue[T]) Pop() (T, bool, error) {
	top, ok, err := q.Peek()
	if err != nil || !ok {
		return top, ok, err
	}
	if err := q.c.Delete(top); err != nil {
		var zero T
		return zero, false, err
	}
	return top, true, nil
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int { return q.c.Live() }

// IsEmpty reports whether the queue holds no element.
func (q *Queue[T]) IsEmpty() bool { return q.c.IsEmpty() }
