package sortedvec

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownQuery is returned for a zero or malformed Query.
var ErrUnknownQuery = errors.New("sortedvec: unknown query")

type queryKind uint8

const (
	kindInvalid queryKind = iota
	kindAll
	kindRange
	kindLookup
	kindMin
	kindMax
)

func (k queryKind) String() string {
	switch k {
	case kindAll:
		return "all"
	case kindRange:
		return "range"
	case kindLookup:
		return "lookup"
	case kindMin:
		return "min"
	case kindMax:
		return "max"
	default:
		return "invalid"
	}
}

// Query selects elements of a Vec. Construct it with All, Range, Lookup, Min
// or Max.
type Query[T any] struct {
	kind   queryKind
	lo, hi T
}

// All selects every live element.
func All[T any]() Query[T] { return Query[T]{kind: kindAll} }

// Range selects elements x with lo <= x <= hi.
func Range[T any](lo, hi T) Query[T] { return Query[T]{kind: kindRange, lo: lo, hi: hi} }

// Lookup selects elements equal to key.
func Lookup[T any](key T) Query[T] { return Query[T]{kind: kindLookup, lo: key} }

// Min selects the smallest live element of each block.
func Min[T any]() Query[T] { return Query[T]{kind: kindMin} }

// Max selects the largest live element of each block.
func Max[T any]() Query[T] { return Query[T]{kind: kindMax} }

// CacheKey derives a cache key from the %v formatting of the bounds.
func (q Query[T]) CacheKey() (string, bool) {
	switch q.kind {
	case kindRange:
		return fmt.Sprintf("%s:%v:%v", q.kind, q.lo, q.hi), true
	case kindLookup:
		return fmt.Sprintf("%s:%v", q.kind, q.lo), true
	case kindAll, kindMin, kindMax:
		return q.kind.String(), true
	default:
		return "", false
	}
}

func (q Query[T]) String() string {
	k, _ := q.CacheKey()
	return k
}

// MergeSorted combines ascending partial results into one ascending result.
func MergeSorted[T any](cmp func(a, b T) int) func(acc, next []T) []T {
	return func(acc, next []T) []T {
		if len(next) == 0 {
			return acc
		}
		if len(acc) == 0 {
			return next
		}

		out := make([]T, 0, len(acc)+len(next))
		i, j := 0, 0
		for i < len(acc) && j < len(next) {
			if cmp(next[j], acc[i]) < 0 {
				out = append(out, next[j])
				j++
			} else {
				out = append(out, acc[i])
				i++
			}
		}
		out = append(out, acc[i:]...)
		return append(out, next[j:]...)
	}
}

// MinOf keeps the smaller of two single-element results.
func MinOf[T any](cmp func(a, b T) int) func(acc, next []T) []T {
	return func(acc, next []T) []T {
		if len(next) == 0 {
			return acc
		}
		if len(acc) == 0 || cmp(next[0], acc[0]) < 0 {
			return next
		}
		return acc
	}
}

// MaxOf keeps the larger of two single-element results. On ties the earlier
// result wins.
func MaxOf[T any](cmp func(a, b T) int) func(acc, next []T) []T {
	return func(acc, next []T) []T {
		if len(next) == 0 {
			return acc
		}
		if len(acc) == 0 || cmp(next[0], acc[0]) > 0 {
			return next
		}
		return acc
	}
}

// Concat appends partial results in block order.
func Concat[T any](acc, next []T) []T {
	if len(acc) == 0 {
		return next
	}
	return append(slices.Clip(acc), next...)
}
