package static

// Capability is implemented by a static structure type S holding elements of
// type T, answering queries of type Q with partial results of type R.
//
// Implementations must be safe for concurrent Query, Iterate and Size calls on
// the same structure: a built structure is immutable and may be shared by
// several published snapshots.
type Capability[T, S, Q, R any] interface {
	// Build constructs a structure over elems. The slice is owned by the
	// structure after the call.
	Build(elems []T) (S, error)

	// Query evaluates q against s. deleted is nil when the block holds no
	// logically deleted rows; otherwise rows contained in it must be ignored.
	Query(s S, q Q, deleted Bitmap) (R, error)

	// Iterate calls fn once for every row of s. Iteration stops at the first
	// error returned by fn, which Iterate returns.
	Iterate(s S, fn func(row uint32, elem T) error) error

	// Size returns the number of rows in s, deleted or not.
	Size(s S) int
}

// Locator is an optional extension of Capability. When implemented, delete
// uses it to find rows equal to elem instead of scanning the whole block.
type Locator[T, S any] interface {
	// Locate calls fn for each row of s holding an element equal to elem,
	// until fn returns false.
	Locate(s S, elem T, fn func(row uint32) bool)
}

// ResultCloner is an optional extension of Capability. When implemented, a
// query cache keeps its own copy of every result and hands out copies, so
// callers may modify what they receive.
type ResultCloner[R any] interface {
	CloneResult(r R) R
}

// Bitmap is a read-only, block-local set of row numbers.
type Bitmap interface {
	// Contains reports whether row is present in the set.
	Contains(row uint32) bool

	// Cardinality returns the number of rows in the set.
	Cardinality() uint64

	// ForEach calls fn for each row in ascending order. Stop early if fn
	// returns false.
	ForEach(fn func(row uint32) bool)
}

// Alive reports whether row survives the tombstones in deleted.
// A nil bitmap deletes nothing.
func Alive(deleted Bitmap, row uint32) bool {
	return deleted == nil || !deleted.Contains(row)
}
