// Package tombstone tracks logically deleted rows of one block.
//
// A Set is immutable once published: With returns a modified copy and leaves
// the receiver untouched, so snapshots that still reference the old set keep
// a consistent view.
package tombstone
