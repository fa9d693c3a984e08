package block

import (
	"github.com/hupe1980/dynamize/internal/tombstone"
	"github.com/hupe1980/dynamize/static"
)

// Block is one immutable structure occupying a slot at Level.
type Block[S any] struct {
	Level     int
	Seq       uint64 // creation order, unique within a Store lineage
	Structure S
	Size      int

	deleted *tombstone.Set
}

// Live returns the number of rows not logically deleted.
func (b *Block[S]) Live() int {
	return b.Size - int(b.deleted.Cardinality())
}

// Dead returns the number of logically deleted rows.
func (b *Block[S]) Dead() int {
	return int(b.deleted.Cardinality())
}

// Deleted returns the block's tombstones as seen by the capability. The
// result is a nil interface when nothing is deleted.
func (b *Block[S]) Deleted() static.Bitmap {
	if b.deleted.IsEmpty() {
		return nil
	}
	return b.deleted
}

// IsDeleted reports whether row is logically deleted.
func (b *Block[S]) IsDeleted(row uint32) bool {
	return b.deleted.Contains(row)
}

// withDeleted returns a copy of b with row marked deleted.
func (b *Block[S]) withDeleted(row uint32) *Block[S] {
	c := *b
	c.deleted = b.deleted.With(row)
	return &c
}
