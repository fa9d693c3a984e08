package tombstone

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a copy-on-write set of deleted row numbers backed by a roaring
// bitmap. The nil *Set is a valid empty set.
type Set struct {
	rb *roaring.Bitmap
}

// New returns a set holding rows.
func New(rows ...uint32) *Set {
	rb := roaring.New()
	rb.AddMany(rows)
	rb.RunOptimize()
	return &Set{rb: rb}
}

// With returns a copy of s that also contains row.
func (s *Set) With(row uint32) *Set {
	var rb *roaring.Bitmap
	if s == nil {
		rb = roaring.New()
	} else {
		rb = s.rb.Clone()
	}
	rb.Add(row)
	return &Set{rb: rb}
}

// Shift returns a copy of s with every row moved up by offset.
func (s *Set) Shift(offset uint32) *Set {
	if s.IsEmpty() {
		return nil
	}
	if offset == 0 {
		return s
	}
	rb := roaring.AddOffset(s.rb, offset)
	return &Set{rb: rb}
}

// Union returns a set holding the rows of every non-empty input, or nil when
// all of them are empty.
func Union(sets ...*Set) *Set {
	parts := make([]*roaring.Bitmap, 0, len(sets))
	for _, s := range sets {
		if !s.IsEmpty() {
			parts = append(parts, s.rb)
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return &Set{rb: parts[0].Clone()}
	}
	rb := roaring.FastOr(parts...)
	rb.RunOptimize()
	return &Set{rb: rb}
}

// Contains reports whether row is deleted.
func (s *Set) Contains(row uint32) bool {
	if s == nil {
		return false
	}
	return s.rb.Contains(row)
}

// Cardinality returns the number of deleted rows.
func (s *Set) Cardinality() uint64 {
	if s == nil {
		return 0
	}
	return s.rb.GetCardinality()
}

// IsEmpty reports whether no row is deleted.
func (s *Set) IsEmpty() bool {
	return s == nil || s.rb.IsEmpty()
}

// ForEach calls fn for each deleted row in ascending order until fn returns
// false.
func (s *Set) ForEach(fn func(row uint32) bool) {
	if s == nil {
		return
	}
	it := s.rb.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			return
		}
	}
}

// Rows returns the deleted rows in ascending order.
func (s *Set) Rows() []uint32 {
	if s == nil {
		return nil
	}
	return s.rb.ToArray()
}
