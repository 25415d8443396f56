package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a compressed set of uint32 values.
type Set struct {
	rb *roaring.Bitmap
}

// New creates an empty set.
func New() *Set {
	return &Set{rb: roaring.New()}
}

// Add inserts v and reports whether it was absent.
func (s *Set) Add(v uint32) bool {
	return s.rb.CheckedAdd(v)
}

// Contains reports whether v is in the set.
func (s *Set) Contains(v uint32) bool {
	return s.rb.Contains(v)
}

// IsEmpty returns true if the set is empty.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of values in the set.
func (s *Set) Cardinality() int {
	return int(s.rb.GetCardinality())
}

// And intersects s with other in place.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// Values returns an iterator over the set in ascending order.
func (s *Set) Values() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// ToSlice returns the values in ascending order.
func (s *Set) ToSlice() []uint32 {
	return s.rb.ToArray()
}
