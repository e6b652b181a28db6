// Package compare tracks the vehicles a shopper has queued for side-by-side
// comparison.
package compare

import "slices"

// MaxSize is the largest number of vehicles that can be compared at once.
const MaxSize = 3

// MinCompare is the number of vehicles needed before a comparison can run.
const MinCompare = 2

// Set is an insertion-ordered set of at most MaxSize distinct vehicle ids.
// The zero value is an empty set. Set is not safe for concurrent use.
type Set struct {
	ids []string
}

// Toggle removes id if present, otherwise appends it when there is room.
// Adding to a full set is a silent no-op. Toggle reports whether the set
// changed.
func (s *Set) Toggle(id string) bool {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return true
	}
	if len(s.ids) >= MaxSize {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Remove drops id if present.
func (s *Set) Remove(id string) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

// Clear empties the set.
func (s *Set) Clear() { s.ids = nil }

// Contains reports whether id is queued.
func (s *Set) Contains(id string) bool { return slices.Contains(s.ids, id) }

// IDs returns the queued ids in insertion order.
func (s *Set) IDs() []string { return append([]string{}, s.ids...) }

// Len returns the number of queued ids.
func (s *Set) Len() int { return len(s.ids) }

// CanCompare reports whether enough vehicles are queued to compare.
func (s *Set) CanCompare() bool { return len(s.ids) >= MinCompare }

// Needed returns how many more vehicles must be added before CanCompare.
func (s *Set) Needed() int { return max(MinCompare-len(s.ids), 0) }
