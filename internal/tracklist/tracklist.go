// Package tracklist holds the per-file collection of recognized tracks
// and the append-only results file they are persisted to.
package tracklist

// Set is an ordered, duplicate-free collection of canonical track
// strings. Order is the order in which each distinct track was first
// recognized. It is owned by a single sequencer run and needs no locking.
type Set struct {
	order []string
	seen  map[string]bool
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]bool)}
}

// Add inserts track unless it is already present. Returns true when the
// track was new.
func (s *Set) Add(track string) bool {
	if s.seen[track] {
		return false
	}
	s.seen[track] = true
	s.order = append(s.order, track)
	return true
}

// Contains reports whether track was recognized before.
func (s *Set) Contains(track string) bool {
	return s.seen[track]
}

// Len returns the number of distinct tracks.
func (s *Set) Len() int {
	return len(s.order)
}

// Tracks returns the distinct tracks in first-recognition order.
func (s *Set) Tracks() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
