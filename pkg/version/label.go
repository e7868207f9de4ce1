package version

import "slices"

// Label is the raw version string naming one release of a component.
// Equality is by raw value; ordering is Compare.
type Label string

func (l Label) String() string { return string(l) }

// Compare orders l against o with the package-level Compare.
func (l Label) Compare(o Label) int { return Compare(string(l), string(o)) }

// Less reports whether l sorts before o.
func (l Label) Less(o Label) bool { return l.Compare(o) < 0 }

// Sort orders labels in place.
func Sort(labels []Label) {
	slices.SortFunc(labels, Label.Compare)
}

// Set is a deduplicated, always-sorted collection of labels.
type Set struct {
	labels []Label
}

// NewSet returns a Set holding the given labels.
func NewSet(labels ...Label) *Set {
	s := &Set{}
	for _, l := range labels {
		s.Add(l)
	}
	return s
}

// Add inserts l at its ordered position. It reports false if l was already present.
func (s *Set) Add(l Label) bool {
	i, found := slices.BinarySearchFunc(s.labels, l, Label.Compare)
	if found {
		return false
	}
	s.labels = slices.Insert(s.labels, i, l)
	return true
}

// Len returns the number of labels.
func (s *Set) Len() int { return len(s.labels) }

// Labels returns the labels in ascending order. The slice is a copy.
func (s *Set) Labels() []Label {
	return slices.Clone(s.labels)
}
