// Package surface aggregates the public API of a component across its
// releases: for every public type, which members each release declared and
// whether they were deprecated.
package surface

import (
	"slices"

	"github.com/odvcencio/apitrail/pkg/classfile"
	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/version"
)

// Entry is what the surface records about one member.
type Entry struct {
	Deprecated bool
}

// String is the display suffix used in reports.
func (e Entry) String() string {
	if e.Deprecated {
		return "[deprecated]"
	}
	return ""
}

// BecameDeprecated reports whether e marks a member deprecated that prev did not.
// The reverse transition is not a change.
func (e Entry) BecameDeprecated(prev Entry) bool {
	return e.Deprecated && !prev.Deprecated
}

// Members maps member signatures to entries, remembering insertion order.
type Members struct {
	order   []string
	entries map[string]Entry
}

// NewMembers returns an empty member map.
func NewMembers() *Members {
	return &Members{entries: make(map[string]Entry)}
}

// MembersOf collects the public members of a decoded class in declaration order.
func MembersOf(c *classfile.Class) *Members {
	m := NewMembers()
	for _, mem := range c.Members {
		if mem.Access&classfile.AccPublic == 0 {
			continue
		}
		m.Set(mem.Signature(), Entry{Deprecated: mem.Deprecated})
	}
	return m
}

// Set records e under sig. An existing signature keeps its position.
func (m *Members) Set(sig string, e Entry) {
	if _, ok := m.entries[sig]; !ok {
		m.order = append(m.order, sig)
	}
	m.entries[sig] = e
}

// Get returns the entry for sig.
func (m *Members) Get(sig string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	e, ok := m.entries[sig]
	return e, ok
}

// Len returns the number of members.
func (m *Members) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Signatures returns the member signatures in insertion order.
func (m *Members) Signatures() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.order)
}

// Equal reports whether both maps hold the same signatures with the same
// entries. Order is ignored.
func (m *Members) Equal(o *Members) bool {
	if m.Len() != o.Len() {
		return false
	}
	for _, sig := range m.Signatures() {
		e, ok := o.Get(sig)
		if !ok || e != m.entries[sig] {
			return false
		}
	}
	return true
}

// TypeHistory maps each release that declared a type publicly to its members.
type TypeHistory map[version.Label]*Members

// Component is the aggregated surface of one component.
type Component struct {
	Coordinate discovery.Coordinate
	// Releases holds every release whose archive could be read, including
	// releases that declared no public types.
	Releases *version.Set

	order []string
	types map[string]TypeHistory
}

// NewComponent returns an empty surface for coord.
func NewComponent(coord discovery.Coordinate) *Component {
	return &Component{
		Coordinate: coord,
		Releases:   version.NewSet(),
		types:      make(map[string]TypeHistory),
	}
}

// AddRelease registers a release without any types.
func (c *Component) AddRelease(l version.Label) {
	c.Releases.Add(l)
}

// Put records the members of a public type at release, replacing whatever
// that release recorded before.
func (c *Component) Put(typeName string, release version.Label, m *Members) {
	c.Releases.Add(release)
	h, ok := c.types[typeName]
	if !ok {
		h = make(TypeHistory)
		c.types[typeName] = h
		c.order = append(c.order, typeName)
	}
	h[release] = m
}

// TypeNames returns the declared types in the order they were first seen.
func (c *Component) TypeNames() []string {
	return slices.Clone(c.order)
}

// History returns the history of typeName, or nil.
func (c *Component) History(typeName string) TypeHistory {
	return c.types[typeName]
}

// Len returns the number of types.
func (c *Component) Len() int { return len(c.order) }
