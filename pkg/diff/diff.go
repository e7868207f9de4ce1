// Package diff walks the release history of each type in a component surface
// and reports when the type and its members appeared, changed and went away.
package diff

import (
	"github.com/odvcencio/apitrail/pkg/surface"
	"github.com/odvcencio/apitrail/pkg/version"
)

// ChangeType classifies what happened to a type or member at a release.
type ChangeType int

const (
	TypeIntroduced ChangeType = iota // First release declaring the type publicly.
	MemberAdded                      // Member absent from the previous release.
	MemberModified                   // Member became deprecated.
	MemberRemoved                    // Member present in the previous release only.
	TypeRemoved                      // First release missing a previously seen type.
)

func (c ChangeType) String() string {
	switch c {
	case TypeIntroduced:
		return "introduced"
	case MemberAdded:
		return "added"
	case MemberModified:
		return "modified"
	case MemberRemoved:
		return "removed"
	case TypeRemoved:
		return "type-removed"
	default:
		return "unknown"
	}
}

// Change is one event in a type's history.
type Change struct {
	Type    ChangeType
	Release version.Label
	// Member and Entry are set for member-level changes. Entry is the
	// current release's entry, or the previous one for MemberRemoved.
	Member string
	Entry  surface.Entry
}

// TypeDiff holds the ordered history of one declared type.
type TypeDiff struct {
	Name    string
	Changes []Change
}

// DiffComponent diffs every type of c in first-seen order across all of c's
// releases.
func DiffComponent(c *surface.Component) []TypeDiff {
	releases := c.Releases.Labels()
	names := c.TypeNames()
	out := make([]TypeDiff, 0, len(names))
	for _, name := range names {
		out = append(out, DiffType(name, c.History(name), releases))
	}
	return out
}

// DiffType walks releases in order. A type is introduced at the first
// release of h; from then on every release adds, deprecates or removes
// members relative to the one before. The first release without the type
// removes it and ends its history, even if a later release declares it again.
func DiffType(name string, h surface.TypeHistory, releases []version.Label) TypeDiff {
	td := TypeDiff{Name: name}
	var prev *surface.Members
	seen := false

	for _, rel := range releases {
		cur, ok := h[rel]
		if !ok {
			if seen {
				td.Changes = append(td.Changes, Change{Type: TypeRemoved, Release: rel})
				break
			}
			continue
		}
		if !seen {
			seen = true
			td.Changes = append(td.Changes, Change{Type: TypeIntroduced, Release: rel})
		}
		if cur.Equal(prev) {
			prev = cur
			continue
		}

		for _, sig := range cur.Signatures() {
			e, _ := cur.Get(sig)
			before, existed := prev.Get(sig)
			switch {
			case !existed:
				td.Changes = append(td.Changes, Change{Type: MemberAdded, Release: rel, Member: sig, Entry: e})
			case e.BecameDeprecated(before):
				td.Changes = append(td.Changes, Change{Type: MemberModified, Release: rel, Member: sig, Entry: e})
			}
		}
		for _, sig := range prev.Signatures() {
			if _, still := cur.Get(sig); still {
				continue
			}
			e, _ := prev.Get(sig)
			td.Changes = append(td.Changes, Change{Type: MemberRemoved, Release: rel, Member: sig, Entry: e})
		}
		prev = cur
	}
	return td
}
