package diff

import (
	"fmt"
	"strings"
)

// Summary counts changes by type across a set of type diffs.
type Summary struct {
	Types      int
	Introduced int
	Added      int
	Modified   int
	Removed    int
	Dropped    int // types removed
}

// Summarize tallies diffs.
func Summarize(diffs []TypeDiff) Summary {
	s := Summary{Types: len(diffs)}
	for _, d := range diffs {
		for _, c := range d.Changes {
			switch c.Type {
			case TypeIntroduced:
				s.Introduced++
			case MemberAdded:
				s.Added++
			case MemberModified:
				s.Modified++
			case MemberRemoved:
				s.Removed++
			case TypeRemoved:
				s.Dropped++
			}
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d types: +%d ~%d -%d members, %d types removed",
		s.Types, s.Added, s.Modified, s.Removed, s.Dropped)
}

// FormatTypeDiff produces a human-readable listing of one type's history.
//
// Output format:
//
//	com/example/Widget:
//	  @1.0 introduced
//	  @1.0 + render()V
//	  @2.0 ~ render()V [deprecated]
//	  @3.0 - render()V [deprecated]
//	  @4.0 removed
func FormatTypeDiff(d TypeDiff) string {
	if len(d.Changes) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", d.Name)
	for _, c := range d.Changes {
		var marker string
		switch c.Type {
		case TypeIntroduced:
			fmt.Fprintf(&b, "  @%s introduced\n", c.Release)
			continue
		case TypeRemoved:
			fmt.Fprintf(&b, "  @%s removed\n", c.Release)
			continue
		case MemberAdded:
			marker = "+"
		case MemberModified:
			marker = "~"
		case MemberRemoved:
			marker = "-"
		}
		line := fmt.Sprintf("  @%s %s %s %s", c.Release, marker, c.Member, c.Entry)
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}
