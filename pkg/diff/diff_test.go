package diff

import (
	"reflect"
	"strings"
	"testing"

	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/surface"
	"github.com/odvcencio/apitrail/pkg/version"
)

// members builds a member map from "sig" or "sig!" (deprecated) strings.
func members(sigs ...string) *surface.Members {
	m := surface.NewMembers()
	for _, s := range sigs {
		dep := strings.HasSuffix(s, "!")
		m.Set(strings.TrimSuffix(s, "!"), surface.Entry{Deprecated: dep})
	}
	return m
}

func labels(ls ...string) []version.Label {
	out := make([]version.Label, len(ls))
	for i, l := range ls {
		out[i] = version.Label(l)
	}
	return out
}

func describe(cs []Change) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Type.String() + "@" + string(c.Release)
		if c.Member != "" {
			out[i] += " " + c.Member + c.Entry.String()
		}
	}
	return out
}

func expectChanges(t *testing.T, got []Change, want ...string) {
	t.Helper()
	if g := describe(got); !reflect.DeepEqual(g, want) {
		t.Fatalf("changes:\n got  %q\n want %q", g, want)
	}
}

// Test 1: the type is introduced with all its members at its first release.
func TestDiffType_Introduced(t *testing.T) {
	h := surface.TypeHistory{"1.0": members("a()V", "b()V!")}
	d := DiffType("T", h, labels("0.9", "1.0"))
	if d.Name != "T" {
		t.Errorf("Name = %q, want %q", d.Name, "T")
	}
	expectChanges(t, d.Changes,
		"introduced@1.0",
		"added@1.0 a()V",
		"added@1.0 b()V[deprecated]",
	)
}

// Test 2: identical member maps in consecutive releases produce nothing.
func TestDiffType_UnchangedReleaseIsSilent(t *testing.T) {
	h := surface.TypeHistory{
		"1.0": members("a()V"),
		"1.1": members("a()V"),
	}
	d := DiffType("T", h, labels("1.0", "1.1"))
	expectChanges(t, d.Changes, "introduced@1.0", "added@1.0 a()V")
}

func TestDiffType_ReorderedReleaseIsSilent(t *testing.T) {
	h := surface.TypeHistory{
		"1.0": members("a()V", "b()V"),
		"1.1": members("b()V", "a()V"),
		"1.2": members("b()V", "a()V!"),
	}
	d := DiffType("T", h, labels("1.0", "1.1", "1.2"))
	expectChanges(t, d.Changes,
		"introduced@1.0",
		"added@1.0 a()V",
		"added@1.0 b()V",
		"modified@1.2 a()V[deprecated]",
	)
}

// Test 3: added and modified follow the current order, removed the previous order.
func TestDiffType_MemberOrdering(t *testing.T) {
	h := surface.TypeHistory{
		"1": members("x()V", "a()V", "y()V"),
		"2": members("n()V", "a()V!", "m()V"),
	}
	d := DiffType("T", h, labels("1", "2"))
	expectChanges(t, d.Changes[4:],
		"added@2 n()V",
		"modified@2 a()V[deprecated]",
		"added@2 m()V",
		"removed@2 x()V",
		"removed@2 y()V",
	)
}

// Test 4: removal shows the entry as it was in the previous release.
func TestDiffType_RemovedUsesPreviousEntry(t *testing.T) {
	h := surface.TypeHistory{
		"1": members("a()V!"),
		"2": members(),
	}
	d := DiffType("T", h, labels("1", "2"))
	last := d.Changes[len(d.Changes)-1]
	if last.Type != MemberRemoved || !last.Entry.Deprecated {
		t.Fatalf("last change = %+v, want deprecated removal", last)
	}
}

// Test 5: only false -> true counts as a modification.
func TestDiffType_DeprecationTransition(t *testing.T) {
	h := surface.TypeHistory{
		"1": members("a()V"),
		"2": members("a()V!"),
		"3": members("a()V"),
		"4": members("a()V!"),
	}
	d := DiffType("T", h, labels("1", "2", "3", "4"))
	expectChanges(t, d.Changes,
		"introduced@1",
		"added@1 a()V",
		"modified@2 a()V[deprecated]",
		"modified@4 a()V[deprecated]",
	)
}

// Test 6: the first gap removes the type and ends its history.
func TestDiffType_StopsAtFirstGap(t *testing.T) {
	h := surface.TypeHistory{
		"R1": members("a()V"),
		"R2": members("a()V"),
		"R4": members("a()V", "b()V"),
	}
	d := DiffType("T", h, labels("R1", "R2", "R3", "R4"))
	expectChanges(t, d.Changes,
		"introduced@R1",
		"added@R1 a()V",
		"type-removed@R3",
	)
}

// Test 7: a type never present yields no changes.
func TestDiffType_Empty(t *testing.T) {
	d := DiffType("T", surface.TypeHistory{}, labels("1", "2"))
	if len(d.Changes) != 0 {
		t.Fatalf("expected no changes, got %q", describe(d.Changes))
	}
}

func widgetComponent() *surface.Component {
	c := surface.NewComponent(discovery.Coordinate{Group: "com.example", Artifact: "lib"})
	c.Put("Widget", "2.0", members("render()!"))
	c.Put("Widget", "1.0", members("render()", "legacy()"))
	c.Put("Widget", "1.1", members("render()"))
	return c
}

func TestDiffComponent_Widget(t *testing.T) {
	diffs := DiffComponent(widgetComponent())
	if len(diffs) != 1 {
		t.Fatalf("expected 1 type diff, got %d", len(diffs))
	}
	expectChanges(t, diffs[0].Changes,
		"introduced@1.0",
		"added@1.0 render()",
		"added@1.0 legacy()",
		"removed@1.1 legacy()",
		"modified@2.0 render()[deprecated]",
	)
}

func TestDiffComponent_TypeOrderAndReleaseWalk(t *testing.T) {
	c := surface.NewComponent(discovery.Coordinate{})
	c.AddRelease("1.0")
	c.AddRelease("1.1")
	c.Put("B", "1.1", members("b()V"))
	c.Put("A", "1.0", members("a()V"))

	diffs := DiffComponent(c)
	if diffs[0].Name != "B" || diffs[1].Name != "A" {
		t.Fatalf("type order = %s, %s; want B, A", diffs[0].Name, diffs[1].Name)
	}
	expectChanges(t, diffs[1].Changes, "introduced@1.0", "added@1.0 a()V", "type-removed@1.1")
}

func TestDiffComponent_Deterministic(t *testing.T) {
	c := widgetComponent()
	c.Put("Gadget", "1.1", members("z()V", "y()V", "x()V"))
	first := DiffComponent(c)
	for i := 0; i < 20; i++ {
		if got := DiffComponent(c); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n%v\n%v", i, got, first)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(DiffComponent(widgetComponent()))
	want := Summary{Types: 1, Introduced: 1, Added: 2, Modified: 1, Removed: 1}
	if s != want {
		t.Fatalf("Summarize = %+v, want %+v", s, want)
	}
	if got := s.String(); got != "1 types: +2 ~1 -1 members, 0 types removed" {
		t.Errorf("String = %q", got)
	}
}

func TestFormatTypeDiff(t *testing.T) {
	got := FormatTypeDiff(DiffComponent(widgetComponent())[0])
	want := "Widget:\n" +
		"  @1.0 introduced\n" +
		"  @1.0 + render()\n" +
		"  @1.0 + legacy()\n" +
		"  @1.1 - legacy()\n" +
		"  @2.0 ~ render() [deprecated]\n"
	if got != want {
		t.Fatalf("FormatTypeDiff =\n%s\nwant\n%s", got, want)
	}
	if FormatTypeDiff(TypeDiff{Name: "X"}) != "" {
		t.Error("empty diff should format to empty string")
	}
}

func TestChangeTypeString(t *testing.T) {
	if ChangeType(99).String() != "unknown" {
		t.Error("unexpected string for unknown change type")
	}
}
