// Package version orders release labels the way artifact repositories do:
// dotted numeric segments compare numerically, and pre-release qualifiers
// rank below the unqualified release.
package version

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalid is returned by Parse for the empty label, the only label the
// tokenizer cannot handle.
var ErrInvalid = errors.New("invalid version label")

// Known pre-release and post-release qualifiers in ascending order. The empty
// qualifier is the plain release.
var qualifiers = []string{"alpha", "beta", "milestone", "rc", "snapshot", "", "sp"}

var qualifierAliases = map[string]string{
	"ga":      "",
	"final":   "",
	"release": "",
	"cr":      "rc",
}

var releaseQualifier = comparableQualifier("")

// Version is a parsed release label.
type Version struct {
	raw   string
	items *listItem
}

// Parse tokenizes label into numeric and qualifier items. Tokens are split at
// '.', at '-', '+' and '_' (which open a nested sub-list) and at every
// digit/non-digit transition; any other character, whitespace included, is
// qualifier text. Trailing zero and release-equivalent items are
// dropped, so "1", "1.0" and "1.0.0-ga" parse to the same version.
func Parse(label string) (Version, error) {
	if label == "" {
		return Version{}, fmt.Errorf("%w: empty", ErrInvalid)
	}
	return Version{raw: label, items: parseItems(strings.ToLower(label))}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(label string) Version {
	v, err := Parse(label)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the label as it was given to Parse.
func (v Version) String() string { return v.raw }

// Canonical renders the normalized item tree, e.g. "1.0.0-GA" -> "1".
func (v Version) Canonical() string {
	if v.items == nil {
		return ""
	}
	return v.items.String()
}

// Compare orders two parsed versions. Distinct labels may compare equal
// here ("1.0" and "1"); use the package-level Compare for a strict order.
func (v Version) Compare(o Version) int {
	switch {
	case v.items == nil && o.items == nil:
		return 0
	case v.items == nil:
		return -1
	case o.items == nil:
		return 1
	}
	return v.items.compare(o.items)
}

// Compare is a strict total order over raw labels. Labels that compare equal
// after normalization are ordered by their raw text; a label that does not
// parse (only the empty label) sorts before every parseable label.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	if c := va.Compare(vb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

type item interface {
	isNull() bool
	// compare orders the receiver against other; other may be nil, which
	// stands for a missing trailing item.
	compare(other item) int
	String() string
}

// intItem holds the decimal digits of a numeric token without leading zeros.
// Digits are compared as strings so arbitrarily long numbers never overflow.
type intItem string

func newIntItem(digits string) intItem {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	return intItem(digits)
}

func (i intItem) isNull() bool { return i == "0" }

func (i intItem) compare(other item) int {
	switch o := other.(type) {
	case nil:
		if i.isNull() {
			return 0
		}
		return 1
	case intItem:
		if len(i) != len(o) {
			if len(i) < len(o) {
				return -1
			}
			return 1
		}
		return strings.Compare(string(i), string(o))
	default:
		// Numbers rank above qualifiers and nested lists.
		return 1
	}
}

func (i intItem) String() string { return string(i) }

type stringItem string

func newStringItem(s string, followedByDigit bool) stringItem {
	if followedByDigit && len(s) == 1 {
		switch s {
		case "a":
			s = "alpha"
		case "b":
			s = "beta"
		case "m":
			s = "milestone"
		}
	}
	if alias, ok := qualifierAliases[s]; ok {
		s = alias
	}
	return stringItem(s)
}

// comparableQualifier maps known qualifiers to their rank and places unknown
// qualifiers after all known ones, ordered lexicographically.
func comparableQualifier(q string) string {
	if i := slices.Index(qualifiers, q); i >= 0 {
		return strconv.Itoa(i)
	}
	return strconv.Itoa(len(qualifiers)) + "-" + q
}

func (s stringItem) isNull() bool { return comparableQualifier(string(s)) == releaseQualifier }

func (s stringItem) compare(other item) int {
	switch o := other.(type) {
	case nil:
		return strings.Compare(comparableQualifier(string(s)), releaseQualifier)
	case intItem:
		return -1
	case stringItem:
		return strings.Compare(comparableQualifier(string(s)), comparableQualifier(string(o)))
	default:
		return -1
	}
}

func (s stringItem) String() string { return string(s) }

type listItem struct {
	items []item
}

func (l *listItem) add(it item) { l.items = append(l.items, it) }

func (l *listItem) isNull() bool { return len(l.items) == 0 }

// normalize drops null items from the tail. Nested lists do not stop the
// scan, so "1.0-alpha" normalizes to "1-alpha".
func (l *listItem) normalize() {
	for i := len(l.items) - 1; i >= 0; i-- {
		it := l.items[i]
		if it.isNull() {
			l.items = slices.Delete(l.items, i, i+1)
			continue
		}
		if _, ok := it.(*listItem); !ok {
			break
		}
	}
}

func (l *listItem) compare(other item) int {
	switch o := other.(type) {
	case nil:
		if len(l.items) == 0 {
			return 0
		}
		return l.items[0].compare(nil)
	case intItem:
		return -1
	case stringItem:
		return 1
	case *listItem:
		n := max(len(l.items), len(o.items))
		for i := 0; i < n; i++ {
			var left, right item
			if i < len(l.items) {
				left = l.items[i]
			}
			if i < len(o.items) {
				right = o.items[i]
			}
			var c int
			switch {
			case left == nil && right == nil:
				c = 0
			case left == nil:
				c = -right.compare(nil)
			default:
				c = left.compare(right)
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
	return 0
}

func (l *listItem) String() string {
	var b strings.Builder
	for i, it := range l.items {
		if i > 0 {
			if _, ok := it.(*listItem); ok {
				b.WriteByte('-')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString(it.String())
	}
	return b.String()
}

func isSubListSeparator(c byte) bool {
	return c == '-' || c == '+' || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func parseToken(digits bool, tok string) item {
	if digits {
		return newIntItem(tok)
	}
	return newStringItem(tok, false)
}

func parseItems(s string) *listItem {
	root := &listItem{}
	list := root
	stack := []*listItem{root}

	push := func() {
		next := &listItem{}
		list.add(next)
		list = next
		stack = append(stack, next)
	}

	digits := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.':
			if i == start {
				list.add(intItem("0"))
			} else {
				list.add(parseToken(digits, s[start:i]))
			}
			start = i + 1
		case isSubListSeparator(c):
			if i == start {
				list.add(intItem("0"))
			} else {
				list.add(parseToken(digits, s[start:i]))
			}
			start = i + 1
			push()
		case isDigit(c):
			if !digits && i > start {
				list.add(newStringItem(s[start:i], true))
				start = i
				push()
			}
			digits = true
		default:
			if digits && i > start {
				list.add(parseToken(true, s[start:i]))
				start = i
				push()
			}
			digits = false
		}
	}
	if len(s) > start {
		list.add(parseToken(digits, s[start:]))
	}

	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].normalize()
	}
	return root
}
