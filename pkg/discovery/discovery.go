// Package discovery finds archives under a repository root and groups them
// by component coordinate using the <group path>/<artifact>/<release>/<file>
// directory convention.
package discovery

import (
	"cmp"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/odvcencio/apitrail/pkg/version"
)

// Coordinate identifies a component by group and artifact.
type Coordinate struct {
	Group    string
	Artifact string
}

// String renders the coordinate as "group&artifact", which is also the
// report file stem.
func (c Coordinate) String() string { return c.Group + "&" + c.Artifact }

// Compare orders coordinates by group, then artifact.
func (c Coordinate) Compare(o Coordinate) int {
	return cmp.Or(cmp.Compare(c.Group, o.Group), cmp.Compare(c.Artifact, o.Artifact))
}

// Error reports an archive path that does not follow the repository layout.
// It aborts discovery as a whole.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discovery: %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("discovery: %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Components maps each coordinate to its archive paths, sorted and unique.
type Components map[Coordinate][]string

// Coordinates returns the keys in Compare order.
func (c Components) Coordinates() []Coordinate {
	out := make([]Coordinate, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	slices.SortFunc(out, Coordinate.Compare)
	return out
}

// Archives returns the total number of archives across all components.
func (c Components) Archives() int {
	n := 0
	for _, paths := range c {
		n += len(paths)
	}
	return n
}

// Options controls Discover.
type Options struct {
	// Extensions lists archive extensions without the dot, matched
	// case-insensitively. Empty means "jar".
	Extensions []string
	// Limit caps the number of archives enumerated; zero means no cap.
	Limit int
}

// Discover enumerates archives under root and groups them.
func Discover(root string, opts Options) (Components, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{"jar"}
	}
	paths, err := FindFiles(root, ExtensionFilter(exts...), opts.Limit)
	if err != nil {
		return nil, err
	}
	return Group(root, paths)
}

// Group assigns each archive path to its coordinate. Any path that does not
// sit at least two directories below root fails the whole grouping. An
// archive directly under <root>/<artifact>/<release> has an empty group.
func Group(root string, paths []string) (Components, error) {
	root = filepath.Clean(root)
	out := make(Components)
	for _, p := range paths {
		coord, err := CoordinateOf(root, p)
		if err != nil {
			return nil, err
		}
		out[coord] = append(out[coord], filepath.Clean(p))
	}
	for coord, ps := range out {
		slices.Sort(ps)
		out[coord] = slices.Compact(ps)
	}
	return out, nil
}

// CoordinateOf derives the coordinate of one archive path relative to root.
func CoordinateOf(root, path string) (Coordinate, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Coordinate{}, &Error{Path: path, Reason: "not under root " + root, Err: err}
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return Coordinate{}, &Error{Path: path, Reason: "not under root " + root}
	}
	parts := strings.Split(rel, "/")
	if len(parts) < 3 {
		return Coordinate{}, &Error{
			Path:   path,
			Reason: "expected [<group>/]<artifact>/<release>/<archive> below root",
		}
	}
	n := len(parts)
	return Coordinate{
		Group:    strings.Join(parts[:n-3], "."),
		Artifact: parts[n-3],
	}, nil
}

// ReleaseOf returns the release label of an archive: its parent directory name.
func ReleaseOf(path string) version.Label {
	return version.Label(filepath.Base(filepath.Dir(path)))
}

// IsError reports whether err is a discovery layout error.
func IsError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
