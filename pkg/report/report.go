// Package report renders type histories into the per-component change log:
//
//	+###com/example/Widget
//	@1.0
//	+#render()V
//	@2.0
//	*#render()V[deprecated]
//	@3.0
//	-###com/example/Widget
//
// Every type block starts with an empty line. A release marker precedes the
// lines of each release that has events.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/odvcencio/apitrail/pkg/diff"
	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/version"
)

// WriteError reports a change log that could not be written. It fails only
// the component it belongs to.
type WriteError struct {
	Coordinate discovery.Coordinate
	Path       string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write report %s for %s: %v", e.Path, e.Coordinate, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FileName returns the change log file name for coord.
func FileName(coord discovery.Coordinate) string {
	return coord.String() + ".txt"
}

// Format writes diffs to w.
func Format(w io.Writer, diffs []diff.TypeDiff) error {
	bw := bufio.NewWriter(w)
	for _, td := range diffs {
		var cur version.Label
		for _, c := range td.Changes {
			switch c.Type {
			case diff.TypeIntroduced:
				fmt.Fprintf(bw, "\n+###%s\n@%s\n", td.Name, c.Release)
				cur = c.Release
			case diff.TypeRemoved:
				fmt.Fprintf(bw, "@%s\n-###%s\n", c.Release, td.Name)
				cur = c.Release
			default:
				if c.Release != cur {
					fmt.Fprintf(bw, "@%s\n", c.Release)
					cur = c.Release
				}
				fmt.Fprintf(bw, "%s%s%s\n", prefix(c.Type), c.Member, c.Entry)
			}
		}
	}
	return bw.Flush()
}

func prefix(t diff.ChangeType) string {
	switch t {
	case diff.MemberAdded:
		return "+#"
	case diff.MemberModified:
		return "*#"
	default:
		return "-#"
	}
}

// WriteFile writes the change log of coord into dir and returns its path. The
// file is written to a temporary name first and renamed into place, so a
// failed write never leaves a truncated log behind.
func WriteFile(dir string, coord discovery.Coordinate, diffs []diff.TypeDiff) (string, error) {
	dest := filepath.Join(dir, FileName(coord))
	fail := func(err error) (string, error) {
		return "", &WriteError{Coordinate: coord, Path: dest, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-report-*")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()

	if err := Format(tmp, diffs); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fail(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fail(err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fail(err)
	}
	return dest, nil
}
