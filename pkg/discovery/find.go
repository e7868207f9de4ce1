package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Filter selects candidate files during FindFiles.
type Filter func(path string, d fs.DirEntry) bool

// ExtensionFilter accepts regular files whose extension matches one of exts,
// ignoring case. Extensions are given without the leading dot.
func ExtensionFilter(exts ...string) Filter {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return func(path string, d fs.DirEntry) bool {
		if !d.Type().IsRegular() {
			return false
		}
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		return want[strings.ToLower(ext)]
	}
}

// FindFiles walks root in lexical order and returns every regular file
// accepted by filter. Symbolic links are not followed. A positive limit stops
// the walk once that many files were collected.
func FindFiles(root string, filter Filter, limit int) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filter != nil && !filter(path, d) {
			return nil
		}
		out = append(out, path)
		if limit > 0 && len(out) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}
