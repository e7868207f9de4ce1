package surface

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/odvcencio/apitrail/pkg/classfile"
)

// maxEntrySize bounds the uncompressed size of a single class entry.
const maxEntrySize = 64 << 20

// ArchiveError reports an archive, or one entry of it, that could not be read.
type ArchiveError struct {
	Path  string
	Entry string // empty when the archive as a whole failed
	Err   error
}

func (e *ArchiveError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("read archive %s!%s: %v", e.Path, e.Entry, e.Err)
	}
	return fmt.Sprintf("read archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// Module is one successfully decoded class entry.
type Module struct {
	Name    string
	Public  bool
	Members *Members
}

// Archive is the decode result of one archive. Modules are in entry order.
type Archive struct {
	Path    string
	Modules []Module
	// Errors holds one *classfile.DecodeError or *ArchiveError per entry
	// that was skipped.
	Errors []error
}

// Complete reports whether every class entry could at least be read. Decode
// errors depend only on the bytes, so an archive that failed to decode some
// entries is still complete.
func (a *Archive) Complete() bool {
	for _, err := range a.Errors {
		var ae *ArchiveError
		if errors.As(err, &ae) {
			return false
		}
	}
	return true
}

// ReadArchive reads and decodes the archive at path.
func ReadArchive(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArchiveError{Path: path, Err: err}
	}
	return DecodeArchive(path, data)
}

// DecodeArchive decodes every class entry of the zip container data. It
// fails only when the container itself cannot be opened; per-entry failures
// are collected in Archive.Errors.
func DecodeArchive(path string, data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ArchiveError{Path: path, Err: err}
	}
	a := &Archive{Path: path}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		raw, err := readEntry(f)
		if err != nil {
			a.Errors = append(a.Errors, &ArchiveError{Path: path, Entry: f.Name, Err: err})
			continue
		}
		c, err := classfile.Decode(raw)
		if err != nil {
			var de *classfile.DecodeError
			if errors.As(err, &de) {
				de.Archive, de.Entry = path, f.Name
			}
			a.Errors = append(a.Errors, err)
			continue
		}
		a.Modules = append(a.Modules, Module{
			Name:    c.Name,
			Public:  c.Public(),
			Members: MembersOf(c),
		})
	}
	return a, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, fmt.Errorf("entry too large (%d bytes)", f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxEntrySize)
	}
	return data, nil
}
