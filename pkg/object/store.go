// Package object is a content-addressed cache of decoded archive surfaces.
// Entries are keyed by the hash of the archive bytes, so a renamed or copied
// archive reuses the same entry and a rebuilt one never sees a stale result.
package object

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store keeps objects under a 2-character fan-out directory layout:
// objects/ab/cdef0123...
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the directory the store was opened on.
func (s *Store) Root() string { return s.root }

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) (string, error) {
	if len(h) < 3 || strings.ContainsAny(string(h), `/\.`) {
		return "", fmt.Errorf("invalid object key %q", h)
	}
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:])), nil
}

// Has reports whether the store contains an object under the given key.
func (s *Store) Has(h Hash) bool {
	p, err := s.objectPath(h)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Write stores data under key. The on-disk format is the zstd-compressed
// envelope "type len\0content". Writes are atomic: data is written to a
// temp file and then renamed into place.
func (s *Store) Write(key Hash, objType ObjectType, data []byte) error {
	dest, err := s.objectPath(key)
	if err != nil {
		return err
	}
	envelope := fmt.Sprintf("%s %d\x00", objType, len(data))
	raw, err := compressZstd(append([]byte(envelope), data...))
	if err != nil {
		return fmt.Errorf("object write compress: %w", err)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write close: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write rename: %w", err)
	}
	return nil
}

// Read retrieves the object stored under key, returning its type and raw
// content. A missing object yields an error wrapping fs.ErrNotExist.
func (s *Store) Read(key Hash) (ObjectType, []byte, error) {
	p, err := s.objectPath(key)
	if err != nil {
		return "", nil, err
	}
	compressed, err := os.ReadFile(p)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", key, err)
	}
	raw, err := decompressZstd(compressed)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: decompress: %w", key, err)
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid format (no NUL)", key)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("object read %s: invalid header %q", key, header)
	}
	objType := ObjectType(parts[0])
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: invalid length %q: %w", key, parts[1], err)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d)", key, length, len(content))
	}

	return objType, content, nil
}

// WriteArchive serializes and stores an ArchiveObj under key.
func (s *Store) WriteArchive(key Hash, a *ArchiveObj) error {
	return s.Write(key, TypeArchive, MarshalArchive(a))
}

// ReadArchive reads and deserializes the ArchiveObj stored under key.
func (s *Store) ReadArchive(key Hash) (*ArchiveObj, error) {
	objType, data, err := s.Read(key)
	if err != nil {
		return nil, err
	}
	if objType != TypeArchive {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", key, objType, TypeArchive)
	}
	return UnmarshalArchive(data)
}
