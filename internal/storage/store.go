// Package storage implements the root-jailed file store uploads are written
// to and downloads are served from. All client-supplied names are validated
// against the storage root before any file is touched, and uploads go through
// a temp-file-and-rename cycle so a destination path never holds partial data.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// uploadSuffix marks in-progress upload temp files. Temp files are hidden
// from listings and cleaned up when a transfer is aborted.
const uploadSuffix = ".part"

var (
	// ErrInvalidName is returned for empty names, names with path
	// separators or traversal components, and names that resolve outside
	// the storage root.
	ErrInvalidName = errors.New("invalid filename")

	// ErrNotFound is returned when a requested file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUploadInProgress is returned when another session is currently
	// uploading to the same destination name.
	ErrUploadInProgress = errors.New("upload already in progress")
)

// Store is a file store rooted at a single directory. It is safe for
// concurrent use by many sessions; the only cross-session coordination is the
// in-flight upload name set.
type Store struct {
	root     string
	inflight *nameSet
}

// New creates a Store rooted at dir, creating the directory if needed.
//
// Parameters:
//   - dir: The storage root directory
//
// Returns:
//   - The new Store, or an error if the directory cannot be created or resolved
func New(dir string) (*Store, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &Store{
		root:     root,
		inflight: newNameSet(),
	}, nil
}

// Root returns the absolute path of the storage root directory.
//
// Returns:
//   - The storage root path
func (s *Store) Root() string {
	return s.root
}

// resolve validates a client-supplied filename and returns its absolute path
// inside the storage root. Names are single path components: separators,
// traversal sequences, and control characters are all rejected rather than
// normalized.
func (s *Store) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidName
	}

	if strings.ContainsAny(name, "/\\") || strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}

	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] == 0x7f {
			return "", ErrInvalidName
		}
	}

	path := filepath.Join(s.root, name)
	if filepath.Dir(path) != s.root {
		return "", ErrInvalidName
	}

	return path, nil
}

// List returns the names of the regular files in the storage root in sorted
// order. In-progress upload temp files are excluded.
//
// Returns:
//   - The sorted file names
//   - An error if the root directory cannot be read
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(entry.Name(), uploadSuffix) {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Open opens a stored file for reading.
//
// Parameters:
//   - name: The client-supplied filename
//
// Returns:
//   - The open file; the caller must close it
//   - ErrInvalidName, ErrNotFound, or another error if opening fails
func (s *Store) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, ErrNotFound
	}

	return f, nil
}
