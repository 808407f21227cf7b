package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Upload is an in-progress upload. Bytes are written to a temp file inside
// the storage root; Commit renames it onto the destination name and Abort
// removes it. Exactly one of Commit or Abort must be called, after which the
// Upload is spent. An Upload is owned by a single session and is not safe for
// concurrent use.
type Upload struct {
	store    *Store
	name     string
	tmpPath  string
	file     *os.File
	written  int64
	finished bool
}

// BeginUpload validates the destination name, claims it against concurrent
// uploads, and opens a temp file for the incoming bytes.
//
// Parameters:
//   - name: The client-supplied destination filename
//
// Returns:
//   - The Upload to stream bytes into
//   - ErrInvalidName, ErrUploadInProgress, or an error if the temp file
//     cannot be created
func (s *Store) BeginUpload(name string) (*Upload, error) {
	if _, err := s.resolve(name); err != nil {
		return nil, err
	}

	if !s.inflight.claim(name) {
		return nil, fmt.Errorf("%w: %s", ErrUploadInProgress, name)
	}

	tmpPath := filepath.Join(s.root, ".upload-"+uuid.NewString()+uploadSuffix)
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		s.inflight.release(name)
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	return &Upload{
		store:   s,
		name:    name,
		tmpPath: tmpPath,
		file:    f,
	}, nil
}

// Write appends p to the upload. It implements io.Writer.
func (u *Upload) Write(p []byte) (int, error) {
	n, err := u.file.Write(p)
	u.written += int64(n)
	return n, err
}

// BytesWritten returns the number of content bytes received so far.
//
// Returns:
//   - The byte count written to the temp file
func (u *Upload) BytesWritten() int64 {
	return u.written
}

// Commit flushes the upload and renames it onto the destination name,
// replacing any previous file of that name. The in-flight claim is released.
//
// Returns:
//   - An error if flushing or renaming fails; the temp file is removed on failure
func (u *Upload) Commit() error {
	if u.finished {
		return nil
	}
	u.finished = true
	defer u.store.inflight.release(u.name)

	if err := u.file.Sync(); err != nil {
		_ = u.file.Close()
		_ = os.Remove(u.tmpPath)
		return fmt.Errorf("failed to flush upload: %w", err)
	}
	if err := u.file.Close(); err != nil {
		_ = os.Remove(u.tmpPath)
		return fmt.Errorf("failed to close upload: %w", err)
	}

	dest := filepath.Join(u.store.root, u.name)
	if err := os.Rename(u.tmpPath, dest); err != nil {
		_ = os.Remove(u.tmpPath)
		return fmt.Errorf("failed to finalize upload: %w", err)
	}

	return nil
}

// Abort discards the upload: the temp file is closed and removed and the
// in-flight claim is released. The destination path is left untouched.
// Safe to call after Commit, in which case it is a no-op.
//
// Returns:
//   - An error if removing the temp file fails
func (u *Upload) Abort() error {
	if u.finished {
		return nil
	}
	u.finished = true
	defer u.store.inflight.release(u.name)

	_ = u.file.Close()
	if err := os.Remove(u.tmpPath); err != nil {
		return fmt.Errorf("failed to remove upload file: %w", err)
	}

	return nil
}
