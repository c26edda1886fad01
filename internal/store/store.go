// Package store keeps uploaded documents on disk between upload and
// transform. Files are grouped per session; a handle returned by Put must be
// released once the owning operation is done with it.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrInvalidName is returned when a file name cannot be used as a store key.
var ErrInvalidName = errors.New("invalid file name")

// Entry is a handle to one stored file.
type Entry struct {
	SessionID string
	Name      string
	Path      string
}

// Store is a directory of per-session subdirectories.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates the store root if needed.
func New(root string, logger *slog.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("store root is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &Store{root: root, logger: logger.With("component", "store")}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// SessionDir returns the directory holding a session's files.
func (s *Store) SessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

// cleanName reduces a client-supplied name to a bare file name.
func cleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// Put writes data under the session and name. An existing file with the
// same name is overwritten.
func (s *Store) Put(sessionID, name string, data []byte) (*Entry, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	base, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	dir := s.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", base, err)
	}

	s.logger.Debug("stored upload", "session", sessionID, "name", base, "bytes", len(data))
	return &Entry{SessionID: sessionID, Name: base, Path: path}, nil
}

// Read returns the stored bytes for an entry.
func (s *Store) Read(e *Entry) ([]byte, error) {
	if e == nil {
		return nil, errors.New("nil entry")
	}
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Name, err)
	}
	return data, nil
}

// Release deletes an entry's file. Releasing an already-removed entry is
// not an error.
func (s *Store) Release(e *Entry) error {
	if e == nil {
		return nil
	}

	err := retry.Do(
		func() error {
			err := os.Remove(e.Path)
			if err == nil || errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		},
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("failed to release %s: %w", e.Name, err)
	}

	s.logger.Debug("released upload", "session", e.SessionID, "name", e.Name)
	return nil
}

// Entries lists the names currently stored for a session.
func (s *Store) Entries(sessionID string) ([]string, error) {
	dirEntries, err := os.ReadDir(s.SessionDir(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list session dir: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Purge removes every file a session owns.
func (s *Store) Purge(sessionID string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if err := os.RemoveAll(s.SessionDir(sessionID)); err != nil {
		return fmt.Errorf("failed to purge session %s: %w", sessionID, err)
	}
	return nil
}

// Writable checks that the root accepts new files.
func (s *Store) Writable() error {
	f, err := os.CreateTemp(s.root, ".writable-*")
	if err != nil {
		return fmt.Errorf("store root not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
