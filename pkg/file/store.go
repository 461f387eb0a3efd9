package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Store persists blobs in a flat directory keyed by file id. Writes replace
// the whole file atomically, so re-storing the same id is an idempotent
// overwrite and readers never observe a half-written blob.
type Store struct {
	root string
}

// NewStore opens (creating if needed) the storage directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

// validID rejects ids that would escape the storage root. Generated ids are
// plain hex, but read requests carry caller-supplied ids.
func validID(fileID string) bool {
	return fileID != "" && fileID != "." && fileID != ".." && filepath.Base(fileID) == fileID
}

// Path returns the blob location for fileID.
func (s *Store) Path(fileID string) string {
	return filepath.Join(s.root, fileID)
}

// Write stores content under fileID.
func (s *Store) Write(fileID string, content []byte) error {
	if !validID(fileID) {
		return fmt.Errorf("invalid file id %q", fileID)
	}
	return renameio.WriteFile(s.Path(fileID), content, 0o644)
}

// Read returns the content stored under fileID.
func (s *Store) Read(fileID string) ([]byte, error) {
	if !validID(fileID) {
		return nil, fmt.Errorf("invalid file id %q", fileID)
	}
	return os.ReadFile(s.Path(fileID))
}
