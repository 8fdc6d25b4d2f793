// Package session records photo sessions: an opaque id mapped to the ordered
// list of image references captured in one kiosk run.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/photomaton/service/internal/storage"
)

// Session is a persisted, ordered list of image references.
type Session struct {
	ID     string   `json:"-"`
	Images []string `json:"images"`
}

// ErrNotFound is returned when a session does not exist or cannot be read.
var ErrNotFound = errors.New("session not found")

// Store creates and loads session records. There is no update or delete.
type Store interface {
	Create(ctx context.Context, images []string) (string, error)
	Load(ctx context.Context, id string) (*Session, error)
}

// FileStore keeps one JSON record per session in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a FileStore.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Create writes a new record with a fresh random id. The record is written to
// a temp file and renamed into place.
func (s *FileStore) Create(ctx context.Context, images []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	data, err := json.Marshal(Session{Images: images})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := storage.WriteFileAtomic(s.path(id), data, 0o644); err != nil {
		return "", fmt.Errorf("write session %s: %w", id, err)
	}
	return id, nil
}

// Load reads the record for id.
func (s *FileStore) Load(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	sess := &Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("%w: corrupt record %s", ErrNotFound, id)
	}
	sess.ID = id
	return sess, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// ValidID reports whether id has the canonical UUID form session ids are issued in.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
