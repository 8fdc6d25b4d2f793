package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalDisk writes images under a public directory served as static files.
type LocalDisk struct {
	root string
}

// NewLocalDisk returns a LocalDisk rooted at publicRoot.
func NewLocalDisk(publicRoot string) *LocalDisk {
	return &LocalDisk{root: publicRoot}
}

// Name implements Backend.
func (l *LocalDisk) Name() string { return "local" }

// Root returns the public directory images are written under.
func (l *LocalDisk) Root() string { return l.root }

// Store writes the decoded image to <root>/<folder>/<uuid><ext>, or to
// <root>/publicar when publish is set, and returns the path relative to root.
func (l *LocalDisk) Store(ctx context.Context, dataURL, folder string, publish bool) (string, error) {
	img, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if publish {
		folder = PublishFolder
	}
	if folder == "" {
		folder = "uploads"
	}

	dir := filepath.Join(l.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir %q: %w", dir, err)
	}

	name := uuid.NewString() + img.Ext()
	if err := WriteFileAtomic(filepath.Join(dir, name), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path.Join(folder, name), nil
}

// WriteFileAtomic writes data to a temp file next to name and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(name string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, name)
}
