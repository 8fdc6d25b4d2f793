package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)

	images := []string{"uploads/a.png", "https://res.cloudinary.com/demo/image/upload/b.jpg", "uploads/c.png"}
	id, err := s.Create(context.Background(), images)
	require.NoError(t, err)
	require.True(t, ValidID(id))

	sess, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, sess.ID)
	require.Equal(t, images, sess.Images)
}

func TestFileStoreRecordShape(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	id, err := s.Create(context.Background(), []string{"uploads/a.png"})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, id+".json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"images":["uploads/a.png"]}`, string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStoreDistinctIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := s.Create(context.Background(), []string{"uploads/a.png"})
		require.NoError(t, err)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestFileStoreLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.json"), []byte(`{"images":["x"]}`), 0o644))

	for _, id := range []string{
		"",
		"missing",
		"3f2504e0-4f89-41d3-9a0c-0305e82c3301",
		"../secret",
		"../../etc/passwd",
		"secret",
	} {
		_, err := s.Load(context.Background(), id)
		require.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestFileStoreCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	id := "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte("{not json"), 0o644))

	_, err = s.Load(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidID(t *testing.T) {
	require.True(t, ValidID("3f2504e0-4f89-41d3-9a0c-0305e82c3301"))
	require.False(t, ValidID("3f2504e04f8941d39a0c0305e82c3301"))
	require.False(t, ValidID("urn:uuid:3f2504e0-4f89-41d3-9a0c-0305e82c3301"))
	require.False(t, ValidID("3f2504e0-4f89-41d3-9a0c-0305e82c330/"))
}
