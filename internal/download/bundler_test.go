package download

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/photomaton/service/internal/metrics"
	"github.com/photomaton/service/internal/session"
)

func writeLocal(t *testing.T, root, ref string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(ref))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		require.Equal(t, zip.Deflate, f.Method)
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func TestName(t *testing.T) {
	require.Equal(t, "a.png", Name("uploads/a.png"))
	require.Equal(t, "b.jpg", Name("https://res.example.com/kiosk/uploads/b.jpg?x=1"))
	require.Equal(t, "image", Name("https://res.example.com/"))
}

func TestIsRemote(t *testing.T) {
	require.True(t, IsRemote("https://x/a.png"))
	require.True(t, IsRemote("http://x/a.png"))
	require.False(t, IsRemote("uploads/a.png"))
}

func TestSingleLocal(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "uploads/a.png", []byte("png-a"))
	b := NewBundler(root, metrics.New())
	sess := &session.Session{ID: "s", Images: []string{"uploads/a.png"}}

	item, err := b.Single(context.Background(), sess, 1)
	require.NoError(t, err)
	defer item.Body.Close()

	body, err := io.ReadAll(item.Body)
	require.NoError(t, err)
	require.Equal(t, "png-a", string(body))
	require.Equal(t, "a.png", item.Name)
	require.Equal(t, "image/png", item.ContentType)
}

func TestSingleOutOfRange(t *testing.T) {
	b := NewBundler(t.TempDir(), metrics.New())
	sess := &session.Session{ID: "s", Images: []string{"uploads/a.png"}}

	for _, idx := range []int{0, 2, -1} {
		_, err := b.Single(context.Background(), sess, idx)
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestSingleMissingLocalFile(t *testing.T) {
	b := NewBundler(t.TempDir(), metrics.New())
	sess := &session.Session{ID: "s", Images: []string{"uploads/gone.png"}}

	_, err := b.Single(context.Background(), sess, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSingleLocalCannotEscapeRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "public")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("x"), 0o644))

	b := NewBundler(root, metrics.New())
	sess := &session.Session{ID: "s", Images: []string{"../secret.txt"}}

	_, err := b.Single(context.Background(), sess, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSingleRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte("webp-bytes"))
	}))
	defer srv.Close()

	b := NewBundler(t.TempDir(), metrics.New())
	sess := &session.Session{ID: "s", Images: []string{srv.URL + "/kiosk/uploads/c.webp"}}

	item, err := b.Single(context.Background(), sess, 1)
	require.NoError(t, err)
	defer item.Body.Close()

	require.Equal(t, "c.webp", item.Name)
	require.Equal(t, "image/webp", item.ContentType)
	body, err := io.ReadAll(item.Body)
	require.NoError(t, err)
	require.Equal(t, "webp-bytes", string(body))
}

func TestSingleRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := NewBundler(t.TempDir(), metrics.New())
	sess := &session.Session{ID: "s", Images: []string{srv.URL + "/x.png"}}

	_, err := b.Single(context.Background(), sess, 1)
	require.ErrorIs(t, err, ErrUpstream)
}

func TestWriteZipSkipsMissingItems(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "uploads/1.png", []byte("one"))
	writeLocal(t, root, "uploads/2.png", []byte("two"))
	writeLocal(t, root, "uploads/3.png", []byte("three"))
	require.NoError(t, os.Remove(filepath.Join(root, "uploads", "2.png")))

	m := metrics.New()
	b := NewBundler(root, m)
	sess := &session.Session{ID: "s", Images: []string{"uploads/1.png", "uploads/2.png", "uploads/3.png"}}

	var buf bytes.Buffer
	n, err := b.WriteZip(context.Background(), sess, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	entries := readZip(t, buf.Bytes())
	require.Equal(t, map[string]string{"1.png": "one", "3.png": "three"}, entries)
}

func TestWriteZipMixedLocalAndRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down.png" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	root := t.TempDir()
	writeLocal(t, root, "uploads/local.png", []byte("local"))
	b := NewBundler(root, metrics.New())
	sess := &session.Session{ID: "s", Images: []string{
		"uploads/local.png",
		srv.URL + "/down.png",
		srv.URL + "/kiosk/up.png",
	}}

	var buf bytes.Buffer
	n, err := b.WriteZip(context.Background(), sess, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, map[string]string{"local.png": "local", "up.png": "remote"}, readZip(t, buf.Bytes()))
}

func TestWriteZipSkipsOversizedRemoteItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if r.URL.Path == "/huge.png" {
			_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
			return
		}
		_, _ = w.Write([]byte("small"))
	}))
	defer srv.Close()

	b := NewBundler(t.TempDir(), metrics.New())
	b.maxItem = 16
	sess := &session.Session{ID: "s", Images: []string{srv.URL + "/huge.png", srv.URL + "/ok.png"}}

	var buf bytes.Buffer
	n, err := b.WriteZip(context.Background(), sess, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, map[string]string{"ok.png": "small"}, readZip(t, buf.Bytes()))
}

func TestWriteZipAllItemsFail(t *testing.T) {
	b := NewBundler(t.TempDir(), metrics.New())
	sess := &session.Session{ID: "s", Images: []string{"uploads/a.png", "uploads/b.png"}}

	var buf bytes.Buffer
	n, err := b.WriteZip(context.Background(), sess, &buf)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, readZip(t, buf.Bytes()))
}

func TestWriteZipKeepsCollidingNames(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "uploads/same.png", []byte("a"))
	writeLocal(t, root, "publicar/same.png", []byte("b"))
	b := NewBundler(root, metrics.New())
	sess := &session.Session{ID: "s", Images: []string{"uploads/same.png", "publicar/same.png"}}

	var buf bytes.Buffer
	n, err := b.WriteZip(context.Background(), sess, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	require.Equal(t, "same.png", zr.File[0].Name)
	require.Equal(t, "same.png", zr.File[1].Name)
}
