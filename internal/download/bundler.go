// Package download serves stored session images, one at a time or bundled
// into a ZIP archive.
//
// The two paths follow different error policies. Single is strict: any
// failure is returned to the caller. WriteZip is best-effort: an item that
// cannot be read is left out and the archive is still produced, possibly
// with zero entries.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/photomaton/service/internal/metrics"
	"github.com/photomaton/service/internal/session"
)

var (
	// ErrNotFound is returned for an out-of-range index or a missing local file.
	ErrNotFound = errors.New("image not found")

	// ErrUpstream is returned when a remote image cannot be fetched.
	ErrUpstream = errors.New("remote image unavailable")
)

const (
	fetchTimeout = 15 * time.Second
	maxItemBytes = 32 << 20
)

// Item is one image ready to be streamed. The caller must close Body.
type Item struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// Bundler reads images referenced by a session from the public root or from
// their remote URL.
type Bundler struct {
	root    string
	client  *http.Client
	maxItem int64
	metrics *metrics.Metrics
}

// NewBundler creates a Bundler resolving local references under publicRoot.
func NewBundler(publicRoot string, m *metrics.Metrics) *Bundler {
	return &Bundler{
		root:    publicRoot,
		client:  &http.Client{Timeout: fetchTimeout},
		maxItem: maxItemBytes,
		metrics: m,
	}
}

// IsRemote reports whether ref is an absolute http(s) URL rather than a path
// under the public root.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Name returns the final path segment of ref, used as the download filename.
func Name(ref string) string {
	p := ref
	if IsRemote(ref) {
		if u, err := url.Parse(ref); err == nil {
			p = u.Path
		}
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return "image"
	}
	return name
}

// Single opens the image at the 1-based index of sess.
func (b *Bundler) Single(ctx context.Context, sess *session.Session, index int) (*Item, error) {
	if index < 1 || index > len(sess.Images) {
		return nil, ErrNotFound
	}
	return b.open(ctx, sess.Images[index-1])
}

// WriteZip writes every readable image of sess, in order, as a DEFLATE
// entry named after the reference's last path segment. Items that fail are
// logged and skipped. It returns the number of entries written; a non-nil
// error means writing to w itself failed.
func (b *Bundler) WriteZip(ctx context.Context, sess *session.Session, w io.Writer) (int, error) {
	zw := zip.NewWriter(w)
	written := 0
	for i, ref := range sess.Images {
		data, item, err := b.read(ctx, ref)
		if err != nil {
			b.metrics.BundleItems.WithLabelValues("skipped").Inc()
			log.Printf("download: session %s item %d skipped: %v", sess.ID, i+1, err)
			continue
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     item.Name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return written, fmt.Errorf("create zip entry %q: %w", item.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return written, fmt.Errorf("write zip entry %q: %w", item.Name, err)
		}
		b.metrics.BundleItems.WithLabelValues("written").Inc()
		written++
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("close zip: %w", err)
	}
	return written, nil
}

// read loads an entire item so a failure midway never leaves a truncated
// entry. Items larger than maxItem are rejected.
func (b *Bundler) read(ctx context.Context, ref string) ([]byte, *Item, error) {
	item, err := b.open(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	defer item.Body.Close()

	data, err := io.ReadAll(io.LimitReader(item.Body, b.maxItem+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", ref, err)
	}
	if int64(len(data)) > b.maxItem {
		return nil, nil, fmt.Errorf("read %s: larger than %d bytes", ref, b.maxItem)
	}
	return data, item, nil
}

func (b *Bundler) open(ctx context.Context, ref string) (*Item, error) {
	if IsRemote(ref) {
		return b.fetch(ctx, ref)
	}
	return b.openLocal(ref)
}

func (b *Bundler) openLocal(ref string) (*Item, error) {
	// Cleaning against "/" keeps the result inside the public root.
	rel := path.Clean("/" + ref)
	f, err := os.Open(filepath.Join(b.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}

	ct := mime.TypeByExtension(path.Ext(rel))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Item{Name: Name(ref), ContentType: ct, Body: f}, nil
}

func (b *Bundler) fetch(ctx context.Context, ref string) (*Item, error) {
	start := time.Now()
	defer func() {
		b.metrics.UpstreamDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	}()

	// The body outlives this call, so the timeout comes from the client.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstream, ref, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Item{Name: Name(ref), ContentType: ct, Body: resp.Body}, nil
}
