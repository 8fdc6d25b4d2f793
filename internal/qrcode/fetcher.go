// Package qrcode renders QR images for shareable links through an ordered
// chain of equivalent providers.
package qrcode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/photomaton/service/internal/metrics"
)

// DefaultSize replaces any size that does not match WxH.
const DefaultSize = "240x240"

const providerTimeout = 10 * time.Second

// ErrUpstream is returned when every provider failed.
var ErrUpstream = errors.New("qr providers unavailable")

var sizeRegex = regexp.MustCompile(`^[1-9][0-9]{0,3}x[1-9][0-9]{0,3}$`)

// Image is a rendered QR code.
type Image struct {
	Bytes    []byte
	MIMEType string
}

// Provider renders data as a QR image of the given dimensions.
type Provider interface {
	Name() string
	Render(ctx context.Context, data string, width, height int) (*Image, error)
}

// Cache stores rendered images. Implementations must tolerate concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*Image, bool)
	Set(ctx context.Context, key string, img *Image)
}

// Fetcher tries providers in order and returns the first success.
type Fetcher struct {
	providers []Provider
	cache     Cache
	metrics   *metrics.Metrics
}

// NewFetcher creates a Fetcher. cache may be nil. At least one provider is required.
func NewFetcher(providers []Provider, cache Cache, m *metrics.Metrics) *Fetcher {
	return &Fetcher{providers: providers, cache: cache, metrics: m}
}

// NormalizeSize returns size if it is a valid WxH value, DefaultSize otherwise.
func NormalizeSize(size string) string {
	if sizeRegex.MatchString(size) {
		return size
	}
	return DefaultSize
}

// Fetch renders data at size. Providers are tried in order, each bounded by
// its own timeout; the first success wins. If all fail, the last failure is
// returned wrapped in ErrUpstream.
func (f *Fetcher) Fetch(ctx context.Context, data, size string) (*Image, error) {
	size = NormalizeSize(size)
	width, height := dimensions(size)

	key := cacheKey(data, size)
	if f.cache != nil {
		if img, ok := f.cache.Get(ctx, key); ok {
			f.metrics.QRCacheLookups.WithLabelValues("hit").Inc()
			return img, nil
		}
		f.metrics.QRCacheLookups.WithLabelValues("miss").Inc()
	}

	lastErr := errors.New("no providers configured")
	for _, p := range f.providers {
		img, err := f.try(ctx, p, data, width, height)
		f.metrics.QRProviderCalls.WithLabelValues(p.Name(), metrics.Outcome(err)).Inc()
		if err != nil {
			log.Printf("qrcode: provider %s failed: %v", p.Name(), err)
			lastErr = err
			continue
		}
		if f.cache != nil {
			f.cache.Set(ctx, key, img)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

func (f *Fetcher) try(ctx context.Context, p Provider, data string, width, height int) (*Image, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	start := time.Now()
	img, err := p.Render(ctx, data, width, height)
	f.metrics.UpstreamDuration.WithLabelValues("qr_" + p.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if len(img.Bytes) == 0 {
		return nil, errors.New("empty body")
	}
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return nil, fmt.Errorf("unexpected content type %q", img.MIMEType)
	}
	return img, nil
}

// dimensions splits a size that already passed NormalizeSize.
func dimensions(size string) (int, int) {
	w, h, _ := strings.Cut(size, "x")
	width, _ := strconv.Atoi(w)
	height, _ := strconv.Atoi(h)
	return width, height
}

func cacheKey(data, size string) string {
	sum := sha256.Sum256([]byte(data))
	return "qr:" + size + ":" + hex.EncodeToString(sum[:])
}
