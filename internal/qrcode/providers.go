package qrcode

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	qrServerEndpoint   = "https://api.qrserver.com/v1/create-qr-code/"
	quickChartEndpoint = "https://quickchart.io/qr"
	maxImageBytes      = 2 << 20
)

// remoteProvider renders through an HTTP GET returning the image directly.
type remoteProvider struct {
	name     string
	endpoint string
	client   *http.Client
	query    func(data string, width, height int) url.Values
}

// NewQRServer returns the api.qrserver.com provider. An empty endpoint uses the public API.
func NewQRServer(endpoint string, client *http.Client) Provider {
	if endpoint == "" {
		endpoint = qrServerEndpoint
	}
	return &remoteProvider{
		name:     "qrserver",
		endpoint: endpoint,
		client:   client,
		query: func(data string, width, height int) url.Values {
			return url.Values{
				"data": {data},
				"size": {fmt.Sprintf("%dx%d", width, height)},
			}
		},
	}
}

// NewQuickChart returns the quickchart.io provider. It only renders squares,
// so the width is used for both sides.
func NewQuickChart(endpoint string, client *http.Client) Provider {
	if endpoint == "" {
		endpoint = quickChartEndpoint
	}
	return &remoteProvider{
		name:     "quickchart",
		endpoint: endpoint,
		client:   client,
		query: func(data string, width, _ int) url.Values {
			return url.Values{
				"text":   {data},
				"size":   {fmt.Sprint(width)},
				"margin": {"1"},
				"format": {"png"},
			}
		},
	}
}

func (p *remoteProvider) Name() string { return p.name }

func (p *remoteProvider) Render(ctx context.Context, data string, width, height int) (*Image, error) {
	u := p.endpoint + "?" + p.query(data, width, height).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return &Image{Bytes: body, MIMEType: ct}, nil
}

// localProvider renders PNGs in-process. It is the last resort when the
// remote providers cannot be reached from the kiosk network.
type localProvider struct{}

// NewLocal returns a provider that renders without network access.
func NewLocal() Provider { return localProvider{} }

func (localProvider) Name() string { return "local" }

func (localProvider) Render(ctx context.Context, data string, width, _ int) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	png, err := goqrcode.Encode(data, goqrcode.Medium, width)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return &Image{Bytes: png, MIMEType: "image/png"}, nil
}

// DefaultProviders returns the public remote chain, with the local renderer
// appended when withLocal is set.
func DefaultProviders(withLocal bool) []Provider {
	client := &http.Client{Timeout: providerTimeout}
	providers := []Provider{
		NewQRServer("", client),
		NewQuickChart("", client),
	}
	if withLocal {
		providers = append(providers, NewLocal())
	}
	return providers
}
