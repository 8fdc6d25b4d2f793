// Package baseurl works out the externally reachable origin used to build
// shareable links.
package baseurl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrMisconfigured is returned when no base URL can be determined.
var ErrMisconfigured = errors.New("base url could not be resolved")

const tunnelTimeout = 3 * time.Second

// Resolver resolves the public origin for a request. Precedence: the
// configured override, then the tunnel discovery endpoint, then the request's
// forwarded protocol and host headers. The result is not checked for
// reachability from the viewer's device.
type Resolver struct {
	override  string
	tunnelAPI string
	client    *http.Client
}

// NewResolver creates a Resolver. Either argument may be empty.
func NewResolver(override, tunnelAPI string) *Resolver {
	return &Resolver{
		override:  strings.TrimRight(strings.TrimSpace(override), "/"),
		tunnelAPI: tunnelAPI,
		client:    &http.Client{Timeout: tunnelTimeout},
	}
}

// Resolve returns the origin, without a trailing slash.
func (r *Resolver) Resolve(req *http.Request) (string, error) {
	if r.override != "" {
		return r.override, nil
	}

	if r.tunnelAPI != "" {
		u, err := r.discoverTunnel(req.Context())
		if err == nil {
			return u, nil
		}
		log.Printf("baseurl: tunnel discovery failed, falling back to request headers: %v", err)
	}

	host := firstValue(req.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = req.Host
	}
	if host == "" {
		return "", ErrMisconfigured
	}

	proto := firstValue(req.Header.Get("X-Forwarded-Proto"))
	if proto == "" {
		proto = "http"
		if req.TLS != nil {
			proto = "https"
		}
	}
	return proto + "://" + host, nil
}

type tunnelList struct {
	Tunnels []struct {
		PublicURL string `json:"public_url"`
		Proto     string `json:"proto"`
	} `json:"tunnels"`
}

// discoverTunnel queries an ngrok-style local API and prefers an https tunnel.
func (r *Resolver) discoverTunnel(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, tunnelTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.tunnelAPI, nil)
	if err != nil {
		return "", fmt.Errorf("build tunnel request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("query tunnel api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tunnel api returned status %d", resp.StatusCode)
	}

	var list tunnelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", fmt.Errorf("decode tunnel list: %w", err)
	}

	fallback := ""
	for _, t := range list.Tunnels {
		if t.PublicURL == "" {
			continue
		}
		if strings.HasPrefix(t.PublicURL, "https://") {
			return strings.TrimRight(t.PublicURL, "/"), nil
		}
		if fallback == "" {
			fallback = strings.TrimRight(t.PublicURL, "/")
		}
	}
	if fallback == "" {
		return "", errors.New("no tunnels published")
	}
	return fallback, nil
}

func firstValue(h string) string {
	if i := strings.IndexByte(h, ','); i >= 0 {
		h = h[:i]
	}
	return strings.TrimSpace(h)
}
