package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	cloudinaryEndpoint = "https://api.cloudinary.com/v1_1/%s/image/upload"
	uploadTimeout      = 15 * time.Second
)

// CloudinaryOptions configures the signed upload backend. All four secrets are required.
type CloudinaryOptions struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string

	// Endpoint overrides the upload URL; defaults to the public API for CloudName.
	Endpoint   string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Cloudinary uploads images with a request signed by the account secret.
type Cloudinary struct {
	opts     CloudinaryOptions
	endpoint string
	client   *http.Client
	now      func() time.Time
}

// NewCloudinary validates opts and returns a ready-to-use Cloudinary backend.
func NewCloudinary(opts CloudinaryOptions) (*Cloudinary, error) {
	if opts.CloudName == "" || opts.APIKey == "" || opts.APISecret == "" || opts.Folder == "" {
		return nil, fmt.Errorf("%w: cloud name, api key, api secret and folder are required", ErrBackendUnavailable)
	}
	c := &Cloudinary{
		opts:     opts,
		endpoint: opts.Endpoint,
		client:   opts.HTTPClient,
		now:      opts.Now,
	}
	if c.endpoint == "" {
		c.endpoint = fmt.Sprintf(cloudinaryEndpoint, opts.CloudName)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: uploadTimeout}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Name implements Backend.
func (c *Cloudinary) Name() string { return "cloudinary" }

// Store uploads the image to <Folder>/<folder>. With publish set, a second
// copy goes to <Folder>/publicar; only the general URL is returned.
func (c *Cloudinary) Store(ctx context.Context, dataURL, folder string, publish bool) (string, error) {
	img, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	publicID := uuid.NewString()
	target := path.Join(c.opts.Folder, folder)

	secureURL, err := c.upload(ctx, img.Raw, target, publicID)
	if err != nil {
		return "", err
	}

	if publish {
		published, err := c.upload(ctx, img.Raw, path.Join(c.opts.Folder, PublishFolder), publicID)
		if err != nil {
			return "", err
		}
		log.Printf("storage: published copy of %s at %s", publicID, published)
	}
	return secureURL, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Cloudinary) upload(ctx context.Context, dataURL, folder, publicID string) (string, error) {
	params := map[string]string{
		"folder":    folder,
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	params["signature"] = Sign(params, c.opts.APISecret)
	params["api_key"] = c.opts.APIKey

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("file", dataURL); err != nil {
		return "", fmt.Errorf("build upload body: %w", err)
	}
	for _, k := range sortedKeys(params) {
		if err := mw.WriteField(k, params[k]); err != nil {
			return "", fmt.Errorf("build upload body: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUploadFailed, err)
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: status %d, undecodable response", ErrUploadFailed, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || out.SecureURL == "" {
		msg := "no secure_url in response"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, msg)
	}
	return out.SecureURL, nil
}

// Sign concatenates key=value pairs sorted by key, joined with '&', appends
// the secret and returns the hex SHA-1 digest.
func Sign(params map[string]string, secret string) string {
	pairs := make([]string, 0, len(params))
	for _, k := range sortedKeys(params) {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
