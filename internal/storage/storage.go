// Package storage persists submitted images and hands back a reference to
// where they live. Swap implementations by changing the concrete Backend
// picked at startup: local disk, a signed remote upload, or any S3-compatible
// object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/photomaton/service/internal/config"
)

var (
	// ErrInvalidImageFormat is returned when a data URL is malformed or its
	// payload is not valid base64.
	ErrInvalidImageFormat = errors.New("invalid image format")

	// ErrBackendUnavailable is returned when a backend lacks required configuration.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrUploadFailed is returned when a remote store rejects or never answers an upload.
	ErrUploadFailed = errors.New("upload failed")
)

// PublishFolder is the area that receives a second copy of published images.
const PublishFolder = "publicar"

// Backend persists one image and returns its reference: either a path
// relative to the public root or an absolute URL.
type Backend interface {
	// Name identifies the backend in log messages.
	Name() string
	// Store decodes dataURL and writes it under folder. When publish is set the
	// image also (or instead, for local disk) lands in the published area.
	Store(ctx context.Context, dataURL, folder string, publish bool) (string, error)
}

// New creates the backend selected by cfg. The choice is made once per process.
func New(cfg *config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case "local":
		return NewLocalDisk(cfg.PublicDir), nil
	case "cloudinary":
		return newCloudinaryFromConfig(cfg)
	case "s3", "minio":
		return NewMinioStorage(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StoragePublicBase,
			cfg.StorageUseSSL,
		)
	case "auto", "":
		if cfg.HasCloudinary() {
			return newCloudinaryFromConfig(cfg)
		}
		log.Printf("storage: remote secrets incomplete, using local disk under %s", cfg.PublicDir)
		return NewLocalDisk(cfg.PublicDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newCloudinaryFromConfig(cfg *config.Config) (Backend, error) {
	return NewCloudinary(CloudinaryOptions{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryFolder,
	})
}
