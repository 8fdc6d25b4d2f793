// Package config loads application configuration from a .env file, an
// optional config file and environment variables.
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the service. It is built once at
// startup and passed explicitly to every component that needs it.
type Config struct {
	Port      string `mapstructure:"port"`
	AppEnv    string `mapstructure:"app_env"`
	MaxBodyMB int    `mapstructure:"max_body_mb"`

	// Local layout
	PublicDir    string `mapstructure:"public_dir"`   // static client and local image refs
	SessionsDir  string `mapstructure:"sessions_dir"` // one JSON record per session
	UploadFolder string `mapstructure:"upload_folder"`

	// "auto" picks cloudinary when all four secrets are set, else local.
	StorageBackend string `mapstructure:"storage_backend"`

	// Signed remote upload
	CloudinaryCloudName string `mapstructure:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `mapstructure:"cloudinary_api_key"`
	CloudinaryAPISecret string `mapstructure:"cloudinary_api_secret"`
	CloudinaryFolder    string `mapstructure:"cloudinary_folder"`

	// Object storage (S3-compatible: MinIO locally, any S3 provider in production)
	StorageEndpoint   string `mapstructure:"storage_endpoint"`
	StorageAccessKey  string `mapstructure:"storage_access_key"`
	StorageSecretKey  string `mapstructure:"storage_secret_key"`
	StorageBucket     string `mapstructure:"storage_bucket"`
	StorageUseSSL     bool   `mapstructure:"storage_use_ssl"`
	StoragePublicBase string `mapstructure:"storage_public_base"` // browser-accessible base URL

	// Sessions go to Postgres instead of SessionsDir when set.
	DatabaseURL string `mapstructure:"database_url"`

	// Link building
	PublicBaseURL string `mapstructure:"public_base_url"`
	TunnelAPIURL  string `mapstructure:"tunnel_api_url"` // e.g. http://127.0.0.1:4040/api/tunnels

	// QR rendering
	QRLocalFallback bool   `mapstructure:"qr_local_fallback"`
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`

	// Link delivery
	TwilioAccountSID string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
	TwilioFrom       string `mapstructure:"twilio_from"`
}

var defaults = map[string]any{
	"port":                  "5001",
	"app_env":               "development",
	"max_body_mb":           50,
	"public_dir":            "./public",
	"sessions_dir":          "./sessions",
	"upload_folder":         "uploads",
	"storage_backend":       "auto",
	"cloudinary_cloud_name": "",
	"cloudinary_api_key":    "",
	"cloudinary_api_secret": "",
	"cloudinary_folder":     "",
	"storage_endpoint":      "",
	"storage_access_key":    "",
	"storage_secret_key":    "",
	"storage_bucket":        "photomaton",
	"storage_use_ssl":       false,
	"storage_public_base":   "",
	"database_url":          "",
	"public_base_url":       "",
	"tunnel_api_url":        "",
	"qr_local_fallback":     false,
	"redis_addr":            "",
	"redis_password":        "",
	"redis_db":              0,
	"twilio_account_sid":    "",
	"twilio_auth_token":     "",
	"twilio_from":           "",
}

// Load reads configuration from a .env file (if present), the optional config
// file at path and environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize applies defaults for values left empty or out of range.
func (c *Config) Normalize() {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	if c.StorageBackend == "" {
		c.StorageBackend = "auto"
	}
	c.UploadFolder = strings.Trim(c.UploadFolder, "/")
	if c.UploadFolder == "" {
		c.UploadFolder = "uploads"
	}
	if c.MaxBodyMB <= 0 {
		c.MaxBodyMB = 50
	}
	c.PublicBaseURL = strings.TrimSpace(c.PublicBaseURL)
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasCloudinary reports whether every secret of the signed upload backend is set.
func (c *Config) HasCloudinary() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" &&
		c.CloudinaryAPISecret != "" && c.CloudinaryFolder != ""
}

// HasTwilio reports whether link delivery through Twilio is configured.
func (c *Config) HasTwilio() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}
