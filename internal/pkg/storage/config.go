package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/picme-app/picme/internal/pkg/env"
)

// Config holds the S3 artwork storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // CDN or bucket URL artworks are served from
	Enabled         bool
}

// LoadConfig loads the S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnv("S3_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 storage is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if S3 artwork storage is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates the standardized S3 object key for an artwork.
// Format: artworks/YYYY/MM/UUID.ext
func (c *Config) ObjectKey(artworkUUID, fileExtension string, t time.Time) string {
	ext := strings.ToLower(fileExtension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("artworks/%04d/%02d/%s%s", t.Year(), int(t.Month()), artworkUUID, ext)
}

// PublicURL returns the URL an object is served from.
func (c *Config) PublicURL(objectKey string) string {
	base := strings.TrimRight(c.PublicBaseURL, "/")
	if base == "" {
		if c.EndpointURL != "" {
			base = strings.TrimRight(c.EndpointURL, "/") + "/" + c.BucketName
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.BucketName, c.Region)
		}
	}
	return base + "/" + path.Clean(objectKey)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
