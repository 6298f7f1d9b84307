package storage

import (
	"errors"
	"fmt"
)

// Provider names accepted in Config.Provider.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "/tmp/storage"
	DefaultRegion   = "us-east-1"

	// Feature archives for long recordings run tens of megabytes; the
	// default cap leaves headroom without letting one upload fill the disk.
	DefaultMaxFileSize = int64(100 * 1024 * 1024)
)

// Config is the flat storage section of the service configuration.
// Provider-specific settings are copied onto the backend's own config
// type before the backend is constructed.
type Config struct {
	// Provider selects the backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// BasePath is the root directory for the local backend.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Bucket, Region, Endpoint and the key pair configure the s3
	// backend. Endpoint points at an S3-compatible service like MinIO.
	Bucket    string `mapstructure:"bucket" json:"bucket"`
	Region    string `mapstructure:"region" json:"region"`
	Endpoint  string `mapstructure:"endpoint" json:"endpoint"`
	AccessKey string `mapstructure:"access_key" json:"access_key"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// MaxFileSize caps a single artifact in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" json:"max_file_size"`

	// Enabled turns the storage component on. The service cannot load
	// its model pair without it.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// ApplyDefaults fills zero fields with the standard values.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
}

// Validate rejects configurations the selected provider cannot start
// with.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("storage: bucket is required for s3 provider"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("storage: region is required for s3 provider"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid s3 config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
