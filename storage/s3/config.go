// Package s3 stores artifacts in Amazon S3 or an S3-compatible
// service. Deployments typically point it at MinIO via Endpoint.
package s3

import (
	"errors"
	"fmt"
)

// DefaultRegion is used when the config names no region.
const DefaultRegion = "us-east-1"

// Config holds the s3 backend's settings.
type Config struct {
	// Bucket receives every artifact; object paths become keys.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the AWS region.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey and SecretKey are static credentials; when empty the
	// SDK's default chain (environment, instance profile) applies.
	AccessKey string `mapstructure:"access_key" json:"access_key"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// ForcePathStyle uses path-style addressing; custom endpoints get
	// it regardless, since MinIO does not serve virtual-hosted buckets.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`

	// UseSSL enables TLS to the endpoint.
	UseSSL bool `mapstructure:"use_ssl" json:"use_ssl"`
}

// ApplyDefaults fills an empty region with the default.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate rejects a config missing the bucket or region.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("s3: bucket is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("s3: region is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("s3: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// GetBucket satisfies storage.BucketDescriber for the startup summary.
func (c *Config) GetBucket() string { return c.Bucket }
