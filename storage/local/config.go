// Package local stores artifacts in a directory tree. It backs
// development and test setups where an object store is overkill.
package local

import "fmt"

// DefaultBasePath is where artifacts land when no base path is set.
const DefaultBasePath = "/tmp/storage"

// Config holds the local backend's settings.
type Config struct {
	// BasePath is the directory all object paths are resolved under.
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

// ApplyDefaults fills an empty base path with the default.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
}

// Validate rejects an empty base path.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("local: base_path is required")
	}
	return nil
}
