package server

import (
	"fmt"

	"github.com/skillsenselab/vbdiar/server/middleware"
)

// Config holds the HTTP server settings. Timeouts are in seconds so
// they read naturally from YAML and the environment.
type Config struct {
	Enabled            bool                  `yaml:"enabled" mapstructure:"enabled"`
	Host               string                `yaml:"host" mapstructure:"host"`
	Port               int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout        int                   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout       int                   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout        int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxBodySize        string                `yaml:"max_body_size" mapstructure:"max_body_size"`
	RateLimitPerMinute int                   `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	CORS               middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults fills zero fields with the standard development values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	// SSE streams outlive any sane write timeout; the default still
	// bounds the plain API handlers.
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"*"}
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must be non-negative (got: %d)", c.RateLimitPerMinute)
	}
	return nil
}
