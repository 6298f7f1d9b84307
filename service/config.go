package service

import (
	"fmt"

	"github.com/skillsenselab/vbdiar/config"
	"github.com/skillsenselab/vbdiar/server"
	"github.com/skillsenselab/vbdiar/storage"
	"github.com/skillsenselab/vbdiar/util"
	"github.com/skillsenselab/vbdiar/vb"
)

// Config is the full configuration of the resegmentation service binary.
// It embeds the base service fields and adds one section per subsystem.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config       `yaml:"server" mapstructure:"server"`
	Storage       storage.Config      `yaml:"storage" mapstructure:"storage"`
	Engine        vb.Config           `yaml:"engine" mapstructure:"engine"`
	Batch         BatchConfig         `yaml:"batch" mapstructure:"batch"`
	Model         ModelConfig         `yaml:"model" mapstructure:"model"`
	Jobs          JobsConfig          `yaml:"jobs" mapstructure:"jobs"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// BatchConfig sizes the worker pool used by asynchronous jobs.
type BatchConfig struct {
	// Workers is the number of recordings processed concurrently.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ModelConfig locates the model artifacts loaded at startup. Either a
// single msgpack bundle or a UBM/extractor text pair must be set.
type ModelConfig struct {
	BundlePath    string `yaml:"bundle_path" mapstructure:"bundle_path"`
	UBMPath       string `yaml:"ubm_path" mapstructure:"ubm_path"`
	ExtractorPath string `yaml:"extractor_path" mapstructure:"extractor_path"`
}

// JobsConfig bounds the in-memory job store.
type JobsConfig struct {
	// MaxRetained caps how many finished jobs are kept before the
	// oldest are evicted.
	MaxRetained int `yaml:"max_retained" mapstructure:"max_retained"`
}

// ObservabilityConfig controls the OTLP exporters.
type ObservabilityConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling rate in [0, 1].
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// ExportIntervalSeconds is the metric export interval.
	ExportIntervalSeconds int `yaml:"export_interval_seconds" mapstructure:"export_interval_seconds"`
}

// ApplyDefaults fills in zero-valued fields across all sections.
func (c *Config) ApplyDefaults() {
	c.Name = util.Coalesce(c.Name, "vbdiar")
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Storage.ApplyDefaults()
	if c.Engine == (vb.Config{}) {
		c.Engine = vb.DefaultConfig()
	}
	c.Batch.Workers = util.Coalesce(c.Batch.Workers, 4)
	c.Jobs.MaxRetained = util.Coalesce(c.Jobs.MaxRetained, 100)
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
		c.Observability.Insecure = true
	}
	c.Observability.SampleRate = util.Coalesce(c.Observability.SampleRate, 1.0)
	c.Observability.ExportIntervalSeconds = util.Coalesce(c.Observability.ExportIntervalSeconds, 15)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("config.engine: %w", err)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("config.batch.workers must be at least 1 (got: %d)", c.Batch.Workers)
	}
	if c.Jobs.MaxRetained < 1 {
		return fmt.Errorf("config.jobs.max_retained must be at least 1 (got: %d)", c.Jobs.MaxRetained)
	}
	if c.Model.BundlePath == "" && (c.Model.UBMPath == "" || c.Model.ExtractorPath == "") {
		return fmt.Errorf("config.model: either bundle_path or both ubm_path and extractor_path are required")
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("config.observability.sample_rate must be in [0, 1] (got: %g)", c.Observability.SampleRate)
	}
	return nil
}
