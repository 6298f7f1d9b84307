package storage

import (
	"fmt"

	"github.com/skillsenselab/vbdiar/logger"
)

// Factory builds a backend from the shared config plus the backend's
// own config type, which it type-asserts from providerCfg.
type Factory func(cfg Config, providerCfg any, log *logger.Logger) (Storage, error)

var factories = make(map[string]Factory)

// RegisterFactory binds a provider name to its backend factory.
// Backend packages call this from init.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// New validates the config and constructs the selected backend. The
// backend package must have been imported, or its provider name will
// not resolve.
func New(cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l := log.WithComponent("storage")
	l.Info("initializing artifact store", logger.Fields("provider", cfg.Provider))
	return f(cfg, providerCfg, l)
}
