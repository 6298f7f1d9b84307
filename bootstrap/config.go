package bootstrap

import (
	"github.com/skillsenselab/vbdiar/config"
)

// Config constrains the App's config type parameter. A struct that
// embeds config.ServiceConfig by value satisfies it through promoted
// methods, which is how service.Config plugs in:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Server server.Config `yaml:"server" mapstructure:"server"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
