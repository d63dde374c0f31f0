package bootstrap

import (
	"fmt"

	"github.com/kbukum/lifescope/config"
	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/observability"
)

// Config is the configuration every lifescope host starts from. Hosts embed
// it in their own config structs:
//
//	type ArenaConfig struct {
//	    bootstrap.Config `yaml:",inline" mapstructure:",squash"`
//	    Rounds int       `yaml:"rounds" mapstructure:"rounds"`
//	}
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Container            di.Config            `yaml:"container" mapstructure:"container"`
	Telemetry            observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// GetConfig returns the base Config.
func (c *Config) GetConfig() *Config {
	return c
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Container.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Container.Validate(); err != nil {
		return fmt.Errorf("config.container: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

// Settings is the interface constraint for host configuration types.
// Any struct that embeds Config (value embedding) satisfies it through
// promoted methods.
type Settings interface {
	GetConfig() *Config
	ApplyDefaults()
	Validate() error
}
