package di

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/metadata"
	"github.com/kbukum/lifescope/registry"
	"github.com/kbukum/lifescope/validation"
)

// DefaultInjectPrefix is the name injection methods start with.
const DefaultInjectPrefix = "Inject"

// Config holds container settings that can come from a config file.
type Config struct {
	// InjectPrefix names injection methods: the prefix itself or the prefix
	// followed by an upper-case letter.
	InjectPrefix string `yaml:"inject_prefix" mapstructure:"inject_prefix" validate:"required,exported"`
	// CacheTypes lists type names whose resolutions are compiled and cached,
	// e.g. "*game.Warrior" or "github.com/acme/game.Warrior".
	CacheTypes []string `yaml:"cache_types" mapstructure:"cache_types" validate:"dive,required"`
	// RecordResolutions turns on resolution counters at initialization.
	RecordResolutions bool `yaml:"record_resolutions" mapstructure:"record_resolutions"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.InjectPrefix == "" {
		c.InjectPrefix = DefaultInjectPrefix
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Option configures a Container during creation.
type Option func(*options)

type options struct {
	provider  metadata.Provider
	catalog   metadata.Catalog
	log       *logger.Logger
	logConfig logger.Config
	meter     metric.Meter
	config    Config
}

// WithProvider replaces the reflection-backed metadata provider. When p
// also implements metadata.Catalog it receives RegisterConstructor calls.
func WithProvider(p metadata.Provider) Option {
	return func(o *options) {
		o.provider = p
		o.catalog, _ = p.(metadata.Catalog)
	}
}

// WithLogger registers l as the container's logging service instead of
// building one from the logger config.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithLoggerConfig sets the config the logging service is built from.
func WithLoggerConfig(cfg logger.Config) Option {
	return func(o *options) {
		o.logConfig = cfg
	}
}

// WithMeter sets the meter container instruments are created on.
// Defaults to the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		o.meter = m
	}
}

// WithConfig sets the container config.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// RegisterOption qualifies a registration.
type RegisterOption func(*registration)

type registration struct {
	scope registry.Scope
	tag   string
}

// InScope registers the service under scope instead of the global scope.
func InScope(scope Scope) RegisterOption {
	return func(r *registration) {
		r.scope = scope
	}
}

// WithTag registers the service under tag instead of the default tag.
func WithTag(tag string) RegisterOption {
	return func(r *registration) {
		r.tag = tag
	}
}

func resolveRegistration(opts []RegisterOption) registration {
	r := registration{scope: registry.Global, tag: registry.DefaultTag}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}
