package bootstrap

import (
	"time"

	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/logger"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	logger           *logger.Logger
	containerOptions []di.Option
	gracefulTimeout  *time.Duration
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is built from the config's Logging field.
// The container registers the same logger as its logging service.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithContainerOptions passes extra options to the container, applied after
// the ones derived from config.
func WithContainerOptions(opts ...di.Option) Option {
	return func(o *appOptions) {
		o.containerOptions = append(o.containerOptions, opts...)
	}
}
