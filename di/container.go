package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/metadata"
	"github.com/kbukum/lifescope/observability"
	"github.com/kbukum/lifescope/registry"
)

// State is the container lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initialized
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Scope groups services for bulk teardown.
type Scope = registry.Scope

// GlobalScope holds services that live as long as the container.
var GlobalScope = registry.Global

// NewScope returns a scope handle. id must not be registry.GlobalScopeID.
func NewScope(id int, name string) Scope { return registry.NewScope(id, name) }

var loggerType = reflect.TypeOf((*logger.Logger)(nil))

// Container registers services and resolves client dependencies.
//
// A Container is driven from a single goroutine: no method is safe for
// concurrent use.
type Container struct {
	id    string
	state State
	cfg   Config

	provider metadata.Provider
	catalog  metadata.Catalog
	registry *registry.Registry

	log       *logger.Logger
	bootLog   *logger.Logger
	logConfig logger.Config
	meter     metric.Meter
	metrics   *observability.ResolutionMetrics

	hierarchies  map[reflect.Type][]metadata.Level
	cacheable    map[reflect.Type]bool
	pendingNames map[string]bool
	methodCache  map[reflect.Type]compiledCall
	ctorCache    map[reflect.Type]compiledCall
	types        map[string]reflect.Type

	recording bool
	cached    map[reflect.Type]int
	uncached  map[reflect.Type]int
}

// New creates an uninitialized container. Call Initialize before use.
func New(opts ...Option) *Container {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.provider == nil {
		r := metadata.NewReflector()
		o.provider, o.catalog = r, r
	}
	cfg := o.config
	cfg.ApplyDefaults()

	c := &Container{
		id:        uuid.New().String(),
		cfg:       cfg,
		provider:  o.provider,
		catalog:   o.catalog,
		registry:  registry.New(nil),
		log:       logger.Nop(),
		bootLog:   o.log,
		logConfig: o.logConfig,
		meter:     o.meter,
	}
	c.reset()
	return c
}

func (c *Container) reset() {
	c.hierarchies = make(map[reflect.Type][]metadata.Level)
	c.cacheable = make(map[reflect.Type]bool)
	c.pendingNames = make(map[string]bool)
	c.methodCache = make(map[reflect.Type]compiledCall)
	c.ctorCache = make(map[reflect.Type]compiledCall)
	c.types = make(map[string]reflect.Type)
	c.cached = make(map[reflect.Type]int)
	c.uncached = make(map[reflect.Type]int)
}

// ID returns the container instance id carried in its log events.
func (c *Container) ID() string { return c.id }

// State returns the lifecycle state.
func (c *Container) State() State { return c.state }

// Config returns the effective container config.
func (c *Container) Config() Config { return c.cfg }

// Initialize validates the config, bootstraps the logging service and moves
// the container to Initialized. It can be called once.
//
// The logger is registered in the global scope as *logger.Logger and then
// resolved through the registry like any other service, so clients can
// inject it.
func (c *Container) Initialize() error {
	if c.state != Uninitialized {
		return errors.InvalidState("Initialize", c.state.String())
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	var svc *registry.Service
	if c.bootLog != nil {
		svc = registry.NewInstance(loggerType, registry.DefaultTag, registry.Global, c.bootLog)
	} else {
		cfg := c.logConfig
		svc = registry.NewFactory(loggerType, registry.DefaultTag, registry.Global, func() (any, error) {
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return logger.New(&cfg, "lifescope"), nil
		})
	}
	if err := c.registry.Register(svc); err != nil {
		return err
	}
	inst, err := c.lookup(loggerType, registry.DefaultTag)
	if err != nil {
		c.registry.Clear()
		return err
	}

	meter := c.meter
	if meter == nil {
		meter = observability.Meter(observability.MeterName)
	}
	metrics, err := observability.NewResolutionMetrics(meter)
	if err != nil {
		c.registry.Clear()
		return errors.InvalidConfig("creating container metrics").WithCause(err)
	}
	c.metrics = metrics

	base := inst.(*logger.Logger).WithFields(logger.Fields(logger.FieldContainerID, c.id))
	c.log = base.WithComponent("di")
	c.registry.SetLogger(base.WithComponent("registry"))

	c.state = Initialized
	c.recording = c.cfg.RecordResolutions
	c.declare(loggerType)
	c.metrics.RecordRegistration(context.Background(), registry.Global.String())
	for _, name := range c.cfg.CacheTypes {
		c.cacheByName(name)
	}

	c.log.Info("Container initialized", logger.Fields(
		"inject_prefix", c.cfg.InjectPrefix,
		"cache_types", len(c.cfg.CacheTypes),
		"recording", c.recording,
	))
	return nil
}

// Dispose drops every service and cache and moves the container to
// Disposed. Resolved services are not closed.
func (c *Container) Dispose() error {
	if err := c.requireInitialized("Dispose"); err != nil {
		return err
	}
	services := c.registry.Len()
	c.registry.Clear()
	c.reset()
	c.recording = false
	c.state = Disposed
	c.log.Info("Container disposed", logger.Fields(logger.FieldCount, services))
	return nil
}

// Register binds instance to serviceType. instance must be non-nil and
// assignable to serviceType.
func (c *Container) Register(serviceType reflect.Type, instance any, opts ...RegisterOption) error {
	if err := c.requireInitialized("Register"); err != nil {
		return err
	}
	if serviceType == nil {
		return c.fail(errors.InvalidArgument("service_type", "service type is nil"))
	}
	if instance == nil {
		return c.fail(errors.InvalidArgument("instance", fmt.Sprintf("nil instance for %s", serviceType)))
	}
	if actual := reflect.TypeOf(instance); !actual.AssignableTo(serviceType) {
		return c.fail(errors.TypeMismatch(serviceType.String(), actual.String()))
	}
	r := resolveRegistration(opts)
	return c.register(registry.NewInstance(serviceType, r.tag, r.scope, instance))
}

// RegisterFactory binds serviceType to a factory run on first resolution.
// The result is memoized: every later resolution gets the same instance.
func (c *Container) RegisterFactory(serviceType reflect.Type, factory registry.Factory, opts ...RegisterOption) error {
	if err := c.requireInitialized("RegisterFactory"); err != nil {
		return err
	}
	if serviceType == nil {
		return c.fail(errors.InvalidArgument("service_type", "service type is nil"))
	}
	if factory == nil {
		return c.fail(errors.InvalidArgument("factory", fmt.Sprintf("nil factory for %s", serviceType)))
	}
	r := resolveRegistration(opts)
	return c.register(registry.NewFactory(serviceType, r.tag, r.scope, factory))
}

func (c *Container) register(svc *registry.Service) error {
	if err := c.registry.Register(svc); err != nil {
		return c.fail(err)
	}
	c.declare(svc.Type)
	c.metrics.RecordRegistration(context.Background(), svc.Scope.String())
	return nil
}

// RegisterConstructor adds fn to the constructor catalog used by Construct.
func (c *Container) RegisterConstructor(fn any) error {
	if err := c.requireInitialized("RegisterConstructor"); err != nil {
		return err
	}
	if c.catalog == nil {
		return c.fail(errors.InvalidArgument("provider", "the metadata provider does not accept constructors"))
	}
	t, err := c.catalog.RegisterConstructor(fn)
	if err != nil {
		return c.fail(err)
	}
	c.declare(t)
	c.log.Debug("Constructor registered", logger.Fields(
		logger.FieldServiceType, t.String(),
	))
	return nil
}

// Resolve returns the service registered for (serviceType, tag).
func (c *Container) Resolve(serviceType reflect.Type, tag string) (any, error) {
	if err := c.requireInitialized("Resolve"); err != nil {
		return nil, err
	}
	inst, err := c.lookup(serviceType, tag)
	if err != nil {
		return nil, c.fail(err)
	}
	return inst, nil
}

// UnregisterScope removes every service registered under scope and returns
// how many were removed. Compiled resolutions are kept: they are keyed by
// type, not by scope.
func (c *Container) UnregisterScope(scope Scope) (int, error) {
	if err := c.requireInitialized("UnregisterScope"); err != nil {
		return 0, err
	}
	removed, err := c.registry.Unregister(scope)
	if err != nil {
		return 0, c.fail(err)
	}
	if removed > 0 {
		c.metrics.RecordTeardown(context.Background(), scope.String())
	}
	return removed, nil
}

// Services returns a snapshot of every registration.
func (c *Container) Services() ([]registry.ServiceInfo, error) {
	if err := c.requireInitialized("Services"); err != nil {
		return nil, err
	}
	return c.registry.Services(), nil
}

func (c *Container) lookup(serviceType reflect.Type, tag string) (any, error) {
	svc, err := c.registry.Lookup(serviceType, tag)
	if err != nil {
		return nil, err
	}
	return svc.Instance()
}

func (c *Container) requireInitialized(operation string) error {
	if c.state != Initialized {
		return errors.InvalidState(operation, c.state.String())
	}
	return nil
}

// fail records err by code and returns it.
func (c *Container) fail(err error) error {
	code := errors.CodeOf(err)
	if code == "" {
		code = "UNKNOWN"
	}
	c.metrics.RecordError(context.Background(), string(code))
	return err
}
