package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/observability"
	"github.com/kbukum/lifescope/version"
)

// App hosts a lifescope container: it owns the container lifecycle, hands
// out scope ids, and drives resolution for its clients.
// The type parameter C is the config type, which must satisfy Settings.
//
// Example:
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStart(func(ctx context.Context) error {
//	    return di.Register[Weapon](app.Container, &Sword{})
//	})
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    level, err := app.LoadScope(ctx, "level-1", setupLevel)
//	    ...
//	})
type App[C Settings] struct {
	Name      string
	Version   string
	Cfg       C
	Container *di.Container
	Logger    *logger.Logger

	gracefulTimeout time.Duration
	metrics         *observability.ResolutionMetrics
	tracerProvider  *sdktrace.TracerProvider
	meterProvider   *sdkmetric.MeterProvider

	nextScopeID int
	scopes      map[int]di.Scope
	started     bool

	onStart []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, and creates the logger and
// the (uninitialized) container.
func NewApp[C Settings](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetConfig()

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		scopes:          make(map[int]di.Scope),
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	// Logger: use custom if provided, otherwise build from config.
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		app.Logger = logger.New(&base.Logging, base.Name)
	}

	containerOpts := append([]di.Option{
		di.WithLogger(app.Logger),
		di.WithConfig(base.Container),
	}, o.containerOptions...)
	app.Container = di.New(containerOpts...)

	return app, nil
}

// Start sets up telemetry when enabled, initializes the container and runs
// the OnStart hooks. If any step fails, whatever was set up is released
// again: a failing OnStart hook triggers a full Shutdown.
func (a *App[C]) Start(ctx context.Context) (err error) {
	if a.started {
		return fmt.Errorf("application %s already started", a.Name)
	}
	defer func() {
		if err != nil {
			a.abortStart(ctx)
		}
	}()

	ctx, span := observability.StartSpan(ctx, observability.SpanStart)
	defer func() {
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		span.End()
	}()
	span.SetAttributes(attribute.String(observability.AttrServiceName, a.Name))

	fields := version.Get().Fields()
	fields["name"] = a.Name
	fields["version"] = a.Version
	a.Logger.Info("Starting application", fields)

	if err := a.initTelemetry(ctx); err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}

	metrics, err := observability.NewResolutionMetrics(observability.Meter(observability.MeterName))
	if err != nil {
		return fmt.Errorf("creating host metrics: %w", err)
	}
	a.metrics = metrics

	if err := a.Container.Initialize(); err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}
	a.started = true

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	a.Logger.Info("Application started", logger.Fields(
		logger.FieldContainerID, a.Container.ID(),
	))
	return nil
}

// abortStart undoes a partial Start.
func (a *App[C]) abortStart(ctx context.Context) {
	var err error
	if a.started {
		err = a.Shutdown(ctx)
	} else {
		err = a.shutdownTelemetry(ctx)
	}
	if err != nil {
		a.Logger.Error("Failed to release a partial start", logger.ErrorFields("start", err))
	}
}

// initTelemetry installs OTLP tracer and meter providers when enabled.
func (a *App[C]) initTelemetry(ctx context.Context) error {
	tel := a.Cfg.GetConfig().Telemetry
	if !tel.Enabled {
		return nil
	}
	base := a.Cfg.GetConfig()

	tp, err := observability.InitTracer(ctx, tel.TracerConfig(base.Name, base.Version, base.Environment))
	if err != nil {
		return err
	}
	a.tracerProvider = tp

	mp, err := observability.InitMeter(ctx, tel.MeterConfig(base.Name, base.Version, base.Environment))
	if err != nil {
		return err
	}
	a.meterProvider = mp
	return nil
}

// LoadScope allocates a new scope called name and runs setup with it. setup
// registers the scope's services; if it fails, whatever it registered is
// unregistered again.
func (a *App[C]) LoadScope(ctx context.Context, name string, setup func(ctx context.Context, scope di.Scope) error) (scope di.Scope, err error) {
	a.nextScopeID++
	scope = di.NewScope(a.nextScopeID, name)

	ctx, op := observability.StartOperation(ctx, observability.SpanLoadScope, "load_scope", a.metrics,
		attribute.String(observability.AttrScope, name),
		attribute.Int(observability.AttrScopeID, scope.ID),
	)
	defer func() { op.End(ctx, err) }()

	if err := setup(ctx, scope); err != nil {
		if _, uerr := a.Container.UnregisterScope(scope); uerr != nil {
			a.Logger.Error("Failed to roll back scope", logger.ErrorFields("load_scope", uerr))
		}
		return scope, fmt.Errorf("loading scope %s: %w", scope, err)
	}

	a.scopes[scope.ID] = scope
	a.Logger.Info("Scope loaded", logger.Fields(
		logger.FieldScope, name,
		logger.FieldScopeID, scope.ID,
	))
	return scope, nil
}

// Activate resolves the dependencies of each client in order and stops at
// the first failure.
func (a *App[C]) Activate(ctx context.Context, clients ...any) (err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanActivate, "activate", a.metrics,
		attribute.Int(observability.AttrClientCount, len(clients)),
	)
	defer func() { op.End(ctx, err) }()

	for _, client := range clients {
		if err := a.Container.ResolveDependenciesOf(client); err != nil {
			return fmt.Errorf("activating %T: %w", client, err)
		}
	}
	return nil
}

// UnloadScope unregisters every service of scope and returns how many were
// removed. Unloading a scope twice is not an error.
func (a *App[C]) UnloadScope(ctx context.Context, scope di.Scope) (removed int, err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanUnloadScope, "unload_scope", a.metrics,
		attribute.String(observability.AttrScope, scope.Name),
		attribute.Int(observability.AttrScopeID, scope.ID),
	)
	defer func() {
		op.Span().SetAttributes(attribute.Int(observability.AttrRemoved, removed))
		op.End(ctx, err)
	}()

	removed, err = a.Container.UnregisterScope(scope)
	if err != nil {
		return 0, err
	}
	delete(a.scopes, scope.ID)
	return removed, nil
}

// Scopes returns the scopes loaded and not yet unloaded.
func (a *App[C]) Scopes() []di.Scope {
	out := make([]di.Scope, 0, len(a.scopes))
	for id := 1; id <= a.nextScopeID; id++ {
		if s, ok := a.scopes[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// RunTask executes a finite task with the full lifecycle: Start, the task,
// then Shutdown. The task context is canceled on SIGINT/SIGTERM.
//
// Example:
//
//	app, _ := bootstrap.NewApp(&cfg)
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    return playLevel(ctx, app)
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	// Set up signal-based cancellation for the task
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", logger.Fields(
				"signal", sig.String(),
			))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.Shutdown(context.Background()); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// Shutdown runs the OnStop hooks, disposes the container and flushes
// telemetry within the graceful timeout. It is a no-op before Start.
func (a *App[C]) Shutdown(ctx context.Context) error {
	if !a.started {
		return nil
	}
	a.started = false

	a.Logger.Info("Shutting down application", logger.Fields(
		"timeout", a.gracefulTimeout.String(),
		"open_scopes", len(a.scopes),
	))

	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	spanCtx, span := observability.StartSpan(ctx, observability.SpanShutdown)
	var shutdownErr error

	if err := runHooks(spanCtx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.ErrorFields("shutdown", err))
		shutdownErr = err
	}

	if err := a.Container.Dispose(); err != nil {
		a.Logger.Error("Container dispose error", logger.ErrorFields("shutdown", err))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	a.scopes = make(map[int]di.Scope)

	if shutdownErr != nil {
		observability.SetSpanError(spanCtx, shutdownErr)
	}
	span.End()

	if err := a.shutdownTelemetry(ctx); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}

// shutdownTelemetry flushes and drops the providers installed by
// initTelemetry.
func (a *App[C]) shutdownTelemetry(ctx context.Context) error {
	var err error
	if a.tracerProvider != nil {
		if terr := a.tracerProvider.Shutdown(ctx); terr != nil {
			err = fmt.Errorf("tracer shutdown: %w", terr)
		}
		a.tracerProvider = nil
	}
	if a.meterProvider != nil {
		if merr := a.meterProvider.Shutdown(ctx); merr != nil && err == nil {
			err = fmt.Errorf("meter shutdown: %w", merr)
		}
		a.meterProvider = nil
	}
	return err
}
