package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/lifescope/config"
	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/observability"
)

// testConfig is a host config embedding Config.
type testConfig struct {
	Config
	Rounds int
}

type torch struct{ lit bool }

type explorer struct{ torch *torch }

func (e *explorer) Inject(t *torch) { e.torch = t }

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		Config: Config{
			ServiceConfig: config.ServiceConfig{
				Name:        name,
				Version:     version,
				Environment: "development",
			},
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"), append([]Option{WithLogger(logger.Nop())}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Container == nil {
		t.Fatal("expected non-nil container")
	}
	if app.Container.State() != di.Uninitialized {
		t.Errorf("expected container to wait for Start, got %s", app.Container.State())
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	// Config is typed and defaulted.
	if app.Cfg.Container.InjectPrefix != di.DefaultInjectPrefix {
		t.Errorf("expected default inject prefix, got %q", app.Cfg.Container.InjectPrefix)
	}
	if app.Cfg.Telemetry.Endpoint == "" {
		t.Error("expected telemetry defaults applied")
	}
}

func TestNewAppValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testConfig)
		want   string
	}{
		{"missing name", func(c *testConfig) { c.Name = "" }, "name"},
		{"bad inject prefix", func(c *testConfig) { c.Container.InjectPrefix = "inject" }, "config.container"},
		{"bad sample rate", func(c *testConfig) { c.Telemetry.SampleRate = 2 }, "config.telemetry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig("test", "1.0")
			tt.mutate(cfg)
			_, err := NewApp(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestNewAppWithOptions(t *testing.T) {
	app := newTestApp(t,
		WithGracefulTimeout(30*time.Second),
		WithContainerOptions(di.WithConfig(di.Config{InjectPrefix: "Wire"})),
	)
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
	if got := app.Container.Config().InjectPrefix; got != "Wire" {
		t.Errorf("expected container option applied after config, got %q", got)
	}
}

func TestStartAndShutdown(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	var order []string
	app.OnStart(func(ctx context.Context) error {
		order = append(order, "start")
		return di.Register(app.Container, &torch{lit: true})
	})
	app.OnStop(func(ctx context.Context) error {
		if _, err := di.Resolve[*torch](app.Container, ""); err != nil {
			t.Errorf("expected services during OnStop: %v", err)
		}
		order = append(order, "stop")
		return nil
	})

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if app.Container.State() != di.Initialized {
		t.Errorf("expected initialized container, got %s", app.Container.State())
	}
	if err := app.Start(ctx); err == nil {
		t.Error("expected second Start to fail")
	}

	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if app.Container.State() != di.Disposed {
		t.Errorf("expected disposed container, got %s", app.Container.State())
	}
	if got := strings.Join(order, ","); got != "start,stop" {
		t.Errorf("expected start,stop hooks, got %q", got)
	}
	if err := app.Shutdown(ctx); err != nil {
		t.Errorf("expected second Shutdown to be a no-op, got %v", err)
	}
}

func TestStartHookFailure(t *testing.T) {
	app := newTestApp(t)
	boom := errors.New("boom")
	app.OnStart(func(ctx context.Context) error { return boom })

	err := app.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if app.Container.State() != di.Disposed {
		t.Errorf("expected container disposed after a failed start, got %s", app.Container.State())
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("expected Shutdown after a failed hook to succeed, got %v", err)
	}
}

func TestStartReleasesTelemetryOnInitFailure(t *testing.T) {
	app := newTestApp(t, WithContainerOptions(di.WithConfig(di.Config{InjectPrefix: "inject"})))
	app.tracerProvider = sdktrace.NewTracerProvider()

	if err := app.Start(context.Background()); err == nil {
		t.Fatal("expected container initialization to fail")
	}
	if app.tracerProvider != nil {
		t.Error("expected tracer provider released")
	}
	if app.Container.State() != di.Uninitialized {
		t.Errorf("expected container left uninitialized, got %s", app.Container.State())
	}
}

func TestScopeLifecycle(t *testing.T) {
	sr := useSpanRecorder(t)
	app := newTestApp(t)
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer app.Shutdown(ctx)

	lit := &torch{lit: true}
	level, err := app.LoadScope(ctx, "cave", func(ctx context.Context, s di.Scope) error {
		return di.Register(app.Container, lit, di.InScope(s))
	})
	if err != nil {
		t.Fatalf("LoadScope failed: %v", err)
	}
	if level.ID != 1 || level.Name != "cave" {
		t.Errorf("unexpected scope %v", level)
	}

	e := &explorer{}
	if err := app.Activate(ctx, e); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if e.torch != lit {
		t.Error("expected the scoped torch injected")
	}

	removed, err := app.UnloadScope(ctx, level)
	if err != nil {
		t.Fatalf("UnloadScope failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 service removed, got %d", removed)
	}
	if len(app.Scopes()) != 0 {
		t.Errorf("expected no open scopes, got %v", app.Scopes())
	}

	err = app.Activate(ctx, &explorer{})
	if err == nil {
		t.Fatal("expected activation to fail after unload")
	}

	names := map[string]int{}
	for _, s := range sr.Ended() {
		names[s.Name()]++
	}
	for _, want := range []string{
		observability.SpanStart,
		observability.SpanLoadScope,
		observability.SpanActivate,
		observability.SpanUnloadScope,
	} {
		if names[want] == 0 {
			t.Errorf("expected a %s span, got %v", want, names)
		}
	}
}

func TestLoadScopeRollback(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer app.Shutdown(ctx)

	boom := errors.New("missing map")
	scope, err := app.LoadScope(ctx, "broken", func(ctx context.Context, s di.Scope) error {
		if err := di.Register(app.Container, &torch{}, di.InScope(s)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected setup error, got %v", err)
	}
	if _, err := di.Resolve[*torch](app.Container, ""); err == nil {
		t.Error("expected partial registrations rolled back")
	}
	if len(app.Scopes()) != 0 {
		t.Errorf("expected failed scope not tracked, got %v", app.Scopes())
	}

	next, err := app.LoadScope(ctx, "next", func(context.Context, di.Scope) error { return nil })
	if err != nil {
		t.Fatalf("LoadScope failed: %v", err)
	}
	if next.ID == scope.ID {
		t.Error("expected scope ids not to be reused")
	}
}

func TestRunTask(t *testing.T) {
	app := newTestApp(t)
	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		if app.Container.State() != di.Initialized {
			t.Errorf("expected initialized container in task, got %s", app.Container.State())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if !ran {
		t.Error("expected task to run")
	}
	if app.Container.State() != di.Disposed {
		t.Errorf("expected container disposed after task, got %s", app.Container.State())
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	boom := errors.New("task failed")
	err := app.RunTask(context.Background(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestRunTaskStartFailure(t *testing.T) {
	app := newTestApp(t)
	boom := errors.New("no map")
	app.OnStart(func(ctx context.Context) error { return boom })

	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if ran {
		t.Error("expected task not to run")
	}
	if app.Container.State() != di.Disposed {
		t.Errorf("expected container disposed, got %s", app.Container.State())
	}
}

func TestRunHooksStopsAtFirstError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := runHooks(context.Background(), []Hook{
		func(context.Context) error { calls++; return nil },
		func(context.Context) error { calls++; return boom },
		func(context.Context) error { calls++; return nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if !strings.Contains(err.Error(), "hook 1") {
		t.Errorf("expected failing hook index in error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 hooks called, got %d", calls)
	}
}
