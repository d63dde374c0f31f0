package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/lifescope/logger"
)

// MeterName is the instrumentation scope used by lifescope instruments.
const MeterName = "github.com/kbukum/lifescope"

// Resolution paths reported on lifescope.resolutions.
const (
	PathCached  = "cached"
	PathReflect = "reflect"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ResolutionMetrics holds the instruments recorded by the di container.
// A nil *ResolutionMetrics records nothing.
type ResolutionMetrics struct {
	resolutions       metric.Int64Counter
	registrations     metric.Int64Counter
	teardowns         metric.Int64Counter
	errorTotal        metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewResolutionMetrics creates metric instruments on the given meter.
func NewResolutionMetrics(meter metric.Meter) (*ResolutionMetrics, error) {
	resolutions, err := meter.Int64Counter("lifescope.resolutions",
		metric.WithDescription("Injection methods and constructors invoked, by path"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.resolutions counter: %w", err)
	}

	registrations, err := meter.Int64Counter("lifescope.registrations",
		metric.WithDescription("Services registered, by scope"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.registrations counter: %w", err)
	}

	teardowns, err := meter.Int64Counter("lifescope.scope.teardowns",
		metric.WithDescription("Scopes unregistered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.scope.teardowns counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("lifescope.errors",
		metric.WithDescription("Container failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.errors counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("lifescope.operation.duration",
		metric.WithDescription("Duration of host operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.operation.duration histogram: %w", err)
	}

	return &ResolutionMetrics{
		resolutions:       resolutions,
		registrations:     registrations,
		teardowns:         teardowns,
		errorTotal:        errorTotal,
		operationDuration: operationDuration,
	}, nil
}

// RecordResolution records one invocation of an injection method or
// constructor. path is PathCached or PathReflect.
func (m *ResolutionMetrics) RecordResolution(ctx context.Context, typeName, kind, path string) {
	if m == nil {
		return
	}
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", typeName),
		attribute.String("kind", kind),
		attribute.String("path", path),
	))
}

// RecordRegistration records a service registration.
func (m *ResolutionMetrics) RecordRegistration(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// RecordTeardown records a scope being unregistered.
func (m *ResolutionMetrics) RecordTeardown(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.teardowns.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// RecordError records a failure by error code.
func (m *ResolutionMetrics) RecordError(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// RecordOperation records the duration of a host operation.
func (m *ResolutionMetrics) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
