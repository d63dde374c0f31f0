// Package observability wires OpenTelemetry tracing and metrics for lifescope
// hosts.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg.TracerConfig("arena", "1.0.0", "development"))
//	defer tp.Shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanLoadScope, "load_scope", metrics)
//	defer op.End(ctx, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, cfg.MeterConfig("arena", "1.0.0", "development"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewResolutionMetrics(observability.Meter(observability.MeterName))
//	metrics.RecordResolution(ctx, "game.Warrior", "method", observability.PathCached)
package observability
