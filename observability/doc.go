// Package observability wires OpenTelemetry tracing and metrics for shadowkit.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("shadowkit"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
//	defer span.End()
//
// Metrics are recorded through a *Metrics; a nil *Metrics records nothing:
//
//	metrics, err := observability.NewMetrics(observability.Meter("shadowkit"))
//	metrics.RecordPipelineRun(ctx, "finished", time.Since(start))
package observability
