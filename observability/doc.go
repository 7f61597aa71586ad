// Package observability wires OpenTelemetry tracing and metrics.
//
// The telemetry Component installs OTLP HTTP trace and metric providers when
// enabled. Conversions run inside a span and report pipeline events through
// PipelineMetrics:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanConvert)
//	metrics, err := observability.NewPipelineMetrics(ctx, observability.Meter(), "convert")
//	res, err := variant.Convert(ctx, variant.Options{Observer: metrics, ...})
//	observability.EndSpan(span, err)
//
// With telemetry disabled the global providers are no-ops.
package observability
