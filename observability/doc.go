// Package observability wires OpenTelemetry tracing and metrics into
// readflow.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("readflow"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanEncode)
//	defer span.End()
//
// Metrics recorded inline go through DefaultMetrics, which uses the global
// meter provider and is a no-op until one is installed:
//
//	observability.DefaultMetrics().RecordOperation(ctx, "duplex-encoder", "encode", "encoded", d)
//
// The Telemetry component installs both providers on Start and flushes them
// on Stop. ServiceHealth aggregates component health for the monitor.
package observability
