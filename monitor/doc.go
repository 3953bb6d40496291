// Package monitor serves a read-only HTTP view of a running pipeline.
//
// Routes:
//
//	GET /health   aggregated component health, 503 when any is unhealthy
//	GET /stats    per-node stats; ?node=<name> selects one node
//	GET /version  build metadata
//
// The server speaks HTTP/1.1 and cleartext HTTP/2 and implements
// component.Component so it can be started and stopped by a Registry.
package monitor
