/*
Package metrics provides Prometheus metrics collection and exposition for
the LatticeFlow engine.

Metrics are package-level vars registered at init via
prometheus.MustRegister, grouped by subsystem: tenant/job counters, blob
download counters and latency histograms, conversion/transform row
counts, schema-widen counters, and bulk-load chunk/row counters. Handler
returns the standard promhttp.Handler for mounting at /metrics.

Timer is a small helper for the start-now/observe-later pattern:

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.JobDuration, jobName)

Package metrics also exposes a small in-process component health
registry (HealthStatus, RegisterComponent, GetHealth, GetReadiness) used
by cmd/latticed's /healthz, /readyz, and /livez HTTP handlers — distinct
from pkg/health's pluggable Checker interface, which performs the actual
dependency probes that feed this registry.
*/
package metrics
