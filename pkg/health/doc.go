/*
Package health implements readiness and liveness checks for the
latticed daemon.

A Checker is a narrow interface (Check, Type) with two
implementations: HTTPChecker (probe a URL and classify by status
range) and TCPChecker (dial a host:port — used to verify a StarRocks
frontend or object storage endpoint is reachable). Status/Config turn a
raw Result stream into a debounced healthy/unhealthy verdict (N
consecutive failures before flipping, with an optional start-period
grace window for a connection pool that is still warming up).

cmd/latticed registers one Checker per tenant's StarRocks control-plane
connection and exposes the aggregate status at /healthz and /readyz.
Readiness additionally requires pkg/config to have successfully loaded
the tenant registry at least once.
*/
package health
