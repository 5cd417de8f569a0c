// Package api hosts the HTTP status server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/monitors and /v1/monitors/{name} for the latest notification of
//     every monitor, read from a sinks.Board.
//   - GET /v1/monitors/{name}/options for the resolved definition of a
//     configured monitor.
package api
