// Package metric provides Prometheus metrics for bindplan.
//
// A Registry owns its own prometheus.Registry with the Go runtime and
// process collectors plus the bind pipeline metrics:
//
//   - bind attempts and durations per endpoint kind and scheme
//   - the number of currently bound endpoints
//   - strategy selections
//   - certificate loads, reloads and leaf expiry per endpoint
//
// Metrics are exposed at /metrics on the status server. All Registry
// methods are safe on a nil receiver so instrumented code does not need
// to guard optional metrics.
package metric
