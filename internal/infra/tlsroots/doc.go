// Package tlsroots manages trusted root certificates.
//
// Pools are used in two places by the binding pipeline:
//
//   - certificate store lookups that must only return certificates whose
//     chain verifies against the system roots (plus the store's own roots)
//   - client certificate validation for https endpoints that request or
//     require a client certificate
package tlsroots
