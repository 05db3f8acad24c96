// Package listen turns endpoint configuration into bound listeners.
//
// A bind pass runs in three steps:
//
//   - PlanBuilder converts configuration endpoints into Descriptors,
//     applying endpoint defaults, HTTPS defaults, certificates and named
//     overrides.
//   - SelectStrategy picks one of five strategies from which sources are
//     present: explicit endpoints (programmatic and configuration),
//     hosting addresses, or neither.
//   - Binder executes the strategy against a Transport, one endpoint at a
//     time, stopping at the first failure.
//
// The "localhost" host binds both loopback families. Both binds must
// succeed. HTTPS endpoints without a certificate fail at bind time rather
// than falling back to plaintext.
package listen
