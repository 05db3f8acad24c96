// Package certificate resolves TLS server certificates for https endpoints.
//
// A certificate is declared either as a file (PEM pair or pfx/p12 bundle,
// relative paths resolved against the content root) or as a store lookup
// (subject, store name, location). Declaring both is a configuration error
// that names the endpoint. Declaring neither resolves to no certificate and
// leaves the fallback decision to the caller:
//
//  1. certificate already assigned by the https defaults
//  2. certificate configured for the endpoint
//  3. the process-wide default certificate (DefaultCell), set once from the
//     certificate named "Default"
//  4. the environment default certificate (Provider)
//
// Files can be watched so that renewed certificates are served without a
// restart (Watcher).
package certificate
