// Package httpserver serves HTTP on the listeners produced by a bind pass.
//
// One http.Server serves every bound listener; the descriptor that owns a
// listener is available to handlers through handler.EndpointFromContext.
// The status router (chi) exposes /health, /endpoints, /version and
// /metrics on a separate address.
package httpserver
