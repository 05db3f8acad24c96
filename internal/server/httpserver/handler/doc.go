// Package handler provides the HTTP handlers served by bindplan-server.
//
// Status handlers report health, bound endpoints and build information.
// The connection handler answers on every bound endpoint with the endpoint
// that accepted the request.
package handler
