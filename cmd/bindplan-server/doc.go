// Package main provides the entry point for bindplan-server.
//
// bindplan-server resolves the endpoints a server process binds from
// programmatic options, hosting addresses and configuration, attaches
// certificates to HTTPS endpoints and serves them.
//
// Usage:
//
//	bindplan-server --config /etc/bindplan/bindplan.yaml serve
//	bindplan-server --urls "http://*:8080;https://localhost:8443" plan -o yaml
//	bindplan-server cert check Primary
package main
