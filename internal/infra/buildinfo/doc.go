// Package buildinfo exposes build information of bindplan-server.
//
// Version, commit and build time are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/bindplan/internal/infra/buildinfo.Version=v1.0.0"
//
// GoVersion defaults to the runtime version.
package buildinfo
