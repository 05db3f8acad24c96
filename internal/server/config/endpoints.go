package config

import (
	"sort"
	"strings"

	"github.com/yndnr/bindplan/internal/server/listen"
)

// EndpointConfigs returns the configured endpoints ordered by name,
// case-insensitively.
func (c *ServerConfig) EndpointConfigs() []listen.EndpointConfig {
	names := make([]string, 0, len(c.Server.Endpoints))
	for name := range c.Server.Endpoints {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})

	out := make([]listen.EndpointConfig, 0, len(names))
	for _, name := range names {
		ep := c.Server.Endpoints[name]
		out = append(out, listen.EndpointConfig{
			Name:                  name,
			URL:                   ep.URL,
			Protocols:             ep.Protocols,
			SSLProtocols:          ep.SSLProtocols,
			ClientCertificateMode: ep.ClientCertificateMode,
			Certificate:           ep.Certificate,
			Section:               ep.Extra,
		})
	}
	return out
}

// HostingAddresses splits server.urls on ';' and drops empty entries.
func (c *ServerConfig) HostingAddresses() []string {
	var out []string
	for _, s := range strings.Split(c.Server.URLs, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
