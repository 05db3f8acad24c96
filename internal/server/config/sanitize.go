package config

import (
	"maps"
	"strings"

	"github.com/yndnr/bindplan/internal/server/certificate"
)

// Sanitize returns a copy of the config with certificate passwords masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if cfg.Server.Endpoints != nil {
		sanitized.Server.Endpoints = make(map[string]EndpointSection, len(cfg.Server.Endpoints))
		for name, ep := range cfg.Server.Endpoints {
			ep.Certificate = maskCertificate(ep.Certificate)
			ep.Extra = maps.Clone(ep.Extra)
			sanitized.Server.Endpoints[name] = ep
		}
	}
	if cfg.Server.Certificates != nil {
		sanitized.Server.Certificates = make(map[string]certificate.Config, len(cfg.Server.Certificates))
		for name, c := range cfg.Server.Certificates {
			sanitized.Server.Certificates[name] = maskCertificate(c)
		}
	}
	sanitized.Server.DefaultCertificate = maskCertificate(cfg.Server.DefaultCertificate)

	return &sanitized
}

func maskCertificate(c certificate.Config) certificate.Config {
	if c.Password != "" {
		c.Password = maskSecret(c.Password)
	}
	return c
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
