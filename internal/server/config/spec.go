package config

import "github.com/yndnr/bindplan/internal/server/certificate"

// ServerConfig is the root configuration for bindplan-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Status StatusSection `koanf:"status"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures the endpoints the server binds.
type ServerSection struct {
	// ContentRoot is the base for relative certificate and store paths.
	ContentRoot string `koanf:"content_root"`

	// URLs are the hosting addresses, separated by ';'.
	URLs string `koanf:"urls"`

	// PreferHostingURLs lets URLs replace the configured endpoints.
	PreferHostingURLs bool `koanf:"prefer_hosting_urls"`

	// StoreDir is the root of the directory certificate store.
	StoreDir string `koanf:"store_dir"`

	// WatchCertificates reloads file certificates when they change.
	WatchCertificates bool `koanf:"watch_certificates"`

	EndpointDefaults EndpointDefaultsSection `koanf:"endpoint_defaults"`
	HTTPSDefaults    HTTPSDefaultsSection    `koanf:"https_defaults"`

	// Endpoints are keyed by endpoint name.
	Endpoints map[string]EndpointSection `koanf:"endpoints"`

	// Certificates are named certificates. Only "Default" is used.
	Certificates map[string]certificate.Config `koanf:"certificates"`

	// DefaultCertificate is the environment default certificate. The
	// BINDPLAN_DEFAULT_CERTIFICATE_* variables take precedence.
	DefaultCertificate certificate.Config `koanf:"default_certificate"`
}

// EndpointDefaultsSection is applied to every endpoint.
type EndpointDefaultsSection struct {
	Protocols string `koanf:"protocols"`
}

// HTTPSDefaultsSection is applied to every HTTPS endpoint.
type HTTPSDefaultsSection struct {
	SSLProtocols          []string `koanf:"ssl_protocols"`
	ClientCertificateMode string   `koanf:"client_certificate_mode"`
	ClientCAFile          string   `koanf:"client_ca_file"`
}

// EndpointSection configures one named endpoint.
type EndpointSection struct {
	URL                   string             `koanf:"url"`
	Protocols             string             `koanf:"protocols"`
	SSLProtocols          []string           `koanf:"ssl_protocols"`
	ClientCertificateMode string             `koanf:"client_certificate_mode"`
	Certificate           certificate.Config `koanf:"certificate"`

	// Extra holds keys not known here, for endpoint overrides.
	Extra map[string]any `koanf:",remain"`
}

// StatusSection configures the optional status listener.
type StatusSection struct {
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
