package listen

import (
	"crypto/tls"
	"crypto/x509"
	"strings"

	"github.com/yndnr/bindplan/internal/core/domain"
)

// ClientCertificateMode controls whether clients are asked for a
// certificate.
type ClientCertificateMode int

const (
	NoCertificate ClientCertificateMode = iota
	AllowCertificate
	RequireCertificate
)

// ParseClientCertificateMode parses none, allow or require.
func ParseClientCertificateMode(s string) (ClientCertificateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "nocertificate":
		return NoCertificate, nil
	case "allow", "allowcertificate":
		return AllowCertificate, nil
	case "require", "requirecertificate":
		return RequireCertificate, nil
	default:
		return 0, domain.ErrInvalidEndpointSetting.WithDetailsf("client_certificate_mode %q is not one of none, allow, require", s)
	}
}

func (m ClientCertificateMode) String() string {
	switch m {
	case AllowCertificate:
		return "allow"
	case RequireCertificate:
		return "require"
	default:
		return "none"
	}
}

// ParseSSLProtocols maps tls12/tls13 names to a version range. An empty
// list selects the library defaults (0, 0).
func ParseSSLProtocols(names []string) (minVersion, maxVersion uint16, err error) {
	for _, n := range names {
		var v uint16
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "tls12", "tls1.2":
			v = tls.VersionTLS12
		case "tls13", "tls1.3":
			v = tls.VersionTLS13
		case "none", "":
			continue
		default:
			return 0, 0, domain.ErrInvalidEndpointSetting.WithDetailsf("ssl_protocols %q is not one of tls12, tls13", n)
		}
		if minVersion == 0 || v < minVersion {
			minVersion = v
		}
		if v > maxVersion {
			maxVersion = v
		}
	}
	return minVersion, maxVersion, nil
}

// HTTPSOptions is the TLS material and negotiation settings of one
// endpoint. Each endpoint gets its own copy.
type HTTPSOptions struct {
	Certificate *tls.Certificate
	// GetCertificate, when set, is used instead of Certificate.
	GetCertificate func(*tls.ClientHelloInfo) (*tls.Certificate, error)

	ClientCertificateMode ClientCertificateMode
	ClientCAs             *x509.CertPool

	MinVersion uint16
	MaxVersion uint16
}

// Clone returns a shallow copy. Certificates and pools are shared.
func (o *HTTPSOptions) Clone() *HTTPSOptions {
	c := *o
	return &c
}

// HasCertificate reports whether a server certificate is available.
func (o *HTTPSOptions) HasCertificate() bool {
	return o != nil && (o.Certificate != nil || o.GetCertificate != nil)
}

// TLSConfig builds the server TLS configuration.
func (o *HTTPSOptions) TLSConfig(p Protocols) (*tls.Config, error) {
	if !o.HasCertificate() {
		return nil, domain.ErrCertificateMissing
	}

	cfg := &tls.Config{
		MinVersion: o.MinVersion,
		MaxVersion: o.MaxVersion,
		ClientCAs:  o.ClientCAs,
		NextProtos: p.NextProtos(),
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	if o.GetCertificate != nil {
		cfg.GetCertificate = o.GetCertificate
	} else {
		cfg.Certificates = []tls.Certificate{*o.Certificate}
	}

	switch o.ClientCertificateMode {
	case AllowCertificate:
		cfg.ClientAuth = tls.RequestClientCert
		if o.ClientCAs != nil {
			cfg.ClientAuth = tls.VerifyClientCertIfGiven
		}
	case RequireCertificate:
		cfg.ClientAuth = tls.RequireAnyClientCert
		if o.ClientCAs != nil {
			cfg.ClientAuth = tls.RequireAndVerifyClientCert
		}
	default:
		cfg.ClientAuth = tls.NoClientCert
	}
	return cfg, nil
}

// HTTPSAdapter marks an endpoint as speaking TLS.
type HTTPSAdapter struct {
	Options *HTTPSOptions
}

// Name implements Adapter.
func (a *HTTPSAdapter) Name() string { return "https" }

// IsHTTPS implements Adapter. It is always true.
func (a *HTTPSAdapter) IsHTTPS() bool { return true }
