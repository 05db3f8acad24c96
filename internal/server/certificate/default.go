package certificate

import (
	"crypto/tls"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultCell holds the process-wide default certificate. It is assigned at
// most once; the first non-nil Set wins and later calls are ignored.
//
// The zero value is an empty cell ready for use. Startup code creates one
// cell and passes it to every bind pass of the process.
type DefaultCell struct {
	cert atomic.Pointer[tls.Certificate]
}

// Set stores cert if the cell is still empty and reports whether it did.
func (c *DefaultCell) Set(cert *tls.Certificate) bool {
	if cert == nil {
		return false
	}
	return c.cert.CompareAndSwap(nil, cert)
}

// Get returns the default certificate, or nil.
func (c *DefaultCell) Get() *tls.Certificate {
	return c.cert.Load()
}

// Provider supplies the environment default certificate. A nil certificate
// with a nil error means no default is available.
type Provider interface {
	DefaultCertificate() (*tls.Certificate, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (*tls.Certificate, error)

// DefaultCertificate implements Provider.
func (f ProviderFunc) DefaultCertificate() (*tls.Certificate, error) {
	return f()
}

// Environment variables overriding the configured default certificate.
const (
	EnvDefaultCertificatePath     = "BINDPLAN_DEFAULT_CERTIFICATE_PATH"
	EnvDefaultCertificateKeyPath  = "BINDPLAN_DEFAULT_CERTIFICATE_KEY_PATH"
	EnvDefaultCertificatePassword = "BINDPLAN_DEFAULT_CERTIFICATE_PASSWORD"
)

// EnvironmentProvider loads the default certificate from a file named by
// the environment, falling back to a configured file. The result of the
// first load (certificate or error) is cached.
type EnvironmentProvider struct {
	source   Config
	resolver *Resolver

	once sync.Once
	cert *tls.Certificate
	err  error
}

// NewEnvironmentProvider builds a provider from the configured fallback and
// the environment. lookupEnv defaults to os.LookupEnv when nil.
func NewEnvironmentProvider(fallback Config, resolver *Resolver, lookupEnv func(string) (string, bool)) *EnvironmentProvider {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if resolver == nil {
		resolver = NewResolver()
	}

	src := Config{
		Path:     fallback.Path,
		KeyPath:  fallback.KeyPath,
		Password: fallback.Password,
	}
	if v, ok := lookupEnv(EnvDefaultCertificatePath); ok {
		src.Path = v
		src.KeyPath = ""
		src.Password = ""
	}
	if v, ok := lookupEnv(EnvDefaultCertificateKeyPath); ok {
		src.KeyPath = v
	}
	if v, ok := lookupEnv(EnvDefaultCertificatePassword); ok {
		src.Password = v
	}

	return &EnvironmentProvider{source: src, resolver: resolver}
}

// Source returns the effective file source.
func (p *EnvironmentProvider) Source() Config {
	return p.source
}

// DefaultCertificate implements Provider.
func (p *EnvironmentProvider) DefaultCertificate() (*tls.Certificate, error) {
	p.once.Do(func() {
		if !p.source.IsFileCert() {
			return
		}
		p.cert, p.err = p.resolver.resolve(p.source, "environment default", sourceEnvironment)
	})
	return p.cert, p.err
}
