package listen

import (
	"crypto/tls"
	"errors"
	"fmt"
	"sort"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/server/certificate"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
	"github.com/yndnr/bindplan/internal/telemetry/metric"
)

// PlanBuilder turns configuration endpoints into descriptors.
type PlanBuilder struct {
	options   *ServerOptions
	resolver  *certificate.Resolver
	overrides *Overrides
	logger    logger.Logger
	metrics   *metric.Registry

	watch    bool
	watchers []*certificate.Watcher
}

// PlanOption configures a PlanBuilder.
type PlanOption func(*PlanBuilder)

// WithPlanLogger sets the builder logger.
func WithPlanLogger(l logger.Logger) PlanOption {
	return func(b *PlanBuilder) {
		b.logger = l
	}
}

// WithPlanMetrics records certificate expiry per endpoint in m.
func WithPlanMetrics(m *metric.Registry) PlanOption {
	return func(b *PlanBuilder) {
		b.metrics = m
	}
}

// WithCertificateWatch serves file certificates through watchers that
// reload them on change. Started watchers are returned by Watchers.
func WithCertificateWatch(enabled bool) PlanOption {
	return func(b *PlanBuilder) {
		b.watch = enabled
	}
}

// NewPlanBuilder creates a builder. overrides may be nil.
func NewPlanBuilder(opts *ServerOptions, resolver *certificate.Resolver, overrides *Overrides, options ...PlanOption) *PlanBuilder {
	b := &PlanBuilder{
		options:   opts,
		resolver:  resolver,
		overrides: overrides,
		logger:    logger.Default(),
	}
	for _, o := range options {
		o(b)
	}
	return b
}

// Watchers returns the certificate watchers created by Build.
func (b *PlanBuilder) Watchers() []*certificate.Watcher {
	return b.watchers
}

// LoadDefaultCertificate resolves the certificate entry named "Default",
// if any, and stores it as the process-wide default.
func (b *PlanBuilder) LoadDefaultCertificate(certificates map[string]certificate.Config) error {
	names := make([]string, 0, len(certificates))
	for name := range certificates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := certificates[name]
		if !certificate.IsDefaultName(name) {
			b.logger.Debug("ignoring named certificate", "certificate", name)
			continue
		}
		cert, err := b.resolver.Resolve(cfg, name)
		if err != nil {
			return err
		}
		if cert != nil && b.options.DefaultCertificate.Set(cert) {
			b.logger.Info("default certificate loaded", "certificate", certificate.Describe(cert))
		}
	}
	return nil
}

// Build loads the default certificate and returns one descriptor per
// endpoint, in the given order.
func (b *PlanBuilder) Build(endpoints []EndpointConfig, certificates map[string]certificate.Config) ([]*Descriptor, error) {
	if err := b.LoadDefaultCertificate(certificates); err != nil {
		return nil, err
	}

	out := make([]*Descriptor, 0, len(endpoints))
	for _, ep := range endpoints {
		d, err := b.buildEndpoint(ep)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (b *PlanBuilder) buildEndpoint(ep EndpointConfig) (*Descriptor, error) {
	d, https, err := ParseAddress(ep.URL)
	if err != nil {
		return nil, endpointError(err, ep.Name)
	}
	d.Name = ep.Name
	d.options = b.options
	b.options.ApplyEndpointDefaults(d)

	if ep.Protocols != "" {
		if d.Protocols, err = ParseProtocols(ep.Protocols); err != nil {
			return nil, endpointError(err, ep.Name)
		}
	}

	ctx := &EndpointContext{Name: ep.Name, Descriptor: d, Config: ep}
	if https {
		if ctx.HTTPS, err = b.httpsOptions(ep); err != nil {
			return nil, err
		}
	}

	if ov, ok := b.overrides.Lookup(ep.Name); ok {
		if err := ov.Apply(ctx); err != nil {
			return nil, fmt.Errorf("endpoint %q override: %w", ep.Name, err)
		}
	}

	if https && !d.IsHTTPS() {
		d.UseHTTPS(ctx.HTTPS)
	}
	if a := d.HTTPS(); a != nil && a.Options.Certificate != nil && a.Options.Certificate.Leaf != nil {
		b.metrics.SetCertificateExpiry(ep.Name, a.Options.Certificate.Leaf.NotAfter)
	}
	return d, nil
}

// httpsOptions builds the HTTPS options of one endpoint. The certificate
// comes from the first source that has one: the HTTPS defaults, the
// endpoint's own configuration, the "Default" certificate, the
// environment provider.
func (b *PlanBuilder) httpsOptions(ep EndpointConfig) (*HTTPSOptions, error) {
	opts := b.options.NewHTTPSOptions()

	if len(ep.SSLProtocols) > 0 {
		minV, maxV, err := ParseSSLProtocols(ep.SSLProtocols)
		if err != nil {
			return nil, endpointError(err, ep.Name)
		}
		opts.MinVersion, opts.MaxVersion = minV, maxV
	}
	if ep.ClientCertificateMode != "" {
		mode, err := ParseClientCertificateMode(ep.ClientCertificateMode)
		if err != nil {
			return nil, endpointError(err, ep.Name)
		}
		opts.ClientCertificateMode = mode
	}

	// The endpoint's own source is resolved even when the defaults already
	// carry a certificate so that broken entries are reported.
	configured, err := b.resolver.Resolve(ep.Certificate, ep.Name)
	if err != nil {
		return nil, err
	}
	if opts.HasCertificate() {
		return opts, nil
	}

	if configured != nil {
		opts.Certificate = configured
		if b.watch && ep.Certificate.IsFileCert() {
			w, err := b.resolver.Watch(ep.Certificate, ep.Name, certificate.OnReload(func(c *tls.Certificate) {
				if c.Leaf != nil {
					b.metrics.SetCertificateExpiry(ep.Name, c.Leaf.NotAfter)
				}
			}))
			if err != nil {
				return nil, err
			}
			opts.Certificate = w.Certificate()
			opts.GetCertificate = w.GetCertificate
			b.watchers = append(b.watchers, w)
		}
		return opts, nil
	}

	cert, source, err := b.options.DefaultCertificateChain()
	if err != nil {
		return nil, endpointError(err, ep.Name)
	}
	if cert != nil {
		b.logger.Debug("endpoint uses fallback certificate", "endpoint", ep.Name, "source", source)
	}
	opts.Certificate = cert
	return opts, nil
}

// endpointError names the endpoint in a domain error's details.
func endpointError(err error, name string) error {
	var de *domain.DomainError
	if name == "" || !errors.As(err, &de) {
		return err
	}
	details := fmt.Sprintf("endpoint %q", name)
	if de.Details != "" {
		details += ": " + de.Details
	}
	return de.WithDetails(details)
}
