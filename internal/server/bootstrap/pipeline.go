package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/infra/tlsroots"
	"github.com/yndnr/bindplan/internal/server/certificate"
	"github.com/yndnr/bindplan/internal/server/config"
	"github.com/yndnr/bindplan/internal/server/listen"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
	"github.com/yndnr/bindplan/internal/telemetry/metric"
)

// Pipeline is the bind pipeline of one server start.
type Pipeline struct {
	cfg       *config.ServerConfig
	logger    logger.Logger
	metrics   *metric.Registry
	overrides *listen.Overrides
	lookupEnv func(string) (string, bool)
	watch     bool

	options  *listen.ServerOptions
	resolver *certificate.Resolver
	builder  *listen.PlanBuilder

	planned bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used by every pipeline stage.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics records bind and certificate metrics in m.
func WithMetrics(m *metric.Registry) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithOverrides applies named endpoint overrides while planning.
func WithOverrides(o *listen.Overrides) Option {
	return func(p *Pipeline) {
		p.overrides = o
	}
}

// WithLookupEnv replaces os.LookupEnv for the environment default
// certificate.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(p *Pipeline) {
		p.lookupEnv = fn
	}
}

// WithoutCertificateWatch disables certificate watchers even when the
// configuration asks for them.
func WithoutCertificateWatch() Option {
	return func(p *Pipeline) {
		p.watch = false
	}
}

// New builds the server options, resolver and plan builder for cfg.
// Invalid endpoint or HTTPS defaults are reported here.
func New(cfg *config.ServerConfig, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:    cfg,
		logger: logger.Default(),
		watch:  cfg.Server.WatchCertificates,
	}
	for _, opt := range opts {
		opt(p)
	}

	storeDir := cfg.Server.StoreDir
	if storeDir == "" {
		storeDir = config.DefaultStoreDir
	}
	if !filepath.IsAbs(storeDir) && cfg.Server.ContentRoot != "" {
		storeDir = filepath.Join(cfg.Server.ContentRoot, storeDir)
	}
	p.resolver = certificate.NewResolver(
		certificate.WithContentRoot(cfg.Server.ContentRoot),
		certificate.WithStore(certificate.NewDirectoryStore(storeDir)),
		certificate.WithLogger(p.logger),
		certificate.WithMetrics(p.metrics),
	)

	options, err := p.serverOptions()
	if err != nil {
		return nil, err
	}
	p.options = options

	p.builder = listen.NewPlanBuilder(p.options, p.resolver, p.overrides,
		listen.WithPlanLogger(p.logger),
		listen.WithPlanMetrics(p.metrics),
		listen.WithCertificateWatch(p.watch),
	)
	return p, nil
}

func (p *Pipeline) serverOptions() (*listen.ServerOptions, error) {
	s := p.cfg.Server
	opts := listen.NewServerOptions()
	opts.EnvironmentCertificate = certificate.NewEnvironmentProvider(s.DefaultCertificate, p.resolver, p.lookupEnv)

	protocols, err := listen.ParseProtocols(s.EndpointDefaults.Protocols)
	if err != nil {
		return nil, defaultsError(err, "endpoint_defaults")
	}
	opts.ConfigureEndpointDefaults(func(d *listen.Descriptor) {
		d.Protocols = protocols
	})

	minV, maxV, err := listen.ParseSSLProtocols(s.HTTPSDefaults.SSLProtocols)
	if err != nil {
		return nil, defaultsError(err, "https_defaults")
	}
	mode, err := listen.ParseClientCertificateMode(s.HTTPSDefaults.ClientCertificateMode)
	if err != nil {
		return nil, defaultsError(err, "https_defaults")
	}
	var clientCAs *tlsroots.Pool
	if s.HTTPSDefaults.ClientCAFile != "" {
		clientCAs = tlsroots.NewEmptyPool()
		if err := clientCAs.AddCertFile(p.resolver.Path(s.HTTPSDefaults.ClientCAFile)); err != nil {
			return nil, domain.ErrInvalidEndpointSetting.
				WithDetails("https_defaults: client_ca_file").
				WithCause(err)
		}
	}
	opts.ConfigureHTTPSDefaults(func(o *listen.HTTPSOptions) {
		o.MinVersion, o.MaxVersion = minV, maxV
		o.ClientCertificateMode = mode
		if clientCAs != nil {
			o.ClientCAs = clientCAs.Pool()
		}
	})
	return opts, nil
}

func defaultsError(err error, section string) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.WithDetails(section + ": " + de.Details)
	}
	return fmt.Errorf("%s: %w", section, err)
}

// Options returns the server options. Programmatic endpoints may be added
// with Listen and friends before Bind.
func (p *Pipeline) Options() *listen.ServerOptions {
	return p.options
}

// Resolver returns the certificate resolver.
func (p *Pipeline) Resolver() *certificate.Resolver {
	return p.resolver
}

// Watchers returns the certificate watchers created while planning.
func (p *Pipeline) Watchers() []*certificate.Watcher {
	return p.builder.Watchers()
}

// Plan builds the configured endpoints and appends them to the explicit
// endpoint list. It runs at most once.
func (p *Pipeline) Plan() ([]*listen.Descriptor, error) {
	if p.planned {
		return nil, nil
	}
	ds, err := p.builder.Build(p.cfg.EndpointConfigs(), p.cfg.Server.Certificates)
	if err != nil {
		return nil, err
	}
	p.options.AddEndpoints(ds...)
	p.planned = true
	return ds, nil
}

// Bind plans the endpoints if needed and runs one bind pass through t.
// The returned Result is valid even when err is not nil and lists what
// was bound before the failure.
func (p *Pipeline) Bind(ctx context.Context, t listen.Transport) (*Result, error) {
	if _, err := p.Plan(); err != nil {
		return &Result{}, err
	}

	bc := &listen.BindContext{
		Addresses:              p.cfg.HostingAddresses(),
		Endpoints:              p.options.Endpoints(),
		PreferHostingAddresses: p.cfg.Server.PreferHostingURLs,
		Options:                p.options,
		Transport:              t,
	}
	binder := listen.NewBinder(
		listen.WithBinderLogger(p.logger),
		listen.WithBinderMetrics(p.metrics),
	)
	strategy, err := binder.Bind(ctx, bc)
	return &Result{
		strategy:  strategy,
		bound:     append([]*listen.Descriptor(nil), bc.Bound...),
		addresses: append([]string(nil), bc.Addresses...),
	}, err
}

// Certificate resolves the certificate an endpoint would be served with.
// The name "Default" selects the default certificate chain.
func (p *Pipeline) Certificate(name string) (*tls.Certificate, error) {
	if err := p.builder.LoadDefaultCertificate(p.cfg.Server.Certificates); err != nil {
		return nil, err
	}
	if certificate.IsDefaultName(name) {
		return p.defaultCertificate(name)
	}

	for _, ep := range p.cfg.EndpointConfigs() {
		if !strings.EqualFold(ep.Name, name) {
			continue
		}
		cert, err := p.resolver.Resolve(ep.Certificate, ep.Name)
		if err != nil || cert != nil {
			return cert, err
		}
		return p.defaultCertificate(ep.Name)
	}
	return nil, fmt.Errorf("endpoint %q is not configured", name)
}

func (p *Pipeline) defaultCertificate(name string) (*tls.Certificate, error) {
	cert, _, err := p.options.DefaultCertificateChain()
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, domain.ErrCertificateMissing.WithDetailsf("endpoint %q", name)
	}
	return cert, nil
}
