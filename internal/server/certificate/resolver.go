package certificate

import (
	"crypto/tls"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
	"github.com/yndnr/bindplan/internal/telemetry/metric"
)

// Metric source labels.
const (
	sourceFile        = "file"
	sourceStore       = "store"
	sourceEnvironment = "environment"
)

// Resolver turns certificate configuration into loaded certificates.
type Resolver struct {
	contentRoot string
	store       Store
	logger      logger.Logger
	metrics     *metric.Registry
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithContentRoot sets the directory relative certificate paths resolve
// against.
func WithContentRoot(dir string) ResolverOption {
	return func(r *Resolver) {
		r.contentRoot = dir
	}
}

// WithStore sets the certificate store used for store lookups.
func WithStore(s Store) ResolverOption {
	return func(r *Resolver) {
		r.store = s
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l logger.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithMetrics records certificate loads in m.
func WithMetrics(m *metric.Registry) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{logger: logger.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path resolves p against the content root. Absolute paths are returned
// unchanged.
func (r *Resolver) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.contentRoot == "" {
		return p
	}
	return filepath.Join(r.contentRoot, p)
}

// Resolve loads the certificate described by cfg for the named endpoint.
//
// It returns (nil, nil) when cfg declares no source. Declaring both a file
// and a store source is a configuration error naming the endpoint; so is
// an unknown store location. Load failures are certificate errors naming
// the endpoint.
func (r *Resolver) Resolve(cfg Config, endpointName string) (*tls.Certificate, error) {
	if cfg.IsFileCert() && cfg.IsStoreCert() {
		return nil, domain.ErrCertificateSourceConflict.WithDetailsf("endpoint %q", endpointName)
	}
	switch {
	case cfg.IsFileCert():
		return r.resolve(cfg, endpointName, sourceFile)
	case cfg.IsStoreCert():
		return r.resolveStore(cfg, endpointName)
	default:
		return nil, nil
	}
}

func (r *Resolver) resolve(cfg Config, endpointName, source string) (*tls.Certificate, error) {
	path := r.Path(cfg.Path)
	cert, err := LoadFile(path, r.Path(cfg.KeyPath), cfg.Password)
	if err != nil {
		r.metrics.RecordCertificateLoad(source, metric.CertFailed)
		return nil, forEndpoint(err, endpointName)
	}
	r.metrics.RecordCertificateLoad(source, metric.CertLoaded)
	r.logger.Debug("certificate loaded",
		"endpoint", endpointName,
		"source", source,
		"path", path,
		"certificate", Describe(cert),
	)
	return cert, nil
}

func (r *Resolver) resolveStore(cfg Config, endpointName string) (*tls.Certificate, error) {
	loc, err := ParseStoreLocation(cfg.Location)
	if err != nil {
		return nil, forEndpoint(err, endpointName)
	}
	q := StoreQuery{
		Subject:      cfg.Subject,
		StoreName:    cfg.Store,
		Location:     loc,
		AllowInvalid: cfg.AllowInvalid,
	}
	if q.StoreName == "" {
		q.StoreName = DefaultStoreName
	}

	if r.store == nil {
		r.metrics.RecordCertificateLoad(sourceStore, metric.CertFailed)
		return nil, domain.ErrCertificateStore.WithDetailsf("endpoint %q: no certificate store configured", endpointName)
	}

	cert, err := r.store.Find(q)
	if err != nil {
		r.metrics.RecordCertificateLoad(sourceStore, metric.CertFailed)
		return nil, forEndpoint(err, endpointName)
	}
	if cert == nil {
		r.metrics.RecordCertificateLoad(sourceStore, metric.CertMissing)
		return nil, domain.ErrCertificateNotInStore.WithDetailsf("endpoint %q: subject %q in %s/%s (allow_invalid=%t)",
			endpointName, q.Subject, q.Location, q.StoreName, q.AllowInvalid)
	}

	r.metrics.RecordCertificateLoad(sourceStore, metric.CertLoaded)
	r.logger.Debug("certificate loaded",
		"endpoint", endpointName,
		"source", sourceStore,
		"store", fmt.Sprintf("%s/%s", q.Location, q.StoreName),
		"certificate", Describe(cert),
	)
	return cert, nil
}

// Watch loads a file certificate and keeps it current as the files change.
// Only the file variant can be watched.
func (r *Resolver) Watch(cfg Config, endpointName string, opts ...WatcherOption) (*Watcher, error) {
	if !cfg.IsFileCert() {
		return nil, domain.ErrInvalidEndpointSetting.WithDetailsf("endpoint %q: only file certificates can be watched", endpointName)
	}
	if cfg.IsStoreCert() {
		return nil, domain.ErrCertificateSourceConflict.WithDetailsf("endpoint %q", endpointName)
	}
	opts = append([]WatcherOption{WithWatcherLogger(r.logger.With("endpoint", endpointName)), WithWatcherMetrics(r.metrics)}, opts...)
	w, err := NewWatcher(r.Path(cfg.Path), r.Path(cfg.KeyPath), cfg.Password, opts...)
	if err != nil {
		return nil, forEndpoint(err, endpointName)
	}
	return w, nil
}

// forEndpoint prefixes the details of a domain error with the endpoint name.
func forEndpoint(err error, endpointName string) error {
	var de *domain.DomainError
	if endpointName == "" || !errors.As(err, &de) {
		return err
	}
	details := fmt.Sprintf("endpoint %q", endpointName)
	if de.Details != "" {
		details += ": " + de.Details
	}
	return de.WithDetails(details)
}
