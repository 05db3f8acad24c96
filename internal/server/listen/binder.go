package listen

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
	"github.com/yndnr/bindplan/internal/telemetry/metric"
)

// BindContext is the state of one bind pass. It must not be reused.
//
// After Bind returns, Bound holds the endpoints bound in order and
// Addresses holds their display names. When hosting addresses win,
// Endpoints is cleared.
type BindContext struct {
	// Addresses are the hosting addresses.
	Addresses []string
	// Endpoints are the explicit endpoints in declaration order.
	Endpoints []*Descriptor
	// PreferHostingAddresses lets hosting addresses replace explicit
	// endpoints when both are present.
	PreferHostingAddresses bool

	// Options supplies endpoint defaults and the default certificates.
	Options   *ServerOptions
	Transport Transport

	Bound []*Descriptor
}

// Binder executes bind passes.
type Binder struct {
	logger  logger.Logger
	metrics *metric.Registry
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithBinderLogger sets the binder logger.
func WithBinderLogger(l logger.Logger) BinderOption {
	return func(b *Binder) {
		b.logger = l
	}
}

// WithBinderMetrics records bind attempts in m.
func WithBinderMetrics(m *metric.Registry) BinderOption {
	return func(b *Binder) {
		b.metrics = m
	}
}

// NewBinder creates a binder.
func NewBinder(opts ...BinderOption) *Binder {
	b := &Binder{logger: logger.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind selects a strategy for bc and binds its endpoints one at a time.
// The first failure stops the pass; endpoints bound before it stay in
// bc.Bound and are not released.
func (b *Binder) Bind(ctx context.Context, bc *BindContext) (Strategy, error) {
	if bc.Options == nil {
		bc.Options = NewServerOptions()
	}
	if logger.PassIDFromContext(ctx) == "" {
		ctx = logger.WithPassID(ctx, logger.NewPassID())
	}
	ctx = logger.WithLogger(ctx, b.logger)
	p := &pass{Binder: b, bc: bc, log: logger.L(ctx)}

	strategy := SelectStrategy(len(bc.Endpoints) > 0, len(bc.Addresses) > 0, bc.PreferHostingAddresses)
	b.metrics.RecordStrategy(strategy.String())
	p.log.Debug("bind strategy selected", "strategy", strategy.String())

	addresses := append([]string(nil), bc.Addresses...)
	bc.Addresses = bc.Addresses[:0]
	bc.Bound = bc.Bound[:0]

	var err error
	switch strategy {
	case OverrideExplicitWithHostingAddresses:
		p.log.Warn("hosting addresses override explicit endpoints",
			"addresses", addresses,
			"discarded_endpoints", displayNames(bc.Endpoints),
		)
		bc.Endpoints = nil
		err = p.bindAddresses(ctx, addresses)
	case UseHostingAddresses:
		bc.Endpoints = nil
		err = p.bindAddresses(ctx, addresses)
	case OverrideHostingAddressesWithExplicit:
		p.log.Warn("explicit endpoints override hosting addresses",
			"discarded_addresses", addresses,
			"endpoints", displayNames(bc.Endpoints),
		)
		err = p.bindEndpoints(ctx, bc.Endpoints)
	case UseExplicitEndpoints:
		err = p.bindEndpoints(ctx, bc.Endpoints)
	default:
		err = p.bindDefaults(ctx)
	}

	b.metrics.SetBoundEndpoints(len(bc.Bound))
	return strategy, err
}

type pass struct {
	*Binder
	bc  *BindContext
	log logger.Logger
}

func (p *pass) bindEndpoints(ctx context.Context, ds []*Descriptor) error {
	for _, d := range ds {
		if err := p.bind(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) bindAddresses(ctx context.Context, addresses []string) error {
	for _, addr := range addresses {
		d, https, err := ParseAddress(addr)
		if err != nil {
			return err
		}
		d.options = p.bc.Options
		p.bc.Options.ApplyEndpointDefaults(d)
		if https && !d.IsHTTPS() {
			if err := p.bc.Options.ConfigureHTTPS(d); err != nil {
				return err
			}
		}
		if err := p.bind(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) bindDefaults(ctx context.Context) error {
	opts := p.bc.Options

	d, _, err := ParseAddress(DefaultHTTPAddress)
	if err != nil {
		return err
	}
	d.options = opts
	opts.ApplyEndpointDefaults(d)
	if err := p.bind(ctx, d); err != nil {
		return err
	}

	hd, _, err := ParseAddress(DefaultHTTPSAddress)
	if err != nil {
		return err
	}
	hd.options = opts
	opts.ApplyEndpointDefaults(hd)
	if !hd.IsHTTPS() {
		if err := opts.ConfigureHTTPS(hd); err != nil {
			p.log.Debug("default https endpoint skipped",
				"address", DefaultHTTPSAddress,
				"reason", err.Error(),
			)
			return nil
		}
	}
	return p.bind(ctx, hd)
}

// bind binds one endpoint and records it. A localhost endpoint binds the
// IPv6 loopback and then the IPv4 loopback; a dynamic port picked for the
// first is reused for the second.
func (p *pass) bind(ctx context.Context, d *Descriptor) error {
	if a := d.HTTPS(); a != nil && !a.Options.HasCertificate() {
		return domain.ErrCertificateMissing.WithDetails(d.String())
	}

	if d.Kind() == KindLocalhost {
		pair := d.loopbackPair()
		for i, c := range pair {
			if i > 0 && d.port == 0 {
				c.port = pair[0].Port()
			}
			if err := p.transportBind(ctx, c, d); err != nil {
				return err
			}
		}
		d.SetBoundAddr(pair[0].BoundAddr())
	} else if err := p.transportBind(ctx, d, d); err != nil {
		return err
	}

	p.bc.Bound = append(p.bc.Bound, d)
	p.bc.Addresses = append(p.bc.Addresses, d.String())
	p.log.Info("now listening on", "address", d.String(), "endpoint", d.Name)
	return nil
}

// transportBind binds target and reports failures against display.
func (p *pass) transportBind(ctx context.Context, target, display *Descriptor) error {
	start := time.Now()
	err := p.bc.Transport.Bind(ctx, target)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		p.metrics.ObserveBind(display.Kind().String(), display.Scheme(), metric.ResultSuccess, elapsed)
		return nil
	case isAddressInUse(err):
		p.metrics.ObserveBind(display.Kind().String(), display.Scheme(), metric.ResultAddressInUse, elapsed)
		return domain.ErrAddressInUse.WithDetails(display.String()).WithCause(err)
	default:
		p.metrics.ObserveBind(display.Kind().String(), display.Scheme(), metric.ResultError, elapsed)
		return fmt.Errorf("bind %s: %w", display.String(), err)
	}
}

func isAddressInUse(err error) bool {
	return errors.Is(err, ErrAddressInUse) || errors.Is(err, syscall.EADDRINUSE) || errors.Is(err, domain.ErrAddressInUse)
}

func displayNames(ds []*Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}
