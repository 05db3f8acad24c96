package listen

import (
	"crypto/tls"
	"net/netip"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/server/certificate"
)

// ServerOptions holds the server-wide listen settings: programmatic
// endpoints, endpoint and HTTPS defaults, and the default certificate
// sources.
type ServerOptions struct {
	endpoints        []*Descriptor
	endpointDefaults func(*Descriptor)
	httpsDefaults    func(*HTTPSOptions)

	// DefaultCertificate is set once from the certificate named "Default".
	DefaultCertificate *certificate.DefaultCell
	// EnvironmentCertificate supplies the last-resort default certificate.
	EnvironmentCertificate certificate.Provider
}

// NewServerOptions returns options with an empty default certificate cell.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{DefaultCertificate: &certificate.DefaultCell{}}
}

func (o *ServerOptions) add(d *Descriptor, configure []func(*Descriptor)) *Descriptor {
	d.options = o
	o.ApplyEndpointDefaults(d)
	for _, fn := range configure {
		fn(d)
	}
	o.endpoints = append(o.endpoints, d)
	return d
}

// Listen adds an endpoint on a concrete address and port.
func (o *ServerOptions) Listen(ap netip.AddrPort, configure ...func(*Descriptor)) *Descriptor {
	return o.add(NewIPDescriptor(ap), configure)
}

// ListenAnyIP adds an endpoint on every interface.
func (o *ServerOptions) ListenAnyIP(port int, configure ...func(*Descriptor)) *Descriptor {
	return o.add(NewAnyIPDescriptor(port), configure)
}

// ListenLocalhost adds an endpoint on both loopback addresses.
func (o *ServerOptions) ListenLocalhost(port int, configure ...func(*Descriptor)) *Descriptor {
	return o.add(NewLocalhostDescriptor(port), configure)
}

// ListenUnixSocket adds a unix socket endpoint.
func (o *ServerOptions) ListenUnixSocket(path string, configure ...func(*Descriptor)) *Descriptor {
	return o.add(NewUnixSocketDescriptor(path), configure)
}

// ListenHandle adds an endpoint on an already open socket descriptor.
func (o *ServerOptions) ListenHandle(fd uintptr, configure ...func(*Descriptor)) *Descriptor {
	return o.add(NewHandleDescriptor(fd), configure)
}

// AddEndpoints appends descriptors built elsewhere, such as by a
// PlanBuilder, to the explicit endpoint list.
func (o *ServerOptions) AddEndpoints(ds ...*Descriptor) {
	for _, d := range ds {
		d.options = o
	}
	o.endpoints = append(o.endpoints, ds...)
}

// Endpoints returns the explicit endpoints in declaration order.
func (o *ServerOptions) Endpoints() []*Descriptor {
	return append([]*Descriptor(nil), o.endpoints...)
}

// ConfigureEndpointDefaults sets the procedure applied to every new
// endpoint. Endpoints added earlier are not affected.
func (o *ServerOptions) ConfigureEndpointDefaults(fn func(*Descriptor)) {
	o.endpointDefaults = fn
}

// ConfigureHTTPSDefaults sets the procedure applied to every new set of
// HTTPS options.
func (o *ServerOptions) ConfigureHTTPSDefaults(fn func(*HTTPSOptions)) {
	o.httpsDefaults = fn
}

// ApplyEndpointDefaults runs the endpoint defaults procedure on d.
func (o *ServerOptions) ApplyEndpointDefaults(d *Descriptor) {
	if o.endpointDefaults != nil {
		o.endpointDefaults(d)
	}
}

// ApplyHTTPSDefaults runs the HTTPS defaults procedure on opts.
func (o *ServerOptions) ApplyHTTPSDefaults(opts *HTTPSOptions) {
	if o.httpsDefaults != nil {
		o.httpsDefaults(opts)
	}
}

// NewHTTPSOptions returns HTTPS options with the defaults applied.
func (o *ServerOptions) NewHTTPSOptions() *HTTPSOptions {
	opts := &HTTPSOptions{}
	o.ApplyHTTPSDefaults(opts)
	return opts
}

// DefaultCertificateChain returns the first certificate available from the
// default sources, the "Default" certificate and then the environment
// provider, along with the name of the source. It returns nil without
// error when neither has one.
func (o *ServerOptions) DefaultCertificateChain() (*tls.Certificate, string, error) {
	if o.DefaultCertificate != nil {
		if cert := o.DefaultCertificate.Get(); cert != nil {
			return cert, "default", nil
		}
	}
	if o.EnvironmentCertificate != nil {
		cert, err := o.EnvironmentCertificate.DefaultCertificate()
		if err != nil {
			return nil, "", err
		}
		if cert != nil {
			return cert, "environment", nil
		}
	}
	return nil, "", nil
}

// ConfigureHTTPS attaches an HTTPS adapter to d using the HTTPS defaults
// and the default certificate sources. It fails when no certificate is
// available so callers can decide whether that is fatal.
func (o *ServerOptions) ConfigureHTTPS(d *Descriptor) error {
	opts := o.NewHTTPSOptions()
	if !opts.HasCertificate() {
		cert, _, err := o.DefaultCertificateChain()
		if err != nil {
			return err
		}
		if cert == nil {
			return domain.ErrCertificateMissing.WithDetails(d.display("https"))
		}
		opts.Certificate = cert
	}
	d.UseHTTPS(opts)
	return nil
}
