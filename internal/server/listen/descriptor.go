package listen

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/yndnr/bindplan/internal/core/domain"
)

// Kind identifies what a Descriptor binds to.
type Kind int

const (
	// KindIP is a concrete IP address and port.
	KindIP Kind = iota + 1
	// KindAnyIP is every interface on a port.
	KindAnyIP
	// KindLocalhost is the IPv6 and IPv4 loopback pair on a port.
	KindLocalhost
	// KindUnixSocket is a unix domain socket path.
	KindUnixSocket
	// KindHandle is an already opened socket file descriptor.
	KindHandle
)

// String returns the kind name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindIP:
		return "ip"
	case KindAnyIP:
		return "any_ip"
	case KindLocalhost:
		return "localhost"
	case KindUnixSocket:
		return "unix"
	case KindHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Protocols selects the HTTP versions an endpoint negotiates.
type Protocols int

const (
	ProtocolsHTTP1 Protocols = 1 << iota
	ProtocolsHTTP2

	ProtocolsHTTP1AndHTTP2 = ProtocolsHTTP1 | ProtocolsHTTP2
)

// ParseProtocols parses http1, http2 or http1andhttp2 case-insensitively.
func ParseProtocols(s string) (Protocols, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http1":
		return ProtocolsHTTP1, nil
	case "http2":
		return ProtocolsHTTP2, nil
	case "http1andhttp2", "":
		return ProtocolsHTTP1AndHTTP2, nil
	default:
		return 0, domain.ErrInvalidEndpointSetting.WithDetailsf("protocols %q is not one of http1, http2, http1andhttp2", s)
	}
}

func (p Protocols) String() string {
	switch p {
	case ProtocolsHTTP1:
		return "http1"
	case ProtocolsHTTP2:
		return "http2"
	case ProtocolsHTTP1AndHTTP2:
		return "http1andhttp2"
	default:
		return "Protocols(" + strconv.Itoa(int(p)) + ")"
	}
}

// NextProtos returns the ALPN identifiers, preferred first.
func (p Protocols) NextProtos() []string {
	var out []string
	if p&ProtocolsHTTP2 != 0 {
		out = append(out, "h2")
	}
	if p&ProtocolsHTTP1 != 0 {
		out = append(out, "http/1.1")
	}
	return out
}

// Adapter is a protocol behavior attached to an endpoint.
type Adapter interface {
	Name() string
	IsHTTPS() bool
}

// Descriptor identifies one bind target. The address part is fixed at
// construction; name, protocols and adapters may be changed by defaults
// and overrides until the endpoint is bound.
type Descriptor struct {
	kind       Kind
	ip         netip.Addr
	port       int
	socketPath string
	handle     uintptr

	// Name is the configuration endpoint name, empty for programmatic
	// endpoints and hosting addresses.
	Name      string
	Protocols Protocols
	// NoDelay controls TCP_NODELAY on accepted connections.
	NoDelay  bool
	Adapters []Adapter

	options *ServerOptions
	bound   net.Addr
}

func newDescriptor(kind Kind) *Descriptor {
	return &Descriptor{
		kind:      kind,
		Protocols: ProtocolsHTTP1AndHTTP2,
		NoDelay:   true,
	}
}

// NewIPDescriptor returns a descriptor for a concrete address and port.
func NewIPDescriptor(ap netip.AddrPort) *Descriptor {
	d := newDescriptor(KindIP)
	d.ip = ap.Addr().Unmap()
	d.port = int(ap.Port())
	return d
}

// NewAnyIPDescriptor returns a descriptor for every interface on port.
func NewAnyIPDescriptor(port int) *Descriptor {
	d := newDescriptor(KindAnyIP)
	d.port = port
	return d
}

// NewLocalhostDescriptor returns a descriptor for both loopback addresses
// on port.
func NewLocalhostDescriptor(port int) *Descriptor {
	d := newDescriptor(KindLocalhost)
	d.port = port
	return d
}

// NewUnixSocketDescriptor returns a descriptor for a unix socket path.
func NewUnixSocketDescriptor(path string) *Descriptor {
	d := newDescriptor(KindUnixSocket)
	d.socketPath = path
	return d
}

// NewHandleDescriptor returns a descriptor for an open socket descriptor.
func NewHandleDescriptor(fd uintptr) *Descriptor {
	d := newDescriptor(KindHandle)
	d.handle = fd
	return d
}

// Kind reports which bind target the descriptor holds.
func (d *Descriptor) Kind() Kind { return d.kind }

// IP returns the address of a KindIP descriptor.
func (d *Descriptor) IP() netip.Addr { return d.ip }

// SocketPath returns the path of a KindUnixSocket descriptor.
func (d *Descriptor) SocketPath() string { return d.socketPath }

// Handle returns the file descriptor of a KindHandle descriptor.
func (d *Descriptor) Handle() uintptr { return d.handle }

// Options returns the server options the descriptor was created from,
// or nil.
func (d *Descriptor) Options() *ServerOptions { return d.options }

// Port returns the bound port once bound, the configured port otherwise.
func (d *Descriptor) Port() int {
	if tcp, ok := d.bound.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return d.port
}

// ConfiguredPort returns the port as declared, 0 for dynamic ports.
func (d *Descriptor) ConfiguredPort() int {
	return d.port
}

// BoundAddr returns the address reported by the transport, or nil.
func (d *Descriptor) BoundAddr() net.Addr {
	return d.bound
}

// SetBoundAddr records the address the transport bound. Transports call
// it so dynamic ports show up in display names.
func (d *Descriptor) SetBoundAddr(addr net.Addr) {
	d.bound = addr
}

// Scheme returns https when an HTTPS adapter is attached.
func (d *Descriptor) Scheme() string {
	if d.IsHTTPS() {
		return "https"
	}
	return "http"
}

// String returns the display form, e.g. "https://127.0.0.1:5001".
func (d *Descriptor) String() string {
	return d.display(d.Scheme())
}

func (d *Descriptor) display(scheme string) string {
	switch d.kind {
	case KindIP:
		return scheme + "://" + netip.AddrPortFrom(d.ip, uint16(d.Port())).String()
	case KindAnyIP:
		return fmt.Sprintf("%s://[::]:%d", scheme, d.Port())
	case KindLocalhost:
		return fmt.Sprintf("%s://localhost:%d", scheme, d.Port())
	case KindUnixSocket:
		return scheme + "://unix:" + d.socketPath
	case KindHandle:
		return fmt.Sprintf("%s://fd:%d", scheme, d.handle)
	default:
		return scheme + "://<unknown>"
	}
}

// IsHTTPS reports whether any attached adapter is an HTTPS adapter.
func (d *Descriptor) IsHTTPS() bool {
	for _, a := range d.Adapters {
		if a.IsHTTPS() {
			return true
		}
	}
	return false
}

// HTTPS returns the first attached HTTPS adapter, or nil.
func (d *Descriptor) HTTPS() *HTTPSAdapter {
	for _, a := range d.Adapters {
		if h, ok := a.(*HTTPSAdapter); ok {
			return h
		}
	}
	return nil
}

// UseHTTPS attaches an HTTPS adapter built from opts. opts may carry no
// certificate; binding such an endpoint fails.
func (d *Descriptor) UseHTTPS(opts *HTTPSOptions) *Descriptor {
	if opts == nil {
		opts = &HTTPSOptions{}
	}
	d.Adapters = append(d.Adapters, &HTTPSAdapter{Options: opts})
	return d
}

// RemoveHTTPS detaches all HTTPS adapters.
func (d *Descriptor) RemoveHTTPS() {
	kept := d.Adapters[:0]
	for _, a := range d.Adapters {
		if !a.IsHTTPS() {
			kept = append(kept, a)
		}
	}
	d.Adapters = kept
}

// loopbackPair splits a localhost descriptor into its IPv6 and IPv4
// loopback binds. Both share the parent's settings and adapters.
func (d *Descriptor) loopbackPair() [2]*Descriptor {
	var pair [2]*Descriptor
	for i, ip := range []netip.Addr{netip.IPv6Loopback(), netip.AddrFrom4([4]byte{127, 0, 0, 1})} {
		c := NewIPDescriptor(netip.AddrPortFrom(ip, uint16(d.port)))
		c.Name = d.Name
		c.Protocols = d.Protocols
		c.NoDelay = d.NoDelay
		c.Adapters = append([]Adapter(nil), d.Adapters...)
		c.options = d.options
		pair[i] = c
	}
	return pair
}
