package listen

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"sync"

	"github.com/yndnr/bindplan/internal/core/domain"
)

// ErrAddressInUse is returned by transports when the address is taken.
// Binder also recognizes syscall.EADDRINUSE.
var ErrAddressInUse = errors.New("listen: address already in use")

// Transport performs the socket bind for one descriptor. Implementations
// record the bound address with SetBoundAddr.
type Transport interface {
	Bind(ctx context.Context, d *Descriptor) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, d *Descriptor) error

// Bind implements Transport.
func (f TransportFunc) Bind(ctx context.Context, d *Descriptor) error {
	return f(ctx, d)
}

// Listener is a bound socket and the descriptor it was bound for.
type Listener struct {
	net.Listener
	Descriptor *Descriptor
}

// NetTransport binds real sockets. HTTPS descriptors are wrapped in a TLS
// listener.
type NetTransport struct {
	lc net.ListenConfig

	mu        sync.Mutex
	listeners []Listener
}

// NewNetTransport returns a transport using lc. The zero ListenConfig is
// fine for most uses.
func NewNetTransport(lc net.ListenConfig) *NetTransport {
	return &NetTransport{lc: lc}
}

// Bind implements Transport.
func (t *NetTransport) Bind(ctx context.Context, d *Descriptor) error {
	ln, err := t.listen(ctx, d)
	if err != nil {
		return err
	}
	d.SetBoundAddr(ln.Addr())

	if !d.NoDelay {
		ln = delayListener{ln}
	}
	if a := d.HTTPS(); a != nil {
		cfg, err := a.Options.TLSConfig(d.Protocols)
		if err != nil {
			ln.Close()
			return err
		}
		ln = tls.NewListener(ln, cfg)
	}

	t.mu.Lock()
	t.listeners = append(t.listeners, Listener{Listener: ln, Descriptor: d})
	t.mu.Unlock()
	return nil
}

func (t *NetTransport) listen(ctx context.Context, d *Descriptor) (net.Listener, error) {
	switch d.Kind() {
	case KindIP:
		return t.lc.Listen(ctx, "tcp", netip.AddrPortFrom(d.IP(), uint16(d.ConfiguredPort())).String())
	case KindAnyIP:
		return t.lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", d.ConfiguredPort()))
	case KindUnixSocket:
		return t.lc.Listen(ctx, "unix", d.SocketPath())
	case KindHandle:
		f := os.NewFile(d.Handle(), fmt.Sprintf("fd:%d", d.Handle()))
		if f == nil {
			return nil, domain.ErrUnsupportedEndpoint.WithDetails(d.String())
		}
		defer f.Close()
		return net.FileListener(f)
	default:
		return nil, domain.ErrUnsupportedEndpoint.WithDetails(d.String())
	}
}

// Listeners returns the bound listeners in bind order.
func (t *NetTransport) Listeners() []Listener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Listener(nil), t.listeners...)
}

// Close closes every bound listener.
func (t *NetTransport) Close() error {
	t.mu.Lock()
	ls := t.listeners
	t.listeners = nil
	t.mu.Unlock()

	var errs []error
	for _, l := range ls {
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// delayListener turns TCP_NODELAY off on accepted connections.
type delayListener struct {
	net.Listener
}

func (l delayListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tcp, ok := c.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(false)
	}
	return c, nil
}

// RecordingTransport records descriptors without opening sockets. Dynamic
// ports are reported as bound on port 0.
type RecordingTransport struct {
	mu    sync.Mutex
	bound []*Descriptor
}

// Bind implements Transport.
func (t *RecordingTransport) Bind(_ context.Context, d *Descriptor) error {
	if d.Kind() == KindLocalhost {
		return domain.ErrUnsupportedEndpoint.WithDetails(d.String())
	}
	t.mu.Lock()
	t.bound = append(t.bound, d)
	t.mu.Unlock()
	return nil
}

// Bound returns the recorded descriptors in bind order.
func (t *RecordingTransport) Bound() []*Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Descriptor(nil), t.bound...)
}
