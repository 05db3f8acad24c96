package listen

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/yndnr/bindplan/internal/core/domain"
)

// Built-in addresses bound when no endpoint source is present.
const (
	DefaultHTTPAddress  = "http://localhost:5080"
	DefaultHTTPSAddress = "https://localhost:5443"
)

const unixHostPrefix = "unix:"

// Address is a parsed endpoint URL of the form
// scheme://host[:port][/pathbase] or scheme://unix:/socket/path.
type Address struct {
	Scheme     string
	Host       string
	Port       int
	PathBase   string
	SocketPath string
}

// IsHTTPS reports whether the scheme is https.
func (a Address) IsHTTPS() bool {
	return a.Scheme == "https"
}

// IsUnixSocket reports whether the address names a unix socket.
func (a Address) IsUnixSocket() bool {
	return a.SocketPath != ""
}

// ParseURL parses the endpoint URL grammar without validating the scheme
// or path base. A missing port defaults to 80 for http and 443 for https.
func ParseURL(raw string) (Address, error) {
	i := strings.Index(raw, "://")
	if i <= 0 {
		return Address{}, domain.ErrInvalidAddress.WithDetailsf("%q: missing scheme", raw)
	}
	a := Address{Scheme: strings.ToLower(raw[:i])}
	rest := raw[i+3:]

	if len(rest) > len(unixHostPrefix) && strings.EqualFold(rest[:len(unixHostPrefix)], unixHostPrefix) && rest[len(unixHostPrefix)] == '/' {
		a.Host = unixHostPrefix
		a.SocketPath = rest[len(unixHostPrefix):]
		return a, nil
	}

	hostPort := rest
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		hostPort = rest[:slash]
		a.PathBase = strings.TrimRight(rest[slash:], "/")
	}

	host, portStr, err := splitHostPort(hostPort)
	if err != nil {
		return Address{}, domain.ErrInvalidAddress.WithDetailsf("%q: %s", raw, err.Error())
	}
	if host == "" {
		return Address{}, domain.ErrInvalidAddress.WithDetailsf("%q: missing host", raw)
	}
	a.Host = host

	switch {
	case portStr != "":
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 0 || port > 65535 {
			return Address{}, domain.ErrInvalidAddress.WithDetailsf("%q: invalid port %q", raw, portStr)
		}
		a.Port = port
	case a.IsHTTPS():
		a.Port = 443
	default:
		a.Port = 80
	}
	return a, nil
}

type addrError string

func (e addrError) Error() string { return string(e) }

// splitHostPort accepts "host", "host:port", "[v6]" and "[v6]:port".
// A ':' must be followed by a port.
func splitHostPort(s string) (host, port string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", "", addrError("missing ']' in host")
		}
		host, tail := s[1:end], s[end+1:]
		switch {
		case tail == "":
			return host, "", nil
		case tail == ":":
			return "", "", addrError("missing port after ':'")
		case tail[0] == ':':
			return host, tail[1:], nil
		default:
			return "", "", addrError("unexpected text after ']'")
		}
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		if strings.IndexByte(s[:i], ':') >= 0 {
			return "", "", addrError("IPv6 addresses must be enclosed in brackets")
		}
		if i == len(s)-1 {
			return "", "", addrError("missing port after ':'")
		}
		return s[:i], s[i+1:], nil
	}
	return s, "", nil
}

// ParseAddress parses an endpoint URL into a descriptor and reports
// whether the endpoint requires HTTPS. The scheme must be http or https
// and the URL must not carry a path base. The host is classified as a
// unix socket, the localhost pair, an IP literal, or otherwise every
// interface (hostnames, "*" and "+").
//
// The returned descriptor has no adapters; the caller attaches HTTPS.
func ParseAddress(raw string) (*Descriptor, bool, error) {
	a, err := ParseURL(raw)
	if err != nil {
		return nil, false, err
	}
	if a.Scheme != "http" && a.Scheme != "https" {
		return nil, false, domain.ErrUnsupportedScheme.WithDetailsf("%q: scheme %q is not http or https", raw, a.Scheme)
	}
	if a.PathBase != "" {
		return nil, false, domain.ErrPathBaseNotAllowed.WithDetailsf("%q: path base %q", raw, a.PathBase)
	}
	return a.Descriptor(), a.IsHTTPS(), nil
}

// Descriptor classifies the host and returns a descriptor for it.
func (a Address) Descriptor() *Descriptor {
	switch {
	case a.IsUnixSocket():
		return NewUnixSocketDescriptor(a.SocketPath)
	case strings.EqualFold(a.Host, "localhost"):
		return NewLocalhostDescriptor(a.Port)
	}
	if ip, err := netip.ParseAddr(a.Host); err == nil {
		return NewIPDescriptor(netip.AddrPortFrom(ip, uint16(a.Port)))
	}
	return NewAnyIPDescriptor(a.Port)
}
