package listen

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_Info(t *testing.T) {
	plain := ipEndpoint(t, "Plain", "127.0.0.1:5000")
	plain.Protocols = ProtocolsHTTP1

	info := plain.Info()
	assert.Equal(t, EndpointInfo{
		Name:      "Plain",
		Address:   "http://127.0.0.1:5000",
		Kind:      "ip",
		Scheme:    "http",
		Protocols: "http1",
	}, info)
}

func TestDescriptor_InfoCertificate(t *testing.T) {
	cert := loadFixture(t)
	d := NewLocalhostDescriptor(5001).UseHTTPS(&HTTPSOptions{Certificate: cert})

	info := d.Info()
	assert.Equal(t, "https://localhost:5001", info.Address)
	assert.Equal(t, "localhost", info.Kind)
	require.NotNil(t, info.Certificate)
	assert.Contains(t, info.Certificate.Subject, "CN=localhost")
	assert.Equal(t, cert.Leaf.NotAfter, info.Certificate.NotAfter)

	// Without a parsed leaf the first certificate is decoded.
	bare := &tls.Certificate{Certificate: cert.Certificate, PrivateKey: cert.PrivateKey}
	d2 := NewAnyIPDescriptor(443).UseHTTPS(&HTTPSOptions{Certificate: bare})
	require.NotNil(t, d2.Info().Certificate)
	assert.Equal(t, info.Certificate.Subject, d2.Info().Certificate.Subject)

	// HTTPS without a certificate reports none.
	assert.Nil(t, NewAnyIPDescriptor(443).UseHTTPS(nil).Info().Certificate)
}

func TestInfos(t *testing.T) {
	ds := []*Descriptor{ipEndpoint(t, "a", "127.0.0.1:1"), NewUnixSocketDescriptor("/run/b.sock")}
	infos := Infos(ds)
	require.Len(t, infos, 2)
	assert.Equal(t, "http://unix:/run/b.sock", infos[1].Address)
	assert.Empty(t, Infos(nil))
}
