package listen

import (
	"crypto/tls"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/server/certificate"
)

func TestServerOptions_Listen(t *testing.T) {
	o := NewServerOptions()
	o.ConfigureEndpointDefaults(func(d *Descriptor) { d.Protocols = ProtocolsHTTP1 })

	ip := o.Listen(netip.MustParseAddrPort("127.0.0.1:5001"))
	anyIP := o.ListenAnyIP(8080, func(d *Descriptor) { d.Protocols = ProtocolsHTTP2 })
	local := o.ListenLocalhost(5000)
	sock := o.ListenUnixSocket("/run/app.sock")
	fd := o.ListenHandle(3)

	assert.Equal(t, []*Descriptor{ip, anyIP, local, sock, fd}, o.Endpoints())
	assert.Equal(t, ProtocolsHTTP1, ip.Protocols, "defaults applied")
	assert.Equal(t, ProtocolsHTTP2, anyIP.Protocols, "configure runs after defaults")
	for _, d := range o.Endpoints() {
		assert.Same(t, o, d.Options())
	}

	eps := o.Endpoints()
	eps[0] = nil
	assert.NotNil(t, o.Endpoints()[0], "Endpoints returns a copy")
}

func TestServerOptions_AddEndpoints(t *testing.T) {
	o := NewServerOptions()
	d := NewAnyIPDescriptor(80)
	o.AddEndpoints(d)
	assert.Same(t, o, d.Options())
	assert.Len(t, o.Endpoints(), 1)
}

func TestServerOptions_ConfigureHTTPS(t *testing.T) {
	fixture := loadFixture(t)
	other := &tls.Certificate{}

	tests := []struct {
		name       string
		defaults   func(*HTTPSOptions)
		cell       *tls.Certificate
		env        certificate.Provider
		want       *tls.Certificate
		wantErr    error
		wantMinVer uint16
	}{
		{
			name:    "nothing available",
			wantErr: domain.ErrCertificateMissing,
		},
		{
			name: "https defaults first",
			defaults: func(o *HTTPSOptions) {
				o.Certificate = other
				o.MinVersion = tls.VersionTLS13
			},
			cell:       fixture,
			want:       other,
			wantMinVer: tls.VersionTLS13,
		},
		{
			name: "default cell",
			cell: fixture,
			env:  certificate.ProviderFunc(func() (*tls.Certificate, error) { return other, nil }),
			want: fixture,
		},
		{
			name: "environment provider",
			env:  certificate.ProviderFunc(func() (*tls.Certificate, error) { return fixture, nil }),
			want: fixture,
		},
		{
			name:    "environment provider empty",
			env:     certificate.ProviderFunc(func() (*tls.Certificate, error) { return nil, nil }),
			wantErr: domain.ErrCertificateMissing,
		},
		{
			name:    "environment provider failure",
			env:     certificate.ProviderFunc(func() (*tls.Certificate, error) { return nil, domain.ErrCertificateFileNotFound }),
			wantErr: domain.ErrCertificateFileNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewServerOptions()
			o.ConfigureHTTPSDefaults(tt.defaults)
			o.DefaultCertificate.Set(tt.cell)
			o.EnvironmentCertificate = tt.env

			d := NewLocalhostDescriptor(5443)
			err := o.ConfigureHTTPS(d)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.False(t, d.IsHTTPS())
				return
			}
			require.NoError(t, err)
			require.True(t, d.IsHTTPS())
			assert.Same(t, tt.want, d.HTTPS().Options.Certificate)
			assert.Equal(t, tt.wantMinVer, d.HTTPS().Options.MinVersion)
		})
	}
}

func TestServerOptions_ConfigureHTTPSErrorNamesEndpoint(t *testing.T) {
	err := NewServerOptions().ConfigureHTTPS(NewLocalhostDescriptor(5443))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://localhost:5443")
}

func TestServerOptions_NilCellAndProvider(t *testing.T) {
	o := &ServerOptions{}
	cert, source, err := o.DefaultCertificateChain()
	require.NoError(t, err)
	assert.Nil(t, cert)
	assert.Empty(t, source)
}
