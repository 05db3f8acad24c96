package certificate

import (
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/bindplan/internal/core/domain"
)

func TestLoadFile_PEMPair(t *testing.T) {
	dir := t.TempDir()
	tc := newTestCert(t, "api.example.test", nil, certOpts{})
	certPath := writeFile(t, filepath.Join(dir, "server.crt"), tc.certPEM)
	keyPath := writeFile(t, filepath.Join(dir, "server.key"), tc.keyPEM)

	cert, err := LoadFile(certPath, keyPath, "")
	require.NoError(t, err)
	require.NotNil(t, cert.Leaf)
	assert.Equal(t, "api.example.test", cert.Leaf.Subject.CommonName)
}

func TestLoadFile_PEMBundle(t *testing.T) {
	dir := t.TempDir()
	ca := newTestCert(t, "ca", nil, certOpts{isCA: true})
	leaf := newTestCert(t, "bundle.test", ca, certOpts{})
	path := writeFile(t, filepath.Join(dir, "bundle.pem"), leaf.certPEM, ca.certPEM, leaf.keyPEM)

	cert, err := LoadFile(path, "", "")
	require.NoError(t, err)
	assert.Len(t, cert.Certificate, 2)
	assert.Equal(t, "bundle.test", cert.Leaf.Subject.CommonName)
}

func TestLoadFile_EncryptedPEMKey(t *testing.T) {
	dir := t.TempDir()
	tc := newTestCert(t, "enc.test", nil, certOpts{})

	block, _ := pem.Decode(tc.keyPEM)
	//nolint:staticcheck // exercising legacy encrypted keys
	enc, err := x509.EncryptPEMBlock(rand.Reader, block.Type, block.Bytes, []byte("s3cret"), x509.PEMCipherAES256)
	require.NoError(t, err)

	certPath := writeFile(t, filepath.Join(dir, "enc.crt"), tc.certPEM)
	keyPath := writeFile(t, filepath.Join(dir, "enc.key"), pem.EncodeToMemory(enc))

	cert, err := LoadFile(certPath, keyPath, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "enc.test", cert.Leaf.Subject.CommonName)

	_, err = LoadFile(certPath, keyPath, "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsCertificateLoadError(err))
}

func TestLoadFile_PFX(t *testing.T) {
	cert, err := LoadFile(pfxFixture, "", pfxPassword)
	require.NoError(t, err)
	require.NotNil(t, cert.Leaf)
	assert.Equal(t, "localhost", cert.Leaf.Subject.CommonName)
	assert.Len(t, cert.Certificate, 2, "chain from the bundle is kept")
}

func TestLoadFile_PFXWrongPassword(t *testing.T) {
	_, err := LoadFile(pfxFixture, "", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCertificatePassword)
}

func TestLoadFile_PFXExtensionCaseInsensitive(t *testing.T) {
	path := copyFixture(t, pfxFixture, filepath.Join(t.TempDir(), "CERT.P12"))
	_, err := LoadFile(path, "", pfxPassword)
	require.NoError(t, err)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := writeFile(t, filepath.Join(dir, "garbage.pem"), []byte("not a certificate"))
	tc := newTestCert(t, "nokey.test", nil, certOpts{})
	certOnly := writeFile(t, filepath.Join(dir, "certonly.pem"), tc.certPEM)
	badPFX := writeFile(t, filepath.Join(dir, "bad.pfx"), []byte("junk"))

	tests := []struct {
		name    string
		cert    string
		key     string
		wantErr *domain.DomainError
	}{
		{"missing cert", filepath.Join(dir, "absent.pem"), "", domain.ErrCertificateFileNotFound},
		{"missing key", certOnly, filepath.Join(dir, "absent.key"), domain.ErrCertificateFileNotFound},
		{"garbage", garbage, "", domain.ErrCertificateInvalid},
		{"no key in file", certOnly, "", domain.ErrCertificateInvalid},
		{"bad pfx", badPFX, "", domain.ErrCertificateInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.cert, tt.key, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, domain.IsCertificateLoadError(err))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "<none>", Describe(nil))

	cert, err := LoadFile(pfxFixture, "", pfxPassword)
	require.NoError(t, err)
	d := Describe(cert)
	assert.Contains(t, d, "CN=localhost")
	assert.Contains(t, d, "bindplan test CA")
}
