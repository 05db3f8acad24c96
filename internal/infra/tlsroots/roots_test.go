package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	pool := NewPool()
	if pool == nil {
		t.Fatal("NewPool() returned nil")
	}
	if pool.Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if pool.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (system roots are not counted)", pool.Len())
	}
}

func TestAddCertPEM(t *testing.T) {
	pool := NewEmptyPool()

	ca, _ := generateCA(t)
	if err := pool.AddCertPEM(encodeCert(ca)); err != nil {
		t.Fatalf("AddCertPEM() error = %v", err)
	}
	if pool.Len() != 1 {
		t.Errorf("Len() = %d, want 1", pool.Len())
	}
}

func TestAddCertPEM_NoCerts(t *testing.T) {
	pool := NewEmptyPool()

	if err := pool.AddCertPEM([]byte{}); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertPEM() error = %v, want %v", err, ErrNoCertsFound)
	}

	if err := pool.AddCertPEM([]byte("not a certificate")); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertPEM() error = %v, want %v", err, ErrNoCertsFound)
	}
}

func TestAddCertPEM_SkipsKeys(t *testing.T) {
	pool := NewEmptyPool()

	ca, key := generateCA(t)
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}
	bundle := append(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), encodeCert(ca)...)

	if err := pool.AddCertPEM(bundle); err != nil {
		t.Fatalf("AddCertPEM() error = %v", err)
	}
	if pool.Len() != 1 {
		t.Errorf("Len() = %d, want 1", pool.Len())
	}
}

func TestAddCertPEM_InvalidCert(t *testing.T) {
	pool := NewEmptyPool()

	invalidPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: []byte("invalid certificate data"),
	})

	if err := pool.AddCertPEM(invalidPEM); err == nil {
		t.Error("AddCertPEM() expected error for invalid certificate")
	}
}

func TestAddCertFile_NotFound(t *testing.T) {
	pool := NewEmptyPool()

	if err := pool.AddCertFile("/nonexistent/path/cert.pem"); err == nil {
		t.Error("AddCertFile() expected error for nonexistent file")
	}
}

func TestAddCertDir(t *testing.T) {
	pool := NewEmptyPool()
	tmpDir := t.TempDir()

	for _, name := range []string{"ca1.pem", "ca2.crt", "ca3.CER"} {
		ca, _ := generateCA(t)
		if err := os.WriteFile(filepath.Join(tmpDir, name), encodeCert(ca), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	// Ignored: wrong extension, and a broken pem
	if err := os.WriteFile(filepath.Join(tmpDir, "readme.txt"), []byte("readme"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "broken.pem"), []byte("broken"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	added, err := pool.AddCertDir(tmpDir)
	if err != nil {
		t.Fatalf("AddCertDir() error = %v", err)
	}
	if added != 3 {
		t.Errorf("AddCertDir() added = %d, want 3", added)
	}
}

func TestAddCertDir_NotFound(t *testing.T) {
	pool := NewEmptyPool()

	if _, err := pool.AddCertDir("/nonexistent/directory"); err == nil {
		t.Error("AddCertDir() expected error for nonexistent directory")
	}
}

func TestVerifyServer(t *testing.T) {
	ca, caKey := generateCA(t)
	leaf := generateLeaf(t, ca, caKey, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	pool := NewEmptyPool()
	pool.AddCert(ca)

	if err := pool.VerifyServer(leaf, nil, time.Now()); err != nil {
		t.Errorf("VerifyServer() error = %v", err)
	}
}

func TestVerifyServer_UnknownAuthority(t *testing.T) {
	ca, caKey := generateCA(t)
	leaf := generateLeaf(t, ca, caKey, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	if err := NewEmptyPool().VerifyServer(leaf, nil, time.Now()); err == nil {
		t.Error("VerifyServer() expected error for unknown authority")
	}
}

func TestVerifyServer_Expired(t *testing.T) {
	ca, caKey := generateCA(t)
	leaf := generateLeaf(t, ca, caKey, time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))

	pool := NewEmptyPool()
	pool.AddCert(ca)

	if err := pool.VerifyServer(leaf, nil, time.Now()); err == nil {
		t.Error("VerifyServer() expected error for expired certificate")
	}
}

func encodeCert(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

// generateCA generates a self-signed CA certificate.
func generateCA(t *testing.T) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "Test Root",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}

	return cert, key
}

// generateLeaf generates a server certificate signed by ca.
func generateLeaf(t *testing.T, ca *x509.Certificate, caKey *ecdsa.PrivateKey, notBefore, notAfter time.Time) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "server.test.local"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, ca, &key.PublicKey, caKey)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	return cert
}
