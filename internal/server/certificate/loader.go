package certificate

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/yndnr/bindplan/internal/core/domain"
)

// LoadFile loads a server certificate from disk.
//
// Files ending in .pfx or .p12 are decoded as PKCS#12 bundles with password
// (empty means unprotected). Anything else is read as PEM: the certificate
// chain from certPath and the private key from keyPath, or from certPath
// itself when keyPath is empty.
func LoadFile(certPath, keyPath, password string) (*tls.Certificate, error) {
	data, err := readCertFile(certPath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(certPath)) {
	case ".pfx", ".p12":
		return decodePKCS12(data, password, certPath)
	}

	keyData := data
	if keyPath != "" {
		if keyData, err = readCertFile(keyPath); err != nil {
			return nil, err
		}
	}

	if keyData, err = decryptKeyPEM(keyData, password, keyPathOr(keyPath, certPath)); err != nil {
		return nil, err
	}

	cert, err := tls.X509KeyPair(data, keyData)
	if err != nil {
		return nil, domain.ErrCertificateInvalid.WithDetails(certPath).WithCause(err)
	}
	return &cert, nil
}

func keyPathOr(keyPath, certPath string) string {
	if keyPath != "" {
		return keyPath
	}
	return certPath
}

func readCertFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCertificateFileNotFound.WithDetails(path).WithCause(err)
		}
		return nil, domain.ErrCertificateInvalid.WithDetails(path).WithCause(err)
	}
	return data, nil
}

// decodePKCS12 converts a pfx bundle into a key pair. Bundles may carry a
// chain; the leaf is the certificate whose public key matches the key.
func decodePKCS12(data []byte, password, path string) (*tls.Certificate, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, domain.ErrCertificatePassword.WithDetails(path)
		}
		return nil, domain.ErrCertificateInvalid.WithDetails(path).WithCause(err)
	}

	var (
		certs  [][]byte
		keyPEM []byte
	)
	for _, b := range blocks {
		switch b.Type {
		case "CERTIFICATE":
			certs = append(certs, pem.EncodeToMemory(&pem.Block{Type: b.Type, Bytes: b.Bytes}))
		case "PRIVATE KEY":
			keyPEM = pem.EncodeToMemory(&pem.Block{Type: b.Type, Bytes: b.Bytes})
		}
	}
	if keyPEM == nil || len(certs) == 0 {
		return nil, domain.ErrCertificateInvalid.WithDetails(path).
			WithCause(errors.New("bundle must contain a certificate and a private key"))
	}

	var lastErr error
	for i := range certs {
		ordered := make([]byte, 0)
		ordered = append(ordered, certs[i]...)
		for j, c := range certs {
			if j != i {
				ordered = append(ordered, c...)
			}
		}
		cert, err := tls.X509KeyPair(ordered, keyPEM)
		if err == nil {
			return &cert, nil
		}
		lastErr = err
	}
	return nil, domain.ErrCertificateInvalid.WithDetails(path).WithCause(lastErr)
}

// decryptKeyPEM decrypts legacy encrypted PEM private keys (Proc-Type
// headers). Other PEM data is returned unchanged.
func decryptKeyPEM(data []byte, password, path string) ([]byte, error) {
	var (
		out       []byte
		rest      = data
		encrypted bool
	)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if x509IsEncrypted(block) {
			encrypted = true
			der, err := x509Decrypt(block, password)
			if err != nil {
				return nil, domain.ErrCertificatePassword.WithDetails(path).WithCause(err)
			}
			block = &pem.Block{Type: block.Type, Bytes: der}
		}
		out = append(out, pem.EncodeToMemory(block)...)
	}
	if !encrypted {
		return data, nil
	}
	return out, nil
}

// Describe returns a one-line summary of a loaded certificate.
func Describe(cert *tls.Certificate) string {
	if cert == nil || cert.Leaf == nil {
		return "<none>"
	}
	return fmt.Sprintf("subject=%q issuer=%q not_after=%s",
		cert.Leaf.Subject.String(), cert.Leaf.Issuer.String(), cert.Leaf.NotAfter.UTC().Format("2006-01-02T15:04:05Z"))
}
