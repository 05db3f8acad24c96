// Package tlsroots manages trusted root certificates.
package tlsroots

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")
)

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
	count    int
}

// NewPool creates a new certificate pool with system roots.
// If system roots cannot be loaded, it creates an empty pool.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		// Fall back to empty pool on systems where system certs aren't available
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a new empty certificate pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds certificates from a PEM file.
// Multiple certificates in the same file are supported.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}

	return p.AddCertPEM(data)
}

// AddCertPEM adds certificates from PEM-encoded data.
// Blocks other than CERTIFICATE (keys, parameters) are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var certsAdded int

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}

		p.AddCert(cert)
		certsAdded++
	}

	if certsAdded == 0 {
		return ErrNoCertsFound
	}

	return nil
}

// AddCert adds a certificate directly.
func (p *Pool) AddCert(cert *x509.Certificate) {
	p.certPool.AddCert(cert)
	p.count++
}

// AddCertDir adds all PEM files from a directory.
// Files must have .pem, .crt, or .cer extension; unreadable files are skipped.
// It returns the number of files that contributed certificates.
func (p *Pool) AddCertDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("tlsroots: read dir %s: %w", dir, err)
	}

	var added int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pem", ".crt", ".cer":
			if err := p.AddCertFile(filepath.Join(dir, entry.Name())); err != nil {
				continue
			}
			added++
		}
	}

	return added, nil
}

// Len returns the number of certificates explicitly added to the pool.
// System roots are not counted.
func (p *Pool) Len() int {
	return p.count
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// VerifyServer checks that leaf chains to a root in the pool and is usable
// for server authentication at the given time.
func (p *Pool) VerifyServer(leaf *x509.Certificate, intermediates []*x509.Certificate, now time.Time) error {
	inter := x509.NewCertPool()
	for _, c := range intermediates {
		inter.AddCert(c)
	}

	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         p.certPool,
		Intermediates: inter,
		CurrentTime:   now,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	if err != nil {
		return fmt.Errorf("tlsroots: verify %q: %w", leaf.Subject.CommonName, err)
	}
	return nil
}
