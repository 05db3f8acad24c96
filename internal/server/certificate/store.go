package certificate

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/infra/tlsroots"
)

// StoreQuery selects a certificate from a store.
type StoreQuery struct {
	Subject      string
	StoreName    string
	Location     StoreLocation
	AllowInvalid bool
}

// Store looks up certificates by subject.
// Find returns nil and no error when nothing matches.
type Store interface {
	Find(q StoreQuery) (*tls.Certificate, error)
}

// rootStoreName holds additional trust anchors inside a location.
const rootStoreName = "Root"

// DirectoryStore is a Store backed by a directory tree:
//
//	<root>/<location>/<store>/*.pem|*.crt|*.cer|*.pfx|*.p12
//
// PEM entries must carry the private key next to the certificate. pfx
// entries must be unprotected. Entries are scanned in lexical file order
// and the first usable match wins.
type DirectoryStore struct {
	root        string
	now         func() time.Time
	systemRoots bool
}

// StoreOption configures a DirectoryStore.
type StoreOption func(*DirectoryStore)

// WithClock sets the time source used for validity checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *DirectoryStore) {
		s.now = now
	}
}

// WithSystemRoots controls whether the system trust store is included when
// validating candidates. Enabled by default.
func WithSystemRoots(enabled bool) StoreOption {
	return func(s *DirectoryStore) {
		s.systemRoots = enabled
	}
}

// NewDirectoryStore creates a store rooted at dir.
func NewDirectoryStore(dir string, opts ...StoreOption) *DirectoryStore {
	s := &DirectoryStore{
		root:        dir,
		now:         time.Now,
		systemRoots: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store root directory.
func (s *DirectoryStore) Root() string {
	return s.root
}

// Find implements Store.
func (s *DirectoryStore) Find(q StoreQuery) (*tls.Certificate, error) {
	storeName := q.StoreName
	if storeName == "" {
		storeName = DefaultStoreName
	}
	dir := filepath.Join(s.root, q.Location.String(), storeName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.ErrCertificateStore.WithDetails(dir).WithCause(err)
	}

	needle := strings.ToLower(q.Subject)
	var roots *tlsroots.Pool

	for _, e := range entries {
		if e.IsDir() || !isStoreEntry(e.Name()) {
			continue
		}
		cert, err := LoadFile(filepath.Join(dir, e.Name()), "", "")
		if err != nil {
			continue
		}
		leaf, err := leafOf(cert)
		if err != nil || !subjectMatches(leaf, needle) {
			continue
		}
		if !q.AllowInvalid {
			if roots == nil {
				if roots, err = s.trustRoots(q.Location); err != nil {
					return nil, err
				}
			}
			if err := roots.VerifyServer(leaf, intermediatesOf(cert), s.now()); err != nil {
				continue
			}
		}
		return cert, nil
	}
	return nil, nil
}

func (s *DirectoryStore) trustRoots(loc StoreLocation) (*tlsroots.Pool, error) {
	pool := tlsroots.NewEmptyPool()
	if s.systemRoots {
		pool = tlsroots.NewPool()
	}
	dir := filepath.Join(s.root, loc.String(), rootStoreName)
	if _, err := pool.AddCertDir(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrCertificateStore.WithDetails(dir).WithCause(err)
	}
	return pool, nil
}

func isStoreEntry(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pem", ".crt", ".cer", ".pfx", ".p12":
		return true
	}
	return false
}

func subjectMatches(leaf *x509.Certificate, needle string) bool {
	return strings.Contains(strings.ToLower(leaf.Subject.CommonName), needle) ||
		strings.Contains(strings.ToLower(leaf.Subject.String()), needle)
}

func leafOf(cert *tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, errors.New("empty certificate chain")
	}
	return x509.ParseCertificate(cert.Certificate[0])
}

func intermediatesOf(cert *tls.Certificate) []*x509.Certificate {
	var out []*x509.Certificate
	for _, der := range cert.Certificate[1:] {
		if c, err := x509.ParseCertificate(der); err == nil {
			out = append(out, c)
		}
	}
	return out
}
