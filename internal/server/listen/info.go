package listen

import (
	"crypto/tls"
	"crypto/x509"
	"time"
)

// EndpointInfo is the reporting view of a descriptor.
type EndpointInfo struct {
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	Address     string           `json:"address" yaml:"address"`
	Kind        string           `json:"kind" yaml:"kind"`
	Scheme      string           `json:"scheme" yaml:"scheme"`
	Protocols   string           `json:"protocols" yaml:"protocols"`
	Certificate *CertificateInfo `json:"certificate,omitempty" yaml:"certificate,omitempty"`
}

// CertificateInfo describes the leaf certificate served by an endpoint.
type CertificateInfo struct {
	Subject   string    `json:"subject" yaml:"subject"`
	Issuer    string    `json:"issuer" yaml:"issuer"`
	DNSNames  []string  `json:"dns_names,omitempty" yaml:"dns_names,omitempty"`
	NotBefore time.Time `json:"not_before" yaml:"not_before"`
	NotAfter  time.Time `json:"not_after" yaml:"not_after"`
}

// Info returns the reporting view of d.
func (d *Descriptor) Info() EndpointInfo {
	info := EndpointInfo{
		Name:      d.Name,
		Address:   d.String(),
		Kind:      d.Kind().String(),
		Scheme:    d.Scheme(),
		Protocols: d.Protocols.String(),
	}
	if a := d.HTTPS(); a != nil && a.Options != nil {
		info.Certificate = CertificateInfoOf(a.Options.Certificate)
	}
	return info
}

// Infos returns the reporting view of each descriptor.
func Infos(ds []*Descriptor) []EndpointInfo {
	out := make([]EndpointInfo, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Info())
	}
	return out
}

// CertificateInfoOf describes the leaf of cert. It returns nil when cert
// is nil or its leaf cannot be parsed.
func CertificateInfoOf(cert *tls.Certificate) *CertificateInfo {
	if cert == nil {
		return nil
	}
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return nil
		}
		var err error
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return nil
		}
	}
	return &CertificateInfo{
		Subject:   leaf.Subject.String(),
		Issuer:    leaf.Issuer.String(),
		DNSNames:  leaf.DNSNames,
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
	}
}
