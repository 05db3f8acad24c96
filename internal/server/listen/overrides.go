package listen

import (
	"strings"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/server/certificate"
)

// EndpointConfig is one configuration-declared endpoint.
type EndpointConfig struct {
	Name                  string
	URL                   string
	Protocols             string
	SSLProtocols          []string
	ClientCertificateMode string
	Certificate           certificate.Config
	// Section is the raw configuration section, handed to overrides.
	Section map[string]any
}

// EndpointContext is what an override sees for one endpoint. HTTPS is nil
// for http endpoints; an override may replace it.
type EndpointContext struct {
	Name       string
	HTTPS      *HTTPSOptions
	Descriptor *Descriptor
	Config     EndpointConfig
}

// Override customizes a configuration endpoint after defaults and
// certificates are applied and before the HTTPS adapter is attached.
type Override interface {
	Apply(*EndpointContext) error
}

// OverrideFunc adapts a function to Override.
type OverrideFunc func(*EndpointContext) error

// Apply implements Override.
func (f OverrideFunc) Apply(c *EndpointContext) error {
	return f(c)
}

// Overrides maps endpoint names to overrides. Names compare
// case-insensitively; the last registration for a name wins.
type Overrides struct {
	byName map[string]Override
}

// NewOverrides returns an empty registry.
func NewOverrides() *Overrides {
	return &Overrides{byName: make(map[string]Override)}
}

// Register sets the override for name.
func (o *Overrides) Register(name string, ov Override) error {
	if strings.TrimSpace(name) == "" {
		return domain.ErrEmptyOverrideName
	}
	o.byName[strings.ToLower(name)] = ov
	return nil
}

// RegisterFunc is Register for a plain function.
func (o *Overrides) RegisterFunc(name string, fn func(*EndpointContext) error) error {
	return o.Register(name, OverrideFunc(fn))
}

// Lookup returns the override registered for name.
func (o *Overrides) Lookup(name string) (Override, bool) {
	if o == nil {
		return nil, false
	}
	ov, ok := o.byName[strings.ToLower(name)]
	return ov, ok
}

// Len returns the number of registered names.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.byName)
}
