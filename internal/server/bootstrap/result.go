package bootstrap

import "github.com/yndnr/bindplan/internal/server/listen"

// Result is the outcome of one bind pass. It is immutable.
type Result struct {
	strategy  listen.Strategy
	bound     []*listen.Descriptor
	addresses []string
}

// Strategy returns the strategy the pass selected.
func (r *Result) Strategy() listen.Strategy { return r.strategy }

// Bound returns the bound endpoints in bind order.
func (r *Result) Bound() []*listen.Descriptor { return r.bound }

// Addresses returns the display names of the bound endpoints when hosting
// addresses were in play.
func (r *Result) Addresses() []string { return r.addresses }

// Infos describes the bound endpoints.
func (r *Result) Infos() []listen.EndpointInfo { return listen.Infos(r.bound) }
