package listen

// Strategy is how a bind pass chooses its endpoints.
type Strategy int

const (
	// UseBuiltInDefault binds DefaultHTTPAddress, plus DefaultHTTPSAddress
	// when a default certificate is available.
	UseBuiltInDefault Strategy = iota
	// UseHostingAddresses binds the hosting addresses.
	UseHostingAddresses
	// OverrideExplicitWithHostingAddresses binds the hosting addresses and
	// reports the discarded explicit endpoints.
	OverrideExplicitWithHostingAddresses
	// UseExplicitEndpoints binds the explicit endpoints.
	UseExplicitEndpoints
	// OverrideHostingAddressesWithExplicit binds the explicit endpoints
	// and reports the discarded hosting addresses.
	OverrideHostingAddressesWithExplicit
)

func (s Strategy) String() string {
	switch s {
	case UseBuiltInDefault:
		return "UseBuiltInDefault"
	case UseHostingAddresses:
		return "UseHostingAddresses"
	case OverrideExplicitWithHostingAddresses:
		return "OverrideExplicitWithHostingAddresses"
	case UseExplicitEndpoints:
		return "UseExplicitEndpoints"
	case OverrideHostingAddressesWithExplicit:
		return "OverrideHostingAddressesWithExplicit"
	default:
		return "Strategy(unknown)"
	}
}

// UsesHostingAddresses reports whether the strategy binds hosting addresses.
func (s Strategy) UsesHostingAddresses() bool {
	return s == UseHostingAddresses || s == OverrideExplicitWithHostingAddresses
}

// UsesExplicitEndpoints reports whether the strategy binds explicit endpoints.
func (s Strategy) UsesExplicitEndpoints() bool {
	return s == UseExplicitEndpoints || s == OverrideHostingAddressesWithExplicit
}

// IsOverride reports whether the strategy discards a present source.
func (s Strategy) IsOverride() bool {
	return s == OverrideExplicitWithHostingAddresses || s == OverrideHostingAddressesWithExplicit
}

// SelectStrategy picks the strategy for the present sources.
func SelectStrategy(hasExplicitEndpoints, hasHostingAddresses, preferHostingAddresses bool) Strategy {
	switch {
	case preferHostingAddresses && hasHostingAddresses && hasExplicitEndpoints:
		return OverrideExplicitWithHostingAddresses
	case preferHostingAddresses && hasHostingAddresses:
		return UseHostingAddresses
	case hasExplicitEndpoints && hasHostingAddresses:
		return OverrideHostingAddressesWithExplicit
	case hasExplicitEndpoints:
		return UseExplicitEndpoints
	case hasHostingAddresses:
		return UseHostingAddresses
	default:
		return UseBuiltInDefault
	}
}
