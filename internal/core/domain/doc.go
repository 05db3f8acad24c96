// Package domain defines the error model of the endpoint binding pipeline.
//
// Every fatal error raised while planning or binding endpoints is a
// DomainError whose code family tells the caller what went wrong:
//
//   - CONF: malformed addresses, unsupported schemes, conflicting
//     certificate sources, invalid store locations, empty override names
//   - CERT: certificate files or store entries that cannot be loaded
//   - BIND: endpoints the transport refused to bind
//
// Details always name the endpoint or certificate entry responsible.
package domain
