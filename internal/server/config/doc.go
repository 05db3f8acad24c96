// Package config defines the server configuration structure.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - endpoints.go: Conversion to listen endpoint configuration
//   - verify.go: Validation of values the plan builder does not check
//   - sanitize.go: Log sanitization (hide certificate passwords)
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// BINDPLAN_ environment variables and command-line flags.
package config
