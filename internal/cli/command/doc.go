// Package command defines the bindplan-server command line.
//
// Commands:
//
//   - serve: bind the planned endpoints and serve them until a signal
//   - plan: run the bind pipeline without opening sockets and print it
//   - cert check: resolve the certificate an endpoint would use
//   - version: print build information
//
// Configuration is read from the --config file, BINDPLAN_* environment
// variables and the global flags, in increasing priority.
package command
