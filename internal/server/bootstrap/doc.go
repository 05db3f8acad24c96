// Package bootstrap assembles the endpoint bind pipeline from a
// ServerConfig.
//
// A Pipeline owns one set of server options, one certificate resolver and
// one plan builder. Plan turns the configured endpoints into descriptors;
// Bind runs a bind pass over them with the given transport and returns
// the Result that the status API reports.
package bootstrap
