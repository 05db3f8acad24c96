// Package logger provides structured logging for bindplan.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the process default
//   - context.go: context propagation of the logger and the bind pass id
//   - redact.go: masking of passwords and PEM material in log attributes
//
// JSON is the default output format; text is available for terminals.
package logger
