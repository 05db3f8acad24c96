package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"private_key",
	"privatekey",
	"credential",
	"token",
}

// pemMarker starts any PEM encoded block.
const pemMarker = "-----BEGIN "

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}
		if IsSensitiveValue(strVal) || IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactString replaces PEM material with the redaction placeholder.
func RedactString(value string) string {
	if IsSensitiveValue(value) {
		return redactedValue
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value carries PEM encoded material.
func IsSensitiveValue(value string) bool {
	return strings.Contains(value, pemMarker)
}
