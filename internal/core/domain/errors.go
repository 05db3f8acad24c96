// Package domain defines the error model shared by the endpoint
// binding pipeline.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a binding pipeline error with a structured error code.
//
// Codes follow the format BP-<FAMILY>-<NNNN>. The family identifies the
// error kind: CONF (configuration), CERT (certificate loading) and BIND
// (socket binding).
type DomainError struct {
	Code    string // Error code (e.g., "BP-BIND-4090")
	Message string // Human-readable message
	Details string // Endpoint or certificate entry the error is about
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Family returns the family segment of the code ("CONF", "CERT", "BIND").
func (e *DomainError) Family() string {
	parts := strings.Split(e.Code, "-")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func hasFamily(err error, family string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Family() == family
	}
	return false
}

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	return hasFamily(err, "CONF")
}

// IsCertificateLoadError reports whether err is a certificate load error.
func IsCertificateLoadError(err error) bool {
	return hasFamily(err, "CERT")
}

// IsBindError reports whether err is a bind error.
func IsBindError(err error) bool {
	return hasFamily(err, "BIND")
}

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrInvalidAddress indicates an endpoint URL could not be parsed.
	ErrInvalidAddress = NewDomainError("BP-CONF-4000", "invalid endpoint address")

	// ErrUnsupportedScheme indicates a scheme other than http or https.
	ErrUnsupportedScheme = NewDomainError("BP-CONF-4001", "unsupported address scheme")

	// ErrPathBaseNotAllowed indicates an endpoint URL carries a path base.
	ErrPathBaseNotAllowed = NewDomainError("BP-CONF-4002", "path base is not supported in endpoint addresses")

	// ErrCertificateSourceConflict indicates both a file and a store
	// certificate source were configured.
	ErrCertificateSourceConflict = NewDomainError("BP-CONF-4003", "certificate file and store sources are mutually exclusive")

	// ErrInvalidStoreLocation indicates an unknown certificate store location.
	ErrInvalidStoreLocation = NewDomainError("BP-CONF-4004", "invalid certificate store location")

	// ErrEmptyOverrideName indicates an endpoint override registered without a name.
	ErrEmptyOverrideName = NewDomainError("BP-CONF-4005", "endpoint override name must not be empty")

	// ErrInvalidEndpointSetting indicates an unknown protocols, ssl_protocols
	// or client_certificate_mode value.
	ErrInvalidEndpointSetting = NewDomainError("BP-CONF-4006", "invalid endpoint setting")

	// ErrDuplicateName indicates two endpoint or certificate entries whose
	// names differ only in case.
	ErrDuplicateName = NewDomainError("BP-CONF-4007", "names differing only in case")
)

// ============================================================================
// Certificate Errors (CERT)
// ============================================================================

var (
	// ErrCertificateFileNotFound indicates the certificate file does not exist.
	ErrCertificateFileNotFound = NewDomainError("BP-CERT-4040", "certificate file not found")

	// ErrCertificateNotInStore indicates no store certificate matched the query.
	ErrCertificateNotInStore = NewDomainError("BP-CERT-4041", "certificate not found in store")

	// ErrCertificateMissing indicates an https endpoint has no certificate.
	ErrCertificateMissing = NewDomainError("BP-CERT-4042", "no server certificate available for https endpoint")

	// ErrCertificatePassword indicates the certificate password was rejected.
	ErrCertificatePassword = NewDomainError("BP-CERT-4010", "certificate password is incorrect")

	// ErrCertificateInvalid indicates the certificate data could not be decoded.
	ErrCertificateInvalid = NewDomainError("BP-CERT-4000", "certificate data is invalid")

	// ErrCertificateStore indicates the certificate store could not be read.
	ErrCertificateStore = NewDomainError("BP-CERT-5000", "certificate store lookup failed")
)

// ============================================================================
// Bind Errors (BIND)
// ============================================================================

var (
	// ErrAddressInUse indicates the endpoint address is already in use.
	ErrAddressInUse = NewDomainError("BP-BIND-4090", "address already in use")

	// ErrUnsupportedEndpoint indicates the transport cannot bind the endpoint kind.
	ErrUnsupportedEndpoint = NewDomainError("BP-BIND-4000", "endpoint kind not supported by transport")
)
