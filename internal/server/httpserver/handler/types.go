package handler

import (
	"time"

	"github.com/yndnr/bindplan/internal/infra/buildinfo"
	"github.com/yndnr/bindplan/internal/server/listen"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string    `json:"status"`
	BoundEndpoints int       `json:"bound_endpoints"`
	Time           time.Time `json:"time"`
}

// EndpointsResponse is the body of GET /endpoints.
type EndpointsResponse struct {
	Strategy  string                `json:"strategy"`
	Endpoints []listen.EndpointInfo `json:"endpoints"`
}

// ConnectionResponse is the body served on bound endpoints.
type ConnectionResponse struct {
	Endpoint   *listen.EndpointInfo `json:"endpoint,omitempty"`
	Protocol   string               `json:"protocol"`
	TLS        bool                 `json:"tls"`
	TLSVersion string               `json:"tls_version,omitempty"`
	RemoteAddr string               `json:"remote_addr"`
}

// VersionResponse is the body of GET /version.
type VersionResponse = buildinfo.Info
