package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/yndnr/bindplan/internal/server/listen"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
)

// State reports the outcome of the last bind pass.
type State interface {
	Strategy() listen.Strategy
	Bound() []*listen.Descriptor
}

// Handler serves the status and connection endpoints.
type Handler struct {
	state  State
	logger logger.Logger
}

// New creates a Handler. l may be nil.
func New(state State, l logger.Logger) *Handler {
	if l == nil {
		l = logger.Default()
	}
	return &Handler{state: state, logger: l}
}

type endpointKey struct{}

// WithEndpoint records the descriptor whose listener accepted the
// connection.
func WithEndpoint(ctx context.Context, d *listen.Descriptor) context.Context {
	return context.WithValue(ctx, endpointKey{}, d)
}

// EndpointFromContext returns the descriptor stored by WithEndpoint.
func EndpointFromContext(ctx context.Context) *listen.Descriptor {
	d, _ := ctx.Value(endpointKey{}).(*listen.Descriptor)
	return d
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := getRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, nil)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "BP-HTTP-4040", "route not found")
}

// getRequestID returns the request ID set by the RequestID middleware.
func getRequestID(w http.ResponseWriter, r *http.Request) string {
	if id := w.Header().Get("X-Request-ID"); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
