package handler

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/bindplan/internal/infra/buildinfo"
	"github.com/yndnr/bindplan/internal/server/listen"
)

// Health handles GET /health. It reports unavailable until an endpoint is
// bound.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	n := len(h.state.Bound())
	resp := HealthResponse{Status: "healthy", BoundEndpoints: n, Time: time.Now().UTC()}
	if n == 0 {
		resp.Status = "unavailable"
		h.writeJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// Endpoints handles GET /endpoints.
func (h *Handler) Endpoints(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, EndpointsResponse{
		Strategy:  h.state.Strategy().String(),
		Endpoints: listen.Infos(h.state.Bound()),
	})
}

// Version handles GET /version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, VersionResponse(buildinfo.Get()))
}

// Connection reports the endpoint that accepted the request.
func (h *Handler) Connection(w http.ResponseWriter, r *http.Request) {
	resp := ConnectionResponse{
		Protocol:   r.Proto,
		TLS:        r.TLS != nil,
		RemoteAddr: r.RemoteAddr,
	}
	if d := EndpointFromContext(r.Context()); d != nil {
		info := d.Info()
		resp.Endpoint = &info
	}
	if r.TLS != nil {
		resp.TLSVersion = tls.VersionName(r.TLS.Version)
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// Endpoint handles GET /endpoints/{name}. Names match case-insensitively.
func (h *Handler) Endpoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, d := range h.state.Bound() {
		if strings.EqualFold(d.Name, name) {
			h.writeJSON(w, r, http.StatusOK, d.Info())
			return
		}
	}
	h.writeError(w, r, http.StatusNotFound, "BP-HTTP-4041", fmt.Sprintf("endpoint %q is not bound", name))
}
