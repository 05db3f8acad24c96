package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/bindplan/internal/server/httpserver/handler"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
	"github.com/yndnr/bindplan/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP routers.
type RouterConfig struct {
	// State reports the last bind pass.
	State handler.State

	// Metrics is served on /metrics. Nil serves the global registry.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger logger.Logger
}

func (cfg *RouterConfig) logger() logger.Logger {
	if cfg.Logger == nil {
		return logger.Default()
	}
	return cfg.Logger
}

// NewStatusRouter returns the status API.
func NewStatusRouter(cfg *RouterConfig) http.Handler {
	l := cfg.logger()
	h := handler.New(cfg.State, l)

	r := chi.NewRouter()
	r.Use(RequestID(), Recover(l), AccessLog(l))
	r.NotFound(h.NotFound)

	r.Get("/health", h.Health)
	r.Get("/version", h.Version)
	r.Get("/endpoints", h.Endpoints)
	r.Get("/endpoints/{name}", h.Endpoint)

	metrics := metric.Handler()
	if cfg.Metrics != nil {
		metrics = cfg.Metrics.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)
	return r
}

// NewEndpointRouter returns the handler served on bound endpoints.
func NewEndpointRouter(cfg *RouterConfig) http.Handler {
	l := cfg.logger()
	h := handler.New(cfg.State, l)

	r := chi.NewRouter()
	r.Use(RequestID(), Recover(l), AccessLog(l))
	r.NotFound(h.NotFound)

	r.Get("/", h.Connection)
	r.Get("/health", h.Health)
	return r
}
