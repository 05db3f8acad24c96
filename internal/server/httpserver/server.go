package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yndnr/bindplan/internal/server/httpserver/handler"
	"github.com/yndnr/bindplan/internal/server/listen"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
)

// DefaultReadHeaderTimeout bounds the time to read request headers.
const DefaultReadHeaderTimeout = 10 * time.Second

// Server serves one handler on any number of listeners.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger

	mu        sync.Mutex
	endpoints map[net.Listener]*listen.Descriptor
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a new HTTP server.
func New(h http.Handler, opts ...Option) *Server {
	s := &Server{
		logger:    logger.Default(),
		endpoints: make(map[net.Listener]*listen.Descriptor),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		BaseContext:       s.baseContext,
	}
	return s
}

func (s *Server) baseContext(l net.Listener) context.Context {
	ctx := logger.WithLogger(context.Background(), s.logger)
	s.mu.Lock()
	d := s.endpoints[l]
	s.mu.Unlock()
	if d != nil {
		ctx = handler.WithEndpoint(ctx, d)
	}
	return ctx
}

// Serve serves every listener and blocks until all of them stop. It
// returns the first error other than http.ErrServerClosed.
func (s *Server) Serve(listeners []listen.Listener) error {
	if len(listeners) == 0 {
		return errors.New("httpserver: no listeners")
	}

	s.mu.Lock()
	for _, l := range listeners {
		s.endpoints[l.Listener] = l.Descriptor
	}
	s.mu.Unlock()

	errCh := make(chan error, len(listeners))
	for _, l := range listeners {
		go func(l listen.Listener) {
			errCh <- s.httpServer.Serve(l.Listener)
		}(l)
	}

	var first error
	for range listeners {
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) && first == nil {
			first = err
		}
	}
	return first
}

// ListenAndServe binds addr and serves it.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("status server listening", "address", ln.Addr().String())
	return s.Serve([]listen.Listener{{Listener: ln}})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
