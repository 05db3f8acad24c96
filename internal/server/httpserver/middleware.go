package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/bindplan/internal/server/httpserver/handler"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one runs outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID keeps an incoming X-Request-ID or assigns a new one, echoes
// it on the response and stores it in the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = "req-" + ulid.Make().String()
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// RequestIDFrom returns the id stored by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// AccessLog logs one line per request. Successful requests log at debug,
// 4xx at warn and 5xx at error.
func AccessLog(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			attrs := []any{
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"proto", r.Proto,
				"status", rec.status,
				"bytes", rec.written,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote", remoteHost(r),
				"tls", r.TLS != nil,
			}
			if d := handler.EndpointFromContext(r.Context()); d != nil {
				attrs = append(attrs, "endpoint", d.String())
			}

			switch {
			case rec.status >= http.StatusInternalServerError:
				l.Error("request completed with error", attrs...)
			case rec.status >= http.StatusBadRequest:
				l.Warn("request completed with client error", attrs...)
			default:
				l.Debug("request completed", attrs...)
			}
		})
	}
}

// Recover turns a handler panic into a 500 with code BP-HTTP-5000.
func Recover(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				l.Error("panic recovered",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"error", v,
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Error-Code", "BP-HTTP-5000")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"code":"BP-HTTP-5000","message":"internal server error"}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	n, err := s.ResponseWriter.Write(p)
	s.written += int64(n)
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// remoteHost is the peer address without its port. Unix socket peers
// are usually unnamed and report "unix".
func remoteHost(r *http.Request) string {
	if r.RemoteAddr == "" || r.RemoteAddr == "@" {
		return "unix"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
