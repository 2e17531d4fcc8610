package inbound

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	glog "github.com/goliatone/go-logger/glog"
)

// NewRouter mounts the watcher endpoint and health check behind request id,
// access log and panic recovery middleware.
func NewRouter(handler *Handler, logger glog.Logger) chi.Router {
	logger = glog.Ensure(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get(PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if handler != nil {
		r.Method(http.MethodPost, PathWatcher, handler)
	}
	return r
}

// RequestLogger writes one access log entry per request.
func RequestLogger(logger glog.Logger) func(http.Handler) http.Handler {
	logger = glog.Ensure(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			startedAt := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				args := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(startedAt).Milliseconds(),
					"remote_addr", r.RemoteAddr,
				}
				if requestID := middleware.GetReqID(r.Context()); requestID != "" {
					args = append(args, "request_id", requestID)
				}
				entry := logger.WithContext(r.Context())
				if status >= http.StatusInternalServerError {
					entry.Warn("http request", args...)
					return
				}
				entry.Info("http request", args...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
