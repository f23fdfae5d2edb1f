package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/revdeps/pkg/observability"
)

// observe logs every request and reports it to the HTTP hooks. The route
// label is the matched chi pattern, so path parameters do not explode
// metric cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		defer func() {
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"elapsed", elapsed,
				"request_id", middleware.GetReqID(r.Context()),
			}
			if status >= http.StatusInternalServerError {
				s.logger.Warn("request failed", fields...)
				return
			}
			s.logger.Debug("request", fields...)
		}()

		next.ServeHTTP(ww, r)
	})
}

// requireSnapshot answers 503 until an index has been loaded and stamps
// the snapshot ID on every response.
func (s *Server) requireSnapshot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := s.snap.Load()
		if snap == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: errorDetail{
				Code:    "UNAVAILABLE",
				Message: "index not loaded yet",
			}})
			return
		}
		w.Header().Set(SnapshotHeader, snap.ID.String())
		next.ServeHTTP(w, r.WithContext(withSnapshot(r.Context(), snap)))
	})
}
