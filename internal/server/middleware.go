package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civicportal/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyActor contextKey = "actor"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

func (s *Service) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := normalizePath(r.URL.Path)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(started).Seconds())
	})
}

// normalizePath replaces record ids with :id to keep label cardinality bounded.
func normalizePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(segments) >= 2 && segments[0] == "documents":
		segments[1] = ":id"
	case len(segments) >= 3 && segments[0] == "admin" && segments[1] == "documents":
		segments[2] = ":id"
	}

	return "/" + strings.Join(segments, "/")
}

// RequireAuth resolves the caller and adds it to the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.auth.Authenticate(r)
		if err != nil {
			s.logger.WithError(err).Debug("request not authenticated")
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"user_id": actor.ID,
			"role":    actor.Role,
		}).Debug("authenticated user")

		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.actorFromContext(r.Context())
		if err != nil || !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, codeForbidden, "administrator access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}
