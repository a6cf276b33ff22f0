package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// requestLogger logs incoming HTTP requests.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("remote", r.RemoteAddr).
			WithField("duration", time.Since(start)).
			Debug("Request handled")
	})
}

// requireAuth checks the Bearer token against the configured trigger
// credential. With no token configured, triggering is open (the
// deployment is expected to sit behind the scheduler's own network).
func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken == "" {
			next.ServeHTTP(w, r)

			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized,
				errorResponse{"missing bearer token"})

			return
		}

		token := authHeader[len("Bearer "):]
		if subtle.ConstantTimeCompare(
			[]byte(token), []byte(s.cfg.AuthToken),
		) != 1 {
			writeJSON(w, http.StatusUnauthorized,
				errorResponse{"invalid token"})

			return
		}

		next.ServeHTTP(w, r)
	})
}
