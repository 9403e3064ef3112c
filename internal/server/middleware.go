package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions.
type contextKey string

const contextKeyRequestID contextKey = "request_id"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecoverPanic turns an escaped panic into a generic 500. The detail stays in
// the operator log; the client never sees it.
func (s *Service) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.requestLogger(r).WithField("panic", rec).Error("panic recovered in handler")
				s.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestID tags every request with a short id for log correlation.
func (s *Service) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := gonanoid.New()
		if err != nil {
			// Random source exhaustion is not worth failing a request over.
			id = "unknown"
		}
		ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.requestLogger(r).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// SecureHeaders applies the deployment's security baseline to every response.
func (s *Service) SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data: https:; connect-src 'self'; font-src 'self'; object-src 'none'; "+
				"media-src 'self'; frame-src 'none'")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// RequireToken enforces the static bearer token when auth is enabled.
func (s *Service) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.EnableAuth {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			s.respondError(w, http.StatusUnauthorized, "Token de autenticação necessário")
			return
		}

		token := header
		if _, after, found := strings.Cut(header, " "); found {
			token = after
		}
		if token != s.config.APIToken {
			s.requestLogger(r).Warn("invalid api token")
			s.respondError(w, http.StatusUnauthorized, "Token inválido")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit applies the per-client hourly and daily caps.
func (s *Service) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allowGlobal(clientIP(r)) {
			s.requestLogger(r).Warn("rate limit exceeded")
			s.respondError(w, http.StatusTooManyRequests, "Muitas requisições. Tente novamente mais tarde.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UploadRateLimit applies the tighter per-minute cap on the upload route.
func (s *Service) UploadRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allowUpload(clientIP(r)) {
			s.requestLogger(r).Warn("upload rate limit exceeded")
			s.respondError(w, http.StatusTooManyRequests, "Muitas requisições. Tente novamente mais tarde.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) requestLogger(r *http.Request) logrus.FieldLogger {
	logger := s.logger.WithField("remote", clientIP(r))
	if id, ok := r.Context().Value(contextKeyRequestID).(string); ok {
		logger = logger.WithField("request_id", id)
	}
	return logger
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
