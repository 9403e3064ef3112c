package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/flow"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"visionestoque/internal/config"
	"visionestoque/internal/models"
	"visionestoque/internal/services"
)

// ServiceName and ServiceVersion identify the gateway in health responses.
const (
	ServiceName    = "Vision Estoque Financeiro"
	ServiceVersion = "2.0.0"
)

// Service is the HTTP layer around the extraction pipeline.
type Service struct {
	logger    *logrus.Logger
	config    *config.Config
	extractor *services.Extractor
	limiter   *ipLimiter

	server *http.Server
}

// New builds the router, middleware chain and http.Server.
func New(cfg *config.Config, logger *logrus.Logger, extractor *services.Extractor) *Service {
	mux := flow.New()

	s := &Service{
		logger:    logger,
		config:    cfg,
		extractor: extractor,
		limiter:   newIPLimiter(cfg.UploadRatePerMinute, cfg.RatePerHour, cfg.RatePerDay),
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           corsHandler,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeoutSec) * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.buildRouter(mux)

	return s
}

// Start runs the server until Stop is called.
func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

// Stop drains in-flight requests and shuts the server down.
func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusNotFound, "Recurso não encontrado")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Método não permitido")
	})

	r.Use(s.RecoverPanic)
	r.Use(s.RequestID)
	r.Use(s.LoggingMiddleware)
	r.Use(s.SecureHeaders)

	// No rate limiting or auth on the health path: it must answer even when
	// everything else is saturated.
	r.HandleFunc("/health", s.handleHealth, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RateLimit)

		r.HandleFunc("/login", s.handleLogin, http.MethodGet, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.UploadRateLimit)
			r.Use(s.RequireToken)

			r.HandleFunc("/upload-invoice", s.handleUpload, http.MethodPost)
		})
	})
}

func (s *Service) respond(w http.ResponseWriter, status int, body any) {
	writeJSON(w, status, body, s.logger)
}

func (s *Service) respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message}, s.logger)
}
