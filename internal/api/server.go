package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mikey/subject-analyzer/internal/config"
	"go.uber.org/zap"
)

// Server runs the JSON API over HTTP
type Server struct {
	httpServer      *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer creates the HTTP frontend
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddress,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Name identifies the frontend in logs
func (s *Server) Name() string {
	return "http"
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP API", zap.String("address", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
