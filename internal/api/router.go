package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mikey/subject-analyzer/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "subject-analyzer"

// NewRouter wires the middleware chain and routes around h
func NewRouter(h *Handler, serverCfg config.ServerConfig, rateCfg config.RateLimitConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if serverCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   serverCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	analysisLimit, apiLimit := rateLimits(serverCfg, rateCfg, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/info", h.Info)

		r.With(analysisLimit).Post("/analyze-subject", h.AnalyzeSubject)

		r.Group(func(r chi.Router) {
			r.Use(apiLimit)
			r.Get("/validation-rules", h.ValidationRules)
			r.Get("/cache-stats", h.CacheStats)
			r.Delete("/cache", h.ClearCache)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return otelhttp.NewHandler(r, serviceName)
}

// rateLimits builds the analysis and general API limiters. Development mode skips both.
func rateLimits(serverCfg config.ServerConfig, rateCfg config.RateLimitConfig, logger *zap.Logger) (func(http.Handler) http.Handler, func(http.Handler) http.Handler) {
	if !rateCfg.Enabled || serverCfg.IsDevelopment() || rateCfg.Window <= 0 {
		logger.Info("Rate limiting disabled",
			zap.Bool("enabled", rateCfg.Enabled),
			zap.String("environment", serverCfg.Environment))
		return passthrough, passthrough
	}

	analysis := passthrough
	if rateCfg.AnalysisMax > 0 {
		analysis = NewRateLimiter("Analysis", rateCfg.AnalysisMax, rateCfg.Window).Middleware
	}
	general := passthrough
	if rateCfg.APIMax > 0 {
		general = NewRateLimiter("API", rateCfg.APIMax, rateCfg.Window).Middleware
	}
	return analysis, general
}
