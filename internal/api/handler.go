package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

const (
	apiName        = "Subject Analyzer API"
	apiDescription = "AI-assisted email subject line analysis and optimization"
	maxBodyBytes   = 64 << 10
)

// AnalysisAPI is what the handlers need from the analysis service
type AnalysisAPI interface {
	Analyze(ctx context.Context, req core.AnalysisRequest) (*core.AnalysisResponse, error)
	Rules() core.ValidationRules
	CacheStats(ctx context.Context) (core.CacheStats, bool)
	ClearCache(ctx context.Context) error
	AIConfigured() bool
}

// Handler serves the JSON API
type Handler struct {
	svc         AnalysisAPI
	logger      *zap.Logger
	version     string
	development bool
}

// NewHandler creates the API handlers
func NewHandler(svc AnalysisAPI, logger *zap.Logger, version string, development bool) *Handler {
	return &Handler{
		svc:         svc,
		logger:      logger,
		version:     version,
		development: development,
	}
}

type analyzeRequest struct {
	Subject  *string `json:"subject"`
	Industry string  `json:"industry"`
}

// AnalyzeSubject handles POST /api/analyze-subject
func (h *Handler) AnalyzeSubject(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		message := "Request body must be a JSON object with subject and industry"
		if errors.Is(err, io.EOF) {
			message = "Request body is required"
		}
		respondError(w, r, http.StatusBadRequest, "Validation failed", "", []core.FieldError{
			{Field: "body", Message: message},
		})
		return
	}

	req := core.AnalysisRequest{Industry: body.Industry, SubjectMissing: body.Subject == nil}
	if body.Subject != nil {
		req.Subject = *body.Subject
	}
	resp, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		h.respondMappedError(w, r, err)
		return
	}

	cached := resp.Cached
	respondJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    resp.Result,
		Cached:  &cached,
	})
}

// ValidationRules handles GET /api/validation-rules
func (h *Handler) ValidationRules(w http.ResponseWriter, r *http.Request) {
	respondData(w, h.svc.Rules())
}

// CacheStats handles GET /api/cache-stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, healthy := h.svc.CacheStats(r.Context())
	respondData(w, map[string]interface{}{
		"stats":   stats,
		"healthy": healthy,
	})
}

// ClearCache handles DELETE /api/cache
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCache(r.Context()); err != nil {
		h.respondMappedError(w, r, err)
		return
	}
	h.logger.Info("Cache cleared via API", zap.String("remote_addr", r.RemoteAddr))
	respondData(w, map[string]bool{"cleared": true})
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       apiName + " is running",
		"timestamp":     timestamp(),
		"version":       h.version,
		"ai_configured": h.svc.AIConfigured(),
	})
}

// Info handles GET /api/info
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	respondData(w, map[string]interface{}{
		"name":        apiName,
		"version":     h.version,
		"description": apiDescription,
		"endpoints": map[string]string{
			"POST /api/analyze-subject": "Analyze subject line and get AI suggestions",
			"GET /api/validation-rules": "Get validation rules for frontend",
			"GET /api/cache-stats":      "Get cache statistics",
			"DELETE /api/cache":         "Clear cached analyses",
			"GET /api/health":           "Health check endpoint",
			"GET /api/info":             "API information",
		},
		"supportedIndustries": h.svc.Rules().SupportedIndustries,
	})
}

// NotFound answers unknown routes
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, "Route not found",
		"The requested route "+r.Method+" "+r.URL.Path+" does not exist", nil)
}

// MethodNotAllowed answers known routes called with the wrong method
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed",
		"The route "+r.URL.Path+" does not support "+r.Method, nil)
}
