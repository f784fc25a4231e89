package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Cached  *bool       `json:"cached,omitempty"`
}

type errorResponse struct {
	Success    bool        `json:"success"`
	Error      string      `json:"error"`
	Message    string      `json:"message,omitempty"`
	Details    interface{} `json:"details,omitempty"`
	Timestamp  string      `json:"timestamp"`
	Path       string      `json:"path,omitempty"`
	Method     string      `json:"method,omitempty"`
	RetryAfter int         `json:"retryAfter,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, errMsg, message string, details interface{}) {
	respondJSON(w, status, errorResponse{
		Success:   false,
		Error:     errMsg,
		Message:   message,
		Details:   details,
		Timestamp: timestamp(),
		Path:      r.URL.Path,
		Method:    r.Method,
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// mappedError is the public face of an internal error
type mappedError struct {
	status  int
	error   string
	message string
	details interface{}
}

// mapError picks the status and public message for err. Internal detail is only
// exposed when development is set.
func mapError(err error, development bool) mappedError {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return mappedError{
			status:  http.StatusBadRequest,
			error:   "Validation failed",
			details: verr.Details,
		}
	case errors.Is(err, core.ErrAIConfiguration):
		return mappedError{
			status:  http.StatusInternalServerError,
			error:   "AI service configuration error",
			message: "Please check the AI provider configuration",
		}
	case errors.Is(err, core.ErrAIUnavailable):
		return mappedError{
			status:  http.StatusServiceUnavailable,
			error:   "AI service temporarily unavailable",
			message: "Please try again later",
		}
	}

	m := mappedError{
		status:  http.StatusInternalServerError,
		error:   "Internal server error",
		message: "An unexpected error occurred while analyzing the subject line",
	}
	if development {
		m.details = err.Error()
	}
	return m
}

func (h *Handler) respondMappedError(w http.ResponseWriter, r *http.Request, err error) {
	m := mapError(err, h.development)
	if m.status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Int("status", m.status))
	}
	respondError(w, r, m.status, m.error, m.message, m.details)
}
