package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAIConfiguration means the provider cannot be used until an operator fixes its setup
	ErrAIConfiguration = errors.New("AI provider configuration error")
	// ErrAIUnavailable means the provider call failed in transit and may succeed later
	ErrAIUnavailable = errors.New("AI provider temporarily unavailable")
	// ErrAIMalformedResponse means the provider replied without a usable JSON object
	ErrAIMalformedResponse = errors.New("AI response malformed")
)

// AIErrorKind classifies a failure of the AI path
type AIErrorKind string

const (
	AIErrorConfiguration AIErrorKind = "configuration"
	AIErrorUnavailable   AIErrorKind = "unavailable"
	AIErrorMalformed     AIErrorKind = "malformed"
	AIErrorUnknown       AIErrorKind = "unknown"
)

// ClassifyAIError maps an error returned by an AIAnalyzer onto its kind
func ClassifyAIError(err error) AIErrorKind {
	switch {
	case errors.Is(err, ErrAIConfiguration):
		return AIErrorConfiguration
	case errors.Is(err, ErrAIMalformedResponse):
		return AIErrorMalformed
	case errors.Is(err, ErrAIUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return AIErrorUnavailable
	default:
		return AIErrorUnknown
	}
}

// FieldError is one user-correctable problem with a request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request fails validation
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, fmt.Sprintf("%s: %s", d.Field, d.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
