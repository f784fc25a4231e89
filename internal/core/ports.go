package core

import (
	"context"
)

// LLMClient defines the interface for interacting with text-generation services
type LLMClient interface {
	// Complete sends a system instruction and prompt and returns the free-form reply
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AIAnalyzer scores a subject line with a language model
type AIAnalyzer interface {
	// Analyze returns a normalized AI result or a classified error
	Analyze(ctx context.Context, subject string, industry Industry) (*AIResult, error)
}

// RuleScorer is the deterministic half of the analysis
type RuleScorer interface {
	CalculateScore(subject string, industry Industry) ScoringResult
	IdentifyIssues(subject string) []string
}

// SuggestionGenerator produces alternatives when no AI result is available
type SuggestionGenerator interface {
	FallbackSuggestions(subject string, industry Industry) []string
}

// RequestValidator sanitizes and validates inbound requests
type RequestValidator interface {
	// Validate returns the sanitized request, or the list of field errors
	Validate(req AnalysisRequest) (AnalysisRequest, []FieldError)
	Rules() ValidationRules
}

// CacheRepository defines the interface for caching analysis results
type CacheRepository interface {
	// Get retrieves the cached result for a subject and industry
	Get(ctx context.Context, subject, industry string) (*AnalysisResult, error)

	// Set stores a result, replacing any previous entry for the same key
	Set(ctx context.Context, subject, industry string, result *AnalysisResult) error

	// Clear removes every entry
	Clear(ctx context.Context) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error

	// Stats returns entry count and hit/miss counters
	Stats() CacheStats

	// Healthy performs a read that does not mutate state or counters
	Healthy(ctx context.Context) bool
}
