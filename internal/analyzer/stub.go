package analyzer

import (
	"context"
	"sync/atomic"

	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/scoring"
)

// StubAnalyzer answers without a network call. It backs offline mode and tests.
type StubAnalyzer struct {
	Score   int
	Issues  []string
	Insight string
	// Err, when set, is returned from every call
	Err error

	calls atomic.Int64
}

// NewStubAnalyzer creates a stub that always returns score
func NewStubAnalyzer(score int) *StubAnalyzer {
	return &StubAnalyzer{
		Score:   score,
		Issues:  []string{},
		Insight: "Offline analysis. Connect an AI provider for tailored insights.",
	}
}

// Analyze returns the canned result, or Err
func (s *StubAnalyzer) Analyze(ctx context.Context, subject string, industry core.Industry) (*core.AIResult, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &core.AIResult{
		Score:       s.Score,
		Issues:      append([]string{}, s.Issues...),
		Suggestions: scoring.FallbackSuggestions(subject, industry),
		Insight:     s.Insight,
	}, nil
}

// Calls returns how many times Analyze ran
func (s *StubAnalyzer) Calls() int64 {
	return s.calls.Load()
}
