package core

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// DegradedInsight is returned in place of the AI insight when the AI path fails
const DegradedInsight = "AI analysis is temporarily unavailable. This analysis is based on industry best practices and rule-based scoring."

// Combiner blends the deterministic score with the AI analysis
type Combiner struct {
	scorer      RuleScorer
	suggestions SuggestionGenerator
	analyzer    AIAnalyzer
	logger      *zap.Logger
	aiTimeout   time.Duration
	now         func() time.Time
}

// NewCombiner creates a new result combiner. A nil analyzer always takes the degrade path.
func NewCombiner(
	scorer RuleScorer,
	suggestions SuggestionGenerator,
	analyzer AIAnalyzer,
	logger *zap.Logger,
	aiTimeout time.Duration,
) *Combiner {
	return &Combiner{
		scorer:      scorer,
		suggestions: suggestions,
		analyzer:    analyzer,
		logger:      logger,
		aiTimeout:   aiTimeout,
		now:         time.Now,
	}
}

// PerformAnalysis always returns a complete result. AI failures degrade to rule-based output.
func (c *Combiner) PerformAnalysis(ctx context.Context, subject string, industry Industry) *AnalysisResult {
	scoring := c.scorer.CalculateScore(subject, industry)
	ruleIssues := c.scorer.IdentifyIssues(subject)

	result := &AnalysisResult{
		Original:        subject,
		DetailedMetrics: scoring.Breakdown,
		Industry:        industry,
	}

	aiResult, err := c.runAI(ctx, subject, industry)
	if err != nil {
		c.logAIFailure(err, industry)

		result.Score = scoring.Total
		result.Issues = MergeIssues(ruleIssues, nil)
		result.Suggestions = c.suggestions.FallbackSuggestions(subject, industry)
		result.Insight = DegradedInsight
		result.ScoringBreakdown = ScoringBreakdown{
			RuleBased: scoring.Total,
			AIBased:   nil,
			Combined:  scoring.Total,
		}
	} else {
		combined := AverageScore(scoring.Total, aiResult.Score)
		aiScore := aiResult.Score

		result.Score = combined
		result.Issues = MergeIssues(ruleIssues, aiResult.Issues)
		result.Suggestions = aiResult.Suggestions
		result.Insight = aiResult.Insight
		result.ScoringBreakdown = ScoringBreakdown{
			RuleBased: scoring.Total,
			AIBased:   &aiScore,
			Combined:  combined,
		}
	}

	result.AnalyzedAt = c.now().UTC()
	return result
}

// AIConfigured reports whether the analyzer can be expected to succeed
func (c *Combiner) AIConfigured() bool {
	if c.analyzer == nil {
		return false
	}
	if configured, ok := c.analyzer.(interface{ Configured() bool }); ok {
		return configured.Configured()
	}
	return true
}

// runAI calls the analyzer on a context that outlives caller cancellation but not the timeout
func (c *Combiner) runAI(ctx context.Context, subject string, industry Industry) (*AIResult, error) {
	if c.analyzer == nil {
		return nil, ErrAIConfiguration
	}

	aiCtx := context.WithoutCancel(ctx)
	if c.aiTimeout > 0 {
		var cancel context.CancelFunc
		aiCtx, cancel = context.WithTimeout(aiCtx, c.aiTimeout)
		defer cancel()
	}

	return c.analyzer.Analyze(aiCtx, subject, industry)
}

func (c *Combiner) logAIFailure(err error, industry Industry) {
	if c.analyzer == nil {
		c.logger.Debug("AI analyzer not configured, using rule-based only",
			zap.String("industry", string(industry)))
		return
	}

	kind := ClassifyAIError(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("kind", string(kind)),
		zap.String("industry", string(industry)),
	}
	if kind == AIErrorConfiguration {
		c.logger.Error("AI analysis failed, using rule-based only", fields...)
		return
	}
	c.logger.Warn("AI analysis failed, using rule-based only", fields...)
}

// AverageScore rounds the mean of the rule-based and AI scores half away from zero
func AverageScore(ruleBased, aiBased int) int {
	return int(math.Round(float64(ruleBased+aiBased) / 2))
}

// MergeIssues concatenates rule then AI issues, dropping repeats and keeping first-seen order
func MergeIssues(ruleIssues, aiIssues []string) []string {
	merged := make([]string, 0, len(ruleIssues)+len(aiIssues))
	seen := make(map[string]struct{}, len(ruleIssues)+len(aiIssues))
	for _, list := range [][]string{ruleIssues, aiIssues} {
		for _, issue := range list {
			if _, ok := seen[issue]; ok {
				continue
			}
			seen[issue] = struct{}{}
			merged = append(merged, issue)
		}
	}
	return merged
}
