package core

import (
	"context"

	"go.uber.org/zap"
)

// AnalysisService is the core service for subject line analysis
type AnalysisService struct {
	validator    RequestValidator
	combiner     *Combiner
	cache        CacheRepository
	logger       *zap.Logger
	cacheEnabled bool
	aiConfigured bool
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	validator RequestValidator,
	combiner *Combiner,
	cache CacheRepository,
	logger *zap.Logger,
	cacheEnabled bool,
) *AnalysisService {
	return &AnalysisService{
		validator:    validator,
		combiner:     combiner,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil,
		aiConfigured: combiner != nil && combiner.AIConfigured(),
	}
}

// Analyze validates the request, serves it from cache when possible and otherwise runs a full analysis.
// The only errors returned are *ValidationError values.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	clean, fieldErrs := s.validator.Validate(req)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Details: fieldErrs}
	}

	industry := Industry(clean.Industry)

	// Check cache if enabled
	if s.cacheEnabled {
		if cached, err := s.cache.Get(ctx, clean.Subject, clean.Industry); err == nil {
			s.logger.Debug("Cache hit for subject",
				zap.String("industry", clean.Industry),
				zap.Int("score", cached.Score))
			return &AnalysisResponse{Result: cached, Cached: true}, nil
		}
	}

	result := s.combiner.PerformAnalysis(ctx, clean.Subject, industry)

	// Update cache with result if enabled
	if s.cacheEnabled {
		if err := s.cache.Set(ctx, clean.Subject, clean.Industry, result); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	s.logger.Info("Analyzed subject line",
		zap.String("industry", clean.Industry),
		zap.Int("score", result.Score),
		zap.Bool("ai_based", result.ScoringBreakdown.AIBased != nil))

	return &AnalysisResponse{Result: result, Cached: false}, nil
}

// Rules returns the validation contract for clients
func (s *AnalysisService) Rules() ValidationRules {
	return s.validator.Rules()
}

// CacheStats returns the cache statistics and a health check result
func (s *AnalysisService) CacheStats(ctx context.Context) (CacheStats, bool) {
	if s.cache == nil {
		return CacheStats{}, false
	}
	return s.cache.Stats(), s.cache.Healthy(ctx)
}

// ClearCache removes every cached analysis
func (s *AnalysisService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

// AIConfigured reports whether an AI analyzer is wired in
func (s *AnalysisService) AIConfigured() bool {
	return s.aiConfigured
}
