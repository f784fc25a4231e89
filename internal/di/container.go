package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/factory"
	"github.com/mikey/subject-analyzer/internal/logging"
	"github.com/mikey/subject-analyzer/internal/ports"
	"github.com/mikey/subject-analyzer/internal/scoring"
	"github.com/mikey/subject-analyzer/internal/utils"
	"github.com/mikey/subject-analyzer/internal/validation"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (factory.StoppableCache, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(func(
		v core.RequestValidator,
		combiner *core.Combiner,
		cacheRepo factory.StoppableCache,
		cf *factory.CacheFactory,
		logger *zap.Logger,
	) *core.AnalysisService {
		return core.NewAnalysisService(v, combiner, cacheRepo, logger, cf.IsCacheEnabled())
	}); err != nil {
		return nil, err
	}

	// Register frontends
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) ([]ports.Frontend, error) {
		return f.CreateFrontends()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideAnalysis registers everything between the configuration and the service:
// text processing, validation, scoring, the AI analyzer and the combiner.
// It expects *config.Config and *zap.Logger to be provided already.
func provideAnalysis(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register validator
	if err := container.Provide(func(tp *utils.TextProcessor) core.RequestValidator {
		return validation.NewSubjectValidator(tp)
	}); err != nil {
		return err
	}

	// Register deterministic scorer
	if err := container.Provide(scoring.NewScorer); err != nil {
		return err
	}

	// Register AI analyzer
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.LLMFactory) (core.AIAnalyzer, error) {
		return f.CreateAnalyzer()
	}); err != nil {
		return err
	}

	// Register combiner
	if err := container.Provide(func(
		scorer *scoring.Scorer,
		analyzer core.AIAnalyzer,
		f *factory.LLMFactory,
		logger *zap.Logger,
	) (*core.Combiner, error) {
		timeout, err := f.AITimeout()
		if err != nil {
			return nil, err
		}
		return core.NewCombiner(scorer, scorer, analyzer, logger, timeout), nil
	}); err != nil {
		return err
	}

	return nil
}
