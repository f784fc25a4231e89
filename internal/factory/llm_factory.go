package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/subject-analyzer/internal/adapters/bedrock"
	"github.com/mikey/subject-analyzer/internal/adapters/gemini"
	"github.com/mikey/subject-analyzer/internal/adapters/openai"
	"github.com/mikey/subject-analyzer/internal/analyzer"
	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/utils"
	"go.uber.org/zap"
)

// Provider names accepted in llm.provider
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderStub    = "stub"
	ProviderNone    = "none"
)

// LLMFactory creates LLM clients and the analyzer built on top of them
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

func (f *LLMFactory) provider() (string, error) {
	llmCfg, err := f.cfg.GetLLM()
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(llmCfg.Provider)), nil
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	provider, err := f.provider()
	if err != nil {
		return nil, err
	}

	switch provider {
	case ProviderOpenAI:
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateLLMClient()
	case ProviderGemini:
		return gemini.NewFactory(f.cfg, f.logger).CreateLLMClient()
	case ProviderBedrock:
		return bedrock.NewFactory(f.cfg, f.logger).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// CreateAnalyzer creates the AI analyzer for the configured provider.
// The "none" provider yields a nil analyzer and the service runs rule-based only.
func (f *LLMFactory) CreateAnalyzer() (core.AIAnalyzer, error) {
	provider, err := f.provider()
	if err != nil {
		return nil, err
	}

	var (
		model       string
		maxTokens   int
		temperature float32
	)

	switch provider {
	case ProviderNone:
		f.logger.Info("AI analysis disabled, using rule-based scoring only")
		return nil, nil
	case ProviderStub:
		llmCfg, _ := f.cfg.GetLLM()
		f.logger.Info("Using offline stub analyzer", zap.Int("score", llmCfg.StubScore))
		return analyzer.NewStubAnalyzer(llmCfg.StubScore), nil
	case ProviderOpenAI:
		c := f.cfg.GetOpenAI()
		model, maxTokens, temperature = c.ModelName, c.MaxTokens, c.Temperature
	case ProviderGemini:
		c := f.cfg.GetGemini()
		model, maxTokens, temperature = c.ModelName, c.MaxTokens, c.Temperature
	case ProviderBedrock:
		c := f.cfg.GetBedrock()
		model, maxTokens, temperature = c.ModelID, c.MaxTokens, c.Temperature
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	client, err := f.CreateLLMClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	f.logger.Info("Created AI analyzer",
		zap.String("provider", provider),
		zap.String("model", model))

	return analyzer.NewLLMAnalyzer(client, model, maxTokens, temperature, f.logger), nil
}

// AITimeout returns the per-call AI deadline
func (f *LLMFactory) AITimeout() (time.Duration, error) {
	llmCfg, err := f.cfg.GetLLM()
	if err != nil {
		return 0, err
	}
	return llmCfg.Timeout, nil
}
