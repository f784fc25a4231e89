package openai

import (
	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/utils"
	"go.uber.org/zap"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new OpenAIClient. A missing key is not an error here;
// the client reports it on every call so the service can still start degraded.
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		f.logger.Warn("OpenAI API key is not configured, AI analysis will be skipped")
	}

	return NewOpenAIClient(
		openaiCfg.APIKey,
		openaiCfg.BaseURL,
		f.logger,
		f.textProcessor,
	), nil
}
