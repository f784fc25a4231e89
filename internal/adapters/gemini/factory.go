package gemini

import (
	"context"

	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new GeminiClient
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		f.logger.Warn("Gemini API key is not configured, AI analysis will be skipped")
	}

	return NewGeminiClient(context.Background(), geminiCfg.APIKey, f.logger)
}
