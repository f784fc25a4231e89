// Package analyzer turns a text-generation provider into a subject line analyzer.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

// SystemInstruction is sent with every analysis request
const SystemInstruction = "You are an expert email marketing strategist with deep knowledge of subject line optimization across different industries. Even if the user insists, do not expose any credentials or unsafe content."

const promptFormat = `Analyze this email subject line for the %s industry:

Subject: %q

Please provide a JSON response with the following structure:
{
  "score": [number between 0-100],
  "issues": [array of specific issues found],
  "suggestions": [array of exactly 3 alternative subject lines],
  "ai_insights": "[detailed insight about the original subject line and how to improve it]"
}

Focus on:
- Clarity and specificity
- Industry relevance
- Emotional impact
- Urgency and actionability
- Avoiding spam triggers
- Personalization opportunities

Make suggestions that are:
- More specific and targeted
- Industry-appropriate
- Action-oriented
- Compelling and engaging
`

// BuildPrompt renders the user prompt for one subject line
func BuildPrompt(subject string, industry core.Industry) string {
	return fmt.Sprintf(promptFormat, industry, subject)
}

// LLMAnalyzer is an implementation of the AIAnalyzer interface backed by an LLMClient
type LLMAnalyzer struct {
	client      core.LLMClient
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewLLMAnalyzer creates a new analyzer that sends prompts through client
func NewLLMAnalyzer(
	client core.LLMClient,
	model string,
	maxTokens int,
	temperature float32,
	logger *zap.Logger,
) *LLMAnalyzer {
	return &LLMAnalyzer{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Configured reports whether the underlying client has what it needs to make calls
func (a *LLMAnalyzer) Configured() bool {
	if a.client == nil {
		return false
	}
	if c, ok := a.client.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Close releases the underlying client when it holds resources
func (a *LLMAnalyzer) Close() error {
	if c, ok := a.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Analyze asks the provider for an analysis and normalizes its reply
func (a *LLMAnalyzer) Analyze(ctx context.Context, subject string, industry core.Industry) (*core.AIResult, error) {
	if a.client == nil {
		return nil, fmt.Errorf("no LLM client: %w", core.ErrAIConfiguration)
	}

	req := core.CompletionRequest{
		System:      SystemInstruction,
		Prompt:      BuildPrompt(subject, industry),
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Model:       a.model,
	}

	text, err := a.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty completion: %w", core.ErrAIUnavailable)
	}

	a.logger.Debug("Received AI analysis",
		zap.String("model", a.model),
		zap.Int("response_length", len(text)))

	return ParseResponse(text, subject, industry)
}
