package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiClient creates a new Gemini client. Without an API key the client is
// created unconfigured and fails every call with a configuration error.
func NewGeminiClient(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return &GeminiClient{logger: logger}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		logger: logger,
	}, nil
}

// Configured reports whether an API client was created
func (c *GeminiClient) Configured() bool {
	return c.client != nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete generates content for the prompt under the request's system instruction
func (c *GeminiClient) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("Gemini API key is not set: %w", core.ErrAIConfiguration)
	}

	model := c.client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	model.SetMaxOutputTokens(int32(req.MaxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w: %w", classifyError(err), err)
	}

	text := ResponseText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini: %w", core.ErrAIUnavailable)
	}

	c.logger.Debug("Gemini completion received",
		zap.String("model", req.Model),
		zap.Int("candidates", len(resp.Candidates)))

	return text, nil
}

// ResponseText joins the text parts of the first candidate
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// classifyError maps an API error onto the configuration or availability sentinel.
// Gemini reports a bad key as 400 with a message naming the key.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
			return core.ErrAIConfiguration
		case apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "API key"):
			return core.ErrAIConfiguration
		}
	}
	return core.ErrAIUnavailable
}
