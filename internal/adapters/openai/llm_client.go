package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI chat completions
type OpenAIClient struct {
	client        *openai.Client
	apiKey        string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client. An empty baseURL uses the public API.
func NewOpenAIClient(
	apiKey string,
	baseURL string,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:        openai.NewClientWithConfig(clientCfg),
		apiKey:        apiKey,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Configured reports whether an API key is present
func (c *OpenAIClient) Configured() bool {
	return c.apiKey != ""
}

// Complete sends one system + user exchange and returns the assistant text
func (c *OpenAIClient) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("OpenAI API key is not set: %w", core.ErrAIConfiguration)
	}

	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w: %w", classifyError(err), err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI: %w", core.ErrAIUnavailable)
	}

	c.logger.Debug("OpenAI completion received",
		zap.String("id", resp.ID),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return c.textProcessor.SanitizeUTF8(resp.Choices[0].Message.Content), nil
}

// classifyError maps an SDK error onto the configuration or availability sentinel
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && isAuthStatus(apiErr.HTTPStatusCode) {
		return core.ErrAIConfiguration
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && isAuthStatus(reqErr.HTTPStatusCode) {
		return core.ErrAIConfiguration
	}
	return core.ErrAIUnavailable
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
