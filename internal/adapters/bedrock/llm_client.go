package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

const anthropicVersion = "bedrock-2023-05-31"

// InvokeModelAPI is the subset of the Bedrock runtime client used here
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the LLMClient interface using Amazon Bedrock
type BedrockClient struct {
	client  InvokeModelAPI
	modelID string
	logger  *zap.Logger
}

// NewBedrockClient creates a new Bedrock client. modelID is used when a request names no model.
func NewBedrockClient(client InvokeModelAPI, modelID string, logger *zap.Logger) *BedrockClient {
	return &BedrockClient{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}
}

// Configured reports whether a runtime client is available
func (c *BedrockClient) Configured() bool {
	return c.client != nil
}

// Complete invokes the model with a payload in the model family's native format
func (c *BedrockClient) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("Bedrock runtime client is not available: %w", core.ErrAIConfiguration)
	}

	modelID := req.Model
	if modelID == "" {
		modelID = c.modelID
	}

	payload, err := BuildRequestBody(modelID, req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w: %w", classifyError(err), err)
	}

	text, err := ExtractText(modelID, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Bedrock response: %w: %w", core.ErrAIUnavailable, err)
	}

	c.logger.Debug("Bedrock completion received",
		zap.String("model_id", modelID),
		zap.Int("response_size", len(resp.Body)))

	return text, nil
}

// BuildRequestBody renders the request for the model family named by modelID
func BuildRequestBody(modelID string, req core.CompletionRequest) ([]byte, error) {
	switch {
	case isAnthropicModel(modelID):
		return json.Marshal(map[string]interface{}{
			"anthropic_version": anthropicVersion,
			"max_tokens":        req.MaxTokens,
			"temperature":       req.Temperature,
			"system":            req.System,
			"messages": []map[string]interface{}{
				{
					"role": "user",
					"content": []map[string]string{
						{"type": "text", "text": req.Prompt},
					},
				},
			},
		})
	case isAmazonTitanModel(modelID):
		return json.Marshal(map[string]interface{}{
			"inputText": req.System + "\n\n" + req.Prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": req.MaxTokens,
				"temperature":   req.Temperature,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      req.System + "\n\n" + req.Prompt,
			"max_tokens":  req.MaxTokens,
			"temperature": req.Temperature,
		})
	}
}

// ExtractText pulls the generated text out of a model family's response body
func ExtractText(modelID string, body []byte) (string, error) {
	switch {
	case isAnthropicModel(modelID):
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 {
			return "", errors.New("empty response from Claude model")
		}
		return b.String(), nil

	case isAmazonTitanModel(modelID):
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", errors.New("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Generation string `json:"generation"`
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Generation, genericResp.Completion} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return string(body), nil
	}
}

// classifyError maps an SDK error onto the configuration or availability sentinel
func classifyError(err error) error {
	var accessDenied *types.AccessDeniedException
	if errors.As(err, &accessDenied) {
		return core.ErrAIConfiguration
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		if code == http.StatusUnauthorized || code == http.StatusForbidden {
			return core.ErrAIConfiguration
		}
		return core.ErrAIUnavailable
	}
	// the signer fails before any request is sent when no credentials resolve
	if strings.Contains(err.Error(), "credentials") {
		return core.ErrAIConfiguration
	}
	return core.ErrAIUnavailable
}

func isAnthropicModel(modelID string) bool {
	return strings.HasPrefix(modelID, "anthropic.claude") || strings.Contains(modelID, ".anthropic.claude")
}

func isAmazonTitanModel(modelID string) bool {
	return strings.HasPrefix(modelID, "amazon.titan")
}
