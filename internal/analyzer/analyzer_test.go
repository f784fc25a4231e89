package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	reply      string
	err        error
	configured bool
	lastReq    core.CompletionRequest
}

func (f *fakeClient) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	f.lastReq = req
	return f.reply, f.err
}

func (f *fakeClient) Configured() bool { return f.configured }

func TestParseResponseWellFormed(t *testing.T) {
	reply := `Sure! Here is the analysis:
{
  "score": 82,
  "issues": ["lacks personalization", "too generic"],
  "suggestions": ["A", "B", "C", "D"],
  "ai_insights": "Lead with the benefit."
}
Hope this helps.`

	result, err := ParseResponse(reply, "Spring sale", core.IndustryRetail)
	require.NoError(t, err)

	assert.Equal(t, 82, result.Score)
	assert.Equal(t, []string{"lacks personalization", "too generic"}, result.Issues)
	assert.Equal(t, []string{"A", "B", "C"}, result.Suggestions)
	assert.Equal(t, "Lead with the benefit.", result.Insight)
}

func TestParseResponseMalformed(t *testing.T) {
	for _, reply := range []string{
		"I cannot help with that.",
		"{not json at all}",
		`{"score": 70} and also {"score": 80}`,
	} {
		_, err := ParseResponse(reply, "Hello", core.IndustrySaaS)
		require.Error(t, err, reply)
		assert.ErrorIs(t, err, core.ErrAIMalformedResponse)
		assert.Equal(t, core.AIErrorMalformed, core.ClassifyAIError(err))
	}
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"integer", 73.0, 73},
		{"fraction truncates", 73.9, 73},
		{"numeric string", "64", 64},
		{"string with trailing text", "88/100", 88},
		{"above range", 150.0, 100},
		{"below range", -5.0, 0},
		{"negative string", "-12", 0},
		{"zero is kept", 0.0, 0},
		{"missing", nil, 50},
		{"non-numeric string", "great", 50},
		{"boolean", true, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeScore(tt.value))
		})
	}
}

func TestParseResponseFallbacks(t *testing.T) {
	reply := `{"score": "abc", "issues": "none", "suggestions": ["only one"]}`

	result, err := ParseResponse(reply, "Hello", core.IndustryFinance)
	require.NoError(t, err)

	assert.Equal(t, 50, result.Score)
	assert.Equal(t, []string{"Unable to analyze"}, result.Issues)
	assert.Equal(t, []string{"Discover: Hello", "Limited Time: Hello", "Exclusive: Hello"}, result.Suggestions)
	assert.Equal(t, defaultInsight, result.Insight)
}

func TestParseResponseRejectsMixedArrays(t *testing.T) {
	reply := `{"score": 60, "issues": ["ok", 3], "suggestions": ["a", "b", null]}`

	result, err := ParseResponse(reply, "Hello", core.IndustryEducation)
	require.NoError(t, err)

	assert.Equal(t, []string{"Unable to analyze"}, result.Issues)
	assert.Equal(t, "Start Learning: Hello", result.Suggestions[0])
}

func TestParseResponseInsightKeys(t *testing.T) {
	result, err := ParseResponse(`{"insight": "Use a number."}`, "Hello", core.IndustrySaaS)
	require.NoError(t, err)
	assert.Equal(t, "Use a number.", result.Insight)

	result, err = ParseResponse(`{"ai_insights": "  ", "insight": "Fallback key."}`, "Hello", core.IndustrySaaS)
	require.NoError(t, err)
	assert.Equal(t, "Fallback key.", result.Insight)
}

func TestLLMAnalyzerSendsRequest(t *testing.T) {
	client := &fakeClient{
		reply:      `{"score": 80, "issues": [], "suggestions": ["a","b","c"], "ai_insights": "Good."}`,
		configured: true,
	}
	a := NewLLMAnalyzer(client, "gpt-3.5-turbo", 500, 0.7, zap.NewNop())

	result, err := a.Analyze(context.Background(), "Your weekly digest", core.IndustrySaaS)
	require.NoError(t, err)

	assert.Equal(t, 80, result.Score)
	assert.Equal(t, SystemInstruction, client.lastReq.System)
	assert.Equal(t, "gpt-3.5-turbo", client.lastReq.Model)
	assert.Equal(t, 500, client.lastReq.MaxTokens)
	assert.InDelta(t, 0.7, client.lastReq.Temperature, 1e-6)
	assert.Contains(t, client.lastReq.Prompt, `Subject: "Your weekly digest"`)
	assert.Contains(t, client.lastReq.Prompt, "saas industry")
	assert.Contains(t, SystemInstruction, "do not expose any credentials")
}

func TestLLMAnalyzerErrors(t *testing.T) {
	t.Run("empty reply is unavailable", func(t *testing.T) {
		a := NewLLMAnalyzer(&fakeClient{reply: "  \n"}, "m", 10, 0.5, zap.NewNop())
		_, err := a.Analyze(context.Background(), "Hello", core.IndustrySaaS)
		assert.ErrorIs(t, err, core.ErrAIUnavailable)
	})

	t.Run("client error keeps its classification", func(t *testing.T) {
		clientErr := fmt.Errorf("status 401: %w", core.ErrAIConfiguration)
		a := NewLLMAnalyzer(&fakeClient{err: clientErr}, "m", 10, 0.5, zap.NewNop())
		_, err := a.Analyze(context.Background(), "Hello", core.IndustrySaaS)
		assert.Equal(t, core.AIErrorConfiguration, core.ClassifyAIError(err))
	})

	t.Run("nil client is a configuration error", func(t *testing.T) {
		a := NewLLMAnalyzer(nil, "m", 10, 0.5, zap.NewNop())
		assert.False(t, a.Configured())
		_, err := a.Analyze(context.Background(), "Hello", core.IndustrySaaS)
		assert.ErrorIs(t, err, core.ErrAIConfiguration)
	})
}

func TestLLMAnalyzerConfigured(t *testing.T) {
	assert.True(t, NewLLMAnalyzer(&fakeClient{configured: true}, "m", 1, 0, zap.NewNop()).Configured())
	assert.False(t, NewLLMAnalyzer(&fakeClient{configured: false}, "m", 1, 0, zap.NewNop()).Configured())
}

func TestStubAnalyzer(t *testing.T) {
	stub := NewStubAnalyzer(80)
	result, err := stub.Analyze(context.Background(), "Hello", core.IndustryRetail)
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	assert.Len(t, result.Suggestions, 3)

	stub.Err = errors.New("boom")
	_, err = stub.Analyze(context.Background(), "Hello", core.IndustryRetail)
	assert.Error(t, err)
	assert.Equal(t, int64(2), stub.Calls())
}
