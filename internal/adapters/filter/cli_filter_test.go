package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mikey/subject-analyzer/internal/adapters/cache"
	"github.com/mikey/subject-analyzer/internal/analyzer"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/scoring"
	"github.com/mikey/subject-analyzer/internal/utils"
	"github.com/mikey/subject-analyzer/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCLIService(t *testing.T, stub *analyzer.StubAnalyzer) *core.AnalysisService {
	t.Helper()
	logger := zap.NewNop()
	scorer := scoring.NewScorer()
	mc := cache.NewMemoryCache(time.Hour, logger, 0)
	t.Cleanup(mc.Stop)
	return core.NewAnalysisService(
		validation.NewSubjectValidator(utils.NewTextProcessor(logger)),
		core.NewCombiner(scorer, scorer, stub, logger, time.Second),
		mc, logger, true)
}

func TestCliFilterText(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newCLIService(t, analyzer.NewStubAnalyzer(80)), zap.NewNop(), &out, true, false)

	resp, err := f.ProcessSubject(context.Background(), "Hello", "saas")
	require.NoError(t, err)
	assert.Equal(t, 75, resp.Result.Score)

	text := out.String()
	assert.Contains(t, text, "Score: 75\n")
	assert.Contains(t, text, "Rule-based: 70\n")
	assert.Contains(t, text, "AI-based: 80\n")
	assert.Contains(t, text, "Issues: too short, lacks personalization\n")
	assert.Contains(t, text, "1. Try Now: Hello\n")
	assert.Contains(t, text, "=== Metrics ===")
}

func TestCliFilterDegradedText(t *testing.T) {
	stub := analyzer.NewStubAnalyzer(80)
	stub.Err = core.ErrAIConfiguration

	var out bytes.Buffer
	f := NewCliFilter(newCLIService(t, stub), zap.NewNop(), &out, false, false)

	_, err := f.ProcessSubject(context.Background(), "Hello", "saas")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "AI-based: unavailable\n")
	assert.NotContains(t, out.String(), "=== Metrics ===")
}

func TestCliFilterJSON(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newCLIService(t, analyzer.NewStubAnalyzer(80)), zap.NewNop(), &out, false, true)

	_, err := f.ProcessSubject(context.Background(), "Hello", "saas")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "Hello", decoded["original"])
	assert.Equal(t, float64(75), decoded["score"])
}

func TestCliFilterValidationError(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newCLIService(t, analyzer.NewStubAnalyzer(80)), zap.NewNop(), &out, false, false)

	_, err := f.ProcessSubject(context.Background(), "", "saas")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Empty(t, out.String())
}
