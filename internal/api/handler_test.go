package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikey/subject-analyzer/internal/adapters/cache"
	"github.com/mikey/subject-analyzer/internal/analyzer"
	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/scoring"
	"github.com/mikey/subject-analyzer/internal/utils"
	"github.com/mikey/subject-analyzer/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	router http.Handler
	stub   *analyzer.StubAnalyzer
}

func newTestEnv(t *testing.T, environment string, rateCfg config.RateLimitConfig) *testEnv {
	t.Helper()
	return newTestEnvWithServer(t, config.ServerConfig{Environment: environment, CORSOrigins: []string{"*"}}, rateCfg)
}

func newTestEnvWithServer(t *testing.T, serverCfg config.ServerConfig, rateCfg config.RateLimitConfig) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	stub := analyzer.NewStubAnalyzer(80)
	scorer := scoring.NewScorer()
	combiner := core.NewCombiner(scorer, scorer, stub, logger, time.Second)
	memCache := cache.NewMemoryCache(time.Hour, logger, 0)
	t.Cleanup(memCache.Stop)

	svc := core.NewAnalysisService(
		validation.NewSubjectValidator(utils.NewTextProcessor(logger)),
		combiner,
		memCache,
		logger,
		true,
	)

	h := NewHandler(svc, logger, "1.0.0", serverCfg.IsDevelopment())
	return &testEnv{
		router: NewRouter(h, serverCfg, rateCfg, logger),
		stub:   stub,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestAnalyzeSubject(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})

	rec, body := env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": "Hello", "industry": "saas"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["cached"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "Hello", data["original"])
	assert.EqualValues(t, 75, data["score"], "rule 70 and ai 80 average to 75")
	breakdown := data["scoring_breakdown"].(map[string]any)
	assert.EqualValues(t, 70, breakdown["rule_based"])
	assert.EqualValues(t, 80, breakdown["ai_based"])
	assert.EqualValues(t, 75, breakdown["combined"])
	assert.Len(t, data["suggestions"], 3)
	assert.Contains(t, data, "ai_insights")
	assert.Contains(t, data, "detailed_metrics")
	assert.Equal(t, "saas", data["industry"])

	rec, body = env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": "  HELLO ", "industry": "SaaS"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, int64(1), env.stub.Calls())
}

func TestAnalyzeSubjectDegrades(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})
	env.stub.Err = fmt.Errorf("upstream down: %w", core.ErrAIUnavailable)

	rec, body := env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": "Hello", "industry": "saas"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	breakdown := data["scoring_breakdown"].(map[string]any)
	assert.Nil(t, breakdown["ai_based"])
	assert.Equal(t, breakdown["rule_based"], breakdown["combined"])
	assert.Equal(t, core.DegradedInsight, data["ai_insights"])
}

func TestAnalyzeSubjectValidation(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})

	rec, body := env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": "", "industry": "gaming"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["error"])

	details := body["details"].([]any)
	require.Len(t, details, 2)
	assert.Equal(t, "subject", details[0].(map[string]any)["field"])
	assert.Equal(t, "Subject line cannot be empty", details[0].(map[string]any)["message"])
	assert.Equal(t, "industry", details[1].(map[string]any)["field"])
	assert.Equal(t, int64(0), env.stub.Calls())
}

func TestAnalyzeSubjectMissingSubject(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})

	rec, body := env.do(t, http.MethodPost, "/api/analyze-subject", `{"industry": "saas"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	details := body["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "subject", details[0].(map[string]any)["field"])
	assert.Equal(t, "Subject line is required", details[0].(map[string]any)["message"])

	rec, body = env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": null, "industry": "saas"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Subject line is required", body["details"].([]any)[0].(map[string]any)["message"])
}

func TestAnalyzeSubjectBadJSON(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})

	rec, body := env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": 42`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["error"])

	rec, _ = env.do(t, http.MethodPost, "/api/analyze-subject", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadEndpoints(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})

	rec, body := env.do(t, http.MethodGet, "/api/validation-rules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rules := body["data"].(map[string]any)
	assert.EqualValues(t, 200, rules["maxSubjectLength"])
	assert.EqualValues(t, 1, rules["minSubjectLength"])
	assert.Len(t, rules["supportedIndustries"], 6)

	rec, body = env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["ai_configured"])
	assert.Equal(t, "1.0.0", body["version"])

	rec, body = env.do(t, http.MethodGet, "/api/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := body["data"].(map[string]any)
	assert.Contains(t, info["endpoints"], "POST /api/analyze-subject")
}

func TestCacheEndpoints(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})
	env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": "Hello", "industry": "saas"}`)

	rec, body := env.do(t, http.MethodGet, "/api/cache-stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["healthy"])
	stats := data["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["entries"])
	assert.EqualValues(t, 1, stats["sets"])

	rec, _ = env.do(t, http.MethodDelete, "/api/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, body = env.do(t, http.MethodGet, "/api/cache-stats", "")
	stats = body["data"].(map[string]any)["stats"].(map[string]any)
	assert.EqualValues(t, 0, stats["entries"])
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{})

	rec, body := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", body["error"])
	assert.Equal(t, "The requested route GET /api/nope does not exist", body["message"])
}

func TestRateLimitInProduction(t *testing.T) {
	env := newTestEnv(t, "production", config.RateLimitConfig{
		Enabled:     true,
		Window:      15 * time.Minute,
		AnalysisMax: 2,
		APIMax:      100,
	})

	for i := 0; i < 2; i++ {
		rec, _ := env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": "Hello", "industry": "saas"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := env.do(t, http.MethodPost, "/api/analyze-subject", `{"subject": "Hello", "industry": "saas"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.EqualValues(t, 900, body["retryAfter"])

	rec, _ = env.do(t, http.MethodGet, "/api/validation-rules", "")
	assert.Equal(t, http.StatusOK, rec.Code, "the general API bucket is separate")
}

func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	env := newTestEnv(t, "production", config.RateLimitConfig{
		Enabled:     true,
		Window:      15 * time.Minute,
		AnalysisMax: 2,
		APIMax:      100,
	})

	allowed := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-subject",
			strings.NewReader(`{"subject": "Hello", "industry": "saas"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.1.%d", i))
		req.RemoteAddr = "203.0.113.7:54321"
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
	assert.Equal(t, 2, allowed, "one socket peer shares one budget")
}

func TestRateLimitTrustedProxyKeysOnForwardedAddress(t *testing.T) {
	env := newTestEnvWithServer(t, config.ServerConfig{
		Environment: "production",
		CORSOrigins: []string{"*"},
		TrustProxy:  true,
	}, config.RateLimitConfig{
		Enabled:     true,
		Window:      15 * time.Minute,
		AnalysisMax: 1,
		APIMax:      100,
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-subject",
			strings.NewReader(`{"subject": "Hello", "industry": "saas"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Real-IP", ip)
		req.RemoteAddr = "192.0.2.1:40000"
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimitSkippedInDevelopment(t *testing.T) {
	env := newTestEnv(t, "development", config.RateLimitConfig{
		Enabled:     true,
		Window:      15 * time.Minute,
		AnalysisMax: 1,
		APIMax:      1,
	})

	for i := 0; i < 3; i++ {
		rec, _ := env.do(t, http.MethodGet, "/api/validation-rules", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter("Test", 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients have separate buckets")

	now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", &core.ValidationError{Details: []core.FieldError{{Field: "subject", Message: "x"}}}, http.StatusBadRequest, "Validation failed"},
		{"configuration", fmt.Errorf("no key: %w", core.ErrAIConfiguration), http.StatusInternalServerError, "AI service configuration error"},
		{"unavailable", fmt.Errorf("timeout: %w", core.ErrAIUnavailable), http.StatusServiceUnavailable, "AI service temporarily unavailable"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mapError(tt.err, false)
			assert.Equal(t, tt.status, m.status)
			assert.Equal(t, tt.msg, m.error)
		})
	}

	assert.Nil(t, mapError(errors.New("disk on fire"), false).details)
	assert.Equal(t, "disk on fire", mapError(errors.New("disk on fire"), true).details)
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
