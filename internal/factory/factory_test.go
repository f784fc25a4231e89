package factory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/subject-analyzer/internal/adapters/cache"
	"github.com/mikey/subject-analyzer/internal/adapters/openai"
	"github.com/mikey/subject-analyzer/internal/analyzer"
	"github.com/mikey/subject-analyzer/internal/api"
	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/scoring"
	"github.com/mikey/subject-analyzer/internal/utils"
	"github.com/mikey/subject-analyzer/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfig(overrides map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateAnalyzerPerProvider(t *testing.T) {
	logger := zap.NewNop()
	tp := utils.NewTextProcessor(logger)

	t.Run("openai", func(t *testing.T) {
		f := NewLLMFactory(newConfig(map[string]any{"openai.api_key": "sk-test"}), logger, tp)
		a, err := f.CreateAnalyzer()
		require.NoError(t, err)
		llm, ok := a.(*analyzer.LLMAnalyzer)
		require.True(t, ok)
		assert.True(t, llm.Configured())

		client, err := f.CreateLLMClient()
		require.NoError(t, err)
		assert.IsType(t, &openai.OpenAIClient{}, client)
	})

	t.Run("openai without key is unconfigured", func(t *testing.T) {
		f := NewLLMFactory(newConfig(nil), logger, tp)
		a, err := f.CreateAnalyzer()
		require.NoError(t, err)
		assert.False(t, a.(*analyzer.LLMAnalyzer).Configured())
	})

	t.Run("gemini without key is unconfigured", func(t *testing.T) {
		f := NewLLMFactory(newConfig(map[string]any{"llm.provider": "gemini"}), logger, tp)
		a, err := f.CreateAnalyzer()
		require.NoError(t, err)
		assert.False(t, a.(*analyzer.LLMAnalyzer).Configured())
	})

	t.Run("stub", func(t *testing.T) {
		f := NewLLMFactory(newConfig(map[string]any{"llm.provider": "Stub", "llm.stub_score": 64}), logger, tp)
		a, err := f.CreateAnalyzer()
		require.NoError(t, err)
		stub, ok := a.(*analyzer.StubAnalyzer)
		require.True(t, ok)
		assert.Equal(t, 64, stub.Score)
	})

	t.Run("none", func(t *testing.T) {
		f := NewLLMFactory(newConfig(map[string]any{"llm.provider": "none"}), logger, tp)
		a, err := f.CreateAnalyzer()
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("unknown", func(t *testing.T) {
		f := NewLLMFactory(newConfig(map[string]any{"llm.provider": "watson"}), logger, tp)
		_, err := f.CreateAnalyzer()
		assert.ErrorContains(t, err, "unsupported LLM provider: watson")
	})
}

func TestAITimeout(t *testing.T) {
	f := NewLLMFactory(newConfig(map[string]any{"llm.timeout": "5s"}), zap.NewNop(), nil)
	timeout, err := f.AITimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
}

func TestCreateCacheRepository(t *testing.T) {
	logger := zap.NewNop()

	mem, err := NewCacheFactory(newConfig(nil), logger).CreateCacheRepository()
	require.NoError(t, err)
	defer mem.Stop()
	assert.IsType(t, &cache.MemoryCache{}, mem)

	dsn := "file:" + filepath.Join(t.TempDir(), "nested", "cache.db")
	sqlite, err := NewCacheFactory(newConfig(map[string]any{
		"cache.type":       "sqlite",
		"cache.sqlite_dsn": dsn,
	}), logger).CreateCacheRepository()
	require.NoError(t, err)
	defer sqlite.Stop()
	assert.IsType(t, &cache.SQLiteCache{}, sqlite)

	_, err = NewCacheFactory(newConfig(map[string]any{"cache.type": "redis"}), logger).CreateCacheRepository()
	assert.ErrorContains(t, err, "unsupported cache type: redis")
}

func TestSQLiteDir(t *testing.T) {
	assert.Equal(t, "", sqliteDir("file:subject_cache?mode=memory&cache=shared"))
	assert.Equal(t, "", sqliteDir(""))
	assert.Equal(t, "", sqliteDir(":memory:"))
	assert.Equal(t, "", sqliteDir("cache.db"))
	assert.Equal(t, "/var/lib/subject-analyzer", sqliteDir("file:/var/lib/subject-analyzer/cache.db?_busy_timeout=5000"))
	assert.Equal(t, "data", sqliteDir("data/cache.db"))
}

func newService(t *testing.T) *core.AnalysisService {
	t.Helper()
	logger := zap.NewNop()
	scorer := scoring.NewScorer()
	mc := cache.NewMemoryCache(time.Hour, logger, 0)
	t.Cleanup(mc.Stop)
	return core.NewAnalysisService(
		validation.NewSubjectValidator(utils.NewTextProcessor(logger)),
		core.NewCombiner(scorer, scorer, nil, logger, time.Second),
		mc, logger, true)
}

func TestCreateFrontends(t *testing.T) {
	logger := zap.NewNop()
	tp := utils.NewTextProcessor(logger)

	frontends, err := NewFilterFactory(newConfig(nil), logger, newService(t), tp).CreateFrontends()
	require.NoError(t, err)
	require.Len(t, frontends, 1)
	assert.IsType(t, &api.Server{}, frontends[0])

	frontends, err = NewFilterFactory(newConfig(map[string]any{
		"filter.enabled":  true,
		"filter.next_hop": "127.0.0.1:10025",
		"filter.industry": "retail",
	}), logger, newService(t), tp).CreateFrontends()
	require.NoError(t, err)
	require.Len(t, frontends, 2)
	assert.Equal(t, "smtp-filter", frontends[1].Name())

	_, err = NewFilterFactory(newConfig(map[string]any{
		"filter.enabled":  true,
		"filter.industry": "gaming",
	}), logger, newService(t), tp).CreateFrontends()
	assert.ErrorContains(t, err, "unsupported filter industry")
}
