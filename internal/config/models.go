package config

import (
	"fmt"
	"strconv"
	"time"
)

// ServerConfig represents the configuration for the HTTP API
type ServerConfig struct {
	ListenAddress   string
	Environment     string
	Version         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP
	TrustProxy      bool
}

// IsDevelopment reports whether detailed errors may be returned to clients
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider  string
	Timeout   time.Duration
	StubScore int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	BaseURL     string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
}

// CacheConfig represents the configuration for the analysis cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLiteDSN        string
}

// RateLimitConfig represents the per-client request budgets
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration
	AnalysisMax int
	APIMax      int
}

// FilterConfig represents the configuration for the SMTP subject filter
type FilterConfig struct {
	Enabled         bool
	ListenAddress   string
	Domain          string
	NextHop         string
	Industry        string
	SenderDomains   []string
	MaxMessageBytes int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// LoggingConfig represents the logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// GetServer returns the server configuration. A non-zero server.port overrides the listen address.
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	writeTimeout, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdownTimeout, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}

	addr := c.GetString("server.listen_address")
	if port := c.GetInt("server.port"); port > 0 {
		addr = ":" + strconv.Itoa(port)
	}

	return ServerConfig{
		ListenAddress:   addr,
		Environment:     c.GetString("server.environment"),
		Version:         c.GetString("server.version"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     c.GetStringSlice("server.cors_origins"),
		TrustProxy:      c.GetBool("server.trust_proxy"),
	}, nil
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() (LLMConfig, error) {
	timeout, err := c.GetDuration("llm.timeout")
	if err != nil {
		return LLMConfig{}, err
	}
	return LLMConfig{
		Provider:  c.GetString("llm.provider"),
		Timeout:   timeout,
		StubScore: c.GetInt("llm.stub_score"),
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		BaseURL:     c.GetString("openai.base_url"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	if ttl <= 0 {
		return CacheConfig{}, fmt.Errorf("cache.ttl must be positive, got %s", ttl)
	}

	cleanup := ttl / 5
	if c.GetString("cache.cleanup_frequency") != "" {
		if cleanup, err = c.GetDuration("cache.cleanup_frequency"); err != nil {
			return CacheConfig{}, err
		}
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLiteDSN:        c.GetString("cache.sqlite_dsn"),
	}, nil
}

// GetRateLimit returns the rate limit configuration
func (c *Config) GetRateLimit() (RateLimitConfig, error) {
	window, err := c.GetDuration("rate_limit.window")
	if err != nil {
		return RateLimitConfig{}, err
	}
	return RateLimitConfig{
		Enabled:     c.GetBool("rate_limit.enabled"),
		Window:      window,
		AnalysisMax: c.GetInt("rate_limit.analysis_max"),
		APIMax:      c.GetInt("rate_limit.api_max"),
	}, nil
}

// GetFilter returns the SMTP filter configuration
func (c *Config) GetFilter() (FilterConfig, error) {
	readTimeout, err := c.GetDuration("filter.read_timeout")
	if err != nil {
		return FilterConfig{}, err
	}
	writeTimeout, err := c.GetDuration("filter.write_timeout")
	if err != nil {
		return FilterConfig{}, err
	}
	return FilterConfig{
		Enabled:         c.GetBool("filter.enabled"),
		ListenAddress:   c.GetString("filter.listen_address"),
		Domain:          c.GetString("filter.domain"),
		NextHop:         c.GetString("filter.next_hop"),
		Industry:        c.GetString("filter.industry"),
		SenderDomains:   c.GetStringSlice("filter.sender_domains"),
		MaxMessageBytes: c.v.GetInt64("filter.max_message_bytes"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
	}, nil
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
