package di

import (
	"flag"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/subject-analyzer/internal/adapters/filter"
	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/factory"
	"github.com/mikey/subject-analyzer/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	Subject  string
	Industry string

	// LLM provider flags
	Provider    string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Offline     bool

	// Output flags
	Verbose    bool
	JSONLog    bool
	JSONOutput bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// Input flags
	fs.StringVar(&flags.Subject, "subject", "", "Subject line to analyze")
	fs.StringVar(&flags.Industry, "industry", "e-commerce", "Industry (e-commerce, saas, retail, healthcare, finance, education)")

	// LLM provider flags
	fs.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, gemini, bedrock, stub, none)")
	fs.StringVar(&flags.Model, "model", "", "Model name or ID (provider default if empty)")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key for the provider (falls back to OPENAI_API_KEY / GEMINI_API_KEY)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 500, "Maximum tokens for LLM response")
	fs.Float64Var(&flags.Temperature, "temperature", 0.7, "Temperature for LLM generation")
	fs.DurationVar(&flags.Timeout, "timeout", 20*time.Second, "Deadline for the AI call")
	fs.BoolVar(&flags.Offline, "offline", false, "Use the offline stub analyzer instead of a provider")

	// Output flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging and print per-dimension metrics")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the analysis result as JSON")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line provider flags)")

	_ = fs.Parse(args)
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.LoadFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			if flags.Offline {
				cfg.GetViper().Set("llm.provider", factory.ProviderStub)
			}
			logger.Info("Loaded configuration from file", zap.String("file", flags.ConfigFile))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags)
	}); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	// Register analysis service with no cache
	if err := container.Provide(func(
		v core.RequestValidator,
		combiner *core.Combiner,
		logger *zap.Logger,
	) *core.AnalysisService {
		return core.NewAnalysisService(v, combiner, nil, logger, false)
	}); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(func(
		svc *core.AnalysisService,
		logger *zap.Logger,
		flags *CLIFlags,
	) *filter.CliFilter {
		return filter.NewCliFilter(svc, logger, os.Stdout, flags.Verbose, flags.JSONOutput)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) (*config.Config, error) {
	v := config.NewEmptyViper()
	if err := config.BindEnvAliases(v); err != nil {
		return nil, err
	}

	provider := flags.Provider
	if flags.Offline {
		provider = factory.ProviderStub
	}
	v.Set("llm.provider", provider)
	v.Set("llm.timeout", flags.Timeout.String())

	// Set provider-specific configuration
	switch provider {
	case factory.ProviderOpenAI:
		setProviderFlags(v, "openai", "model_name", flags)
		if flags.APIKey != "" {
			v.Set("openai.api_key", flags.APIKey)
		}
	case factory.ProviderGemini:
		setProviderFlags(v, "gemini", "model_name", flags)
		if flags.APIKey != "" {
			v.Set("gemini.api_key", flags.APIKey)
		}
	case factory.ProviderBedrock:
		setProviderFlags(v, "bedrock", "model_id", flags)
	}

	return config.NewFromViper(v), nil
}

func setProviderFlags(v *viper.Viper, prefix, modelKey string, flags *CLIFlags) {
	if flags.Model != "" {
		v.Set(prefix+"."+modelKey, flags.Model)
	}
	v.Set(prefix+".max_tokens", flags.MaxTokens)
	v.Set(prefix+".temperature", flags.Temperature)
}
