package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

// Config represents the complete CLI configuration
type Config struct {
	Output   OutputConfig
	Logging  LoggingConfig
	Analysis AnalysisConfig
}

// OutputConfig holds report rendering settings
type OutputConfig struct {
	Format              string
	ShowDetails         bool
	ShowRecommendations bool
}

// LoggingConfig holds log verbosity settings
type LoggingConfig struct {
	Level   string
	NoColor bool
}

// AnalysisConfig holds the option defaults flags start from
type AnalysisConfig struct {
	ConfidenceLevel   float64
	SignificanceLevel float64
	MinSampleSize     int
	RiskThreshold     string
	Parallel          bool
	GenerateCount     int
	Japanese          bool
	International     bool
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "yaml", "toml", "csv", "markdown", "html"}

// LoadEnvFile reads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Output:   *loadOutputConfig(),
		Logging:  *loadLoggingConfig(),
		Analysis: *loadAnalysisConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		Format:              strings.ToLower(getEnvOrDefault("LAWKIT_OUTPUT_FORMAT", "text")),
		ShowDetails:         getEnvBoolOrDefault("LAWKIT_SHOW_DETAILS", false),
		ShowRecommendations: getEnvBoolOrDefault("LAWKIT_SHOW_RECOMMENDATIONS", true),
	}
}

func loadLoggingConfig() *LoggingConfig {
	_, noColor := os.LookupEnv("NO_COLOR")
	return &LoggingConfig{
		Level:   strings.ToLower(getEnvOrDefault("LAWKIT_LOG_LEVEL", "warn")),
		NoColor: noColor || getEnvBoolOrDefault("LAWKIT_NO_COLOR", false),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	defaults := law.DefaultOptions()
	return &AnalysisConfig{
		ConfidenceLevel:   getEnvFloatOrDefault("LAWKIT_CONFIDENCE_LEVEL", defaults.ConfidenceLevel),
		SignificanceLevel: getEnvFloatOrDefault("LAWKIT_SIGNIFICANCE_LEVEL", defaults.SignificanceLevel),
		MinSampleSize:     getEnvIntOrDefault("LAWKIT_MIN_SAMPLE_SIZE", defaults.MinSampleSize),
		RiskThreshold:     getEnvOrDefault("LAWKIT_RISK_THRESHOLD", ""),
		Parallel:          getEnvBoolOrDefault("LAWKIT_PARALLEL", defaults.EnableParallelProcessing),
		GenerateCount:     getEnvIntOrDefault("LAWKIT_GENERATE_COUNT", defaults.GenerateCount),
		Japanese:          getEnvBoolOrDefault("LAWKIT_JAPANESE_NUMERALS", defaults.EnableJapaneseNumerals),
		International:     getEnvBoolOrDefault("LAWKIT_INTERNATIONAL_NUMERALS", defaults.EnableInternationalNumerals),
	}
}

func validateConfig(config *Config) error {
	if !knownFormat(config.Output.Format) {
		return errors.ConfigInvalid("LAWKIT_OUTPUT_FORMAT must be one of " + strings.Join(Formats, ", "))
	}
	switch config.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.ConfigInvalid("LAWKIT_LOG_LEVEL must be debug, info, warn or error")
	}
	if err := config.Options().Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Options returns the analysis options implied by the environment.
func (c *Config) Options() law.Options {
	opts := law.DefaultOptions()
	opts.ConfidenceLevel = c.Analysis.ConfidenceLevel
	opts.SignificanceLevel = c.Analysis.SignificanceLevel
	opts.MinSampleSize = c.Analysis.MinSampleSize
	opts.RiskThreshold = c.Analysis.RiskThreshold
	opts.EnableParallelProcessing = c.Analysis.Parallel
	opts.GenerateCount = c.Analysis.GenerateCount
	opts.EnableJapaneseNumerals = c.Analysis.Japanese
	opts.EnableInternationalNumerals = c.Analysis.International
	return opts
}

func knownFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
