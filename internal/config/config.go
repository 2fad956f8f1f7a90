// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Supported providers
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Defaults used when neither the config file nor a flag sets a value
const (
	DefaultDataDir           = "data"
	DefaultParserDir         = "custom_parser"
	DefaultOutputDir         = "."
	DefaultMaxAttempts       = 5
	DefaultInterpreter       = "python3"
	DefaultExecTimeout       = 120
	DefaultLLMTimeout        = 300
	DefaultRequestsPerMinute = 30
	DefaultProvider          = ProviderGemini
)

// ErrMissingAPIKey is returned when no credential is configured for the provider
var ErrMissingAPIKey = errors.New("no API key configured")

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `json:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=console json"`
}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	DataDir   string `json:"data_dir,omitempty"`   // Directory holding <target>_sample.pdf and reference CSVs
	ParserDir string `json:"parser_dir,omitempty"` // Directory receiving <target>_parser.py
	OutputDir string `json:"output_dir,omitempty"` // Directory receiving parsed_<target>.csv

	// Limits
	MaxAttempts        int `json:"max_attempts,omitempty" validate:"min=1,max=20"`
	ExecTimeoutSeconds int `json:"exec_timeout_seconds,omitempty" validate:"min=1"`
	LLMTimeoutSeconds  int `json:"llm_timeout_seconds,omitempty" validate:"min=1"`
	RequestsPerMinute  int `json:"requests_per_minute,omitempty"` // Negative disables rate limiting

	// Behavior
	Provider    string    `json:"provider,omitempty" validate:"oneof=gemini anthropic"`
	APIKey      string    `json:"api_key,omitempty"`      // Overrides the provider's environment variable
	Interpreter string    `json:"interpreter,omitempty"`  // Runs generated parsers
	PdfToText   string    `json:"pdftotext,omitempty"`    // pdftotext binary used for prompt excerpts
	Verbose     bool      `json:"verbose,omitempty"`      // Print dataset summaries for every attempt
	DatabaseURL string    `json:"database_url,omitempty"` // Run journal: postgres:// URL or SQLite path
	Log         LogConfig `json:"log,omitempty"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		DataDir:            DefaultDataDir,
		ParserDir:          DefaultParserDir,
		OutputDir:          DefaultOutputDir,
		MaxAttempts:        DefaultMaxAttempts,
		ExecTimeoutSeconds: DefaultExecTimeout,
		LLMTimeoutSeconds:  DefaultLLMTimeout,
		RequestsPerMinute:  DefaultRequestsPerMinute,
		Provider:           DefaultProvider,
		Interpreter:        DefaultInterpreter,
		PdfToText:          "pdftotext",
		Log:                LogConfig{Level: "info", Format: "console"},
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Call it after MergeWithDefaults so that unset fields carry defaults.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("config error: '%s' failed '%s' (got %v)", fe.Field(), describeTag(fe), fe.Value())
	}
	return fmt.Errorf("config error: %w", err)
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.ParserDir == "" {
		result.ParserDir = defaults.ParserDir
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Interpreter == "" {
		result.Interpreter = defaults.Interpreter
	}
	if result.PdfToText == "" {
		result.PdfToText = defaults.PdfToText
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}

	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.ExecTimeoutSeconds == 0 {
		result.ExecTimeoutSeconds = defaults.ExecTimeoutSeconds
	}
	if result.LLMTimeoutSeconds == 0 {
		result.LLMTimeoutSeconds = defaults.LLMTimeoutSeconds
	}
	if result.RequestsPerMinute == 0 {
		result.RequestsPerMinute = defaults.RequestsPerMinute
	}

	// Bool fields: cannot distinguish unset from false, so CLI flags always win

	return result
}

// ExecTimeout returns the per-execution timeout
func (c *Config) ExecTimeout() time.Duration {
	return time.Duration(c.ExecTimeoutSeconds) * time.Second
}

// LLMTimeout returns the timeout applied to each model request
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// APIKeyEnvVars lists the environment variables consulted for a provider, in order
func APIKeyEnvVars(provider string) []string {
	switch provider {
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	default:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
}

// ResolveAPIKey returns the explicit API key or the first non-empty provider variable
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	vars := APIKeyEnvVars(c.Provider)
	for _, name := range vars {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set %s or pass --api-key", ErrMissingAPIKey, strings.Join(vars, " or "))
}
