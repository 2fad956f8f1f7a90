package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/statement-agent/internal/config"
)

// agentFlags holds the flags shared by run and batch
type agentFlags struct {
	configPath  string
	dataDir     string
	parserDir   string
	outputDir   string
	maxAttempts int
	provider    string
	apiKey      string
	interpreter string
	execTimeout int
	verbose     bool
	databaseURL string
	logLevel    string
	logFormat   string
}

func bindAgentFlags(cmd *cobra.Command, f *agentFlags) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Directory containing <target>_sample.pdf and reference CSVs (default \"data\")")
	cmd.Flags().StringVar(&f.parserDir, "parser-dir", "", "Directory for generated parsers (default \"custom_parser\")")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for parsed_<target>.csv (default \".\")")
	cmd.Flags().IntVarP(&f.maxAttempts, "max-attempts", "n", 0, "Maximum generate/execute/validate attempts (default 5)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: gemini or anthropic (default \"gemini\")")
	cmd.Flags().StringVar(&f.interpreter, "interpreter", "", "Interpreter used to run generated parsers (default \"python3\")")
	cmd.Flags().IntVar(&f.execTimeout, "exec-timeout", 0, "Seconds before a parser execution is killed (default 120)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print dataset summaries for every attempt")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: console or json")

	// API key can be passed as a flag, or read from the provider's env var
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key (defaults to GEMINI_API_KEY/GOOGLE_API_KEY or ANTHROPIC_API_KEY)")

	// Run journal
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "Run journal: postgres:// URL or SQLite file (defaults to DATABASE_URL env var)")
}

// resolveConfig loads the config file, applies explicitly set flags, fills defaults, and validates
func resolveConfig(cmd *cobra.Command, f *agentFlags) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if flags.Changed("parser-dir") {
		cfg.ParserDir = f.parserDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = f.maxAttempts
	}
	if flags.Changed("provider") {
		cfg.Provider = f.provider
	}
	if flags.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if flags.Changed("interpreter") {
		cfg.Interpreter = f.interpreter
	}
	if flags.Changed("exec-timeout") {
		cfg.ExecTimeoutSeconds = f.execTimeout
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
