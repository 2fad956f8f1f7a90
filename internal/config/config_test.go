package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"data_dir": "statements",
		"max_attempts": 3,
		"provider": "anthropic",
		"exec_timeout_seconds": 60,
		"verbose": true,
		"log": {"level": "debug", "format": "json"}
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "statements", cfg.DataDir)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, 60, cfg.ExecTimeoutSeconds)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{DataDir: "statements", MaxAttempts: 2}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "statements", merged.DataDir)
	assert.Equal(t, 2, merged.MaxAttempts)
	assert.Equal(t, DefaultParserDir, merged.ParserDir)
	assert.Equal(t, DefaultOutputDir, merged.OutputDir)
	assert.Equal(t, DefaultProvider, merged.Provider)
	assert.Equal(t, DefaultInterpreter, merged.Interpreter)
	assert.Equal(t, DefaultExecTimeout, merged.ExecTimeoutSeconds)
	assert.Equal(t, DefaultLLMTimeout, merged.LLMTimeoutSeconds)
	assert.Equal(t, DefaultRequestsPerMinute, merged.RequestsPerMinute)
	assert.Equal(t, "info", merged.Log.Level)
	assert.Equal(t, "console", merged.Log.Format)

	// the receiver is not modified
	assert.Empty(t, cfg.ParserDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "max attempts too low", mutate: func(c *Config) { c.MaxAttempts = -1 }, wantErr: "'max_attempts' failed 'min=1'"},
		{name: "max attempts too high", mutate: func(c *Config) { c.MaxAttempts = 21 }, wantErr: "'max_attempts' failed 'max=20'"},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "openai" }, wantErr: "'provider'"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "'format'"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: "'level'"},
		{name: "non-positive timeout", mutate: func(c *Config) { c.ExecTimeoutSeconds = -5 }, wantErr: "'exec_timeout_seconds'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimeouts(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "2m0s", cfg.ExecTimeout().String())
	assert.Equal(t, "5m0s", cfg.LLMTimeout().String())
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("explicit key wins", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "from-env")
		cfg := Config{Provider: ProviderGemini, APIKey: "explicit"}
		key, err := cfg.ResolveAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "explicit", key)
	})

	t.Run("gemini falls back to GOOGLE_API_KEY", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "google-key")
		cfg := Config{Provider: ProviderGemini}
		key, err := cfg.ResolveAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "google-key", key)
	})

	t.Run("anthropic", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
		cfg := Config{Provider: ProviderAnthropic}
		key, err := cfg.ResolveAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "anthropic-key", key)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		cfg := Config{Provider: ProviderAnthropic}
		_, err := cfg.ResolveAPIKey()
		assert.True(t, errors.Is(err, ErrMissingAPIKey))
		assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
	})
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{}))
	assert.False(t, zap.L().Core().Enabled(zap.DebugLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
