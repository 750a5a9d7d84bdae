package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv pins every configuration variable to empty so values from the
// surrounding environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "PUBLIC_HOST", "OPENAI_API_KEY", "OPENAI_REALTIME_MODEL",
		"OPENAI_VOICE", "OPENAI_INSTRUCTIONS", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Empty(t, cfg.Server.PublicHost)
	assert.Equal(t, DefaultModel, cfg.OpenAI.Model)
	assert.Equal(t, DefaultVoice, cfg.OpenAI.Voice)
	assert.Equal(t, DefaultBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, DefaultInstructions, cfg.OpenAI.Instructions)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PORT", "9090")
	t.Setenv("PUBLIC_HOST", "bridge.example.com")
	t.Setenv("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-custom")
	t.Setenv("OPENAI_VOICE", "echo")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "bridge.example.com", cfg.Server.PublicHost)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-realtime-custom", cfg.OpenAI.Model)
	assert.Equal(t, "echo", cfg.OpenAI.Voice)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9001
  public_host: files.example.com
openai:
  api_key: sk-yaml
  voice: verse
logging:
  level: warn
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "files.example.com", cfg.Server.PublicHost)
	assert.Equal(t, "sk-yaml", cfg.OpenAI.APIKey)
	assert.Equal(t, "verse", cfg.OpenAI.Voice)
	// Fields the file omits keep their defaults.
	assert.Equal(t, DefaultModel, cfg.OpenAI.Model)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvBeatsYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7777")
	t.Setenv("OPENAI_API_KEY", "sk-env-wins")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\nopenai:\n  api_key: sk-yaml\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "sk-env-wins", cfg.OpenAI.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadBadPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "not-a-number")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaults()
		cfg.OpenAI.APIKey = "sk-test"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:   "missing api key",
			mutate: func(c *Config) { c.OpenAI.APIKey = "" },
			errMsg: "api_key",
		},
		{
			name:   "missing model",
			mutate: func(c *Config) { c.OpenAI.Model = "" },
			errMsg: "model",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			errMsg: "port",
		},
		{
			name:   "temperature out of range",
			mutate: func(c *Config) { c.OpenAI.Temperature = 0.1 },
			errMsg: "temperature",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "loud" },
			errMsg: "level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
