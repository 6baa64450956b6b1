package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func noFile(string) ([]byte, error) { return nil, os.ErrNotExist }

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(envFrom(nil), noFile)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "google/gemini-2.0-flash-001", cfg.LLM.Model)
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"OPENROUTER_API_KEY":     "key",
		"OPENROUTER_MODEL":       "openai/gpt-4o-mini",
		"OPENROUTER_TEMPERATURE": "0.2",
		"LLM_TIMEOUT_SECONDS":    "45",
		"CIRCUIT_COOLDOWN":       "1m",
		"REDIS_URL":              "redis://localhost:6379/0",
		"DATABASE_URL":           "postgres://localhost/docval",
		"MAX_UPLOAD_BYTES":       "1024",
	}), noFile)
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.LLM.APIKey)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, time.Minute, cfg.Circuit.Cooldown)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "postgres://localhost/docval", cfg.Database.URL)
	assert.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)
	require.NoError(t, cfg.Validate())
}

func TestLoadReportsMalformedValues(t *testing.T) {
	_, err := load(envFrom(map[string]string{
		"LLM_BURST":        "many",
		"CIRCUIT_COOLDOWN": "soon",
	}), noFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_BURST")
	assert.Contains(t, err.Error(), "CIRCUIT_COOLDOWN")
}

func TestLoadFileOverlay(t *testing.T) {
	file := []byte(`
[server]
addr = ":9000"

[llm]
api_key = "from-file"
model = "anthropic/claude"
temperature = 0.0
timeout = "10s"

[cache]
ttl = "15m"

[rate_limit]
requests = 0
`)
	readFile := func(path string) ([]byte, error) {
		if path != "/etc/docval.toml" {
			return nil, os.ErrNotExist
		}
		return file, nil
	}

	t.Run("file values replace defaults", func(t *testing.T) {
		cfg, err := load(envFrom(map[string]string{ConfigFileEnv: "/etc/docval.toml"}), readFile)
		require.NoError(t, err)

		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, "from-file", cfg.LLM.APIKey)
		assert.Equal(t, "anthropic/claude", cfg.LLM.Model)
		assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
		assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "pdftotext", cfg.PDF.Binary)
		assert.Equal(t, 0, cfg.RateLimit.Requests)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		cfg, err := load(envFrom(map[string]string{
			ConfigFileEnv:        "/etc/docval.toml",
			"OPENROUTER_API_KEY": "from-env",
		}), readFile)
		require.NoError(t, err)

		assert.Equal(t, "from-env", cfg.LLM.APIKey)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := load(envFrom(map[string]string{ConfigFileEnv: "/nope.toml"}), readFile)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("bad duration in file", func(t *testing.T) {
		_, err := load(envFrom(map[string]string{ConfigFileEnv: "x"}), func(string) ([]byte, error) {
			return []byte("[llm]\ntimeout = \"forever\"\n"), nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm.timeout")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENROUTER_API_KEY is required")

	cfg.LLM.APIKey = "key"
	cfg.Log.Format = "xml"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log format")
}
