package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Defaults
// ==========================

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	path := writeConfig(t, "app:\n  name: planner\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "planner", cfg.App.Name)
	assert.Equal(t, ":8888", cfg.Server.Address)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DefaultOpenRouterURL, cfg.OpenRouter.BaseURL)
	assert.Equal(t, DefaultModel, cfg.OpenRouter.Model)
	assert.Equal(t, 0.7, cfg.OpenRouter.Temperature)
	assert.Equal(t, 2, cfg.OpenRouter.RetriesOrDefault())
	assert.Equal(t, 120*time.Second, GetDuration(cfg.OpenRouter.Timeout))
	assert.Equal(t, time.Second, GetDuration(cfg.OpenRouter.Backoff))
	assert.Nil(t, cfg.OpenRouter.TopP)
	assert.Nil(t, cfg.OpenRouter.MaxTokens)
	assert.Equal(t, time.Hour, cfg.Redis.CacheTTLDuration())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
openrouter:
  model: qwen/qwen-3-8b-instruct
  temperature: 0.3
  top_p: 0.9
  max_tokens: 300
  retries: 0
  app_name: PedagoPlay
workers:
  plan-activities:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "qwen/qwen-3-8b-instruct", cfg.OpenRouter.Model)
	assert.Equal(t, 0.3, cfg.OpenRouter.Temperature)
	require.NotNil(t, cfg.OpenRouter.TopP)
	assert.Equal(t, 0.9, *cfg.OpenRouter.TopP)
	require.NotNil(t, cfg.OpenRouter.MaxTokens)
	assert.Equal(t, 300, *cfg.OpenRouter.MaxTokens)
	assert.Equal(t, 0, cfg.OpenRouter.RetriesOrDefault())
	assert.Equal(t, "PedagoPlay", cfg.OpenRouter.AppName)

	worker := GetWorkerConfig(cfg, "plan-activities")
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, DefaultWorkerTimeout, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

// ==========================
// Environment
// ==========================

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("PLANNER_REGION", "vaud")
	path := writeConfig(t, "app:\n  environment: ${PLANNER_REGION}\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-or-test", cfg.OpenRouter.APIKey)
	assert.Equal(t, "vaud", cfg.App.Environment)
}

// ==========================
// Validation
// ==========================

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "camunda without broker",
			body:   "camunda:\n  enabled: true\n",
			errMsg: "camunda.broker_address is required",
		},
		{
			name:   "redis without address",
			body:   "redis:\n  enabled: true\n",
			errMsg: "redis.address is required",
		},
		{
			name:   "temperature out of range",
			body:   "openrouter:\n  temperature: 3.5\n",
			errMsg: "openrouter.temperature",
		},
		{
			name:   "non-positive max tokens",
			body:   "openrouter:\n  max_tokens: -1\n",
			errMsg: "openrouter.max_tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"plan-activities": {Enabled: false, Timeout: 1000}}}

	configured := GetWorkerConfig(cfg, "plan-activities")
	assert.False(t, configured.Enabled)
	assert.Equal(t, 1000, configured.Timeout)

	fallback := GetWorkerConfig(cfg, "unknown")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, DefaultWorkerMaxJobsActive, fallback.MaxJobsActive)
	assert.Equal(t, DefaultWorkerTimeout, fallback.Timeout)
	assert.Greater(t, GetDuration(fallback.Timeout), 3*120*time.Second+3*time.Second)
}
