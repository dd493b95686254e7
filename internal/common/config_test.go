package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 98.0, cfg.Batch.BaselineConfidence)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  model: gpt-4o
  timeout: 30s
database:
  driver: sqlite
  dsn: file:ledger.db
batch:
  workers: 3
master_data:
  base_url: https://crm.example.com/api
`), 0o600))

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PROCESS_WORKERS", "2")
	t.Setenv("BASELINE_CONFIDENCE", "not-a-number")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, 2, cfg.Batch.Workers, "env overrides file")
	assert.Equal(t, 98.0, cfg.Batch.BaselineConfidence, "unparsable env is ignored")
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "https://crm.example.com/api", cfg.MasterData.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_BadFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "API key")

	cfg.LLM.APIKey = "k"
	cfg.LLM.Provider = "claude"
	cfg.Batch.BaselineConfidence = 120
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
	assert.Contains(t, err.Error(), "BASELINE_CONFIDENCE")
}
