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

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
apis:
  provider: none
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "connector-workers", cfg.App.Name)
	assert.Equal(t, SessionBackendMemory, cfg.Connector.Session.Backend)
	assert.Equal(t, PreferencesMerge, cfg.Connector.Session.PreferencesPolicy)
	assert.True(t, cfg.Connector.Session.SerializeTurns)
	assert.True(t, cfg.Connector.Disambiguation.Enabled)
	assert.False(t, cfg.Connector.Disambiguation.RuleFallback)
	assert.Equal(t, 10, cfg.Connector.Disambiguation.MaxCalls)
	assert.Equal(t, 1, cfg.Connector.Extraction.MaxRetries)
	assert.Equal(t, 300, cfg.Connector.Extraction.MaxTokens)
	assert.InDelta(t, 0.3, cfg.Connector.Extraction.Temperature, 0.0001)
	assert.Equal(t, 5, cfg.Connector.Turn.MaxMatches)
	assert.Equal(t, 6, cfg.Connector.Turn.MaxSuggestions)
	assert.Equal(t, 24*time.Hour, cfg.Connector.Session.TTL())
	assert.Equal(t, PoolSourcePostgres, cfg.Connector.CandidatePool.Source)
}

func TestLoadFromFile_ExplicitValues(t *testing.T) {
	t.Setenv("TEST_GENAI_URL", "http://genai.local")
	path := writeConfig(t, `
apis:
  provider: genai
  genai:
    base_url: ${TEST_GENAI_URL}
connector:
  disambiguation:
    enabled: false
    max_calls: 3
  session:
    serialize_turns: false
    preferences_policy: replace
  turn:
    max_matches: 12
workers:
  process-chat-turn:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://genai.local", cfg.APIs.GenAI.BaseURL)
	assert.False(t, cfg.Connector.Disambiguation.Enabled)
	assert.Equal(t, 3, cfg.Connector.Disambiguation.MaxCalls)
	assert.False(t, cfg.Connector.Session.SerializeTurns)
	assert.Equal(t, PreferencesReplace, cfg.Connector.Session.PreferencesPolicy)
	assert.Equal(t, 5, cfg.Connector.Turn.MaxMatches, "exposed matches never exceed five")

	wcfg := GetWorkerConfig(cfg, "process-chat-turn")
	assert.True(t, wcfg.Enabled)
	assert.Equal(t, 5, wcfg.MaxJobsActive)
	assert.Equal(t, 30000, wcfg.Timeout)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "genai without base url",
			body:    "apis:\n  provider: genai\n",
			wantErr: "apis.genai.base_url",
		},
		{
			name:    "unknown provider",
			body:    "apis:\n  provider: openai\n",
			wantErr: "apis.provider",
		},
		{
			name:    "redis backend without address",
			body:    "apis:\n  provider: none\nconnector:\n  session:\n    backend: redis\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "unknown preferences policy",
			body:    "apis:\n  provider: none\nconnector:\n  session:\n    preferences_policy: append\n",
			wantErr: "preferences_policy",
		},
		{
			name:    "more than one retry",
			body:    "apis:\n  provider: none\nconnector:\n  extraction:\n    max_retries: 3\n",
			wantErr: "retry at most once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateWorkerRuntime(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.ErrorContains(t, cfg.ValidateWorkerRuntime(), "camunda.broker_address")

	cfg.Camunda.BrokerAddress = "localhost:26500"
	assert.ErrorContains(t, cfg.ValidateWorkerRuntime(), "load-candidate-pool")

	cfg.Workers = map[string]WorkerConfig{"load-candidate-pool": {Enabled: false}}
	assert.NoError(t, cfg.ValidateWorkerRuntime())
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"filter-candidates": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "filter-candidates"))
	assert.True(t, IsWorkerEnabled(cfg, "process-chat-turn"))
}
