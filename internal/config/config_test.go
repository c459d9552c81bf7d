package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
llm:
  provider: openai
  base_url: https://api.example.com
  api_key: dummy
  model: gpt-4o
server:
  host: 0.0.0.0
  port: "9090"
storage:
  path: /tmp/agent-test.db
agent:
  history_limit: 25
  max_turns: 3
  default_open: true
log:
  level: debug
`

func TestLoad(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	require.NoError(t, err)
	_, err = tmp.WriteString(sampleConfig)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", cfg.LLM.BaseURL)
	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "/tmp/agent-test.db", cfg.Storage.Path)
	require.Equal(t, 25, cfg.Agent.HistoryLimit)
	require.Equal(t, 3, cfg.Agent.MaxTurns)
	require.True(t, cfg.Agent.DefaultOpen)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "agent.db", cfg.Storage.Path)
	require.Equal(t, 50, cfg.Agent.HistoryLimit)
	require.False(t, cfg.Agent.DefaultOpen)
}
