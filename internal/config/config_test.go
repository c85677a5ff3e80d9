package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500, cfg.Selector.TokenBudget)
	assert.Equal(t, 4, cfg.Selector.CharsPerToken)
	assert.Equal(t, 50, cfg.Session.MaxSessions)
	assert.Equal(t, 10, cfg.Session.MaxIDsPerSession)
	assert.Equal(t, 100*time.Millisecond, cfg.Lock.Interval.Duration())
	assert.Contains(t, cfg.State.DeltasPath(), "deltas.json")
	assert.Contains(t, cfg.State.SessionsPath(), "sessions.json")
	assert.Contains(t, cfg.State.AuditPath(), "audit.log")
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty state dir", func(c *Config) { c.State.Dir = "" }},
		{"zero budget", func(c *Config) { c.Selector.TokenBudget = 0 }},
		{"zero chars per token", func(c *Config) { c.Selector.CharsPerToken = 0 }},
		{"zero sessions", func(c *Config) { c.Session.MaxSessions = 0 }},
		{"zero ids per session", func(c *Config) { c.Session.MaxIDsPerSession = 0 }},
		{"zero lock attempts", func(c *Config) { c.Lock.Attempts = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "shout" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_FileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yamlContent := `
state:
  dir: /tmp/deltad-test
selector:
  token_budget: 250
session:
  max_sessions: 7
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0600))

	// Env overrides file.
	t.Setenv("DELTAD_SELECTOR_TOKEN_BUDGET", "123")
	t.Setenv("DELTAD_LOCK_INTERVAL", "25ms")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/deltad-test", cfg.State.Dir)
	assert.Equal(t, 123, cfg.Selector.TokenBudget)
	assert.Equal(t, 7, cfg.Session.MaxSessions)
	assert.Equal(t, 25*time.Millisecond, cfg.Lock.Interval.Duration())
	// Untouched keys keep defaults.
	assert.Equal(t, 10, cfg.Session.MaxIDsPerSession)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Selector.TokenBudget)
}

func TestLoad_MalformedYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("state: [unclosed"), 0600))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestDuration_Unmarshal(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1.5s")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
