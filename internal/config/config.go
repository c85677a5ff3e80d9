// Package config provides configuration loading for deltad.
//
// Precedence, highest to lowest: DELTAD_* environment variables, the YAML
// config file (~/.config/deltad/config.yaml by default), hardcoded
// defaults. Every knob has a working default so a fresh installation runs
// with no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/deltad/internal/logging"
)

// Config is the root deltad configuration.
type Config struct {
	State    StateConfig    `koanf:"state"`
	Selector SelectorConfig `koanf:"selector"`
	Session  SessionConfig  `koanf:"session"`
	Lock     LockConfig     `koanf:"lock"`
	Logging  logging.Config `koanf:"logging"`
}

// StateConfig locates the shared persisted state.
type StateConfig struct {
	// Dir holds deltas.json, sessions.json and audit.log.
	// Default: ~/.local/share/deltad
	Dir string `koanf:"dir"`
}

// DeltasPath is the delta collection document.
func (s StateConfig) DeltasPath() string {
	return filepath.Join(s.Dir, "deltas.json")
}

// SessionsPath is the session tracking document.
func (s StateConfig) SessionsPath() string {
	return filepath.Join(s.Dir, "sessions.json")
}

// AuditPath is the append-only event log.
func (s StateConfig) AuditPath() string {
	return filepath.Join(s.Dir, "audit.log")
}

// SelectorConfig bounds injections.
type SelectorConfig struct {
	// TokenBudget is the injection allowance in tokens.
	TokenBudget int `koanf:"token_budget"`

	// CharsPerToken converts the token budget to characters.
	CharsPerToken int `koanf:"chars_per_token"`
}

// SessionConfig bounds the session tracker.
type SessionConfig struct {
	// MaxSessions caps tracked sessions; oldest are evicted first.
	MaxSessions int `koanf:"max_sessions"`

	// MaxIDsPerSession caps the surfaced-id list stored per session.
	MaxIDsPerSession int `koanf:"max_ids_per_session"`
}

// LockConfig tunes the cross-process guard.
type LockConfig struct {
	// Attempts is the bounded retry count for lock acquisition.
	Attempts int `koanf:"attempts"`

	// Interval is the delay between attempts.
	Interval Duration `koanf:"interval"`

	// StaleAfter is the hold time after which a lock is reclaimed.
	StaleAfter Duration `koanf:"stale_after"`
}

// NewDefaultConfig returns the defaults applied beneath file and env.
func NewDefaultConfig() *Config {
	stateDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".local", "share", "deltad")
	}
	return &Config{
		State: StateConfig{Dir: stateDir},
		Selector: SelectorConfig{
			TokenBudget:   500,
			CharsPerToken: 4,
		},
		Session: SessionConfig{
			MaxSessions:      50,
			MaxIDsPerSession: 10,
		},
		Lock: LockConfig{
			Attempts:   50,
			Interval:   Duration(100 * time.Millisecond),
			StaleAfter: Duration(10 * time.Second),
		},
		Logging: *logging.NewDefaultConfig(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir cannot be empty")
	}
	if c.Selector.TokenBudget <= 0 {
		return fmt.Errorf("selector.token_budget must be positive, got %d", c.Selector.TokenBudget)
	}
	if c.Selector.CharsPerToken <= 0 {
		return fmt.Errorf("selector.chars_per_token must be positive, got %d", c.Selector.CharsPerToken)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.max_sessions must be positive, got %d", c.Session.MaxSessions)
	}
	if c.Session.MaxIDsPerSession <= 0 {
		return fmt.Errorf("session.max_ids_per_session must be positive, got %d", c.Session.MaxIDsPerSession)
	}
	if c.Lock.Attempts <= 0 {
		return fmt.Errorf("lock.attempts must be positive, got %d", c.Lock.Attempts)
	}
	if c.Lock.Interval.Duration() <= 0 {
		return fmt.Errorf("lock.interval must be positive")
	}
	if c.Lock.StaleAfter.Duration() <= 0 {
		return fmt.Errorf("lock.stale_after must be positive")
	}
	return c.Logging.Validate()
}
