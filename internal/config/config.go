// Package config loads welfare-chat settings from flags, WELFARE_CHAT_*
// environment variables, a .env file, a YAML config file and defaults.
package config

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
	Mock    MockConfig    `mapstructure:"mock" yaml:"mock"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// BackendConfig locates the assistant API.
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// ChatConfig tunes the conversation and its timing.
type ChatConfig struct {
	Lang            string        `mapstructure:"lang" yaml:"lang"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts" yaml:"max_poll_attempts"`
	StatusInterval  time.Duration `mapstructure:"status_interval" yaml:"status_interval"`
	SafetyTimeout   time.Duration `mapstructure:"safety_timeout" yaml:"safety_timeout"`
	CharDelay       time.Duration `mapstructure:"char_delay" yaml:"char_delay"`
	BlockDelay      time.Duration `mapstructure:"block_delay" yaml:"block_delay"`
	FadeDelay       time.Duration `mapstructure:"fade_delay" yaml:"fade_delay"`
	MaxHistoryTurns int           `mapstructure:"max_history_turns" yaml:"max_history_turns"`
}

// UIConfig selects the front end.
type UIConfig struct {
	Mode    string `mapstructure:"mode" yaml:"mode"`
	NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
}

// MockConfig configures serve-mock.
type MockConfig struct {
	Addr      string        `mapstructure:"addr" yaml:"addr"`
	DBPath    string        `mapstructure:"db_path" yaml:"db_path"`
	DeferJobs bool          `mapstructure:"defer_jobs" yaml:"defer_jobs"`
	JobDelay  time.Duration `mapstructure:"job_delay" yaml:"job_delay"`
	RateLimit int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int           `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// Marshal renders cfg as YAML in the layout of the config file.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
