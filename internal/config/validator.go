package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateBackend(&cfg.Backend)
	v.validateChat(&cfg.Chat)
	v.validateUI(&cfg.UI)
	v.validateMock(&cfg.Mock)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: msg})
}

func (v *Validator) oneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.addError(field, value, "must be one of: "+strings.Join(allowed, ", "))
}

func (v *Validator) positive(field string, d time.Duration) {
	if d <= 0 {
		v.addError(field, d, "must be positive")
	}
}

func (v *Validator) nonNegative(field string, d time.Duration) {
	if d < 0 {
		v.addError(field, d, "must not be negative")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	v.oneOf("log.level", cfg.Level, "debug", "info", "warn", "error")
	v.oneOf("log.format", cfg.Format, "auto", "text", "json")
	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateBackend(cfg *BackendConfig) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.addError("backend.base_url", cfg.BaseURL, "must be an absolute http(s) URL")
	}
	v.positive("backend.timeout", cfg.Timeout)
}

func (v *Validator) validateChat(cfg *ChatConfig) {
	if _, ok := i18n.ParseLocale(cfg.Lang); !ok {
		supported := make([]string, 0, 4)
		for _, l := range i18n.Supported() {
			supported = append(supported, string(l))
		}
		v.addError("chat.lang", cfg.Lang, "must be one of: "+strings.Join(supported, ", "))
	}
	v.positive("chat.poll_interval", cfg.PollInterval)
	v.positive("chat.status_interval", cfg.StatusInterval)
	v.positive("chat.safety_timeout", cfg.SafetyTimeout)
	v.nonNegative("chat.char_delay", cfg.CharDelay)
	v.nonNegative("chat.block_delay", cfg.BlockDelay)
	v.nonNegative("chat.fade_delay", cfg.FadeDelay)
	if cfg.MaxPollAttempts <= 0 {
		v.addError("chat.max_poll_attempts", cfg.MaxPollAttempts, "must be positive")
	}
	if cfg.MaxHistoryTurns <= 0 {
		v.addError("chat.max_history_turns", cfg.MaxHistoryTurns, "must be positive")
	}
}

func (v *Validator) validateUI(cfg *UIConfig) {
	v.oneOf("ui.mode", cfg.Mode, "auto", "tui", "plain")
}

func (v *Validator) validateMock(cfg *MockConfig) {
	if cfg.Addr == "" {
		v.addError("mock.addr", cfg.Addr, "address required")
	}
	if cfg.DBPath != "" && !isValidPath(cfg.DBPath) {
		v.addError("mock.db_path", cfg.DBPath, "invalid file path")
	}
	v.nonNegative("mock.job_delay", cfg.JobDelay)
	if cfg.RateLimit < 0 {
		v.addError("mock.rate_limit", cfg.RateLimit, "must not be negative")
	}
	if cfg.RateBurst < 0 {
		v.addError("mock.rate_burst", cfg.RateBurst, "must not be negative")
	}
}

// isValidPath reports whether the parent directory exists or can be created.
func isValidPath(path string) bool {
	_, err := os.Stat(filepath.Dir(path))
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
