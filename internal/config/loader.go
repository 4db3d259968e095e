package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WELFARE_CHAT"

// ProjectConfigName is the config file looked up in the working directory.
const ProjectConfigName = ".welfare-chat.yaml"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envFiles   []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance so
// that CLI flags bound to it take precedence.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v, envFiles: []string{".env"}}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvFiles replaces the dotenv files read before the environment.
func (l *Loader) WithEnvFiles(paths ...string) *Loader {
	l.envFiles = paths
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (WELFARE_CHAT_*), including those from .env
// 3. Project config (.welfare-chat.yaml in the current directory)
// 4. User config (~/.config/welfare-chat/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFiles(); err != nil {
		return nil, err
	}
	l.setDefaults()

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	path := l.configFile
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// loadEnvFiles exports variables from dotenv files that exist. Variables
// already set in the environment win.
func (l *Loader) loadEnvFiles() error {
	for _, p := range l.envFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func (l *Loader) setDefaults() {
	d := Default()

	l.v.SetDefault("log.level", d.Log.Level)
	l.v.SetDefault("log.format", d.Log.Format)
	l.v.SetDefault("log.file", d.Log.File)

	l.v.SetDefault("backend.base_url", d.Backend.BaseURL)
	l.v.SetDefault("backend.timeout", d.Backend.Timeout)
	l.v.SetDefault("backend.user_agent", d.Backend.UserAgent)

	l.v.SetDefault("chat.lang", d.Chat.Lang)
	l.v.SetDefault("chat.poll_interval", d.Chat.PollInterval)
	l.v.SetDefault("chat.max_poll_attempts", d.Chat.MaxPollAttempts)
	l.v.SetDefault("chat.status_interval", d.Chat.StatusInterval)
	l.v.SetDefault("chat.safety_timeout", d.Chat.SafetyTimeout)
	l.v.SetDefault("chat.char_delay", d.Chat.CharDelay)
	l.v.SetDefault("chat.block_delay", d.Chat.BlockDelay)
	l.v.SetDefault("chat.fade_delay", d.Chat.FadeDelay)
	l.v.SetDefault("chat.max_history_turns", d.Chat.MaxHistoryTurns)

	l.v.SetDefault("ui.mode", d.UI.Mode)
	l.v.SetDefault("ui.no_color", d.UI.NoColor)

	l.v.SetDefault("mock.addr", d.Mock.Addr)
	l.v.SetDefault("mock.db_path", d.Mock.DBPath)
	l.v.SetDefault("mock.defer_jobs", d.Mock.DeferJobs)
	l.v.SetDefault("mock.job_delay", d.Mock.JobDelay)
	l.v.SetDefault("mock.rate_limit", d.Mock.RateLimit)
	l.v.SetDefault("mock.rate_burst", d.Mock.RateBurst)
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// UserConfigPath returns ~/.config/welfare-chat/config.yaml.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "welfare-chat", "config.yaml"), nil
}

// findConfigFile returns the first existing config file in precedence order.
func findConfigFile() string {
	candidates := []string{ProjectConfigName}
	if p, err := UserConfigPath(); err == nil {
		candidates = append(candidates, p)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
