package config

import (
	"time"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   core.DefaultBackendTimeout,
			UserAgent: "welfare-chat",
		},
		Chat: ChatConfig{
			Lang:            "ko",
			PollInterval:    core.DefaultPollInterval,
			MaxPollAttempts: core.MaxPollAttempts,
			StatusInterval:  core.DefaultStatusInterval,
			SafetyTimeout:   core.DefaultSafetyTimeout,
			CharDelay:       core.DefaultCharDelay,
			BlockDelay:      core.DefaultBlockDelay,
			FadeDelay:       core.DefaultFadeDelay,
			MaxHistoryTurns: core.MaxHistoryTurns,
		},
		UI: UIConfig{Mode: "auto"},
		Mock: MockConfig{
			Addr:      ":8000",
			DeferJobs: true,
			JobDelay:  3 * time.Second,
			RateLimit: 10,
			RateBurst: 10,
		},
	}
}

// DefaultConfigYAML is the file written by `welfare-chat init`.
const DefaultConfigYAML = `# welfare-chat configuration
#
# Every key can be overridden with a WELFARE_CHAT_ environment variable,
# for example WELFARE_CHAT_BACKEND_BASE_URL or WELFARE_CHAT_CHAT_LANG.

log:
  level: info      # debug | info | warn | error
  format: auto     # auto | text | json
  file: ""         # chat mode logs here; empty discards logs in the TUI

backend:
  base_url: http://localhost:8000
  timeout: 30s

chat:
  lang: ko         # ko | en | vi | zh, re-read while chatting
  poll_interval: 1s
  max_poll_attempts: 120
  status_interval: 7s
  safety_timeout: 45s
  char_delay: 15ms
  block_delay: 50ms
  fade_delay: 500ms

ui:
  mode: auto       # auto | tui | plain
  no_color: false

mock:
  addr: ":8000"
  db_path: ""      # empty keeps feedback in memory
  defer_jobs: true
  job_delay: 3s
  rate_limit: 10   # /chat requests per minute and client, 0 disables
  rate_burst: 10
`
