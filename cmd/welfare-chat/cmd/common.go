package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/config"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newLoader() *config.Loader {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	return loader
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, *config.Loader, error) {
	loader := newLoader()
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

// newLogger writes to out, or to the configured log file when set. The
// returned closer releases the file.
func newLogger(cfg *config.Config, out io.Writer) (*logging.Logger, func(), error) {
	if cfg.Log.File == "" {
		return logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out}), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	format := cfg.Log.Format
	if format == "auto" {
		format = "text"
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: format, Output: f})
	return logger, func() { _ = f.Close() }, nil
}

// chatStack is everything a front end needs to run turns.
type chatStack struct {
	cfg    *config.Config
	table  *i18n.Table
	locale *i18n.Selector
	client *protocol.Client
	bus    *events.EventBus
	logger *logging.Logger
}

func newChatStack(cfg *config.Config, logger *logging.Logger) (*chatStack, error) {
	table, err := i18n.DefaultTable()
	if err != nil {
		return nil, err
	}
	l, _ := i18n.ParseLocale(cfg.Chat.Lang)

	client, err := protocol.NewClient(cfg.Backend.BaseURL,
		protocol.WithTimeout(cfg.Backend.Timeout),
		protocol.WithUserAgent(userAgent(cfg)),
		protocol.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &chatStack{
		cfg:    cfg,
		table:  table,
		locale: i18n.NewSelector(l),
		client: client,
		bus:    events.New(256),
		logger: logger,
	}, nil
}

func userAgent(cfg *config.Config) string {
	if appVersion == "" {
		return cfg.Backend.UserAgent
	}
	return cfg.Backend.UserAgent + "/" + appVersion
}

// orchestrator wires a turn runner to the given front end.
func (s *chatStack) orchestrator(view orchestrator.View, lock orchestrator.InputLock) *orchestrator.Orchestrator {
	c := s.cfg.Chat
	return orchestrator.New(orchestrator.Deps{
		Backend: s.client,
		View:    view,
		Lock:    lock,
		Locale:  s.locale,
		Table:   s.table,
		Renderer: render.New(
			render.WithCharDelay(c.CharDelay),
			render.WithBlockDelay(c.BlockDelay),
			render.WithFadeDelay(c.FadeDelay),
			render.WithLogger(s.logger),
		),
		Session: conversation.NewSession(c.MaxHistoryTurns),
		Bus:     s.bus,
		Logger:  s.logger,
	}, orchestrator.Config{
		PollInterval:    c.PollInterval,
		MaxPollAttempts: c.MaxPollAttempts,
		StatusInterval:  c.StatusInterval,
		SafetyTimeout:   c.SafetyTimeout,
	})
}

// watchLocale applies chat.lang from the config file whenever it changes.
func (s *chatStack) watchLocale(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	w := config.NewWatcher(path, func() (*config.Config, error) {
		return newLoader().WithConfigFile(path).Load()
	}, s.logger)
	return w.Run(ctx, func(c *config.Config) {
		l, ok := i18n.ParseLocale(c.Chat.Lang)
		if !ok || l == s.locale.Locale() {
			return
		}
		s.locale.Set(l)
		s.bus.Publish(events.NewLocaleChangedEvent(string(l), "config"))
	})
}
