package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/clip"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/config"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Long: `Start the interactive chat. A full-screen interface is used on a
terminal; pipes, CI and --ui plain get a line-oriented prompt instead.

Type a question, or a slash command such as /help, /lang en or /share 1.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func detector(mode string, disableColor bool) *tui.Detector {
	d := tui.NewDetector().NoColor(disableColor)
	if m, ok := tui.ParseOutputMode(mode); ok {
		d.ForceMode(m)
	}
	return d
}

func runChat(c *cobra.Command, _ []string) (err error) {
	ctx, stop := signalContext(c.Context())
	defer stop()

	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}
	det := detector(cfg.UI.Mode, cfg.UI.NoColor)
	if det.Detect() == tui.ModePlain {
		return runPlainChat(ctx, c, cfg)
	}

	// The screen is owned by the TUI; logs go to log.file or nowhere.
	logger, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	crash := diagnostics.NewCrashWriter("", appVersion, 5, logger)
	defer crash.RecoverAndReturn(&err)

	stack, err := newChatStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.bus.Close()

	bridge := tui.NewBridge()
	orch := stack.orchestrator(bridge, bridge)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel(tui.Options{
		Context: runCtx,
		Chat:    orch,
		Locale:  stack.locale,
		Table:   stack.table,
		Copier:  clip.New(),
		Bus:     stack.bus,
		Logger:  logger,
		Color:   det.ShouldUseColor(),
		Version: appVersion,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
	bridge.Attach(p)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		final, err := p.Run()
		if m, ok := final.(tui.Model); ok {
			m.Close()
		}
		switch {
		case errors.Is(err, tea.ErrProgramPanic):
			if path, werr := crash.Write(err); werr == nil {
				return fmt.Errorf("chat crashed, report written to %s", path)
			}
			return fmt.Errorf("running chat: %w", err)
		case err != nil && !errors.Is(err, tea.ErrProgramKilled):
			return fmt.Errorf("running chat: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := stack.watchLocale(gctx, loader.ConfigFile()); err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		trackTurns(gctx, stack.bus, crash)
		return nil
	})
	return g.Wait()
}

// trackTurns keeps the crash writer pointed at the turn in progress.
func trackTurns(ctx context.Context, bus *events.EventBus, crash *diagnostics.CrashWriter) {
	ch := bus.Subscribe(events.TypeTurnStarted)
	defer bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ts, ok := ev.(events.TurnStartedEvent); ok {
				crash.SetTurn(ts.TurnID(), ts.Locale)
			}
		}
	}
}

// runPlainChat runs the line-oriented prompt on stdin/stdout.
func runPlainChat(ctx context.Context, c *cobra.Command, cfg *config.Config) error {
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	stack, err := newChatStack(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.bus.Close()

	width, _ := tui.TerminalSize()
	view := tui.NewPlainView(c.OutOrStdout(), stack.locale, stack.table, width)
	orch := stack.orchestrator(view, view)
	session := tui.NewPlainSession(view, orch, clip.New(), stack.bus)

	view.Println(stack.table.Strings(stack.locale.Locale()).Placeholder + "  (/help)")
	return runREPL(ctx, session, logger)
}
