package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/clip"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/tui"
)

var askInteractive bool

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask one question and print the answer",
	Long: `Ask one question, print the answer as plain text and exit.

With --interactive the line prompt stays open after the answer.`,
	Example: `  welfare-chat ask 부산 기저귀 지원
  welfare-chat ask --lang en "childcare allowance in Seoul"
  welfare-chat ask -i 첫만남이용권`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "keep the prompt open after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(c *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" && !askInteractive {
		return errors.New("ask needs a question")
	}

	ctx, stop := signalContext(c.Context())
	defer stop()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, c.ErrOrStderr())
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

	if question != "" {
		err = orch.Submit(ctx, question)
		view.Flush()
		if err != nil && !askInteractive {
			return err
		}
	}
	if !askInteractive {
		return nil
	}
	return runREPL(ctx, tui.NewPlainSession(view, orch, clip.New(), stack.bus), logger)
}
