package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/fsutil"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/tui"
)

const maxHistoryBytes = 1 << 20

// historyFile is where the line prompt keeps typed input between runs.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "welfare-chat", "history")
}

// runREPL reads lines until /quit, Ctrl+C, Ctrl+D or ctx ends.
func runREPL(ctx context.Context, session *tui.PlainSession, logger *logging.Logger) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	path := historyFile()
	if data, err := fsutil.ReadFileScoped(path, maxHistoryBytes); err == nil {
		_, _ = line.ReadHistory(bytes.NewReader(data))
	}
	defer saveHistory(line, path, logger)

	commands := tui.NewCommandRegistry()
	line.SetCompleter(func(input string) []string {
		if !strings.HasPrefix(input, "/") {
			return nil
		}
		var out []string
		for _, name := range commands.Suggest(strings.TrimPrefix(input, "/")) {
			out = append(out, "/"+name)
		}
		return out
	})

	for ctx.Err() == nil {
		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := session.Handle(ctx, input)
		if err != nil && ctx.Err() == nil {
			logger.Warn("turn failed", "error", err)
		}
		if quit {
			return nil
		}
	}
	return nil
}

func saveHistory(line *liner.State, path string, logger *logging.Logger) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		logger.Debug("saving history", "error", err)
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
