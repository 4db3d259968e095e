package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/fsutil"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
)

const maxCrashBytes = 1 << 20

// CrashReport is written when the chat UI panics.
type CrashReport struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	Turn       string    `json:"turn,omitempty"`
	Locale     string    `json:"locale,omitempty"`
	Host       HostInfo  `json:"host"`
}

// CrashWriter persists crash reports, keeping the newest maxFiles.
type CrashWriter struct {
	dir      string
	maxFiles int
	version  string
	logger   *logging.Logger

	turn   atomic.Value // string
	locale atomic.Value // string

	mu sync.Mutex
}

// DefaultCrashDir is where reports go when no directory is configured.
func DefaultCrashDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "welfare-chat", "crash")
	}
	return filepath.Join(os.TempDir(), "welfare-chat-crash")
}

// NewCrashWriter creates a writer for dir.
func NewCrashWriter(dir, version string, maxFiles int, logger *logging.Logger) *CrashWriter {
	if dir == "" {
		dir = DefaultCrashDir()
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &CrashWriter{dir: dir, maxFiles: maxFiles, version: version, logger: logger}
	w.turn.Store("")
	w.locale.Store("")
	return w
}

// SetTurn records the turn in progress for the next report.
func (w *CrashWriter) SetTurn(turnID, locale string) {
	w.turn.Store(turnID)
	w.locale.Store(locale)
}

// Write stores a report for panicValue and returns its path.
func (w *CrashWriter) Write(panicValue any) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	report := CrashReport{
		Timestamp:  time.Now().UTC(),
		Version:    w.version,
		PanicValue: w.logger.Sanitize(fmt.Sprint(panicValue)),
		StackTrace: string(debug.Stack()),
		Turn:       w.turn.Load().(string),
		Locale:     w.locale.Load().(string),
		Host:       CollectHost(ctx, ""),
	}

	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return "", fmt.Errorf("creating crash dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling crash report: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("crash-%s.json", report.Timestamp.Format("2006-01-02T15-04-05.000")))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing crash report: %w", err)
	}
	w.prune()
	return path, nil
}

// RecoverAndReturn turns a panic into an error naming the report.
// Usage: defer writer.RecoverAndReturn(&err)
func (w *CrashWriter) RecoverAndReturn(errPtr *error) {
	r := recover()
	if r == nil {
		return
	}
	path, werr := w.Write(r)
	if werr != nil {
		w.logger.Error("failed to write crash report", "error", werr, "panic", r)
		*errPtr = fmt.Errorf("panic: %v", r)
		return
	}
	w.logger.Error("crash report written", "path", path, "panic", r)
	*errPtr = fmt.Errorf("panic: %v (report: %s)", r, path)
}

func (w *CrashWriter) prune() {
	names := crashFiles(w.dir)
	for len(names) > w.maxFiles {
		if err := os.Remove(filepath.Join(w.dir, names[0])); err != nil {
			w.logger.Warn("failed to remove old crash report", "name", names[0], "error", err)
		}
		names = names[1:]
	}
}

// crashFiles lists report names oldest first; names sort by timestamp.
func crashFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// LatestCrash loads the newest report in dir.
func LatestCrash(dir string) (*CrashReport, error) {
	names := crashFiles(dir)
	if len(names) == 0 {
		return nil, fmt.Errorf("no crash reports in %s", dir)
	}
	data, err := fsutil.ReadFileScoped(filepath.Join(dir, names[len(names)-1]), maxCrashBytes)
	if err != nil {
		return nil, fmt.Errorf("reading crash report: %w", err)
	}
	var r CrashReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing crash report: %w", err)
	}
	return &r, nil
}
