package tui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode selects the chat front end.
type OutputMode int

const (
	// ModeTUI uses the full-screen bubbletea interface.
	ModeTUI OutputMode = iota
	// ModePlain writes the conversation line by line.
	ModePlain
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// ParseOutputMode parses "tui", "plain" or "auto". ok is false for auto and
// unknown values.
func ParseOutputMode(s string) (mode OutputMode, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tui":
		return ModeTUI, true
	case "plain":
		return ModePlain, true
	default:
		return ModeTUI, false
	}
}

// Detector determines the output mode and color support.
type Detector struct {
	forceMode *OutputMode
	noColor   bool
	getenv    func(string) string
	isTTY     func() bool
}

// NewDetector creates a detector for stdout.
func NewDetector() *Detector {
	return &Detector{
		getenv: os.Getenv,
		isTTY:  func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
}

// ForceMode forces a specific output mode.
func (d *Detector) ForceMode(mode OutputMode) *Detector {
	d.forceMode = &mode
	return d
}

// NoColor disables color output.
func (d *Detector) NoColor(disable bool) *Detector {
	d.noColor = disable
	return d
}

// Detect returns the forced mode, or plain for CI and non-terminals.
func (d *Detector) Detect() OutputMode {
	if d.forceMode != nil {
		return *d.forceMode
	}
	if d.getenv("CI") != "" || d.getenv("GITHUB_ACTIONS") != "" {
		return ModePlain
	}
	if mode, ok := ParseOutputMode(d.getenv("WELFARE_CHAT_UI_MODE")); ok {
		return mode
	}
	if !d.isTTY() {
		return ModePlain
	}
	return ModeTUI
}

// ShouldUseColor honors NO_COLOR and TERM=dumb.
func (d *Detector) ShouldUseColor() bool {
	if d.noColor || d.getenv("NO_COLOR") != "" || d.getenv("TERM") == "dumb" {
		return false
	}
	return d.isTTY()
}

// TerminalSize returns the stdout dimensions, 80x24 when unknown.
func TerminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80, 24
	}
	return w, h
}
