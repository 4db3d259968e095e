// Package clip copies answer text and shared result cards out of the
// terminal.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	atotto "github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"
)

// Method is the mechanism that ended up holding the text.
type Method string

const (
	MethodNative Method = "native"
	MethodOSC52  Method = "osc52"
	MethodFile   Method = "file"
)

// Result reports where the text went. FilePath is set for MethodFile only.
type Result struct {
	Method   Method
	FilePath string
}

// Describe renders the result for a status line.
func (r Result) Describe() string {
	switch r.Method {
	case MethodNative:
		return "copied to clipboard"
	case MethodOSC52:
		return "copied via terminal clipboard"
	case MethodFile:
		return "saved to " + r.FilePath
	}
	return ""
}

// ErrEmpty is returned when there is nothing to copy.
var ErrEmpty = errors.New("nothing to copy")

// OSC52Limit caps the escape sequence payload; many terminals drop larger
// writes silently.
const OSC52Limit = 100_000

// Copier tries the native clipboard, then OSC52, then a temp file.
type Copier struct {
	native func(string) error
	tty    io.Writer
	isTTY  func() bool
	getenv func(string) string
	dir    string
}

// Option configures a Copier.
type Option func(*Copier)

// WithNative replaces the native clipboard writer.
func WithNative(fn func(string) error) Option {
	return func(c *Copier) { c.native = fn }
}

// WithTerminal sets where OSC52 sequences are written and how to tell whether
// it is a terminal.
func WithTerminal(w io.Writer, isTTY func() bool) Option {
	return func(c *Copier) {
		c.tty = w
		c.isTTY = isTTY
	}
}

// WithTempDir sets the directory of the file fallback.
func WithTempDir(dir string) Option {
	return func(c *Copier) { c.dir = dir }
}

// WithGetenv replaces os.Getenv for multiplexer detection.
func WithGetenv(fn func(string) string) Option {
	return func(c *Copier) { c.getenv = fn }
}

// New returns a Copier. Without options it writes OSC52 to stderr so the
// bubbletea renderer on stdout is not disturbed.
func New(opts ...Option) *Copier {
	c := &Copier{
		native: atotto.WriteAll,
		tty:    os.Stderr,
		isTTY:  func() bool { return term.IsTerminal(int(os.Stderr.Fd())) },
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy stores text using the first mechanism that works.
func (c *Copier) Copy(text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmpty
	}
	if c.native != nil && !atotto.Unsupported {
		if err := c.native(text); err == nil {
			return Result{Method: MethodNative}, nil
		}
	}
	if err := c.osc52(text); err == nil {
		return Result{Method: MethodOSC52}, nil
	}
	path, err := c.writeFile(text)
	if err != nil {
		return Result{}, fmt.Errorf("copy fallback: %w", err)
	}
	return Result{Method: MethodFile, FilePath: path}, nil
}

func (c *Copier) osc52(text string) error {
	if c.tty == nil || c.isTTY == nil || !c.isTTY() {
		return errors.New("no terminal for OSC52")
	}
	if len(text) > OSC52Limit {
		return fmt.Errorf("text too large for OSC52 (%d bytes)", len(text))
	}
	seq := osc52.New(text).Limit(OSC52Limit)
	switch {
	case c.getenv("TMUX") != "":
		seq = seq.Tmux()
	case c.getenv("STY") != "":
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(c.tty)
	return err
}

func (c *Copier) writeFile(text string) (path string, err error) {
	f, err := os.CreateTemp(c.dir, "welfare-chat-copy-*.txt")
	if err != nil {
		return "", err
	}
	path = f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if _, err = f.WriteString(text); err != nil {
		_ = f.Close()
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}
