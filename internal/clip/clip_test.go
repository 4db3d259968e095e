package clip

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func noenv(string) string { return "" }

func TestCopy_Native(t *testing.T) {
	t.Parallel()
	var got string
	var tty bytes.Buffer
	c := New(
		WithNative(func(s string) error { got = s; return nil }),
		WithTerminal(&tty, func() bool { return true }),
		WithGetenv(noenv),
	)

	res, err := c.Copy("부산 기저귀 지원")
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if res.Method != MethodNative && res.Method != MethodOSC52 {
		t.Fatalf("Method = %q", res.Method)
	}
	if res.Method == MethodNative && got != "부산 기저귀 지원" {
		t.Errorf("native got %q", got)
	}
}

func TestCopy_OSC52WhenNativeFails(t *testing.T) {
	t.Parallel()
	var tty bytes.Buffer
	c := New(
		WithNative(func(string) error { return errors.New("no display") }),
		WithTerminal(&tty, func() bool { return true }),
		WithGetenv(noenv),
	)

	res, err := c.Copy("hello")
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if res.Method != MethodOSC52 {
		t.Fatalf("Method = %q, want osc52", res.Method)
	}
	if !strings.HasPrefix(tty.String(), "\x1b]52;") {
		t.Errorf("tty output %q is not an OSC52 sequence", tty.String())
	}
}

func TestCopy_TmuxWrapsSequence(t *testing.T) {
	t.Parallel()
	var tty bytes.Buffer
	c := New(
		WithNative(func(string) error { return errors.New("no display") }),
		WithTerminal(&tty, func() bool { return true }),
		WithGetenv(func(k string) string {
			if k == "TMUX" {
				return "/tmp/tmux-0/default"
			}
			return ""
		}),
	)

	if _, err := c.Copy("hello"); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if !strings.HasPrefix(tty.String(), "\x1bPtmux;") {
		t.Errorf("tty output %q lacks tmux passthrough", tty.String())
	}
}

func TestCopy_FileFallback(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := New(
		WithNative(func(string) error { return errors.New("no display") }),
		WithTerminal(nil, func() bool { return false }),
		WithTempDir(dir),
		WithGetenv(noenv),
	)

	res, err := c.Copy("share me")
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if res.Method != MethodFile {
		t.Fatalf("Method = %q, want file", res.Method)
	}
	data, err := os.ReadFile(res.FilePath)
	if err != nil {
		t.Fatalf("reading fallback: %v", err)
	}
	if string(data) != "share me" {
		t.Errorf("file content = %q", data)
	}
	if !strings.Contains(res.Describe(), res.FilePath) {
		t.Errorf("Describe() = %q", res.Describe())
	}
}

func TestCopy_OversizedSkipsOSC52(t *testing.T) {
	t.Parallel()
	var tty bytes.Buffer
	c := New(
		WithNative(func(string) error { return errors.New("no display") }),
		WithTerminal(&tty, func() bool { return true }),
		WithTempDir(t.TempDir()),
		WithGetenv(noenv),
	)

	res, err := c.Copy(strings.Repeat("x", OSC52Limit+1))
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if res.Method != MethodFile {
		t.Errorf("Method = %q, want file", res.Method)
	}
	if tty.Len() != 0 {
		t.Errorf("OSC52 written for oversized text")
	}
}

func TestCopy_Empty(t *testing.T) {
	t.Parallel()
	if _, err := New().Copy(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("Copy(\"\") error = %v, want ErrEmpty", err)
	}
}
