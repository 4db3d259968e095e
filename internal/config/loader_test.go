package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolate runs the test in an empty directory with an empty home so no real
// config or .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", filepath.Join(dir, "home"))
	return dir
}

func TestLoader_Defaults(t *testing.T) {
	isolate(t)

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
	if loader.ConfigFile() != "" {
		t.Errorf("ConfigFile() = %q, want none", loader.ConfigFile())
	}
}

func TestLoader_DefaultYAMLMatchesDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("init config = %+v, want %+v", cfg, Default())
	}
}

func TestLoader_ProjectFileBeatsUserFile(t *testing.T) {
	dir := isolate(t)

	userPath, err := UserConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(userPath, []byte("chat:\n  lang: zh\nui:\n  mode: plain\n")); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chat.Lang != "zh" || cfg.UI.Mode != "plain" {
		t.Errorf("user config not applied: lang=%q mode=%q", cfg.Chat.Lang, cfg.UI.Mode)
	}

	if err := os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte("chat:\n  lang: en\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	loader := NewLoader()
	cfg, err = loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chat.Lang != "en" {
		t.Errorf("Chat.Lang = %q, want en", cfg.Chat.Lang)
	}
	if cfg.UI.Mode != "auto" {
		t.Errorf("UI.Mode = %q, want auto: only the first file found is read", cfg.UI.Mode)
	}
	if loader.ConfigFile() != ProjectConfigName {
		t.Errorf("ConfigFile() = %q", loader.ConfigFile())
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.yaml")
	if err := os.WriteFile(path, []byte("chat:\n  lang: en\n  poll_interval: 2s\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WELFARE_CHAT_CHAT_LANG", "vi")
	t.Setenv("WELFARE_CHAT_CHAT_SAFETY_TIMEOUT", "90s")

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chat.Lang != "vi" {
		t.Errorf("Chat.Lang = %q, want vi", cfg.Chat.Lang)
	}
	if cfg.Chat.PollInterval != 2*time.Second {
		t.Errorf("Chat.PollInterval = %v, want 2s", cfg.Chat.PollInterval)
	}
	if cfg.Chat.SafetyTimeout != 90*time.Second {
		t.Errorf("Chat.SafetyTimeout = %v, want 90s", cfg.Chat.SafetyTimeout)
	}
}

func TestLoader_DotEnv(t *testing.T) {
	dir := isolate(t)
	const key = "WELFARE_CHAT_BACKEND_BASE_URL"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=http://backend.test:9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "http://backend.test:9000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
}

func TestLoader_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := NewLoader().WithConfigFile(filepath.Join(dir, "nope.yaml")).Load(); err == nil {
		t.Error("Load() with a missing --config file should fail")
	}
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Fatal("second write without force should fail")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want existing 0640 kept", info.Mode().Perm())
	}
}

func TestMarshal_LoadsBack(t *testing.T) {
	dir := isolate(t)
	want := Default()
	want.Chat.Lang = "vi"
	want.Backend.Timeout = 10 * time.Second
	want.Log.File = filepath.Join(dir, "chat.log")

	data, err := Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "timeout: 10s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}
	path := filepath.Join(dir, "shown.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}
