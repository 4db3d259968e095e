package tui

import "testing"

func fakeDetector(env map[string]string, tty bool) *Detector {
	return &Detector{
		getenv: func(k string) string { return env[k] },
		isTTY:  func() bool { return tty },
	}
}

func TestDetector_Detect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		want OutputMode
	}{
		{"terminal", nil, true, ModeTUI},
		{"pipe", nil, false, ModePlain},
		{"ci", map[string]string{"CI": "true"}, true, ModePlain},
		{"github actions", map[string]string{"GITHUB_ACTIONS": "1"}, true, ModePlain},
		{"env plain", map[string]string{"WELFARE_CHAT_UI_MODE": "plain"}, true, ModePlain},
		{"env auto", map[string]string{"WELFARE_CHAT_UI_MODE": "auto"}, true, ModeTUI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := fakeDetector(tt.env, tt.tty).Detect(); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetector_ForceMode(t *testing.T) {
	t.Parallel()
	d := fakeDetector(map[string]string{"CI": "1"}, false).ForceMode(ModeTUI)
	if got := d.Detect(); got != ModeTUI {
		t.Errorf("Detect() = %v, want tui", got)
	}
}

func TestDetector_ShouldUseColor(t *testing.T) {
	t.Parallel()
	if !fakeDetector(nil, true).ShouldUseColor() {
		t.Error("terminal without NO_COLOR should use color")
	}
	if fakeDetector(map[string]string{"NO_COLOR": "1"}, true).ShouldUseColor() {
		t.Error("NO_COLOR should disable color")
	}
	if fakeDetector(map[string]string{"TERM": "dumb"}, true).ShouldUseColor() {
		t.Error("TERM=dumb should disable color")
	}
	if fakeDetector(nil, true).NoColor(true).ShouldUseColor() {
		t.Error("NoColor(true) should disable color")
	}
	if fakeDetector(nil, false).ShouldUseColor() {
		t.Error("non-terminal should not use color")
	}
}

func TestParseOutputMode(t *testing.T) {
	t.Parallel()
	if m, ok := ParseOutputMode("PLAIN"); !ok || m != ModePlain {
		t.Errorf("ParseOutputMode(PLAIN) = %v, %v", m, ok)
	}
	if _, ok := ParseOutputMode("auto"); ok {
		t.Error("auto should not be a concrete mode")
	}
}
