package i18n

import (
	"strings"
	"testing"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
)

func TestDefaultTable_AllLocalesComplete(t *testing.T) {
	t.Parallel()
	table, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable: %v", err)
	}
	for _, l := range Supported() {
		s := table.Strings(l)
		if s.Loading == "" || len(s.Actions) != 6 || len(s.Tips) != 40 {
			t.Errorf("%s: loading=%q actions=%d tips=%d", l, s.Loading, len(s.Actions), len(s.Tips))
		}
		if len(s.Feedback.Reasons) == 0 || s.Feedback.ThanksGood == "" {
			t.Errorf("%s: feedback strings missing", l)
		}
	}
	if got := table.Strings(KO).Loading; got != "답변을 생성하고 있습니다" {
		t.Errorf("ko loading = %q", got)
	}
}

func TestDefaultTable_Directive(t *testing.T) {
	t.Parallel()
	table, err := DefaultTable()
	if err != nil {
		t.Fatal(err)
	}
	if d := table.Strings(KO).Directive; d != "" {
		t.Errorf("default locale must not add a directive, got %q", d)
	}
	if d := table.Strings(VI).Directive; d != " \n\n(System: Please answer strictly in Vietnamese.)" {
		t.Errorf("vi directive = %q", d)
	}
}

func TestLoad_MissingFeedbackIsConfigError(t *testing.T) {
	t.Parallel()
	doc := strings.Replace(string(embeddedLocales), `thanks_bad = "Thanks. We'll work on a better answer 🙏"`, "", 1)
	_, err := Load([]byte(doc))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !core.IsCategory(err, core.ErrCatConfig) {
		t.Errorf("expected config category, got %v", err)
	}
	if !strings.Contains(err.Error(), "en.feedback.thanks_bad") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

func TestLoad_TipsFallBackToDefault(t *testing.T) {
	t.Parallel()
	doc := minimalLocale("ko", `tips = ["[라벨] 제목: 본문"]`) +
		minimalLocale("en", "") +
		minimalLocale("vi", "") +
		minimalLocale("zh", "")
	table, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := table.Strings(ZH).Tips; len(got) != 1 || got[0] != "[라벨] 제목: 본문" {
		t.Errorf("zh tips = %v", got)
	}
}

func TestLoad_RejectsUnknownLocale(t *testing.T) {
	t.Parallel()
	doc := string(embeddedLocales) + "\n[fr]\nloading = \"x\"\n"
	if _, err := Load([]byte(doc)); err == nil {
		t.Fatal("expected error for unsupported locale")
	}
}

func TestTable_StringsReturnsCopy(t *testing.T) {
	t.Parallel()
	table, err := DefaultTable()
	if err != nil {
		t.Fatal(err)
	}
	s := table.Strings(EN)
	s.Actions[0] = "mutated"
	if table.Strings(EN).Actions[0] == "mutated" {
		t.Fatal("table must not be mutable through returned strings")
	}
	if table.Strings(Locale("fr")).Loading != table.Strings(KO).Loading {
		t.Error("unknown locale should fall back to ko")
	}
}

func TestStrings_ActionAndTip(t *testing.T) {
	t.Parallel()
	s := Strings{Actions: []string{"a", "b", "c"}, Tips: []string{"[0-12m] Tummy Time: play", "x"}}
	if s.Action(0) != "a" || s.Action(4) != "b" {
		t.Errorf("round robin broken: %q %q", s.Action(0), s.Action(4))
	}
	tip := s.Tip(func(int) int { return 0 })
	if tip != "[0-12m] Tummy Time:\nplay" {
		t.Errorf("tip = %q", tip)
	}
	if (Strings{}).Tip(func(int) int { return 0 }) != "" {
		t.Error("empty tips should yield empty string")
	}
}

func TestParseLocale(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Locale
		ok   bool
	}{
		{"ko", KO, true},
		{"EN", EN, true},
		{"vi-VN", VI, true},
		{"zh_CN", ZH, true},
		{" en ", EN, true},
		{"fr", Default, false},
		{"", Default, false},
	}
	for _, tt := range tests {
		got, ok := ParseLocale(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLocale(%q) = %s,%v want %s,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSelector(t *testing.T) {
	t.Parallel()
	s := NewSelector(Locale("xx"))
	if s.Locale() != Default {
		t.Errorf("invalid initial locale should yield default")
	}
	if !s.Set(ZH) || s.Locale() != ZH {
		t.Errorf("Set(zh) failed")
	}
	if s.Set(Locale("fr")) || s.Locale() != ZH {
		t.Errorf("unsupported locale must be ignored")
	}
}

func minimalLocale(name, tips string) string {
	return "[" + name + "]\n" +
		"loading = \"l\"\nplaceholder = \"p\"\ntimeout = \"t\"\ngeneric_error = \"g\"\nerror_prefix = \"e\"\n" +
		"actions = [\"a\"]\n" + tips + "\n" +
		"[" + name + ".feedback]\n" +
		"question = \"q\"\nsend = \"s\"\nsending = \"s\"\nthanks_good = \"g\"\nthanks_bad = \"b\"\nerror = \"e\"\nreasons = [\"r\"]\n\n"
}
