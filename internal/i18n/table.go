package i18n

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
)

//go:embed locales.toml
var embeddedLocales []byte

// Feedback holds the strings of the feedback subflow.
type Feedback struct {
	Question         string   `toml:"question"`
	Reasons          []string `toml:"reasons"`
	InputPlaceholder string   `toml:"input_placeholder"`
	Send             string   `toml:"send"`
	Sending          string   `toml:"sending"`
	ThanksGood       string   `toml:"thanks_good"`
	ThanksBad        string   `toml:"thanks_bad"`
	Error            string   `toml:"error"`
}

// Card holds the labels of the buttons inside result cards.
type Card struct {
	Detail string `toml:"detail"`
	Share  string `toml:"share"`
}

// Strings is the full string set of one locale.
type Strings struct {
	Name         string   `toml:"name"`
	Language     string   `toml:"language"`
	Placeholder  string   `toml:"placeholder"`
	Loading      string   `toml:"loading"`
	Timeout      string   `toml:"timeout"`
	GenericError string   `toml:"generic_error"`
	ErrorPrefix  string   `toml:"error_prefix"`
	Directive    string   `toml:"directive"`
	Suggestions  []string `toml:"suggestions"`
	Actions      []string `toml:"actions"`
	Tips         []string `toml:"tips"`
	Card         Card     `toml:"card"`
	Feedback     Feedback `toml:"feedback"`
}

// Action returns the status phrase for step i, cycling through the list.
func (s Strings) Action(i int) string {
	if len(s.Actions) == 0 {
		return ""
	}
	if i < 0 {
		i = -i
	}
	return s.Actions[i%len(s.Actions)]
}

// Tip picks a tip using pick(n) in [0,n) and breaks the line after its label.
func (s Strings) Tip(pick func(n int) int) string {
	if len(s.Tips) == 0 {
		return ""
	}
	return FormatTip(s.Tips[pick(len(s.Tips))])
}

// FormatTip puts the tip body on its own line after the "label:" prefix.
func FormatTip(tip string) string {
	return strings.Replace(tip, ": ", ":\n", 1)
}

func (s Strings) clone() Strings {
	out := s
	out.Suggestions = append([]string(nil), s.Suggestions...)
	out.Actions = append([]string(nil), s.Actions...)
	out.Tips = append([]string(nil), s.Tips...)
	out.Feedback.Reasons = append([]string(nil), s.Feedback.Reasons...)
	return out
}

// Table maps every supported locale to its strings.
type Table struct {
	locales map[Locale]Strings
}

// Load decodes and validates a TOML locale document. Locales without tips
// inherit the default locale's tips.
func Load(data []byte) (*Table, error) {
	raw := map[string]Strings{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, core.ErrConfig(core.CodeInvalidConfig, "decoding locale table").WithCause(err)
	}

	t := &Table{locales: make(map[Locale]Strings, len(raw))}
	for key, s := range raw {
		l, ok := ParseLocale(key)
		if !ok || string(l) != key {
			return nil, core.ErrConfig(core.CodeInvalidConfig, fmt.Sprintf("unsupported locale %q in table", key))
		}
		t.locales[l] = s
	}
	if def, ok := t.locales[Default]; ok {
		for l, s := range t.locales {
			if len(s.Tips) == 0 {
				s.Tips = def.Tips
				t.locales[l] = s
			}
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// DefaultTable returns the table decoded from the embedded document.
func DefaultTable() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Load(embeddedLocales)
	})
	return defaultTable, defaultErr
}

// Validate checks that every supported locale carries the strings the UI
// needs while a turn is in flight.
func (t *Table) Validate() error {
	var missing []string
	for _, l := range supported {
		s, ok := t.locales[l]
		if !ok {
			return core.ErrConfig(core.CodeMissingLocale, fmt.Sprintf("locale %q missing from table", l))
		}
		check := func(field, value string) {
			if strings.TrimSpace(value) == "" {
				missing = append(missing, fmt.Sprintf("%s.%s", l, field))
			}
		}
		check("loading", s.Loading)
		check("placeholder", s.Placeholder)
		check("timeout", s.Timeout)
		check("generic_error", s.GenericError)
		check("error_prefix", s.ErrorPrefix)
		check("feedback.question", s.Feedback.Question)
		check("feedback.send", s.Feedback.Send)
		check("feedback.sending", s.Feedback.Sending)
		check("feedback.thanks_good", s.Feedback.ThanksGood)
		check("feedback.thanks_bad", s.Feedback.ThanksBad)
		check("feedback.error", s.Feedback.Error)
		if len(s.Actions) == 0 {
			missing = append(missing, string(l)+".actions")
		}
		if len(s.Feedback.Reasons) == 0 {
			missing = append(missing, string(l)+".feedback.reasons")
		}
		if len(s.Tips) == 0 {
			missing = append(missing, string(l)+".tips")
		}
	}
	if len(missing) > 0 {
		return core.ErrConfig(core.CodeMissingString, "locale table incomplete: "+strings.Join(missing, ", ")).
			WithDetail("missing", missing)
	}
	return nil
}

// Strings returns a copy of l's strings, falling back to Default.
func (t *Table) Strings(l Locale) Strings {
	if s, ok := t.locales[l]; ok {
		return s.clone()
	}
	return t.locales[Default].clone()
}
