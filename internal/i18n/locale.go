// Package i18n holds the localized UI strings of the chat client. The table is
// decoded once from an embedded TOML document and is read-only afterwards.
package i18n

import (
	"strings"
	"sync/atomic"
)

// Locale is one of the supported UI languages.
type Locale string

const (
	KO Locale = "ko"
	EN Locale = "en"
	VI Locale = "vi"
	ZH Locale = "zh"

	Default = KO
)

var supported = []Locale{KO, EN, VI, ZH}

// Supported returns the supported locales in display order.
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	for _, s := range supported {
		if s == l {
			return true
		}
	}
	return false
}

// ParseLocale accepts "ko", "EN", "vi-VN", "zh_CN" and similar forms. Anything
// unrecognized yields Default and false.
func ParseLocale(s string) (Locale, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	l := Locale(s)
	if l.Valid() {
		return l, true
	}
	return Default, false
}

// Selector holds the locale currently chosen by the user. It is written by
// the UI (/lang) or the config watcher and read at the start of every turn.
type Selector struct {
	v atomic.Value
}

// NewSelector creates a selector starting at l (Default when invalid).
func NewSelector(l Locale) *Selector {
	s := &Selector{}
	s.Set(l)
	return s
}

// Locale returns the current locale.
func (s *Selector) Locale() Locale {
	if l, ok := s.v.Load().(Locale); ok {
		return l
	}
	return Default
}

// Set switches the locale. Unsupported values are ignored.
func (s *Selector) Set(l Locale) bool {
	if !l.Valid() {
		return false
	}
	s.v.Store(l)
	return true
}
