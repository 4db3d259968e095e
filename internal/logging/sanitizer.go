package logging

import (
	"regexp"
)

// Redacted replaces every sensitive match.
const Redacted = "[REDACTED]"

type rule struct {
	name string
	re   *regexp.Regexp
}

// Sanitizer redacts secrets and personal identifiers from log output.
type Sanitizer struct {
	rules []rule
}

// NewSanitizer creates a sanitizer with the default rules.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{rules: defaultRules()}
}

func defaultRules() []rule {
	specs := []struct{ name, pattern string }{
		// 주민등록번호: YYMMDD-GNNNNNN, hyphen optional
		{"rrn", `\b\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])-?[1-8]\d{6}\b`},
		// Korean mobile and landline numbers
		{"phone", `\b0(?:1[016789]|2|[3-6][1-5])[-. ]?\d{3,4}[-. ]?\d{4}\b`},
		{"email", `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`},
		{"bearer", `(?i)bearer\s+[A-Za-z0-9._~+/=-]{16,}`},
		{"api_key", `(?i)api[_-]?key["'\s:=]+[A-Za-z0-9_-]{16,}`},
		{"token", `(?i)token["'\s:=]+[A-Za-z0-9_-]{20,}`},
		{"password", `(?i)password["'\s:=]+[^\s"']{8,}`},
	}
	rules := make([]rule, 0, len(specs))
	for _, s := range specs {
		rules = append(rules, rule{name: s.name, re: regexp.MustCompile(s.pattern)})
	}
	return rules
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	out := input
	for _, r := range s.rules {
		out = r.re.ReplaceAllString(out, Redacted)
	}
	return out
}

// AddPattern registers an extra rule.
func (s *Sanitizer) AddPattern(name, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.rules = append(s.rules, rule{name: name, re: re})
	return nil
}

// Rules lists the active rule names.
func (s *Sanitizer) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.name
	}
	return names
}
