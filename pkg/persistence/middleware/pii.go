package middleware

import (
	"fmt"
	"regexp"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultRedactPatterns match the contact links of the built-in templates.
var DefaultRedactPatterns = []string{`(?i)^(telegram|twitter|discord|email)$`}

// Redactor masks field values whose names match a pattern. It is applied to
// copies shown to operators; stored sessions are never masked, the flow
// needs the real values back.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the field name patterns.
func NewRedactor(patterns []string) (*Redactor, error) {
	r := &Redactor{patterns: make([]*regexp.Regexp, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		r.patterns[i] = re
	}
	return r, nil
}

// Redact returns a deep copy of s with matching field values masked.
// Empty values stay empty so skipped fields remain recognizable.
func (r *Redactor) Redact(s *domain.Session) *domain.Session {
	cp := s.Snapshot()
	for k, v := range cp.Fields {
		if v != "" && r.match(k) {
			cp.Fields[k] = Mask
		}
	}
	return cp
}

func (r *Redactor) match(name string) bool {
	for _, p := range r.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
