package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Rule defines the contract for field validation.
// Check never panics: malformed input is exactly what a rule rejects.
type Rule interface {
	// Name returns the rule name bound in template definitions (e.g., "url").
	Name() string
	// Check validates the value and returns its normalized form or a *Violation.
	Check(value string) (string, error)
}

// Violation is a rule rejection with a stable reason code.
type Violation struct {
	Code   string
	Reason string
}

func (v *Violation) Error() string { return v.Reason }

func violation(code, format string, args ...any) *Violation {
	return &Violation{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Reason codes.
const (
	CodeRequired      = "required"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeInvalidURL    = "invalid_url"
	CodeInvalidScheme = "invalid_scheme"
	CodeInvalidHost   = "invalid_host"
	CodeInvalidColor  = "invalid_color"
	CodeInvalidChoice = "invalid_choice"
	CodeNotANumber    = "not_a_number"
	CodeOutOfRange    = "out_of_range"
	CodeInvalidTicker = "invalid_ticker"
	CodeInvalidDate   = "invalid_date"
	CodeUndeclared    = "undeclared"

	CodeInvalidSections     = "invalid_sections"
	CodeMissingSections     = "missing_sections"
	CodeInvalidDistribution = "invalid_distribution"
	CodeInvalidLink         = "invalid_link"
)

// --- Text ---

// TextRule accepts free text. Markup is stripped and whitespace collapsed.
type TextRule struct {
	name      string
	min, max  int
	multiline bool
}

func (r *TextRule) Name() string { return r.name }

func (r *TextRule) Check(value string) (string, error) {
	cleaned := sanitizeText(value, r.multiline)
	n := utf8.RuneCountInString(cleaned)
	if n == 0 || n < r.min {
		return "", violation(CodeTooShort, "must be at least %d characters", max(r.min, 1))
	}
	if r.max > 0 && n > r.max {
		return "", violation(CodeTooLong, "must be at most %d characters", r.max)
	}
	return cleaned, nil
}

// --- URL ---

// URLRule accepts absolute URLs with an allowed scheme and, optionally, host.
type URLRule struct {
	schemes     []string
	hosts       []string
	assumeHTTPS bool
}

func (r *URLRule) Name() string { return "url" }

func (r *URLRule) Check(value string) (string, error) {
	raw := strings.TrimSpace(value)
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return "", violation(CodeInvalidURL, "must be an absolute URL")
	}
	if r.assumeHTTPS && !strings.Contains(raw, "://") && looksLikeHost(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", violation(CodeInvalidURL, "must be an absolute URL")
	}

	scheme := strings.ToLower(u.Scheme)
	if !containsFold(r.schemes, scheme) {
		return "", violation(CodeInvalidScheme, "scheme must be one of %s", strings.Join(r.schemes, ", "))
	}
	u.Scheme = scheme

	if len(r.hosts) > 0 {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if !hostAllowed(host, r.hosts) {
			return "", violation(CodeInvalidHost, "host must be one of %s", strings.Join(r.hosts, ", "))
		}
	}
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

func looksLikeHost(raw string) bool {
	host, _, _ := strings.Cut(raw, "/")
	return strings.Contains(host, ".") && !strings.HasPrefix(host, ".")
}

func hostAllowed(host string, allowed []string) bool {
	for _, h := range allowed {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// --- Hex color ---

var hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// HexColorRule accepts #RGB or #RRGGBB and normalizes to upper-case #RRGGBB.
type HexColorRule struct{}

func (r *HexColorRule) Name() string { return "hex_color" }

func (r *HexColorRule) Check(value string) (string, error) {
	m := hexColorPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", violation(CodeInvalidColor, "must be a hex color like #1ABC9C")
	}
	hex := m[1]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return "#" + strings.ToUpper(hex), nil
}

// --- Choice ---

// ChoiceRule accepts one of a fixed set of options, case-insensitively.
type ChoiceRule struct {
	options []string
}

func (r *ChoiceRule) Name() string { return "choice" }

// Options returns the canonical options in declaration order.
func (r *ChoiceRule) Options() []string { return append([]string(nil), r.options...) }

func (r *ChoiceRule) Check(value string) (string, error) {
	v := strings.TrimSpace(value)
	for _, opt := range r.options {
		if strings.EqualFold(opt, v) {
			return opt, nil
		}
	}
	return "", violation(CodeInvalidChoice, "must be one of %s", strings.Join(r.options, ", "))
}

// --- Numbers ---

// IntegerRule accepts whole numbers; thousands separators are ignored.
type IntegerRule struct {
	min, max       int64
	hasMin, hasMax bool
}

func (r *IntegerRule) Name() string { return "integer" }

func (r *IntegerRule) Check(value string) (string, error) {
	n, err := strconv.ParseInt(stripNumber(value), 10, 64)
	if err != nil {
		return "", violation(CodeNotANumber, "must be a whole number")
	}
	if (r.hasMin && n < r.min) || (r.hasMax && n > r.max) {
		return "", violation(CodeOutOfRange, "must be %s", describeRange(r.hasMin, r.hasMax, float64(r.min), float64(r.max)))
	}
	return strconv.FormatInt(n, 10), nil
}

// DecimalRule accepts finite decimal numbers.
type DecimalRule struct {
	name           string
	min, max       float64
	hasMin, hasMax bool
	suffix         string
}

func (r *DecimalRule) Name() string { return r.name }

func (r *DecimalRule) Check(value string) (string, error) {
	raw := stripNumber(value)
	if r.suffix != "" {
		raw = strings.TrimSuffix(raw, r.suffix)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", violation(CodeNotANumber, "must be a number")
	}
	if (r.hasMin && f < r.min) || (r.hasMax && f > r.max) {
		return "", violation(CodeOutOfRange, "must be %s", describeRange(r.hasMin, r.hasMax, r.min, r.max))
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func stripNumber(value string) string {
	return strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(value))
}

func describeRange(hasMin, hasMax bool, lo, hi float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	switch {
	case hasMin && hasMax:
		return fmt.Sprintf("between %s and %s", f(lo), f(hi))
	case hasMin:
		return "at least " + f(lo)
	default:
		return "at most " + f(hi)
	}
}

// --- Ticker ---

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{2,6}$`)

// TickerRule accepts token symbols such as $DOGE, normalized to DOGE.
type TickerRule struct{}

func (r *TickerRule) Name() string { return "ticker" }

func (r *TickerRule) Check(value string) (string, error) {
	v := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(value), "$"))
	if !tickerPattern.MatchString(v) {
		return "", violation(CodeInvalidTicker, "must be 2 to 6 letters or digits")
	}
	return v, nil
}

// --- Date ---

const dateLayout = "2006-01-02"

// DateRule accepts calendar dates in YYYY-MM-DD form.
type DateRule struct{}

func (r *DateRule) Name() string { return "date" }

func (r *DateRule) Check(value string) (string, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", violation(CodeInvalidDate, "must be a date like 2025-12-31")
	}
	return d.Format(dateLayout), nil
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
