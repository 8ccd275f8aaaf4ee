package templates

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type deriver func(source string, themes map[string]Theme) string

var derivers = map[string]deriver{
	"display_name":    func(s string, _ map[string]Theme) string { return FormatCoinName(s) },
	"ticker":          func(s string, _ map[string]Theme) string { return TickerSymbol(s) },
	"theme_primary":   themeColor(func(t Theme) string { return t.Primary }),
	"theme_secondary": themeColor(func(t Theme) string { return t.Secondary }),
	"theme_accent":    themeColor(func(t Theme) string { return t.Accent }),
}

func themeColor(pick func(Theme) string) deriver {
	return func(s string, themes map[string]Theme) string {
		if t, ok := themes[s]; ok {
			return pick(t)
		}
		return ""
	}
}

var (
	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	memeTerms     = regexp.MustCompile(`(?i)inu|moon|elon|doge|shib|floki|coin|token|baby|safe`)
	capitalWords  = regexp.MustCompile(`[A-Z][a-z]*`)
)

// FormatCoinName turns a raw coin name into a display name:
// "FlokiElonMoon" becomes "Floki Elon Moon" and "babydogecoin" becomes
// "Baby Doge Coin".
func FormatCoinName(name string) string {
	formatted := camelBoundary.ReplaceAllString(strings.TrimSpace(name), "$1 $2")
	if formatted == strings.ToUpper(formatted) || formatted == strings.ToLower(formatted) {
		formatted = memeTerms.ReplaceAllString(formatted, " $0 ")
	}

	words := strings.Fields(formatted)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// TickerSymbol builds a 2 to 6 character symbol from the capitals of a coin
// name, falling back to its first four letters.
func TickerSymbol(name string) string {
	var b strings.Builder
	for _, w := range capitalWords.FindAllString(name, -1) {
		b.WriteByte(w[0])
	}
	symbol := b.String()
	if len(symbol) < 2 {
		symbol = strings.ToUpper(alnum(name))
		if len(symbol) > 4 {
			symbol = symbol[:4]
		}
	}
	if len(symbol) > 6 {
		symbol = symbol[:6]
	}
	return symbol
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the values handed to a site generator: the session fields,
// declared defaults for fields left empty, derived values for targets still
// empty, and finally the template's default colors.
func (d *Definition) Resolve(fields map[string]string, themes map[string]Theme) map[string]string {
	out := make(map[string]string, len(d.fields)+len(d.Derived))
	for k, v := range fields {
		out[k] = v
	}
	for _, f := range d.fields {
		if out[f.Name] == "" && f.Default != "" {
			out[f.Name] = f.Default
		}
	}
	for _, dv := range d.Derived {
		if out[dv.Target] != "" {
			continue
		}
		if v := derivers[dv.Using](out[dv.Source], themes); v != "" {
			out[dv.Target] = v
		}
	}
	for role, color := range d.DefaultColors {
		key := role + "Color"
		if out[key] == "" {
			out[key] = color
		}
	}
	return out
}
