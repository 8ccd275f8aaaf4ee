package validation

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// sanitizeText strips markup and collapses runs of whitespace. Multiline text
// keeps its line breaks but drops blank leading and trailing lines.
// The result is stable: sanitizing it again returns it unchanged.
func sanitizeText(raw string, multiline bool) string {
	cleaned := stripMarkup(raw)
	if !multiline {
		return strings.Join(strings.Fields(cleaned), " ")
	}

	lines := strings.Split(strings.ReplaceAll(cleaned, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// stripMarkup repeats until nothing changes: unescaping can expose markup
// that was entity-encoded one level deeper. Every change shortens the string.
func stripMarkup(raw string) string {
	cur := raw
	for range len(raw) + 1 {
		next := angleBrackets.Replace(html.UnescapeString(textSanitizer().Sanitize(cur)))
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
