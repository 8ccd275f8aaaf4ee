package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// --- Sections ---

var sectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// SectionsRule accepts a comma-separated page layout such as
// "header, about, tokenomics". Every required section must appear; the
// order is the user's.
type SectionsRule struct {
	required []string
	allowed  []string
}

func (r *SectionsRule) Name() string { return "sections" }

// Required returns the sections a layout must contain.
func (r *SectionsRule) Required() []string { return append([]string(nil), r.required...) }

func (r *SectionsRule) Check(value string) (string, error) {
	sections := SplitList(strings.ToLower(value))
	if len(sections) == 0 {
		return "", violation(CodeInvalidSections, "must list the page sections, separated by commas")
	}

	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if !sectionPattern.MatchString(s) {
			return "", violation(CodeInvalidSections, "%q is not a section name", s)
		}
		if seen[s] {
			return "", violation(CodeInvalidSections, "lists %q twice", s)
		}
		if len(r.allowed) > 0 && !containsFold(r.allowed, s) {
			return "", violation(CodeInvalidSections, "%q is not one of %s", s, strings.Join(r.allowed, ", "))
		}
		seen[s] = true
	}

	var missing []string
	for _, s := range r.required {
		if !seen[strings.ToLower(s)] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return "", violation(CodeMissingSections, "is missing required sections: %s", strings.Join(missing, ", "))
	}
	return strings.Join(sections, ","), nil
}

// --- Distribution ---

// DistributionRule accepts token allocations as "Label:N%" pairs separated
// by commas, e.g. "Team:10%, Liquidity:60%". The shares may not exceed 100%.
type DistributionRule struct {
	maxLabel int
}

func (r *DistributionRule) Name() string { return "distribution" }

func (r *DistributionRule) Check(value string) (string, error) {
	parts := SplitList(value)
	if len(parts) == 0 {
		return "", violation(CodeInvalidDistribution, "must look like Team:10%%, Marketing:20%%")
	}

	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	total := 0.0
	for _, part := range parts {
		rawLabel, rawShare, ok := strings.Cut(part, ":")
		if !ok {
			return "", violation(CodeInvalidDistribution, "%q must look like Label:10%%", part)
		}
		label := sanitizeText(rawLabel, false)
		if label == "" || strings.ContainsAny(label, ":,") {
			return "", violation(CodeInvalidDistribution, "%q needs a plain label", part)
		}
		if r.maxLabel > 0 && utf8.RuneCountInString(label) > r.maxLabel {
			return "", violation(CodeInvalidDistribution, "label %q is longer than %d characters", label, r.maxLabel)
		}
		if seen[strings.ToLower(label)] {
			return "", violation(CodeInvalidDistribution, "lists %q twice", label)
		}
		seen[strings.ToLower(label)] = true

		share, err := strconv.ParseFloat(strings.TrimSuffix(stripNumber(rawShare), "%"), 64)
		if err != nil || math.IsNaN(share) || math.IsInf(share, 0) || share <= 0 || share > 100 {
			return "", violation(CodeInvalidDistribution, "share of %q must be a percentage above 0", label)
		}
		total += share
		out = append(out, label+":"+strconv.FormatFloat(share, 'f', -1, 64)+"%")
	}

	if total > 100+1e-9 {
		return "", violation(CodeOutOfRange, "shares add up to %s%%, at most 100%% is allowed", strconv.FormatFloat(total, 'f', -1, 64))
	}
	return strings.Join(out, ", "), nil
}

// --- Named link ---

// NamedURLRule accepts "Name:URL" for links to platforms without a field of
// their own, e.g. "Reddit:reddit.com/r/floki".
type NamedURLRule struct {
	url URLRule
}

func (r *NamedURLRule) Name() string { return "named_url" }

func (r *NamedURLRule) Check(value string) (string, error) {
	rawName, rawURL, ok := strings.Cut(strings.TrimSpace(value), ":")
	name := sanitizeText(rawName, false)
	if !ok || name == "" || strings.Contains(name, ":") || strings.HasPrefix(strings.TrimSpace(rawURL), "//") {
		return "", violation(CodeInvalidLink, "must look like Name:https://example.com")
	}
	u, err := r.url.Check(rawURL)
	if err != nil {
		return "", err
	}
	return name + ":" + u, nil
}

// SplitList splits a comma-separated value and drops blank items.
func SplitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
