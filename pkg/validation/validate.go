package validation

import (
	"errors"
	"sort"
	"strings"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
)

// SkipKeyword lets a user leave an optional field at its default.
const SkipKeyword = "skip"

// FieldSpec is a compiled field declaration.
type FieldSpec struct {
	Name     string
	Label    string
	Hint     string
	Rule     Rule
	Required bool
	Default  string
}

// Choices returns the options of a choice rule, or nil.
func (f FieldSpec) Choices() []string {
	if c, ok := f.Rule.(*ChoiceRule); ok {
		return c.Options()
	}
	return nil
}

// ValidateField runs a single rule. It returns the normalized value or the
// rule's violation.
func ValidateField(rule Rule, value string) (string, *Violation) {
	normalized, err := rule.Check(value)
	if err == nil {
		return normalized, nil
	}
	var v *Violation
	if errors.As(err, &v) {
		return "", v
	}
	return "", &Violation{Code: "invalid", Reason: err.Error()}
}

// IsSkip reports whether the raw input asks to leave the field empty.
func IsSkip(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, SkipKeyword)
}

// CheckField validates a submission for spec. Blank input or the skip keyword
// yields the default for optional fields and a "required" error otherwise.
func CheckField(spec FieldSpec, value string) (string, *domain.FieldError) {
	if IsSkip(value) {
		if spec.Required {
			return "", &domain.FieldError{Field: spec.Name, Code: CodeRequired, Reason: "is required"}
		}
		return spec.Default, nil
	}

	normalized, v := ValidateField(spec.Rule, value)
	if v != nil {
		return "", &domain.FieldError{Field: spec.Name, Code: v.Code, Reason: v.Reason}
	}
	return normalized, nil
}

// ValidateSession re-runs every rule over fields, reports missing required
// fields and keys that no spec declares. The result is ordered by spec order,
// followed by undeclared keys sorted by name. An empty result means valid.
func ValidateSession(specs []FieldSpec, fields map[string]string) []domain.FieldError {
	var errs []domain.FieldError
	declared := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		declared[spec.Name] = struct{}{}

		value, ok := fields[spec.Name]
		if !ok || value == "" {
			if spec.Required {
				errs = append(errs, domain.FieldError{Field: spec.Name, Code: CodeRequired, Reason: "is required"})
			}
			continue
		}

		if _, v := ValidateField(spec.Rule, value); v != nil {
			errs = append(errs, domain.FieldError{Field: spec.Name, Code: v.Code, Reason: v.Reason})
		}
	}

	var undeclared []string
	for name := range fields {
		if _, ok := declared[name]; !ok {
			undeclared = append(undeclared, name)
		}
	}
	sort.Strings(undeclared)
	for _, name := range undeclared {
		errs = append(errs, domain.FieldError{Field: name, Code: CodeUndeclared, Reason: "is not declared by the template"})
	}

	return errs
}
