package templates

import (
	"fmt"
	"strings"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/validation"
)

// Step is a compiled group of fields presented to the user together.
type Step struct {
	ID     string
	Title  string
	Prompt string
	Fields []validation.FieldSpec
}

// Derivation fills Target from Source using a named function.
type Derivation struct {
	Target string
	Source string
	Using  string
}

// Definition is an immutable, compiled template.
type Definition struct {
	ID              string
	Name            string
	Description     string
	Preview         string
	DefaultColors   map[string]string
	DefaultSections []string
	SectionsField   string
	Steps           []Step
	Derived         []Derivation

	fields []validation.FieldSpec
	owner  map[string]int
}

// Summary is the listing view of a template.
type Summary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Preview     string   `json:"preview,omitempty"`
	Steps       int      `json:"steps"`
	Required    []string `json:"required"`
}

// Compile validates a document and produces a Definition.
// Unknown rules, duplicate or empty fields, empty steps, unknown derivations
// and defaults that fail their own rule are all rejected.
func Compile(doc Document) (*Definition, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return nil, fmt.Errorf("%w: template id is required", domain.ErrInvalidTemplate)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("%w: template %q has no steps", domain.ErrInvalidTemplate, doc.ID)
	}

	def := &Definition{
		ID:              doc.ID,
		Name:            doc.Name,
		Description:     doc.Description,
		Preview:         doc.Preview,
		DefaultColors:   copyStrings(doc.DefaultColors),
		DefaultSections: append([]string(nil), doc.DefaultSections...),
		SectionsField:   doc.SectionsField,
		owner:           make(map[string]int),
	}
	if def.Name == "" {
		def.Name = doc.ID
	}

	for i, sd := range doc.Steps {
		if len(sd.Fields) == 0 {
			return nil, fmt.Errorf("%w: template %q step %d has no fields", domain.ErrInvalidTemplate, doc.ID, i)
		}
		step := Step{ID: sd.ID, Title: sd.Title, Prompt: sd.Prompt}
		if step.ID == "" {
			step.ID = fmt.Sprintf("step%d", i+1)
		}

		for _, fd := range sd.Fields {
			spec, err := compileField(doc.ID, fd)
			if err != nil {
				return nil, err
			}
			if _, dup := def.owner[spec.Name]; dup {
				return nil, fmt.Errorf("%w: template %q declares field %q twice", domain.ErrInvalidTemplate, doc.ID, spec.Name)
			}
			def.owner[spec.Name] = i
			def.fields = append(def.fields, spec)
			step.Fields = append(step.Fields, spec)
		}
		def.Steps = append(def.Steps, step)
	}

	if def.SectionsField != "" {
		spec, ok := def.Field(def.SectionsField)
		if !ok {
			return nil, fmt.Errorf("%w: template %q: sections field %q is not declared", domain.ErrInvalidTemplate, doc.ID, def.SectionsField)
		}
		if _, ok := spec.Rule.(*validation.SectionsRule); !ok {
			return nil, fmt.Errorf("%w: template %q: sections field %q must use the sections rule", domain.ErrInvalidTemplate, doc.ID, def.SectionsField)
		}
	}

	for _, dd := range doc.Derived {
		if _, ok := derivers[dd.Using]; !ok {
			return nil, fmt.Errorf("%w: template %q: unknown derivation %q", domain.ErrInvalidTemplate, doc.ID, dd.Using)
		}
		if !def.Declares(dd.Source) {
			return nil, fmt.Errorf("%w: template %q: derivation %q reads undeclared field %q", domain.ErrInvalidTemplate, doc.ID, dd.Target, dd.Source)
		}
		if dd.Target == "" {
			return nil, fmt.Errorf("%w: template %q: derivation without target", domain.ErrInvalidTemplate, doc.ID)
		}
		def.Derived = append(def.Derived, Derivation(dd))
	}

	return def, nil
}

func compileField(templateID string, fd FieldDocument) (validation.FieldSpec, error) {
	if strings.TrimSpace(fd.Name) == "" {
		return validation.FieldSpec{}, fmt.Errorf("%w: template %q has a field without a name", domain.ErrInvalidTemplate, templateID)
	}
	rule, err := validation.Compile(fd.RuleRef)
	if err != nil {
		return validation.FieldSpec{}, fmt.Errorf("%w: template %q field %q: %v", domain.ErrInvalidTemplate, templateID, fd.Name, err)
	}

	spec := validation.FieldSpec{
		Name:     fd.Name,
		Label:    fd.Label,
		Hint:     fd.Hint,
		Rule:     rule,
		Required: fd.Required,
	}
	if spec.Label == "" {
		spec.Label = fd.Name
	}
	if fd.Default != "" {
		normalized, v := validation.ValidateField(rule, fd.Default)
		if v != nil {
			return validation.FieldSpec{}, fmt.Errorf("%w: template %q field %q: default %q %s", domain.ErrInvalidTemplate, templateID, fd.Name, fd.Default, v.Reason)
		}
		spec.Default = normalized
	}
	return spec, nil
}

// StepCount returns the number of steps.
func (d *Definition) StepCount() int { return len(d.Steps) }

// Step returns step i, if it exists.
func (d *Definition) Step(i int) (Step, bool) {
	if i < 0 || i >= len(d.Steps) {
		return Step{}, false
	}
	return d.Steps[i], true
}

// StepFor returns the index of the step that owns field name.
func (d *Definition) StepFor(name string) (int, bool) {
	i, ok := d.owner[name]
	return i, ok
}

// Declares reports whether name is a field of this template.
func (d *Definition) Declares(name string) bool {
	_, ok := d.owner[name]
	return ok
}

// Field returns the spec for name.
func (d *Definition) Field(name string) (validation.FieldSpec, bool) {
	i, ok := d.owner[name]
	if !ok {
		return validation.FieldSpec{}, false
	}
	for _, f := range d.Steps[i].Fields {
		if f.Name == name {
			return f, true
		}
	}
	return validation.FieldSpec{}, false
}

// Fields returns every field spec in declaration order.
func (d *Definition) Fields() []validation.FieldSpec {
	return append([]validation.FieldSpec(nil), d.fields...)
}

// Required returns the names of the required fields in declaration order.
func (d *Definition) Required() []string {
	var out []string
	for _, f := range d.fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// StepComplete reports whether every field of step i has a recorded value.
// Recorded values may be empty: a skipped optional field still counts.
func (d *Definition) StepComplete(i int, fields map[string]string) bool {
	step, ok := d.Step(i)
	if !ok {
		return false
	}
	for _, f := range step.Fields {
		if _, ok := fields[f.Name]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the fields of step i that have no recorded value.
func (d *Definition) Missing(i int, fields map[string]string) []validation.FieldSpec {
	step, ok := d.Step(i)
	if !ok {
		return nil
	}
	var out []validation.FieldSpec
	for _, f := range step.Fields {
		if _, ok := fields[f.Name]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Sections returns the page layout chosen in fields, or the default layout
// when the user kept it.
func (d *Definition) Sections(fields map[string]string) []string {
	if d.SectionsField != "" {
		if chosen := validation.SplitList(fields[d.SectionsField]); len(chosen) > 0 {
			return chosen
		}
	}
	return append([]string(nil), d.DefaultSections...)
}

// Validate re-checks a complete field map against every rule.
func (d *Definition) Validate(fields map[string]string) []domain.FieldError {
	return validation.ValidateSession(d.fields, fields)
}

// Summary returns the listing view.
func (d *Definition) Summary() Summary {
	return Summary{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Preview:     d.Preview,
		Steps:       len(d.Steps),
		Required:    d.Required(),
	}
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
