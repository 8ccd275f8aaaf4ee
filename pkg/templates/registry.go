package templates

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/validation"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Theme is a named color palette.
type Theme struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// Registry is a read-only catalog of templates and themes.
// It is safe for concurrent use.
type Registry struct {
	templates  map[string]*Definition
	order      []string
	themes     map[string]Theme
	themeOrder []string
}

// New builds a registry from compiled definitions and themes.
func New(defs []*Definition, themes []Theme) (*Registry, error) {
	r := &Registry{
		templates: make(map[string]*Definition, len(defs)),
		themes:    make(map[string]Theme, len(themes)),
	}
	for _, d := range defs {
		if _, dup := r.templates[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate template id %q", domain.ErrInvalidTemplate, d.ID)
		}
		r.templates[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	for _, t := range themes {
		if _, dup := r.themes[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate theme id %q", domain.ErrInvalidTemplate, t.ID)
		}
		r.themes[t.ID] = t
		r.themeOrder = append(r.themeOrder, t.ID)
	}
	return r, nil
}

var (
	builtinOnce sync.Once
	builtinReg  *Registry
	builtinErr  error
)

// Builtin returns the embedded catalog (memecoin, nft, defi).
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtinReg, builtinErr = Parse(builtinCatalog, FormatYAML)
	})
	return builtinReg, builtinErr
}

// MustBuiltin is like Builtin but panics on error. The embedded catalog is
// covered by tests, so a failure here is a build defect.
func MustBuiltin() *Registry {
	r, err := Builtin()
	if err != nil {
		panic(err)
	}
	return r
}

// Parse decodes and compiles a catalog. A catalog that declares no themes
// inherits the built-in palettes.
func Parse(data []byte, format Format) (*Registry, error) {
	doc, err := DecodeCatalog(data, format)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Build compiles a decoded catalog document.
func Build(doc *CatalogDocument) (*Registry, error) {
	if len(doc.Templates) == 0 {
		return nil, fmt.Errorf("%w: catalog has no templates", domain.ErrInvalidTemplate)
	}

	themes, err := compileThemes(doc.Themes)
	if err != nil {
		return nil, err
	}
	if len(themes) == 0 && len(builtinCatalog) > 0 {
		base, err := DecodeCatalog(builtinCatalog, FormatYAML)
		if err != nil {
			return nil, err
		}
		if themes, err = compileThemes(base.Themes); err != nil {
			return nil, err
		}
	}

	defs := make([]*Definition, 0, len(doc.Templates))
	for _, td := range doc.Templates {
		def, err := Compile(td)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return New(defs, themes)
}

func compileThemes(docs []ThemeDocument) ([]Theme, error) {
	color, _ := validation.Compile(validation.RuleRef{Name: "hex_color"})
	out := make([]Theme, 0, len(docs))
	for _, td := range docs {
		if td.ID == "" {
			return nil, fmt.Errorf("%w: theme without id", domain.ErrInvalidTemplate)
		}
		t := Theme{ID: td.ID, Name: td.Name}
		for _, c := range []struct {
			dst *string
			src string
		}{{&t.Primary, td.Primary}, {&t.Secondary, td.Secondary}, {&t.Accent, td.Accent}} {
			normalized, v := validation.ValidateField(color, c.src)
			if v != nil {
				return nil, fmt.Errorf("%w: theme %q: %s", domain.ErrInvalidTemplate, td.ID, v.Reason)
			}
			*c.dst = normalized
		}
		if t.Name == "" {
			t.Name = t.ID
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadFile reads a YAML, JSON or TOML catalog from disk.
func LoadFile(path string) (*Registry, error) {
	format, err := FormatFromExt(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, format)
}

// Get returns a template by ID.
func (r *Registry) Get(id string) (*Definition, error) {
	d, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrTemplateNotFound, id)
	}
	return d, nil
}

// List returns template summaries in catalog order.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id].Summary())
	}
	return out
}

// IDs returns the template IDs in catalog order.
func (r *Registry) IDs() []string { return append([]string(nil), r.order...) }

// Themes returns the palettes in catalog order.
func (r *Registry) Themes() []Theme {
	out := make([]Theme, 0, len(r.themeOrder))
	for _, id := range r.themeOrder {
		out = append(out, r.themes[id])
	}
	return out
}

// Theme returns a palette by ID.
func (r *Registry) Theme(id string) (Theme, bool) {
	t, ok := r.themes[id]
	return t, ok
}

// Resolve expands the fields of a session for generation.
func (r *Registry) Resolve(templateID string, fields map[string]string) (map[string]string, error) {
	d, err := r.Get(templateID)
	if err != nil {
		return nil, err
	}
	return d.Resolve(fields, r.themes), nil
}
