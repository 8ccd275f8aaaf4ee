package loam

// Kinds of catalog documents.
const (
	KindTemplate = "template"
	KindThemes   = "themes"
)

// Metadata is the front matter of a catalog document.
// Nested sections stay generic here and are decoded by the templates package,
// so front matter and catalog files share one set of rules.
type Metadata struct {
	ID              string            `json:"id" mapstructure:"id"`
	Kind            string            `json:"kind" mapstructure:"kind"`
	Name            string            `json:"name" mapstructure:"name"`
	Description     string            `json:"description" mapstructure:"description"`
	Preview         string            `json:"preview" mapstructure:"preview"`
	DefaultColors   map[string]string `json:"default_colors" mapstructure:"default_colors"`
	DefaultSections []string          `json:"default_sections" mapstructure:"default_sections"`
	Steps           []any             `json:"steps" mapstructure:"steps"`
	Derived         []any             `json:"derived" mapstructure:"derived"`

	// Themes is read from documents of kind "themes" only.
	Themes []any `json:"themes" mapstructure:"themes"`
}
