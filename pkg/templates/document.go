package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// CatalogDocument is the raw, uncompiled form of a template catalog.
type CatalogDocument struct {
	Templates []Document      `mapstructure:"templates" json:"templates"`
	Themes    []ThemeDocument `mapstructure:"themes" json:"themes,omitempty"`
}

// Document is a single template as written in a catalog file.
type Document struct {
	ID              string               `mapstructure:"id" json:"id"`
	Name            string               `mapstructure:"name" json:"name"`
	Description     string               `mapstructure:"description" json:"description,omitempty"`
	Preview         string               `mapstructure:"preview" json:"preview,omitempty"`
	DefaultColors   map[string]string    `mapstructure:"default_colors" json:"default_colors,omitempty"`
	DefaultSections []string             `mapstructure:"default_sections" json:"default_sections,omitempty"`
	SectionsField   string               `mapstructure:"sections_field" json:"sections_field,omitempty"`
	Steps           []StepDocument       `mapstructure:"steps" json:"steps"`
	Derived         []DerivationDocument `mapstructure:"derived" json:"derived,omitempty"`
}

// StepDocument groups fields that are collected together.
type StepDocument struct {
	ID     string          `mapstructure:"id" json:"id"`
	Title  string          `mapstructure:"title" json:"title,omitempty"`
	Prompt string          `mapstructure:"prompt" json:"prompt,omitempty"`
	Fields []FieldDocument `mapstructure:"fields" json:"fields"`
}

// FieldDocument declares one field and the rule that validates it.
type FieldDocument struct {
	Name               string `mapstructure:"name" json:"name"`
	Label              string `mapstructure:"label" json:"label,omitempty"`
	Hint               string `mapstructure:"hint" json:"hint,omitempty"`
	validation.RuleRef `mapstructure:",squash"`
	Required           bool   `mapstructure:"required" json:"required,omitempty"`
	Default            string `mapstructure:"default" json:"default,omitempty"`
}

// DerivationDocument computes Target from Source when Target is empty.
type DerivationDocument struct {
	Target string `mapstructure:"target" json:"target"`
	Source string `mapstructure:"source" json:"source"`
	Using  string `mapstructure:"using" json:"using"`
}

// ThemeDocument is a named palette.
type ThemeDocument struct {
	ID        string `mapstructure:"id" json:"id"`
	Name      string `mapstructure:"name" json:"name"`
	Primary   string `mapstructure:"primary" json:"primary"`
	Secondary string `mapstructure:"secondary" json:"secondary"`
	Accent    string `mapstructure:"accent" json:"accent"`
}

// Format identifies a catalog encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromExt maps a file extension (with or without the dot) to a Format.
func FormatFromExt(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported catalog format %q", ext)
}

// DecodeCatalog parses data in the given format into a CatalogDocument.
func DecodeCatalog(data []byte, format Format) (*CatalogDocument, error) {
	raw := make(map[string]any)
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidTemplate, format, err)
	}

	var doc CatalogDocument
	if err := decodeMap(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTemplate, err)
	}
	return &doc, nil
}

// Decode maps a generic value, as produced by YAML, JSON or front-matter
// parsers, onto one of the document types.
func Decode(input any, output any) error {
	if err := decodeMap(input, output); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidTemplate, err)
	}
	return nil
}

// decodeMap maps a generic document onto a typed struct.
// Weak typing lets `default: 0` and `default: "0"` mean the same thing.
func decodeMap(input any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
