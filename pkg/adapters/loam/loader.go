package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
	"github.com/aretw0/loam"
)

// Catalog adapts a Loam repository to ports.CatalogSource.
// Each document is one template: its front matter holds the steps and the
// Markdown body, when present, is the description. A document of kind
// "themes" contributes the palettes.
type Catalog struct {
	Repo *loam.TypedRepository[Metadata]
}

var _ ports.CatalogSource = (*Catalog)(nil)

// New creates a catalog over a typed Loam repository.
func New(repo *loam.TypedRepository[Metadata]) *Catalog {
	return &Catalog{Repo: repo}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number; the catalog never writes.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Metadata](repo)), nil
}

// LoadCatalog implements ports.CatalogSource. Templates are ordered by ID.
func (c *Catalog) LoadCatalog(ctx context.Context) (*templates.CatalogDocument, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	out := &templates.CatalogDocument{}
	seen := make(map[string]string)

	for _, doc := range docs {
		meta := doc.Data
		id := meta.ID
		if id == "" {
			id = doc.ID
		}
		id = trimExtension(id)

		if meta.Kind == KindThemes {
			var themes []templates.ThemeDocument
			if err := templates.Decode(meta.Themes, &themes); err != nil {
				return nil, fmt.Errorf("themes in %s: %w", doc.ID, err)
			}
			out.Themes = append(out.Themes, themes...)
			continue
		}
		if meta.Kind != "" && meta.Kind != KindTemplate {
			return nil, fmt.Errorf("document %s: unknown kind %q", doc.ID, meta.Kind)
		}

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		td, err := toDocument(id, meta, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", doc.ID, err)
		}
		out.Templates = append(out.Templates, td)
	}

	sort.Slice(out.Templates, func(i, j int) bool { return out.Templates[i].ID < out.Templates[j].ID })
	return out, nil
}

func toDocument(id string, meta Metadata, body string) (templates.Document, error) {
	td := templates.Document{
		ID:              id,
		Name:            meta.Name,
		Description:     meta.Description,
		Preview:         meta.Preview,
		DefaultColors:   meta.DefaultColors,
		DefaultSections: meta.DefaultSections,
	}
	if td.Description == "" {
		td.Description = strings.TrimSpace(body)
	}
	if err := templates.Decode(meta.Steps, &td.Steps); err != nil {
		return td, fmt.Errorf("steps: %w", err)
	}
	if len(meta.Derived) > 0 {
		if err := templates.Decode(meta.Derived, &td.Derived); err != nil {
			return td, fmt.Errorf("derived: %w", err)
		}
	}
	return td, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
