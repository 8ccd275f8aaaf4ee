package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
)

// Catalog implements ports.CatalogSource from in-memory template documents.
type Catalog struct {
	docs   map[string]templates.Document
	themes []templates.ThemeDocument
}

// NewCatalog creates a catalog from raw JSON template documents keyed by ID.
// The key overrides any id inside the document.
func NewCatalog(data map[string]string) (*Catalog, error) {
	docs := make(map[string]templates.Document, len(data))
	for id, raw := range data {
		var doc templates.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode template %s: %w", id, err)
		}
		doc.ID = id
		docs[id] = doc
	}
	return &Catalog{docs: docs}, nil
}

// NewFromDocuments creates a catalog from typed documents.
// This improves DX for tests.
func NewFromDocuments(docs ...templates.Document) (*Catalog, error) {
	m := make(map[string]templates.Document, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("template missing ID")
		}
		m[d.ID] = d
	}
	return &Catalog{docs: m}, nil
}

// WithThemes sets the theme palettes returned alongside the templates.
func (c *Catalog) WithThemes(themes ...templates.ThemeDocument) *Catalog {
	c.themes = append([]templates.ThemeDocument(nil), themes...)
	return c
}

// LoadCatalog returns the documents sorted by ID.
func (c *Catalog) LoadCatalog(ctx context.Context) (*templates.CatalogDocument, error) {
	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order

	out := &templates.CatalogDocument{Themes: append([]templates.ThemeDocument(nil), c.themes...)}
	for _, id := range ids {
		out.Templates = append(out.Templates, c.docs[id])
	}
	return out, nil
}
