package tests

import (
	"context"
	"testing"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
)

// CatalogSourceContractTest verifies that a CatalogSource yields a catalog that
// compiles and contains exactly wantIDs, in any order.
func CatalogSourceContractTest(t *testing.T, src ports.CatalogSource, wantIDs []string) {
	t.Helper()
	ctx := context.Background()

	doc, err := src.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("unexpected error loading catalog: %v", err)
	}

	t.Run("Compiles", func(t *testing.T) {
		if _, err := templates.Build(doc); err != nil {
			t.Fatalf("catalog does not compile: %v", err)
		}
	})

	t.Run("Templates", func(t *testing.T) {
		if len(doc.Templates) != len(wantIDs) {
			t.Errorf("expected %d templates, got %d", len(wantIDs), len(doc.Templates))
		}
		lookup := make(map[string]bool)
		for _, d := range doc.Templates {
			lookup[d.ID] = true
		}
		for _, id := range wantIDs {
			if !lookup[id] {
				t.Errorf("expected template %s not found in catalog", id)
			}
		}
	})

	t.Run("Stable", func(t *testing.T) {
		again, err := src.LoadCatalog(ctx)
		if err != nil {
			t.Fatalf("second load failed: %v", err)
		}
		if len(again.Templates) != len(doc.Templates) {
			t.Errorf("second load returned %d templates, first returned %d", len(again.Templates), len(doc.Templates))
		}
	})
}
