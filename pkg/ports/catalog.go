package ports

import (
	"context"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/templates"
)

// CatalogSource supplies template documents to be compiled into a registry.
type CatalogSource interface {
	// LoadCatalog returns the raw catalog. Compilation errors are the caller's concern.
	LoadCatalog(ctx context.Context) (*templates.CatalogDocument, error)
}
