package loader

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// Registry picks the loader for a document type.
type Registry struct {
	loaders []interfaces.DocumentLoader
}

// NewRegistry creates a registry with the standard loaders.
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		loaders: []interfaces.DocumentLoader{
			NewPDFLoader(logger),
			NewTextLoader(logger),
		},
	}
}

// ForType returns the loader that handles the document type.
func (r *Registry) ForType(docType string) (interfaces.DocumentLoader, error) {
	for _, l := range r.loaders {
		if l.Supports(docType) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: no loader for document type %q", models.ErrValidation, docType)
}
