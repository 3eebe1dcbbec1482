package interfaces

import (
	"context"

	"github.com/ternarybob/citatum/internal/models"
)

// DocumentLoader extracts text segments from a stored file. One loader per
// document type; the ingest pipeline picks by type.
type DocumentLoader interface {
	// Load reads the file at path and returns its text as segments:
	// one per page for PDFs, a single segment for plain text.
	Load(ctx context.Context, path string) ([]models.Segment, error)

	// Supports reports whether this loader handles the document type.
	Supports(docType string) bool
}
