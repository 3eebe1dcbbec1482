package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// TextLoader reads plain text files as a single segment
type TextLoader struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentLoader = (*TextLoader)(nil)

// NewTextLoader creates a new plain text loader
func NewTextLoader(logger arbor.ILogger) *TextLoader {
	return &TextLoader{logger: logger}
}

func (l *TextLoader) Supports(docType string) bool {
	return docType == models.DocumentTypeTXT
}

func (l *TextLoader) Load(ctx context.Context, path string) ([]models.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	return []models.Segment{{Text: string(data)}}, nil
}
