// -----------------------------------------------------------------------
// PDF Loader - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// PDFLoader extracts per-page text segments using pdfcpu
type PDFLoader struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.DocumentLoader = (*PDFLoader)(nil)

// NewPDFLoader creates a new PDF loader
func NewPDFLoader(logger arbor.ILogger) *PDFLoader {
	// Create a temp directory for PDF processing
	tempDir := filepath.Join(os.TempDir(), "citatum-pdf")
	os.MkdirAll(tempDir, 0755)

	return &PDFLoader{
		logger:  logger,
		tempDir: tempDir,
	}
}

func (l *PDFLoader) Supports(docType string) bool {
	return docType == models.DocumentTypePDF
}

// Load extracts text page by page, one segment per page. Pages pdfcpu
// cannot extract come back as empty segments rather than failing the
// whole document.
func (l *PDFLoader) Load(ctx context.Context, path string) ([]models.Segment, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	// pdfcpu extracts content to files, so work through a scratch dir
	outDir := filepath.Join(l.tempDir, fmt.Sprintf("pages_%s", uuid.New().String()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	pageTexts := make(map[int]string)
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		l.logger.Warn().Err(err).Str("path", path).Msg("Failed to extract PDF content, returning empty pages")
	} else {
		files, _ := os.ReadDir(outDir)
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
			if err != nil {
				continue
			}
			var pageNum int
			if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
				pageTexts[pageNum] = string(content)
			} else if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
				pageTexts[pageNum] = string(content)
			}
		}
	}

	segments := make([]models.Segment, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		page := pageNum
		segments = append(segments, models.Segment{
			Text:       pageTexts[pageNum],
			PageNumber: &page,
		})
	}

	return segments, nil
}
