package interfaces

import "context"

// Embedding purposes. Some providers use a different task type for
// documents than for queries.
const (
	EmbeddingPurposeDocument = "document"
	EmbeddingPurposeQuery    = "query"
)

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// GenerateEmbeddings embeds a batch of texts in one provider call.
	// The result has one vector per input text, in input order.
	GenerateEmbeddings(ctx context.Context, texts []string, purpose string) ([][]float32, error)

	// Get model information
	ModelName() string
	Dimension() int
}
