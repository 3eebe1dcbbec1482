package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService generates embeddings through the Gemini API. Calls go
// through a rate limiter so batch ingestion stays inside provider quotas.
type GeminiService struct {
	client    *genai.Client
	model     string
	dimension int
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EmbeddingService = (*GeminiService)(nil)

// NewGeminiService creates a Gemini embedding service
func NewGeminiService(ctx context.Context, config *common.EmbeddingsConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	timeout := 2 * time.Minute
	if d, err := time.ParseDuration(config.Timeout); err == nil && d > 0 {
		timeout = d
	}

	return &GeminiService{
		client:    client,
		model:     config.Model,
		dimension: config.Dimension,
		timeout:   timeout,
		limiter:   newLimiter(config.RateLimit),
		logger:    logger,
	}, nil
}

func (s *GeminiService) ModelName() string { return s.model }
func (s *GeminiService) Dimension() int    { return s.dimension }

// GenerateEmbeddings embeds all texts in a single API call, preserving
// input order. Each returned vector is validated against the configured
// dimension.
func (s *GeminiService) GenerateEmbeddings(ctx context.Context, texts []string, purpose string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputDim := int32(s.dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
		TaskType:             taskType(purpose),
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := s.client.Models.EmbedContent(ctx, s.model, contents, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding generation failed: %v", models.ErrTransient, err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("%w: sent %d texts, got %d embeddings", models.ErrEmbeddingCountMismatch, len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) != s.dimension {
			got := 0
			if emb != nil {
				got = len(emb.Values)
			}
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, got)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

// taskType maps the embedding purpose to Gemini's task type hint.
func taskType(purpose string) string {
	if purpose == interfaces.EmbeddingPurposeQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}
