package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"golang.org/x/time/rate"
)

// OpenAIService is an OpenAI-compatible embeddings client. It works with
// any endpoint implementing POST /embeddings, including local servers.
// The purpose hint is ignored: the OpenAI API embeds documents and queries
// identically.
type OpenAIService struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EmbeddingService = (*OpenAIService)(nil)

// NewOpenAIService creates an OpenAI-compatible embedding service
func NewOpenAIService(config *common.EmbeddingsConfig, logger arbor.ILogger) (*OpenAIService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := config.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	timeout := 2 * time.Minute
	if d, err := time.ParseDuration(config.Timeout); err == nil && d > 0 {
		timeout = d
	}

	return &OpenAIService{
		baseURL:   baseURL,
		apiKey:    config.APIKey,
		model:     model,
		dimension: config.Dimension,
		client:    &http.Client{Timeout: timeout},
		limiter:   newLimiter(config.RateLimit),
		logger:    logger,
	}, nil
}

func (s *OpenAIService) ModelName() string { return s.model }
func (s *OpenAIService) Dimension() int    { return s.dimension }

func (s *OpenAIService) GenerateEmbeddings(ctx context.Context, texts []string, purpose string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := map[string]any{
		"input":      texts,
		"model":      s.model,
		"dimensions": s.dimension,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings request: %v", models.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: embeddings failed: %s: %s", models.ErrTransient, resp.Status, body)
		}
		return nil, fmt.Errorf("embeddings failed: %s: %s", resp.Status, body)
	}

	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d embeddings", models.ErrEmbeddingCountMismatch, len(texts), len(out.Data))
	}

	// The API may return data out of order; index is authoritative
	vectors := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings response index %d out of range", d.Index)
		}
		if len(d.Embedding) != s.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(d.Embedding))
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embeddings response missing vector for index %d", i)
		}
	}

	return vectors, nil
}
