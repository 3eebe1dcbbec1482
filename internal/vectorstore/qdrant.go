package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// QdrantStore is a minimal REST client to Qdrant. Collections use cosine
// distance, for which Qdrant already returns higher-is-better scores, and
// Qdrant's HNSW graph is built incrementally as points arrive. Point ids
// must be UUIDs, so the chunk id is carried in the payload and the point id
// is derived from it.
type QdrantStore struct {
	url    string
	apiKey string
	client *http.Client
	logger arbor.ILogger
}

// NewQdrantStore creates the Qdrant backend from configuration.
func NewQdrantStore(config *common.QdrantConfig, logger arbor.ILogger) *QdrantStore {
	timeout := 30 * time.Second
	if d, err := time.ParseDuration(config.Timeout); err == nil && d > 0 {
		timeout = d
	}
	return &QdrantStore{
		url:    config.URL,
		apiKey: config.APIKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (s *QdrantStore) Name() string { return "qdrant" }

// pointID maps a chunk id to a deterministic UUID accepted by Qdrant.
func pointID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func (s *QdrantStore) CreateCollection(ctx context.Context, name string, dimension int, reset bool) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", models.ErrValidation)
	}

	info, err := s.CollectionInfo(ctx, name)
	if err != nil {
		return err
	}
	if info.Exists {
		if info.Dimension != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d", models.ErrValidation, name, info.Dimension, dimension)
		}
		if !reset {
			return nil
		}
		if err := s.DeleteCollection(ctx, name); err != nil {
			return err
		}
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", name), body, nil)
}

func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", name), nil, nil)
	if err != nil && isQdrantNotFound(err) {
		return nil
	}
	return err
}

func (s *QdrantStore) CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", name), nil, &resp)
	if err != nil {
		if isQdrantNotFound(err) {
			return &models.CollectionInfo{Name: name, Exists: false}, nil
		}
		return nil, err
	}
	return &models.CollectionInfo{
		Name:      name,
		Exists:    true,
		RowCount:  resp.Result.PointsCount,
		Dimension: resp.Result.Config.Params.Vectors.Size,
	}, nil
}

func (s *QdrantStore) InsertMany(ctx context.Context, name string, ids []string, texts []string, metadata []map[string]interface{}, vectors [][]float32) error {
	n := len(ids)
	if len(texts) != n || len(metadata) != n || len(vectors) != n {
		return fmt.Errorf("%w: ids=%d texts=%d metadata=%d vectors=%d", models.ErrArgumentMismatch, n, len(texts), len(metadata), len(vectors))
	}

	points := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		payload := map[string]any{
			"chunk_id": ids[i],
			"text":     texts[i],
		}
		for k, v := range metadata[i] {
			payload[k] = v
		}
		points[i] = map[string]any{
			"id":      pointID(ids[i]),
			"vector":  vectors[i],
			"payload": payload,
		}
	}

	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", name), body, nil)
}

func (s *QdrantStore) SearchByVector(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", name), req, &resp)
	if err != nil {
		if isQdrantNotFound(err) {
			return nil, fmt.Errorf("%w: collection %s", models.ErrNotFound, name)
		}
		return nil, err
	}

	matches := make([]models.VectorMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		match := models.VectorMatch{
			Score:    r.Score,
			Metadata: r.Payload,
		}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			match.ID = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			match.Text = v
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (s *QdrantStore) DeleteByIDs(ctx context.Context, name string, ids []string) error {
	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = pointID(id)
	}
	body := map[string]any{"points": points}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", name), body, nil)
	if err != nil && isQdrantNotFound(err) {
		return nil
	}
	return err
}

func (s *QdrantStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// qdrantError carries the HTTP status so callers can map 404s.
type qdrantError struct {
	status int
	body   string
}

func (e *qdrantError) Error() string {
	return fmt.Sprintf("qdrant request failed: status %d: %s", e.status, e.body)
}

func isQdrantNotFound(err error) bool {
	qe, ok := err.(*qdrantError)
	return ok && qe.status == http.StatusNotFound
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s %s: %v", models.ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &qdrantError{status: resp.StatusCode, body: string(data)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}
	return nil
}

var _ interfaces.VectorStore = (*QdrantStore)(nil)
