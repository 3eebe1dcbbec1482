package evidence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/models"
)

// mockVectorStore implements interfaces.VectorStore for testing
type mockVectorStore struct {
	createCollectionFunc func(ctx context.Context, name string, dimension int, reset bool) error
	deleteCollectionFunc func(ctx context.Context, name string) error
	collectionInfoFunc   func(ctx context.Context, name string) (*models.CollectionInfo, error)
	insertManyFunc       func(ctx context.Context, name string, ids, texts []string, metadata []map[string]interface{}, vectors [][]float32) error
	searchByVectorFunc   func(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error)
	deleteByIDsFunc      func(ctx context.Context, name string, ids []string) error
}

func (m *mockVectorStore) CreateCollection(ctx context.Context, name string, dimension int, reset bool) error {
	if m.createCollectionFunc != nil {
		return m.createCollectionFunc(ctx, name, dimension, reset)
	}
	return nil
}

func (m *mockVectorStore) DeleteCollection(ctx context.Context, name string) error {
	if m.deleteCollectionFunc != nil {
		return m.deleteCollectionFunc(ctx, name)
	}
	return nil
}

func (m *mockVectorStore) CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error) {
	if m.collectionInfoFunc != nil {
		return m.collectionInfoFunc(ctx, name)
	}
	return &models.CollectionInfo{Name: name, Exists: true, RowCount: 1}, nil
}

func (m *mockVectorStore) InsertMany(ctx context.Context, name string, ids, texts []string, metadata []map[string]interface{}, vectors [][]float32) error {
	if m.insertManyFunc != nil {
		return m.insertManyFunc(ctx, name, ids, texts, metadata, vectors)
	}
	return nil
}

func (m *mockVectorStore) SearchByVector(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error) {
	if m.searchByVectorFunc != nil {
		return m.searchByVectorFunc(ctx, name, vector, limit)
	}
	return nil, nil
}

func (m *mockVectorStore) DeleteByIDs(ctx context.Context, name string, ids []string) error {
	if m.deleteByIDsFunc != nil {
		return m.deleteByIDsFunc(ctx, name, ids)
	}
	return nil
}

func (m *mockVectorStore) Name() string { return "mock" }
func (m *mockVectorStore) Close() error { return nil }

// mockEmbedder implements interfaces.EmbeddingService for testing
type mockEmbedder struct {
	generateFunc func(ctx context.Context, texts []string, purpose string) ([][]float32, error)
	dimension    int
}

func (m *mockEmbedder) GenerateEmbeddings(ctx context.Context, texts []string, purpose string) ([][]float32, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, texts, purpose)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, m.Dimension())
		vectors[i][0] = 1
	}
	return vectors, nil
}

func (m *mockEmbedder) ModelName() string { return "mock-embedder" }

func (m *mockEmbedder) Dimension() int {
	if m.dimension > 0 {
		return m.dimension
	}
	return 3
}

func testTopic() *models.Topic {
	return &models.Topic{ID: "topic_1", Name: "Climate Science"}
}

func TestIndex_EmptyChunksIsNoop(t *testing.T) {
	called := false
	vectors := &mockVectorStore{
		insertManyFunc: func(ctx context.Context, name string, ids, texts []string, metadata []map[string]interface{}, vecs [][]float32) error {
			called = true
			return nil
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	require.NoError(t, svc.Index(context.Background(), testTopic(), nil, false))
	assert.False(t, called)
}

func TestIndex_DerivesCollectionNameAndMetadata(t *testing.T) {
	var gotName string
	var gotMetadata []map[string]interface{}
	vectors := &mockVectorStore{
		insertManyFunc: func(ctx context.Context, name string, ids, texts []string, metadata []map[string]interface{}, vecs [][]float32) error {
			gotName = name
			gotMetadata = metadata
			return nil
		},
	}
	svc := NewService(vectors, &mockEmbedder{dimension: 3}, 0.5, arbor.NewLogger())

	page := 2
	chunks := []*models.Chunk{
		{ID: "chunk_1", Text: "some evidence", Order: 1, PageNumber: &page, DocumentID: "doc_1", TopicID: "topic_1"},
	}
	require.NoError(t, svc.Index(context.Background(), testTopic(), chunks, false))

	assert.Equal(t, "cv_3_climate_science", gotName)
	require.Len(t, gotMetadata, 1)
	assert.Equal(t, "chunk_1", gotMetadata[0]["chunk_id"])
	assert.Equal(t, "doc_1", gotMetadata[0]["document_id"])
	assert.Equal(t, 2, gotMetadata[0]["page_number"])
}

func TestIndex_EmbeddingCountMismatchAborts(t *testing.T) {
	inserted := false
	vectors := &mockVectorStore{
		insertManyFunc: func(ctx context.Context, name string, ids, texts []string, metadata []map[string]interface{}, vecs [][]float32) error {
			inserted = true
			return nil
		},
	}
	embedder := &mockEmbedder{
		generateFunc: func(ctx context.Context, texts []string, purpose string) ([][]float32, error) {
			return [][]float32{{1, 0, 0}}, nil // one vector for two chunks
		},
	}
	svc := NewService(vectors, embedder, 0.5, arbor.NewLogger())

	chunks := []*models.Chunk{
		{ID: "chunk_1", Text: "a"},
		{ID: "chunk_2", Text: "b"},
	}
	err := svc.Index(context.Background(), testTopic(), chunks, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmbeddingCountMismatch)
	assert.False(t, inserted)
}

func TestSearch_MissingCollection(t *testing.T) {
	vectors := &mockVectorStore{
		collectionInfoFunc: func(ctx context.Context, name string) (*models.CollectionInfo, error) {
			return &models.CollectionInfo{Name: name, Exists: false}, nil
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	_, err := svc.Search(context.Background(), testTopic(), "anything", 10)
	assert.ErrorIs(t, err, models.ErrNoEvidence)
}

func TestSearch_EmptyCollection(t *testing.T) {
	vectors := &mockVectorStore{
		collectionInfoFunc: func(ctx context.Context, name string) (*models.CollectionInfo, error) {
			return &models.CollectionInfo{Name: name, Exists: true, RowCount: 0}, nil
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	_, err := svc.Search(context.Background(), testTopic(), "anything", 10)
	assert.ErrorIs(t, err, models.ErrNoEvidence)
}

func TestSearch_BackendNotFoundBecomesNoEvidence(t *testing.T) {
	vectors := &mockVectorStore{
		searchByVectorFunc: func(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error) {
			return nil, models.ErrNotFound
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	_, err := svc.Search(context.Background(), testTopic(), "anything", 10)
	assert.ErrorIs(t, err, models.ErrNoEvidence)
}

func TestSearch_MapsMatchMetadata(t *testing.T) {
	vectors := &mockVectorStore{
		searchByVectorFunc: func(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error) {
			return []models.VectorMatch{
				{
					ID:    "chunk_1",
					Score: 0.9,
					Text:  "warming is accelerating",
					Metadata: map[string]interface{}{
						"document_id": "doc_1",
						"topic_id":    "topic_1",
						"page_number": float64(4), // JSON round-trip produces float64
						"section":     "results",
					},
				},
			}, nil
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	results, err := svc.Search(context.Background(), testTopic(), "warming", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	ev := results[0]
	assert.Equal(t, "chunk_1", ev.ChunkID)
	assert.Equal(t, "doc_1", ev.DocumentID)
	assert.Equal(t, "results", ev.Section)
	require.NotNil(t, ev.PageNumber)
	assert.Equal(t, 4, *ev.PageNumber)
}

func TestVerifyClaim_PartitionsByThreshold(t *testing.T) {
	vectors := &mockVectorStore{
		searchByVectorFunc: func(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error) {
			return []models.VectorMatch{
				{ID: "chunk_hi", Score: 0.73, Text: "strongly related"},
				{ID: "chunk_lo", Score: 0.40, Text: "barely related"},
			}, nil
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	verification, err := svc.VerifyClaim(context.Background(), testTopic(), "the claim", 10)
	require.NoError(t, err)

	assert.Equal(t, "the claim", verification.Claim)
	require.Len(t, verification.Supporting, 1)
	require.Len(t, verification.Refuting, 1)
	assert.Equal(t, "chunk_hi", verification.Supporting[0].ChunkID)
	assert.Equal(t, "chunk_lo", verification.Refuting[0].ChunkID)
}

func TestVerifyClaim_NoEvidenceIsEmptyVerification(t *testing.T) {
	vectors := &mockVectorStore{
		collectionInfoFunc: func(ctx context.Context, name string) (*models.CollectionInfo, error) {
			return &models.CollectionInfo{Name: name, Exists: false}, nil
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	verification, err := svc.VerifyClaim(context.Background(), testTopic(), "the claim", 10)
	require.NoError(t, err)

	assert.NotNil(t, verification.Supporting)
	assert.NotNil(t, verification.Refuting)
	assert.Empty(t, verification.Supporting)
	assert.Empty(t, verification.Refuting)
}

func TestDeleteVectors_SwallowsMissingCollection(t *testing.T) {
	vectors := &mockVectorStore{
		deleteByIDsFunc: func(ctx context.Context, name string, ids []string) error {
			return models.ErrNotFound
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	assert.NoError(t, svc.DeleteVectors(context.Background(), testTopic(), []string{"chunk_1"}))
}

func TestDeleteVectors_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("backend down")
	vectors := &mockVectorStore{
		deleteByIDsFunc: func(ctx context.Context, name string, ids []string) error {
			return boom
		},
	}
	svc := NewService(vectors, &mockEmbedder{}, 0.5, arbor.NewLogger())

	err := svc.DeleteVectors(context.Background(), testTopic(), []string{"chunk_1"})
	assert.ErrorIs(t, err, boom)
}
