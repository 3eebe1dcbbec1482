package deletion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	badgerstore "github.com/ternarybob/citatum/internal/storage/badger"
	"github.com/ternarybob/citatum/internal/storage/blob"
)

type mockEvidence struct {
	deleteVectorsFunc    func(ctx context.Context, topic *models.Topic, chunkIDs []string) error
	deleteCollectionFunc func(ctx context.Context, topic *models.Topic) error
}

func (m *mockEvidence) Index(ctx context.Context, topic *models.Topic, chunks []*models.Chunk, reset bool) error {
	return nil
}

func (m *mockEvidence) Search(ctx context.Context, topic *models.Topic, query string, limit int) ([]models.RetrievedEvidence, error) {
	return nil, models.ErrNoEvidence
}

func (m *mockEvidence) VerifyClaim(ctx context.Context, topic *models.Topic, claim string, limit int) (*models.ClaimVerification, error) {
	return nil, models.ErrNoEvidence
}

func (m *mockEvidence) CollectionInfo(ctx context.Context, topic *models.Topic) (*models.CollectionInfo, error) {
	return &models.CollectionInfo{}, nil
}

func (m *mockEvidence) ResetCollection(ctx context.Context, topic *models.Topic) error {
	return nil
}

func (m *mockEvidence) DeleteVectors(ctx context.Context, topic *models.Topic, chunkIDs []string) error {
	if m.deleteVectorsFunc != nil {
		return m.deleteVectorsFunc(ctx, topic, chunkIDs)
	}
	return nil
}

func (m *mockEvidence) DeleteCollection(ctx context.Context, topic *models.Topic) error {
	if m.deleteCollectionFunc != nil {
		return m.deleteCollectionFunc(ctx, topic)
	}
	return nil
}

type fixture struct {
	manager  *badgerstore.Manager
	blobs    interfaces.BlobStore
	evidence *mockEvidence
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := arbor.NewLogger()
	manager, err := badgerstore.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "badger"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	root := t.TempDir()
	store, err := blob.NewStore(&common.FilesystemConfig{
		Documents: filepath.Join(root, "documents"),
		Staging:   filepath.Join(root, "staging"),
	}, logger)
	require.NoError(t, err)

	ev := &mockEvidence{}
	return &fixture{
		manager:  manager,
		blobs:    store,
		evidence: ev,
		service:  NewService(manager, store, ev, logger),
	}
}

// seedDocument creates a topic, a document with a stored blob, and the
// given number of chunk rows.
func (f *fixture) seedDocument(t *testing.T, topicName string, chunkCount int) (*models.Topic, *models.Document) {
	t.Helper()
	ctx := context.Background()

	topic := &models.Topic{ID: common.NewTopicID(), Name: topicName}
	require.NoError(t, f.manager.Topics().Create(ctx, topic))

	topicDir := common.SanitizeTopicName(topic.Name)
	key, path, err := f.blobs.GenerateUniquePath(topicDir, "paper.pdf")
	require.NoError(t, err)
	require.NoError(t, f.blobs.Write(path, []byte("pdf bytes")))

	doc := &models.Document{
		ID:      common.NewDocumentID(),
		Name:    common.PublicFileName(key, "paper.pdf"),
		Type:    "pdf",
		Size:    9,
		TopicID: topic.ID,
	}
	require.NoError(t, f.manager.Documents().Create(ctx, doc))

	chunks := make([]*models.Chunk, chunkCount)
	for i := 0; i < chunkCount; i++ {
		chunks[i] = &models.Chunk{
			ID:         common.NewChunkID(),
			Text:       fmt.Sprintf("chunk %d", i+1),
			Order:      i + 1,
			DocumentID: doc.ID,
			TopicID:    topic.ID,
		}
	}
	if chunkCount > 0 {
		require.NoError(t, f.manager.Chunks().CreateMany(ctx, chunks))
	}

	return topic, doc
}

func TestDeleteDocument_FullCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic, doc := f.seedDocument(t, "climate science", 3)

	var deletedIDs []string
	f.evidence.deleteVectorsFunc = func(ctx context.Context, gotTopic *models.Topic, chunkIDs []string) error {
		assert.Equal(t, topic.ID, gotTopic.ID)
		deletedIDs = chunkIDs
		return nil
	}

	result, err := f.service.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, result.DeletedChunks)
	assert.Equal(t, 3, result.DeletedEmbeddings)
	assert.True(t, result.FileDeleted)
	assert.Len(t, deletedIDs, 3)

	_, err = f.manager.Documents().Get(ctx, doc.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	remaining, err := f.manager.Chunks().GetByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	key, clean, ok := common.SplitPublicFileName(doc.Name)
	require.True(t, ok)
	path := f.blobs.DocumentPath(common.SanitizeTopicName(topic.Name), common.StoredFileName(key, clean))
	assert.False(t, f.blobs.Exists(path))
}

func TestDeleteDocument_MissingDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.DeleteDocument(context.Background(), "doc_missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteDocument_DoubleDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, doc := f.seedDocument(t, "nutrition", 1)

	_, err := f.service.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.service.DeleteDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteDocument_VectorFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, doc := f.seedDocument(t, "economics", 2)

	f.evidence.deleteVectorsFunc = func(ctx context.Context, topic *models.Topic, chunkIDs []string) error {
		return fmt.Errorf("vector backend unavailable")
	}

	result, err := f.service.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)

	// Vectors stayed behind but the cascade still finished.
	assert.Equal(t, 0, result.DeletedEmbeddings)
	assert.Equal(t, 2, result.DeletedChunks)
	assert.True(t, result.FileDeleted)

	_, err = f.manager.Documents().Get(ctx, doc.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteDocument_MalformedNameSkipsBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic := &models.Topic{ID: common.NewTopicID(), Name: "history"}
	require.NoError(t, f.manager.Topics().Create(ctx, topic))

	doc := &models.Document{
		ID:      common.NewDocumentID(),
		Name:    "no-key-separator.pdf",
		Type:    "pdf",
		TopicID: topic.ID,
	}
	require.NoError(t, f.manager.Documents().Create(ctx, doc))

	result, err := f.service.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, result.FileDeleted)
}

func TestDeleteDocument_BlobAlreadyAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic, doc := f.seedDocument(t, "physics", 1)

	key, clean, ok := common.SplitPublicFileName(doc.Name)
	require.True(t, ok)
	path := f.blobs.DocumentPath(common.SanitizeTopicName(topic.Name), common.StoredFileName(key, clean))
	require.NoError(t, os.Remove(path))

	result, err := f.service.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, result.FileDeleted)
	assert.Equal(t, 1, result.DeletedChunks)
}

func TestDeleteTopic_RemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic, docA := f.seedDocument(t, "geology", 2)

	// Second document under the same topic.
	topicDir := common.SanitizeTopicName(topic.Name)
	key, path, err := f.blobs.GenerateUniquePath(topicDir, "survey.txt")
	require.NoError(t, err)
	require.NoError(t, f.blobs.Write(path, []byte("text")))
	docB := &models.Document{
		ID:      common.NewDocumentID(),
		Name:    common.PublicFileName(key, "survey.txt"),
		Type:    "txt",
		TopicID: topic.ID,
	}
	require.NoError(t, f.manager.Documents().Create(ctx, docB))

	collectionDropped := false
	f.evidence.deleteCollectionFunc = func(ctx context.Context, gotTopic *models.Topic) error {
		assert.Equal(t, topic.ID, gotTopic.ID)
		collectionDropped = true
		return nil
	}

	require.NoError(t, f.service.DeleteTopic(ctx, topic.ID))

	assert.True(t, collectionDropped)

	_, err = f.manager.Topics().Get(ctx, topic.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.manager.Documents().Get(ctx, docA.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.manager.Documents().Get(ctx, docB.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteTopic_MissingTopic(t *testing.T) {
	f := newFixture(t)

	err := f.service.DeleteTopic(context.Background(), "topic_missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
