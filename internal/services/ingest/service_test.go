package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/ternarybob/citatum/internal/services/loader"
	badgerstore "github.com/ternarybob/citatum/internal/storage/badger"
	"github.com/ternarybob/citatum/internal/storage/blob"
)

type mockEvidence struct {
	indexFunc func(ctx context.Context, topic *models.Topic, chunks []*models.Chunk, reset bool) error
}

func (m *mockEvidence) Index(ctx context.Context, topic *models.Topic, chunks []*models.Chunk, reset bool) error {
	if m.indexFunc != nil {
		return m.indexFunc(ctx, topic, chunks, reset)
	}
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

func (m *mockEvidence) ResetCollection(ctx context.Context, topic *models.Topic) error { return nil }

func (m *mockEvidence) DeleteVectors(ctx context.Context, topic *models.Topic, chunkIDs []string) error {
	return nil
}

func (m *mockEvidence) DeleteCollection(ctx context.Context, topic *models.Topic) error { return nil }

type fixture struct {
	manager  *badgerstore.Manager
	blobs    interfaces.BlobStore
	evidence *mockEvidence
	config   *common.Config
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
	blobs, err := blob.NewStore(&common.FilesystemConfig{
		Documents: filepath.Join(root, "documents"),
		Staging:   filepath.Join(root, "staging"),
	}, logger)
	require.NoError(t, err)

	config := common.NewDefaultConfig()
	config.Chunking.MaxChars = 100

	ev := &mockEvidence{}
	return &fixture{
		manager:  manager,
		blobs:    blobs,
		evidence: ev,
		config:   config,
		service:  NewService(manager, blobs, loader.NewRegistry(logger), ev, config, logger),
	}
}

// stageText writes a staged text upload and returns a payload describing it.
func (f *fixture) stageText(t *testing.T, topicID, fileName, content string) *models.ProcessDocumentPayload {
	t.Helper()

	path := f.blobs.StagePath("task_test_" + fileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return &models.ProcessDocumentPayload{
		TopicID:     topicID,
		FileName:    fileName,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		StagedPath:  path,
	}
}

func TestProcess_TextDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic := &models.Topic{ID: common.NewTopicID(), Name: "climate science"}
	require.NoError(t, f.manager.Topics().Create(ctx, topic))

	var line strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&line, "Sentence %d about warming trends in ocean data.\n", i)
	}
	content := line.String()

	payload := f.stageText(t, topic.ID, "notes (draft).txt", content)
	payload.Title = "Ocean Warming Notes"
	payload.DOI = "10.1000/owd.2026"
	result, err := f.service.Process(ctx, payload)
	require.NoError(t, err)

	// MaxChars 100 forces the ~240 chars of text into multiple chunks.
	assert.GreaterOrEqual(t, result.ChunksCount, 2)
	assert.Equal(t, result.ChunksCount, result.ChunksIndexed)
	assert.Empty(t, result.IndexError)
	assert.NotEmpty(t, result.DocumentID)

	doc, err := f.manager.Documents().Get(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentTypeTXT, doc.Type)
	assert.Equal(t, int64(len(content)), doc.Size)
	assert.Contains(t, doc.Name, "*notes_draft.txt")
	assert.Equal(t, "notes (draft).txt", doc.Metadata["file_name"])
	assert.Equal(t, "text/plain", doc.Metadata["content_type"])
	assert.Equal(t, "Ocean Warming Notes", doc.Metadata["title"])
	assert.Equal(t, "10.1000/owd.2026", doc.Metadata["doi"])
	assert.NotContains(t, doc.Metadata, "author")
	assert.Equal(t, "Ocean Warming Notes", doc.Title)

	chunks, err := f.manager.Chunks().GetByDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunksCount)
	for i, chunk := range chunks {
		assert.Equal(t, i+1, chunk.Order)
		assert.Equal(t, result.DocumentID, chunk.Metadata["document_id"])
	}

	// The staged copy is gone; the stored blob exists.
	_, err = os.Stat(payload.StagedPath)
	assert.True(t, os.IsNotExist(err))

	key, clean, ok := common.SplitPublicFileName(doc.Name)
	require.True(t, ok)
	stored := f.blobs.DocumentPath(common.SanitizeTopicName(topic.Name), common.StoredFileName(key, clean))
	assert.True(t, f.blobs.Exists(stored))
}

func TestProcess_MissingTopic(t *testing.T) {
	f := newFixture(t)

	payload := f.stageText(t, "topic_missing", "a.txt", "some text")
	_, err := f.service.Process(context.Background(), payload)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProcess_UnsupportedContentType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic := &models.Topic{ID: common.NewTopicID(), Name: "chemistry"}
	require.NoError(t, f.manager.Topics().Create(ctx, topic))

	payload := f.stageText(t, topic.ID, "data.csv", "a,b,c")
	payload.ContentType = "text/csv"

	_, err := f.service.Process(ctx, payload)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestProcess_FileTooLarge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic := &models.Topic{ID: common.NewTopicID(), Name: "biology"}
	require.NoError(t, f.manager.Topics().Create(ctx, topic))

	f.config.Upload.MaxFileSize = 10
	f.service = NewService(f.manager, f.blobs, loader.NewRegistry(arbor.NewLogger()), f.evidence, f.config, arbor.NewLogger())

	payload := f.stageText(t, topic.ID, "big.txt", strings.Repeat("x", 50))
	_, err := f.service.Process(ctx, payload)
	assert.ErrorIs(t, err, models.ErrValidation)

	docs, err := f.manager.Documents().GetByTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestProcess_IndexFailureKeepsChunks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic := &models.Topic{ID: common.NewTopicID(), Name: "astronomy"}
	require.NoError(t, f.manager.Topics().Create(ctx, topic))

	f.evidence.indexFunc = func(ctx context.Context, topic *models.Topic, chunks []*models.Chunk, reset bool) error {
		return fmt.Errorf("embedding provider unavailable")
	}

	payload := f.stageText(t, topic.ID, "stars.txt", "A long enough line about stellar nucleosynthesis.\n")
	result, err := f.service.Process(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ChunksIndexed)
	assert.Contains(t, result.IndexError, "embedding provider unavailable")

	chunks, err := f.manager.Chunks().GetByDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Len(t, chunks, result.ChunksCount)
}

func TestProcess_EmptyTextSkipsIndexing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topic := &models.Topic{ID: common.NewTopicID(), Name: "geography"}
	require.NoError(t, f.manager.Topics().Create(ctx, topic))

	indexed := false
	f.evidence.indexFunc = func(ctx context.Context, topic *models.Topic, chunks []*models.Chunk, reset bool) error {
		indexed = true
		return nil
	}

	payload := f.stageText(t, topic.ID, "empty.txt", "\n\n")
	result, err := f.service.Process(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ChunksCount)
	assert.False(t, indexed)
}
