package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "badger"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func createTestTopic(t *testing.T, m *Manager, name string) *models.Topic {
	t.Helper()

	topic := &models.Topic{
		ID:   common.NewTopicID(),
		Name: name,
	}
	require.NoError(t, m.Topics().Create(context.Background(), topic))
	return topic
}

func TestTopicStorage_CreateAndGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	topic := createTestTopic(t, m, "climate science")

	got, err := m.Topics().Get(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, "climate science", got.Name)

	byName, err := m.Topics().GetByName(ctx, "climate science")
	require.NoError(t, err)
	assert.Equal(t, topic.ID, byName.ID)
}

func TestTopicStorage_DuplicateName(t *testing.T) {
	m := newTestManager(t)

	createTestTopic(t, m, "vaccines")

	dup := &models.Topic{ID: common.NewTopicID(), Name: "vaccines"}
	err := m.Topics().Create(context.Background(), dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTopicStorage_GetMissing(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Topics().Get(context.Background(), "topic_missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDocumentStorage_Lifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	topic := createTestTopic(t, m, "nutrition")

	doc := &models.Document{
		ID:      common.NewDocumentID(),
		Name:    "abc12345*paper.pdf",
		Type:    models.DocumentTypePDF,
		Size:    1024,
		TopicID: topic.ID,
	}
	require.NoError(t, m.Documents().Create(ctx, doc))

	got, err := m.Documents().Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc12345*paper.pdf", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	byTopic, err := m.Documents().GetByTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Len(t, byTopic, 1)

	count, err := m.Documents().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, m.Documents().Delete(ctx, doc.ID))
	_, err = m.Documents().Get(ctx, doc.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Second delete raises, callers rely on it for idempotency checks
	err = m.Documents().Delete(ctx, doc.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDocumentStorage_CountByTopic(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	topicA := createTestTopic(t, m, "nutrition")
	topicB := createTestTopic(t, m, "economics")

	for i := 0; i < 2; i++ {
		doc := &models.Document{
			ID:      common.NewDocumentID(),
			Name:    fmt.Sprintf("key%d*paper%d.pdf", i, i),
			Type:    models.DocumentTypePDF,
			TopicID: topicA.ID,
		}
		require.NoError(t, m.Documents().Create(ctx, doc))
	}

	countA, err := m.Documents().CountByTopic(ctx, topicA.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, countA)

	countB, err := m.Documents().CountByTopic(ctx, topicB.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, countB)

	total, err := m.Documents().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestChunkStorage_OrderAndPaging(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	docID := common.NewDocumentID()
	chunks := make([]*models.Chunk, 5)
	// Insert out of order to prove reads sort by Order
	for i, order := range []int{3, 1, 5, 2, 4} {
		chunks[i] = &models.Chunk{
			ID:         common.NewChunkID(),
			Text:       fmt.Sprintf("chunk %d", order),
			Order:      order,
			DocumentID: docID,
			TopicID:    "topic_x",
		}
	}
	require.NoError(t, m.Chunks().CreateMany(ctx, chunks))

	all, err := m.Chunks().GetByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, chunk := range all {
		assert.Equal(t, i+1, chunk.Order)
	}

	page, err := m.Chunks().GetByDocumentPaged(ctx, docID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 3, page[0].Order)
	assert.Equal(t, 4, page[1].Order)

	count, err := m.Chunks().CountByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestChunkStorage_DeleteByDocument(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	docID := common.NewDocumentID()
	otherDocID := common.NewDocumentID()
	require.NoError(t, m.Chunks().CreateMany(ctx, []*models.Chunk{
		{ID: common.NewChunkID(), Text: "a", Order: 1, DocumentID: docID, TopicID: "t"},
		{ID: common.NewChunkID(), Text: "b", Order: 2, DocumentID: docID, TopicID: "t"},
		{ID: common.NewChunkID(), Text: "c", Order: 1, DocumentID: otherDocID, TopicID: "t"},
	}))

	deleted, err := m.Chunks().DeleteByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	count, err := m.Chunks().CountByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Other document's chunks untouched
	count, err = m.Chunks().CountByDocument(ctx, otherDocID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTaskStorage_DuplicateInsert(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	exec := &models.TaskExecution{
		ExecutionID:    common.NewTaskID(),
		TaskName:       "document_process",
		ArgsHash:       "hash1",
		ExternalTaskID: "task_ext_1",
		Status:         models.TaskStatusPending,
	}
	require.NoError(t, m.Tasks().Insert(ctx, exec))

	// Same triple, different execution id
	dup := &models.TaskExecution{
		ExecutionID:    common.NewTaskID(),
		TaskName:       "document_process",
		ArgsHash:       "hash1",
		ExternalTaskID: "task_ext_1",
		Status:         models.TaskStatusPending,
	}
	err := m.Tasks().Insert(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDuplicateTask)

	// Different args hash is a different execution
	other := &models.TaskExecution{
		ExecutionID:    common.NewTaskID(),
		TaskName:       "document_process",
		ArgsHash:       "hash2",
		ExternalTaskID: "task_ext_1",
		Status:         models.TaskStatusPending,
	}
	assert.NoError(t, m.Tasks().Insert(ctx, other))
}

func TestTaskStorage_GetAndUpdate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	exec := &models.TaskExecution{
		ExecutionID:    common.NewTaskID(),
		TaskName:       "document_process",
		ArgsHash:       "h",
		ExternalTaskID: "task_ext_9",
		Status:         models.TaskStatusPending,
	}
	require.NoError(t, m.Tasks().Insert(ctx, exec))

	got, err := m.Tasks().Get(ctx, exec.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, got.Status)

	got.Status = models.TaskStatusSuccess
	require.NoError(t, m.Tasks().Update(ctx, got))

	byExt, err := m.Tasks().GetByExternalID(ctx, "task_ext_9")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusSuccess, byExt.Status)
}

func TestTaskStorage_DeleteOlderThan(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	old := &models.TaskExecution{
		ExecutionID:    common.NewTaskID(),
		TaskName:       "document_process",
		ArgsHash:       "old",
		ExternalTaskID: "task_old",
		Status:         models.TaskStatusSuccess,
		CreatedAt:      time.Now().Add(-30 * 24 * time.Hour),
	}
	require.NoError(t, m.Tasks().Insert(ctx, old))

	recent := &models.TaskExecution{
		ExecutionID:    common.NewTaskID(),
		TaskName:       "document_process",
		ArgsHash:       "recent",
		ExternalTaskID: "task_recent",
		Status:         models.TaskStatusSuccess,
	}
	require.NoError(t, m.Tasks().Insert(ctx, recent))

	deleted, err := m.Tasks().DeleteOlderThan(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = m.Tasks().GetByExternalID(ctx, "task_old")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = m.Tasks().GetByExternalID(ctx, "task_recent")
	assert.NoError(t, err)
}
