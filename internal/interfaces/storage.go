package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/citatum/internal/models"
)

// TopicStorage - interface for topic persistence
type TopicStorage interface {
	Create(ctx context.Context, topic *models.Topic) error
	Get(ctx context.Context, id string) (*models.Topic, error)
	GetByName(ctx context.Context, name string) (*models.Topic, error)
	List(ctx context.Context) ([]*models.Topic, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// DocumentStorage - interface for document metadata persistence
type DocumentStorage interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	GetByTopic(ctx context.Context, topicID string) ([]*models.Document, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByTopic(ctx context.Context, topicID string) (int, error)
}

// ChunkStorage - interface for chunk persistence. Chunks move in bulk:
// created with their document, deleted with their document.
type ChunkStorage interface {
	CreateMany(ctx context.Context, chunks []*models.Chunk) error
	Get(ctx context.Context, id string) (*models.Chunk, error)
	GetByDocument(ctx context.Context, documentID string) ([]*models.Chunk, error)
	GetByDocumentPaged(ctx context.Context, documentID string, offset, limit int) ([]*models.Chunk, error)
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
	CountByDocument(ctx context.Context, documentID string) (int, error)
}

// TaskStorage - interface for task execution records. Insert enforces
// uniqueness of (TaskName, ArgsHash, ExternalTaskID) at the store level.
type TaskStorage interface {
	Insert(ctx context.Context, exec *models.TaskExecution) error
	Get(ctx context.Context, executionID string) (*models.TaskExecution, error)
	GetByExternalID(ctx context.Context, externalTaskID string) (*models.TaskExecution, error)
	Update(ctx context.Context, exec *models.TaskExecution) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	Topics() TopicStorage
	Documents() DocumentStorage
	Chunks() ChunkStorage
	Tasks() TaskStorage
	Close() error
}

// BlobStore persists raw uploaded files on the local filesystem, one
// directory per topic.
type BlobStore interface {
	GenerateUniquePath(topicDir, cleanName string) (key, path string, err error)
	Write(path string, data []byte) error
	Read(path string) ([]byte, error)
	Delete(path string) error
	Exists(path string) bool
	DocumentPath(topicDir, storedName string) string
	StagePath(name string) string
}
